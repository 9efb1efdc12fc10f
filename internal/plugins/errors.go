package plugins

import "errors"

// errInvalidEntry reports a module whose Generate symbol does not match the
// plugin contract.
var errInvalidEntry = errors.New("plugins: Generate must be func(sourceRoot, outputRoot string) error")
