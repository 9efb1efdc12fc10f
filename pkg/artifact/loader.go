package artifact

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileError records a definition file that could not be parsed during
// discovery. Bad files never abort the walk; callers log them and move on.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return "artifact: " + e.Path + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error { return e.Err }

var definitionExtensions = map[string]struct{}{
	".json": {},
	".yml":  {},
	".yaml": {},
}

// Discover walks dir recursively and parses every definition file it finds,
// in directory traversal order. A missing dir yields no definitions and no
// error. Files that fail to parse are reported through the second return
// value and excluded from the result.
func Discover(dir string) ([]Definition, []FileError, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil, nil
	}
	if _, err := os.Stat(trimmed); os.IsNotExist(err) {
		return nil, nil, nil
	}

	var (
		defs []Definition
		bad  []FileError
	)
	err := filepath.WalkDir(trimmed, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := definitionExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		def, err := ParseFile(path)
		if err != nil {
			bad = append(bad, FileError{Path: path, Err: err})
			return nil
		}
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, bad, err
	}
	return defs, bad, nil
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
