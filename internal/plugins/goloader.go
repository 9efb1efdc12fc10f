// Package plugins implements the pipeline's plugin-loader port by
// interpreting Go generator modules at runtime with yaegi.
package plugins

import (
	"context"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/goliatone/go-packforge/pkg/pipeline"
)

const (
	entryFuncName  = "Generate"
	prioritySymbol = "Priority"
	nameSymbol     = "Name"
)

// Logger is the minimal logging surface the loader needs.
type Logger interface {
	Printf(format string, args ...any)
}

// Option customises the loader configuration.
type Option func(*GoLoader)

// WithLogger injects a logger. Defaults to the stdlib logger.
func WithLogger(logger Logger) Option {
	return func(l *GoLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// GoLoader scans a generators directory recursively and evaluates every
// .go file as an independent generator module. A module must export
// Generate(sourceRoot, outputRoot string) error and may export Priority
// (int) and Name (string). Files that fail to interpret or lack a valid
// entry function are logged and excluded; they never abort discovery.
type GoLoader struct {
	logger Logger
}

// NewGoLoader constructs a GoLoader.
func NewGoLoader(options ...Option) *GoLoader {
	l := &GoLoader{logger: log.Default()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

var _ pipeline.Loader = (*GoLoader)(nil)

// Load implements pipeline.Loader. Modules are returned in directory
// traversal order; the orchestrator's stable sort keeps that order for
// equal priorities.
func (l *GoLoader) Load(ctx context.Context, dir string) ([]pipeline.Descriptor, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(trimmed, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var descs []pipeline.Descriptor
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return descs, err
		}
		desc, err := l.loadModule(path)
		if err != nil {
			l.logger.Printf("plugins: %s excluded: %v", path, err)
			continue
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

func (l *GoLoader) loadModule(path string) (pipeline.Descriptor, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return pipeline.Descriptor{}, err
	}
	if _, err := i.EvalPath(path); err != nil {
		return pipeline.Descriptor{}, err
	}

	fnValue, err := i.Eval(entryFuncName)
	if err != nil {
		return pipeline.Descriptor{}, err
	}
	entry, ok := fnValue.Interface().(func(string, string) error)
	if !ok {
		return pipeline.Descriptor{}, errInvalidEntry
	}

	desc := pipeline.Descriptor{
		Generate: entry,
		Priority: pipeline.DefaultPriority,
		Name:     strings.TrimSuffix(filepath.Base(path), ".go"),
	}
	if value, err := i.Eval(prioritySymbol); err == nil {
		if priority, ok := value.Interface().(int); ok {
			desc.Priority = priority
		}
	}
	if value, err := i.Eval(nameSymbol); err == nil {
		if name, ok := value.Interface().(string); ok && strings.TrimSpace(name) != "" {
			desc.Name = strings.TrimSpace(name)
		}
	}
	return desc, nil
}
