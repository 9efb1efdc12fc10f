package pipeline

import (
	"context"
	"errors"
)

// ErrFatal marks a generator failure that must abort the whole run instead
// of being logged and skipped. The one expected source is a terminal
// generator that cannot obtain the reference dataset for the configured
// version. Wrap it: fmt.Errorf("...: %w", pipeline.ErrFatal).
var ErrFatal = errors.New("pipeline: fatal")

// DefaultPriority is assumed when a generator does not declare a priority.
// Lower priorities run earlier.
const DefaultPriority = 1

// Generator is the contract every pipeline stage satisfies. Generators run
// strictly one at a time, in ascending priority order; later generators may
// drain staging queues that earlier ones populated.
type Generator interface {
	Name() string
	Priority() int
	Generate(ctx context.Context, run *Context) error
}

// Descriptor is the capability record a plugin loader extracts from an
// external generator module: an entry function over the run's source and
// output roots, plus optional priority and name.
type Descriptor struct {
	Generate func(sourceRoot, outputRoot string) error
	Priority int
	Name     string
}

// Loader discovers externally supplied generator modules under a directory.
// The concrete mechanism (directory scan plus dynamic load) is an adapter;
// per-module load failures are the adapter's to log and exclude, never to
// abort discovery with.
type Loader interface {
	Load(ctx context.Context, dir string) ([]Descriptor, error)
}

// GeneratorFunc adapts a plain function to the Generator contract.
func GeneratorFunc(name string, priority int, fn func(ctx context.Context, run *Context) error) Generator {
	return funcGenerator{name: name, priority: priority, fn: fn}
}

type funcGenerator struct {
	name     string
	priority int
	fn       func(ctx context.Context, run *Context) error
}

func (g funcGenerator) Name() string  { return g.name }
func (g funcGenerator) Priority() int { return g.priority }

func (g funcGenerator) Generate(ctx context.Context, run *Context) error {
	if g.fn == nil {
		return errors.New("pipeline: generator func is nil")
	}
	return g.fn(ctx, run)
}

// descriptorGenerator adapts a Descriptor to the Generator contract.
type descriptorGenerator struct {
	desc Descriptor
}

func (g descriptorGenerator) Name() string {
	if g.desc.Name != "" {
		return g.desc.Name
	}
	return "plugin"
}

func (g descriptorGenerator) Priority() int {
	if g.desc.Priority != 0 {
		return g.desc.Priority
	}
	return DefaultPriority
}

func (g descriptorGenerator) Generate(ctx context.Context, run *Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.desc.Generate == nil {
		return errors.New("pipeline: plugin descriptor has no entry function")
	}
	return g.desc.Generate(run.SourceRoot, run.OutputRoot)
}
