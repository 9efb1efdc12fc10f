package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/goliatone/go-packforge/pkg/dispatch"
)

// Logger is the minimal logging surface the pipeline needs. The stdlib
// logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

// Option customises the pipeline configuration.
type Option func(*Pipeline)

// WithLogger injects a logger. Defaults to the stdlib logger.
func WithLogger(logger Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRegistry injects a generator registry.
func WithRegistry(registry *Registry) Option {
	return func(p *Pipeline) {
		p.registry = registry
	}
}

// WithGenerators registers built-in generators on the pipeline's registry.
func WithGenerators(gens ...Generator) Option {
	return func(p *Pipeline) {
		p.pending = append(p.pending, gens...)
	}
}

// WithLoader injects the plugin loader used to discover external generator
// modules under the plugin directory.
func WithLoader(loader Loader) Option {
	return func(p *Pipeline) {
		p.loader = loader
	}
}

// WithPluginDir points the loader at a generators directory. Empty disables
// external discovery.
func WithPluginDir(dir string) Option {
	return func(p *Pipeline) {
		p.pluginDir = dir
	}
}

// Pipeline runs generators in priority order against a shared source and
// output path pair. Ordering across generators is a correctness
// requirement: draining generators assume every producer for their
// category already ran.
type Pipeline struct {
	registry  *Registry
	loader    Loader
	pluginDir string
	logger    Logger
	pending   []Generator

	defaultsApplied bool
	initialiseErr   error
}

// New constructs a Pipeline applying any provided options. Missing
// dependencies are initialised with built-in implementations.
func New(options ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	p.applyDefaults()
	return p
}

// Result summarises one pipeline run for human-facing reporting.
type Result struct {
	// Assignments maps category type to the {folder, id, threshold} entries
	// placed during this run.
	Assignments map[string][]dispatch.Assignment
}

// Run executes one full pipeline pass: discover generator modules, order
// them ascending by priority (stable for ties), and invoke each to
// completion before the next starts. Per-generator failures are logged and
// skipped; only a generator error wrapping ErrFatal aborts the run.
func (p *Pipeline) Run(ctx context.Context, sourceRoot, outputRoot string) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("pipeline: context is required")
	}
	if err := p.initialiseErr; err != nil {
		return nil, err
	}
	if sourceRoot == "" || outputRoot == "" {
		return nil, errors.New("pipeline: source and output roots are required")
	}

	gens := p.registry.All()
	gens = append(gens, p.loadPlugins(ctx)...)
	sort.SliceStable(gens, func(i, j int) bool {
		return effectivePriority(gens[i]) < effectivePriority(gens[j])
	})

	run := newContext(sourceRoot, outputRoot, p.logger)
	for _, gen := range gens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := p.invoke(ctx, gen, run)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrFatal) {
			return nil, fmt.Errorf("pipeline: generator %q: %w", gen.Name(), err)
		}
		p.logger.Printf("pipeline: generator %q failed: %v", gen.Name(), err)
	}

	return &Result{Assignments: run.Assignments()}, nil
}

// invoke runs a single generator, converting a panic into an error so one
// misbehaving module cannot take down the remaining ones.
func (p *Pipeline) invoke(ctx context.Context, gen Generator, run *Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pipeline: generator %q panicked: %v", gen.Name(), recovered)
		}
	}()
	return gen.Generate(ctx, run)
}

// loadPlugins discovers external generator modules. Discovery failure is
// logged, never fatal: the built-in generators still run.
func (p *Pipeline) loadPlugins(ctx context.Context) []Generator {
	if p.loader == nil || p.pluginDir == "" {
		return nil
	}
	descs, err := p.loader.Load(ctx, p.pluginDir)
	if err != nil {
		p.logger.Printf("pipeline: load plugins from %s: %v", p.pluginDir, err)
		return nil
	}
	gens := make([]Generator, 0, len(descs))
	for _, desc := range descs {
		if desc.Generate == nil {
			p.logger.Printf("pipeline: plugin %q has no entry function; excluded", desc.Name)
			continue
		}
		gens = append(gens, descriptorGenerator{desc: desc})
	}
	return gens
}

func (p *Pipeline) applyDefaults() {
	if p.defaultsApplied {
		return
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	if p.registry == nil {
		p.registry = NewRegistry()
	}
	for _, gen := range p.pending {
		if gen == nil {
			continue
		}
		if err := p.registry.Register(gen); err != nil {
			p.initialiseErr = err
		}
	}
	p.pending = nil
	p.defaultsApplied = true
}

func effectivePriority(gen Generator) int {
	if pr := gen.Priority(); pr != 0 {
		return pr
	}
	return DefaultPriority
}
