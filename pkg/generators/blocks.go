package generators

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/goliatone/go-packforge/pkg/artifact"
	"github.com/goliatone/go-packforge/pkg/pipeline"
)

// ItemQueue names the staging queue the items generator drains. Producers
// for the item category append to it.
const ItemQueue = "items"

// Logger is the minimal logging surface the built-in generators need.
type Logger interface {
	Printf(format string, args ...any)
}

// BlocksOption customises the blocks generator.
type BlocksOption func(*Blocks)

// BlocksWithLogger injects a logger. Defaults to the stdlib logger.
func BlocksWithLogger(logger Logger) BlocksOption {
	return func(g *Blocks) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Blocks is a producer generator: it scans the block source tree and stages
// the item-form definition of every block onto the item queue, so each
// block gets an inventory model entry in the dispatch tables. Converting
// the block geometry itself is a separate generator's concern.
type Blocks struct {
	logger Logger
}

// NewBlocks constructs the blocks generator.
func NewBlocks(options ...BlocksOption) *Blocks {
	g := &Blocks{logger: log.Default()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

func (g *Blocks) Name() string { return "blocks" }

// Priority runs the blocks producer in the earliest phase, before any
// queue-draining generator.
func (g *Blocks) Priority() int { return pipeline.DefaultPriority }

// Generate stages one item definition per block source definition.
func (g *Blocks) Generate(ctx context.Context, run *pipeline.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	defs, bad, err := artifact.Discover(filepath.Join(run.SourceRoot, "blocks"))
	if err != nil {
		return fmt.Errorf("blocks: discover sources: %w", err)
	}
	for _, fileErr := range bad {
		g.logger.Printf("blocks: %v", fileErr)
	}

	queue := run.Queue(ItemQueue)
	for _, def := range defs {
		if _, err := def.TypeList(); err != nil {
			g.logger.Printf("blocks: skipping %s: %v", def.Path, err)
			continue
		}
		queue.Add(def)
	}
	return nil
}
