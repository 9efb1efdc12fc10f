package generators

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/goliatone/go-packforge/pkg/artifact"
	"github.com/goliatone/go-packforge/pkg/dispatch"
	"github.com/goliatone/go-packforge/pkg/pipeline"
	"github.com/goliatone/go-packforge/pkg/resolver"
	"github.com/goliatone/go-packforge/pkg/vanilla"
)

const (
	itemCategory  = "item"
	itemSourceDir = "items"
	itemTablesDir = "items"

	// itemsPriority places the terminal generator after every producer.
	itemsPriority = 9
)

// SnapshotProvider obtains the reference dataset for a game version.
// *vanilla.Client satisfies it.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, version string) (*vanilla.Snapshot, error)
}

// ItemsOption customises the items generator.
type ItemsOption func(*Items)

// ItemsWithLogger injects a logger. Defaults to the stdlib logger.
func ItemsWithLogger(logger Logger) ItemsOption {
	return func(g *Items) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Items is the item category's terminal generator. It drains the item
// staging queue, scans the item source directory, resolves the combined
// worklist, and merges the resolved references into the per-type dispatch
// tables.
type Items struct {
	version   string
	snapshots SnapshotProvider
	logger    Logger
}

// NewItems constructs the items generator for a target game version.
func NewItems(version string, snapshots SnapshotProvider, options ...ItemsOption) *Items {
	g := &Items{
		version:   version,
		snapshots: snapshots,
		logger:    log.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

func (g *Items) Name() string { return "items" }

func (g *Items) Priority() int { return itemsPriority }

// Generate builds the combined worklist (queued definitions first, then
// disk-discovered ones in traversal order), resolves it, and merges. When
// the worklist is empty nothing is touched, so existing tables survive
// byte-identical. An unobtainable reference dataset aborts the whole run
// when any contributing type lacks an existing table.
func (g *Items) Generate(ctx context.Context, run *pipeline.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	queued := run.Queue(ItemQueue).DrainAndClear()

	categoryRoot := filepath.Join(run.SourceRoot, itemSourceDir)
	disk, bad, err := artifact.Discover(categoryRoot)
	if err != nil {
		return fmt.Errorf("items: discover sources: %w", err)
	}
	for _, fileErr := range bad {
		g.logger.Printf("items: %v", fileErr)
	}

	defs := make([]artifact.Definition, 0, len(queued)+len(disk))
	defs = append(defs, queued...)
	defs = append(defs, disk...)
	if len(defs) == 0 {
		return nil
	}

	tablesDir := filepath.Join(run.OutputRoot, itemTablesDir)
	lookup, err := g.referenceLookup(ctx, defs, tablesDir)
	if err != nil {
		return err
	}

	res := resolver.New(itemCategory, resolver.WithLogger(g.logger))
	refs := res.ResolveAll(ctx, defs, categoryRoot, run.OutputRoot)

	merger := dispatch.NewMerger(tablesDir, itemCategory,
		dispatch.WithLookup(lookup),
		dispatch.WithLogger(g.logger),
	)
	run.Record(merger.MergeAll(ctx, refs))
	return nil
}

// referenceLookup fetches the vanilla snapshot for the configured version.
// A fetch failure is fatal only when some contributing type has no existing
// table, because that is the case where no safe default fallback model can
// be synthesized; otherwise the run continues without the dataset.
func (g *Items) referenceLookup(ctx context.Context, defs []artifact.Definition, tablesDir string) (dispatch.Lookup, error) {
	if g.snapshots == nil {
		return nil, nil
	}

	snapshot, err := g.snapshots.Snapshot(ctx, g.version)
	if err == nil {
		return snapshot, nil
	}

	for _, def := range defs {
		types, typeErr := def.TypeList()
		if typeErr != nil {
			continue
		}
		for _, typ := range types {
			if _, statErr := os.Stat(filepath.Join(tablesDir, typ+".json")); statErr != nil {
				return nil, fmt.Errorf("items: reference dataset for version %s unavailable (%v) and type %q has no existing table: %w",
					g.version, err, typ, pipeline.ErrFatal)
			}
		}
	}

	g.logger.Printf("items: reference dataset for version %s unavailable (%v); existing tables cover all types", g.version, err)
	return nil, nil
}
