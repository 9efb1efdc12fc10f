package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/goliatone/go-packforge/pkg/resolver"
)

// Logger is the minimal logging surface the merge engine needs.
type Logger interface {
	Printf(format string, args ...any)
}

// Lookup resolves a category type's default fallback model from the
// reference dataset. The second return reports whether the type is known.
type Lookup interface {
	Lookup(itemType string) (any, bool)
}

// Assignment reports one reference's placement in a table. Used only for
// human-facing reporting, never read back by the merge logic.
type Assignment struct {
	Type      string
	Folder    string
	ID        string
	Threshold int
}

// Option customises the merger configuration.
type Option func(*Merger)

// WithLogger injects a logger. Defaults to the stdlib logger.
func WithLogger(logger Logger) Option {
	return func(m *Merger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLookup injects the reference dataset used for default fallbacks when
// a type has no existing table.
func WithLookup(lookup Lookup) Option {
	return func(m *Merger) {
		m.lookup = lookup
	}
}

// Merger folds resolved references into per-type dispatch tables.
//
// Threshold assignment is hash-stable: a threshold is a pure function of
// the artifact's folder/id pair, so rebuilds reproduce identical tables
// without persisted counters. The price is that colliding references are
// skipped with a warning rather than relocated; the older policy of
// appending at the next free sequential slot was rejected because its
// thresholds drift as the artifact set changes.
type Merger struct {
	dir      string
	category string
	lookup   Lookup
	logger   Logger
}

// NewMerger constructs a Merger writing tables under dir (one <type>.json
// per category type) for artifacts of the given category.
func NewMerger(dir, category string, options ...Option) *Merger {
	m := &Merger{
		dir:      dir,
		category: category,
		logger:   log.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

// MergeAll groups references by category type and merges each type's table
// in its own task. The fan-out is safe without locking because each type
// owns exactly one table file and exactly one task writes it. Failed types
// are logged and skipped; the rest persist normally.
func (m *Merger) MergeAll(ctx context.Context, refs []resolver.Reference) map[string][]Assignment {
	if len(refs) == 0 {
		return nil
	}

	byType := make(map[string][]resolver.Reference)
	var order []string
	for _, ref := range refs {
		if _, seen := byType[ref.Type]; !seen {
			order = append(order, ref.Type)
		}
		byType[ref.Type] = append(byType[ref.Type], ref)
	}

	results := make([][]Assignment, len(order))
	var wg sync.WaitGroup
	for i, typ := range order {
		wg.Add(1)
		go func(i int, typ string) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				return
			}
			assigned, err := m.mergeType(typ, byType[typ])
			if err != nil {
				m.logger.Printf("dispatch: merge %s: %v", typ, err)
				return
			}
			results[i] = assigned
		}(i, typ)
	}
	wg.Wait()

	out := make(map[string][]Assignment, len(order))
	for i, typ := range order {
		if results[i] != nil {
			out[typ] = results[i]
		}
	}
	return out
}

// mergeType rebuilds one type's table: load or synthesize, pop the trailing
// fallback-echo, insert hash-stable entries, conditionally echo the
// fallback at the adjacent slot, persist.
func (m *Merger) mergeType(typ string, refs []resolver.Reference) ([]Assignment, error) {
	path := filepath.Join(m.dir, typ+".json")

	table, err := LoadTable(path)
	if err != nil {
		if !errors.Is(err, ErrInvalidTable) {
			return nil, err
		}
		m.logger.Printf("dispatch: %v; synthesizing default", err)
		table = nil
	}
	if table == nil {
		table = NewTable(m.defaultFallback(typ))
	}

	if n := len(table.Selector.Entries); n > 0 {
		// The trailing entry is the previous run's fallback-echo.
		table.Selector.Entries = table.Selector.Entries[:n-1]
	}
	used := table.usedThresholds()

	assigned := make([]Assignment, 0, len(refs))
	for _, ref := range refs {
		threshold := Threshold(ref.Folder, ref.ID)
		if used[threshold] {
			m.logger.Printf("dispatch: %s: threshold %d for %s already in use; entry skipped", typ, threshold, ref.Key())
			continue
		}

		table.Selector.Entries = append(table.Selector.Entries, Entry{
			Threshold: threshold,
			Model:     m.entryModel(typ, ref, table.Selector.Fallback),
		})
		used[threshold] = true
		assigned = append(assigned, Assignment{
			Type:      typ,
			Folder:    ref.Folder,
			ID:        ref.ID,
			Threshold: threshold,
		})

		// Reserve the adjacent slot so this range cannot shadow the
		// fallback for directly following property values.
		if !used[threshold+1] {
			table.Selector.Entries = append(table.Selector.Entries, Entry{
				Threshold: threshold + 1,
				Model:     table.Selector.Fallback,
			})
			used[threshold+1] = true
		}
	}

	// Conditionally restore the trailing fallback-echo. When every
	// reference collided (the re-run case: each entry already sits at its
	// hash), nothing re-added the echo popped above, and without it the
	// last custom range would bleed into the fallback.
	if n := len(table.Selector.Entries); n > 0 {
		last := table.Selector.Entries[n-1]
		if !reflect.DeepEqual(last.Model, table.Selector.Fallback) && !used[last.Threshold+1] {
			table.Selector.Entries = append(table.Selector.Entries, Entry{
				Threshold: last.Threshold + 1,
				Model:     table.Selector.Fallback,
			})
		}
	}

	if err := table.Persist(path); err != nil {
		return nil, err
	}
	return assigned, nil
}

// entryModel builds the model tree for one entry: the definition's
// override template with placeholders substituted when present, else a
// plain reference to the written model.
func (m *Merger) entryModel(typ string, ref resolver.Reference, fallback any) any {
	path := m.category + "/" + ref.Key()
	if ref.Template == nil {
		return ModelReference(path)
	}
	return Substitute(ref.Template, Values{
		Model:    path,
		Type:     typ,
		Parent:   ref.Namespace,
		Folder:   ref.Folder,
		ID:       ref.ID,
		Fallback: fallback,
	})
}

func (m *Merger) defaultFallback(typ string) any {
	if m.lookup != nil {
		if model, ok := m.lookup.Lookup(typ); ok {
			return model
		}
	}
	return ModelReference(fmt.Sprintf("%s/%s", m.category, typ))
}
