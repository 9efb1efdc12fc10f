package dispatch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-packforge/pkg/dispatch"
	"github.com/goliatone/go-packforge/pkg/resolver"
)

type stubLookup struct {
	models map[string]any
}

func (s stubLookup) Lookup(itemType string) (any, bool) {
	model, ok := s.models[itemType]
	return model, ok
}

type captureLogger struct {
	lines []string
}

func (l *captureLogger) Printf(format string, args ...any) {
	l.lines = append(l.lines, format)
}

func newMerger(t *testing.T, dir string, lookup dispatch.Lookup) *dispatch.Merger {
	t.Helper()
	return dispatch.NewMerger(dir, "item",
		dispatch.WithLookup(lookup),
		dispatch.WithLogger(&captureLogger{}),
	)
}

func TestMergeAll_SynthesizesDefaultTable(t *testing.T) {
	dir := t.TempDir()
	fallback := map[string]any{"type": "model", "model": "item/apple"}
	merger := newMerger(t, dir, stubLookup{models: map[string]any{"apple": fallback}})

	refs := []resolver.Reference{{Type: "apple", Folder: "red_apple", ID: "red_apple"}}
	assigned := merger.MergeAll(context.Background(), refs)

	if len(assigned["apple"]) != 1 {
		t.Fatalf("assignments = %#v", assigned)
	}
	want := dispatch.Threshold("red_apple", "red_apple")
	if got := assigned["apple"][0].Threshold; got != want {
		t.Fatalf("threshold = %d, want %d", got, want)
	}

	table, err := dispatch.LoadTable(filepath.Join(dir, "apple.json"))
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	if diff := cmp.Diff(fallback, table.Selector.Fallback); diff != "" {
		t.Fatalf("fallback mismatch (-want +got):\n%s", diff)
	}
	// One custom entry plus the fallback-echo at threshold+1.
	if len(table.Selector.Entries) != 2 {
		t.Fatalf("entries = %#v", table.Selector.Entries)
	}
	if table.Selector.Entries[1].Threshold != want+1 {
		t.Fatalf("echo threshold = %d, want %d", table.Selector.Entries[1].Threshold, want+1)
	}
	if diff := cmp.Diff(fallback, table.Selector.Entries[1].Model); diff != "" {
		t.Fatalf("echo model mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeAll_ThresholdsAreUnique(t *testing.T) {
	dir := t.TempDir()
	merger := newMerger(t, dir, nil)

	refs := []resolver.Reference{
		{Type: "apple", Folder: "red_apple", ID: "red_apple"},
		{Type: "apple", Folder: "green_apple", ID: "green_apple"},
		{Type: "apple", Folder: "tools", ID: "ruby_pickaxe"},
	}
	merger.MergeAll(context.Background(), refs)

	table, err := dispatch.LoadTable(filepath.Join(dir, "apple.json"))
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	seen := map[int]bool{}
	for _, entry := range table.Selector.Entries {
		if seen[entry.Threshold] {
			t.Fatalf("duplicate threshold %d", entry.Threshold)
		}
		seen[entry.Threshold] = true
	}
}

func TestMergeAll_CollisionSkipsSecondReference(t *testing.T) {
	dir := t.TempDir()
	logger := &captureLogger{}
	merger := dispatch.NewMerger(dir, "item", dispatch.WithLogger(logger))

	// Same folder/id pair hashes identically, forcing a collision.
	refs := []resolver.Reference{
		{Type: "apple", Folder: "red_apple", ID: "red_apple"},
		{Type: "apple", Folder: "red_apple", ID: "red_apple"},
	}
	assigned := merger.MergeAll(context.Background(), refs)

	if got := len(assigned["apple"]); got != 1 {
		t.Fatalf("assignments = %d, want 1 (second reference skipped)", got)
	}
	if len(logger.lines) == 0 {
		t.Fatalf("expected a collision warning")
	}

	table, err := dispatch.LoadTable(filepath.Join(dir, "apple.json"))
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	// First reference plus echo; the colliding one contributed nothing.
	if len(table.Selector.Entries) != 2 {
		t.Fatalf("entries = %#v", table.Selector.Entries)
	}
}

func TestMergeAll_PopsPreviousEchoBeforeInserting(t *testing.T) {
	dir := t.TempDir()
	merger := newMerger(t, dir, nil)
	ctx := context.Background()

	refs := []resolver.Reference{{Type: "apple", Folder: "red_apple", ID: "red_apple"}}
	merger.MergeAll(ctx, refs)
	merger.MergeAll(ctx, refs)

	table, err := dispatch.LoadTable(filepath.Join(dir, "apple.json"))
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	// Re-merging the same reference must not grow the table: the previous
	// echo is popped, the entry collides-free against itself being absent,
	// and the echo is re-added.
	if len(table.Selector.Entries) != 2 {
		t.Fatalf("entries after re-merge = %#v", table.Selector.Entries)
	}
}

func TestMergeAll_RerunIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	merger := newMerger(t, dir, stubLookup{models: map[string]any{
		"apple": map[string]any{"type": "model", "model": "item/apple"},
	}})
	ctx := context.Background()

	refs := []resolver.Reference{
		{Type: "apple", Folder: "red_apple", ID: "red_apple"},
		{Type: "apple", Folder: "tools", ID: "ruby_pickaxe"},
	}
	merger.MergeAll(ctx, refs)
	first, err := os.ReadFile(filepath.Join(dir, "apple.json"))
	if err != nil {
		t.Fatalf("read table: %v", err)
	}

	merger.MergeAll(ctx, refs)
	second, err := os.ReadFile(filepath.Join(dir, "apple.json"))
	if err != nil {
		t.Fatalf("read table: %v", err)
	}

	if string(first) != string(second) {
		t.Fatalf("re-run produced different bytes:\n--- first\n%s\n--- second\n%s", first, second)
	}
}

func TestMergeAll_PreservesHandEditedEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apple.json")

	existing := dispatch.NewTable(map[string]any{"type": "model", "model": "item/apple"})
	existing.Selector.Entries = []dispatch.Entry{
		{Threshold: 100, Model: map[string]any{"type": "model", "model": "item/hand_edited"}},
		{Threshold: 101, Model: map[string]any{"type": "model", "model": "item/apple"}},
	}
	if err := existing.Persist(path); err != nil {
		t.Fatalf("seed table: %v", err)
	}

	merger := newMerger(t, dir, nil)
	merger.MergeAll(context.Background(), []resolver.Reference{
		{Type: "apple", Folder: "red_apple", ID: "red_apple"},
	})

	table, err := dispatch.LoadTable(path)
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	if table.Selector.Entries[0].Threshold != 100 {
		t.Fatalf("hand-edited entry lost: %#v", table.Selector.Entries)
	}
	// Trailing echo at 101 was popped, the new entry and its echo appended.
	if len(table.Selector.Entries) != 3 {
		t.Fatalf("entries = %#v", table.Selector.Entries)
	}
}

func TestMergeAll_TemplateEntries(t *testing.T) {
	dir := t.TempDir()
	merger := newMerger(t, dir, nil)

	merger.MergeAll(context.Background(), []resolver.Reference{{
		Type:   "apple",
		Folder: "red_apple",
		ID:     "red_apple",
		Template: map[string]any{
			"type":  "condition",
			"on":    "$type",
			"model": "$model",
		},
	}})

	table, err := dispatch.LoadTable(filepath.Join(dir, "apple.json"))
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	entry, ok := table.Selector.Entries[0].Model.(map[string]any)
	if !ok {
		t.Fatalf("entry model: %T", table.Selector.Entries[0].Model)
	}
	if entry["on"] != "apple" || entry["model"] != "item/red_apple/red_apple" {
		t.Fatalf("template not substituted: %#v", entry)
	}
}

func TestMergeAll_NoReferencesTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	merger := newMerger(t, dir, nil)

	if got := merger.MergeAll(context.Background(), nil); got != nil {
		t.Fatalf("expected no assignments, got %#v", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("tables written with no references: %v", entries)
	}
}
