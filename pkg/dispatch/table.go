package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// SelectorKind identifies the one selector shape this schema version
	// supports: pick a model by numeric property range.
	SelectorKind = "range_dispatch"

	// SelectorProperty is the numeric property thresholds are matched on.
	SelectorProperty = "custom_model_data"
)

// Entry activates a model at a given property threshold.
type Entry struct {
	Threshold int `json:"threshold"`
	Model     any `json:"model"`
}

// Selector is the root selector of a dispatch table.
type Selector struct {
	Kind     string  `json:"type"`
	Property string  `json:"property"`
	Fallback any     `json:"fallback"`
	Entries  []Entry `json:"entries"`
}

// Table is the persisted per-type dispatch definition. It is loaded,
// mutated, and rewritten wholesale on every run that touches its type.
type Table struct {
	Selector Selector `json:"model"`
}

// NewTable synthesizes a default table around the given fallback model.
func NewTable(fallback any) *Table {
	return &Table{
		Selector: Selector{
			Kind:     SelectorKind,
			Property: SelectorProperty,
			Fallback: fallback,
		},
	}
}

// ModelReference builds a plain reference to a written model artifact.
func ModelReference(path string) map[string]any {
	return map[string]any{
		"type":  "model",
		"model": path,
	}
}

// ErrInvalidTable marks a present table whose root selector is missing or
// malformed. Callers log it and synthesize a default in its place.
var ErrInvalidTable = errors.New("dispatch: table is missing the root selector")

// LoadTable reads a table from disk. A missing file returns (nil, nil) so
// callers synthesize a default; a present but structurally invalid file
// returns ErrInvalidTable.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("dispatch: read table %s: %w", path, err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidTable)
	}
	if table.Selector.Kind != SelectorKind || table.Selector.Property != SelectorProperty {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidTable)
	}
	return &table, nil
}

// Persist rewrites the table wholesale. There is no rollback; a crash before
// the write leaves the previous on-disk table untouched.
func (t *Table) Persist(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("dispatch: create table dir: %w", err)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("dispatch: encode table %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("dispatch: write table %s: %w", path, err)
	}
	return nil
}

// usedThresholds collects the thresholds already present in the table.
func (t *Table) usedThresholds() map[int]bool {
	used := make(map[int]bool, len(t.Selector.Entries))
	for _, entry := range t.Selector.Entries {
		used[entry.Threshold] = true
	}
	return used
}
