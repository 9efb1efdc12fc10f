package vanilla

import (
	"encoding/json"
	"fmt"
)

// Snapshot is an in-memory reference dataset for one game version: a map of
// category type to that type's default fallback model tree.
type Snapshot struct {
	version string
	models  map[string]any
}

// ParseSnapshot decodes a snapshot payload.
func ParseSnapshot(version string, data []byte) (*Snapshot, error) {
	var models map[string]any
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("vanilla: decode snapshot for %s: %w", version, err)
	}
	return &Snapshot{version: version, models: models}, nil
}

// Version reports which game version the snapshot was taken from.
func (s *Snapshot) Version() string { return s.version }

// Lookup returns the default fallback model for a category type.
func (s *Snapshot) Lookup(itemType string) (any, bool) {
	if s == nil {
		return nil, false
	}
	model, ok := s.models[itemType]
	return model, ok
}
