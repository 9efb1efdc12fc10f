package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoType is returned when a definition resolves to zero category types.
var ErrNoType = errors.New("artifact: no type defined")

// ModelSpec describes where a model for one category type comes from. Exactly
// one of File or Raw is set; a spec with neither means "synthesize a default".
type ModelSpec struct {
	// File references a model JSON file relative to the definition's directory.
	File string

	// Namespace is the parent namespace an inline model declares. It takes
	// precedence over the directory-depth heuristic when picking the output
	// folder.
	Namespace string

	// Name overrides the artifact id derived from file or texture names.
	Name string

	// Raw holds an inline model tree supplied directly in the definition.
	Raw map[string]any
}

// Definition is one source artifact description, parsed from a definition
// file or staged by an earlier generator.
type Definition struct {
	Type     string
	Types    []string
	Texture  string
	Textures map[string]string
	Model    *ModelSpec
	Models   map[string]*ModelSpec

	// Template is an optional override-definition tree carrying $-prefixed
	// placeholder tokens, passed through untouched to the merge stage.
	Template map[string]any

	// Dir is the directory the definition was read from; texture and model
	// file references are resolved against it. Empty for staged definitions
	// that only carry inline content.
	Dir string

	// Path is the source file the definition was parsed from, for logging.
	Path string
}

// TypeList returns the category types this definition contributes to, in
// deterministic order: per-type model map keys (sorted), else the explicit
// type list, else the single type. ErrNoType when none resolve.
func (d Definition) TypeList() ([]string, error) {
	if len(d.Models) > 0 {
		keys := make([]string, 0, len(d.Models))
		for key := range d.Models {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return keys, nil
	}
	if len(d.Types) > 0 {
		return d.Types, nil
	}
	if strings.TrimSpace(d.Type) != "" {
		return []string{d.Type}, nil
	}
	return nil, ErrNoType
}

// rawDefinition mirrors the on-disk field names. yaml.v3 decodes both YAML
// and plain JSON definition files.
type rawDefinition struct {
	Type       string            `yaml:"type"`
	Types      []string          `yaml:"types"`
	Texture    string            `yaml:"texture"`
	Textures   map[string]string `yaml:"textures"`
	Model      any               `yaml:"model"`
	Models     map[string]any    `yaml:"models"`
	Definition map[string]any    `yaml:"definition"`
}

// Parse decodes a definition document from JSON or YAML bytes.
func Parse(data []byte) (Definition, error) {
	var raw rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Definition{}, fmt.Errorf("artifact: decode definition: %w", err)
	}

	def := Definition{
		Type:     strings.TrimSpace(raw.Type),
		Types:    raw.Types,
		Texture:  strings.TrimSpace(raw.Texture),
		Textures: raw.Textures,
		Template: normalizeTree(raw.Definition),
	}

	if raw.Model != nil {
		spec, err := parseModelSpec(raw.Model)
		if err != nil {
			return Definition{}, err
		}
		def.Model = spec
	}
	if len(raw.Models) > 0 {
		def.Models = make(map[string]*ModelSpec, len(raw.Models))
		for typ, value := range raw.Models {
			spec, err := parseModelSpec(value)
			if err != nil {
				return Definition{}, fmt.Errorf("artifact: model for type %q: %w", typ, err)
			}
			def.Models[typ] = spec
		}
	}

	return def, nil
}

// ParseFile reads and decodes one definition file, recording its origin so
// relative texture and model references resolve against the right directory.
func ParseFile(path string) (Definition, error) {
	data, err := readFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("artifact: read %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("artifact: %s: %w", path, err)
	}
	def.Dir = filepath.Dir(path)
	def.Path = path
	return def, nil
}

func parseModelSpec(value any) (*ModelSpec, error) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, errors.New("artifact: empty model reference")
		}
		return &ModelSpec{File: trimmed}, nil
	case map[string]any:
		spec := &ModelSpec{}
		if ns, ok := v["namespace"].(string); ok {
			spec.Namespace = strings.TrimSpace(ns)
		}
		if name, ok := v["name"].(string); ok {
			spec.Name = strings.TrimSpace(name)
		}
		if file, ok := v["file"].(string); ok {
			spec.File = strings.TrimSpace(file)
		}
		if raw, ok := v["model"].(map[string]any); ok {
			spec.Raw = normalizeTree(raw)
		}
		if spec.File == "" && spec.Raw == nil && spec.Name == "" && spec.Namespace == "" {
			return nil, errors.New("artifact: model object declares no file, model tree, name, or namespace")
		}
		return spec, nil
	default:
		return nil, fmt.Errorf("artifact: unsupported model spec of type %T", value)
	}
}

// normalizeTree rewrites yaml.v3's map[string]any values recursively so
// downstream JSON marshalling never sees map[any]any keys.
func normalizeTree(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return normalizeTree(v)
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[fmt.Sprint(key)] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
