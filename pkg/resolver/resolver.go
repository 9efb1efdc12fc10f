package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-packforge/pkg/artifact"
)

// Logger is the minimal logging surface the resolver needs.
type Logger interface {
	Printf(format string, args ...any)
}

// Reference is the normalized output of resolving one definition for one
// category type. Immutable once produced; consumed only by the merge stage.
type Reference struct {
	Type      string
	Folder    string
	ID        string
	Namespace string
	Template  map[string]any
}

// Key is the stable identity the merge stage hashes for threshold assignment.
func (r Reference) Key() string {
	return r.Folder + "/" + r.ID
}

// Option customises the resolver configuration.
type Option func(*Resolver)

// WithLogger injects a logger. Defaults to the stdlib logger.
func WithLogger(logger Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver writes per-type texture and model files for artifact definitions
// and emits references for the dispatch merge.
type Resolver struct {
	category string
	logger   Logger
}

// New constructs a Resolver for one artifact category (e.g. "item").
func New(category string, options ...Option) *Resolver {
	r := &Resolver{
		category: strings.TrimSpace(category),
		logger:   log.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// ResolveAll fans out over the worklist, one task per definition, and joins
// before returning. Failed definitions are logged and contribute nothing;
// the result preserves worklist order so merge processing stays
// deterministic.
func (r *Resolver) ResolveAll(ctx context.Context, defs []artifact.Definition, categoryRoot, outputRoot string) []Reference {
	if len(defs) == 0 {
		return nil
	}

	results := make([][]Reference, len(defs))
	var wg sync.WaitGroup
	for i, def := range defs {
		wg.Add(1)
		go func(i int, def artifact.Definition) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				return
			}
			refs, err := r.Resolve(def, categoryRoot, outputRoot)
			if err != nil {
				r.logger.Printf("resolver: skipping %s: %v", definitionLabel(def), err)
				return
			}
			results[i] = refs
		}(i, def)
	}
	wg.Wait()

	var out []Reference
	for _, refs := range results {
		out = append(out, refs...)
	}
	return out
}

// Resolve processes a single definition: determines its category types,
// texture map, and output folder, then writes textures and one model per
// type before emitting the references.
func (r *Resolver) Resolve(def artifact.Definition, categoryRoot, outputRoot string) ([]Reference, error) {
	types, err := def.TypeList()
	if err != nil {
		return nil, err
	}

	textures, singleOrigin := textureMap(def)
	folder, namespace := r.outputFolder(def, types, textures, categoryRoot)
	if folder == "" {
		return nil, errors.New("resolver: could not derive an output folder")
	}

	r.copyTextures(def, textures, folder, outputRoot)

	refs := make([]Reference, 0, len(types))
	for _, typ := range types {
		spec := def.Models[typ]
		if spec == nil {
			spec = def.Model
		}

		tree, id, err := r.resolveModel(def, spec, typ, folder, textures, singleOrigin)
		if err != nil {
			return nil, err
		}
		if err := r.writeModel(outputRoot, folder, id, tree); err != nil {
			return nil, err
		}

		ns := namespace
		if spec != nil && spec.Namespace != "" {
			ns = spec.Namespace
		}
		refs = append(refs, Reference{
			Type:      typ,
			Folder:    folder,
			ID:        id,
			Namespace: ns,
			Template:  def.Template,
		})
	}
	return refs, nil
}

// textureMap normalizes the definition's texture specification. A single
// texture name is wrapped into a one-entry map and tagged single-origin so
// model texture-key alignment can adopt the model's own key.
func textureMap(def artifact.Definition) (map[string]string, bool) {
	if len(def.Textures) > 0 {
		out := make(map[string]string, len(def.Textures))
		for slot, file := range def.Textures {
			out[slot] = file
		}
		return out, false
	}
	if def.Texture != "" {
		return map[string]string{"layer0": def.Texture}, true
	}
	return nil, false
}

// firstTexture returns the deterministic first entry of the texture map.
func firstTexture(textures map[string]string) (slot, file string, ok bool) {
	if len(textures) == 0 {
		return "", "", false
	}
	slots := make([]string, 0, len(textures))
	for s := range textures {
		slots = append(slots, s)
	}
	sort.Strings(slots)
	return slots[0], textures[slots[0]], true
}

// resolveModel applies the per-type model precedence: explicit per-type
// entry, then the single model field, then a synthesized single-layer
// generated-item model referencing the first texture.
func (r *Resolver) resolveModel(def artifact.Definition, spec *artifact.ModelSpec, typ, folder string, textures map[string]string, singleOrigin bool) (map[string]any, string, error) {
	if spec == nil || (spec.File == "" && spec.Raw == nil) {
		_, file, ok := firstTexture(textures)
		if !ok {
			return nil, "", fmt.Errorf("resolver: type %q has neither a model nor a texture", typ)
		}
		id := artifactID(spec, "", file, typ)
		tree := map[string]any{
			"parent": "item/generated",
			"textures": map[string]any{
				"layer0": r.texturePath(folder, file),
			},
		}
		return tree, id, nil
	}

	var tree map[string]any
	switch {
	case spec.Raw != nil:
		tree = deepCopyTree(spec.Raw)
	case spec.File != "":
		data, err := os.ReadFile(filepath.Join(def.Dir, spec.File))
		if err != nil {
			return nil, "", fmt.Errorf("resolver: read model %s: %w", spec.File, err)
		}
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, "", fmt.Errorf("resolver: decode model %s: %w", spec.File, err)
		}
	}

	r.alignTextures(tree, folder, textures, singleOrigin)

	_, file, _ := firstTexture(textures)
	id := artifactID(spec, spec.File, file, typ)
	return tree, id, nil
}

// alignTextures rewrites a model's declared textures map against the
// resolved texture map. When the textures came from a single-origin texture
// and the model declares exactly one key, that key is adopted as canonical
// so the supplied texture binds regardless of the model's own naming.
func (r *Resolver) alignTextures(tree map[string]any, folder string, textures map[string]string, singleOrigin bool) {
	if tree == nil {
		return
	}
	declared, ok := tree["textures"].(map[string]any)
	if !ok || len(declared) == 0 {
		if len(textures) == 0 {
			return
		}
		rebuilt := make(map[string]any, len(textures))
		for slot, file := range textures {
			rebuilt[slot] = r.texturePath(folder, file)
		}
		tree["textures"] = rebuilt
		return
	}

	if singleOrigin && len(declared) == 1 {
		_, file, _ := firstTexture(textures)
		for key := range declared {
			declared[key] = r.texturePath(folder, file)
		}
		return
	}

	for key := range declared {
		if file, ok := textures[key]; ok {
			declared[key] = r.texturePath(folder, file)
		}
	}
}

// copyTextures copies every texture file into the output folder. Copy
// failures are logged and never block model writing.
func (r *Resolver) copyTextures(def artifact.Definition, textures map[string]string, folder, outputRoot string) {
	if len(textures) == 0 {
		return
	}
	destDir := filepath.Join(outputRoot, "textures", r.category, filepath.FromSlash(folder))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		r.logger.Printf("resolver: create texture dir %s: %v", destDir, err)
		return
	}

	slots := make([]string, 0, len(textures))
	for slot := range textures {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	for _, slot := range slots {
		file := textures[slot]
		src := filepath.Join(def.Dir, file)
		dst := filepath.Join(destDir, filepath.Base(file))
		if err := copyFile(src, dst); err != nil {
			r.logger.Printf("resolver: copy texture %s: %v", file, err)
		}
	}
}

func (r *Resolver) writeModel(outputRoot, folder, id string, tree map[string]any) error {
	dir := filepath.Join(outputRoot, "models", r.category, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("resolver: create model dir %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("resolver: encode model %s: %w", id, err)
	}
	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("resolver: write model %s: %w", path, err)
	}
	return nil
}

// texturePath builds the category-relative reference a model uses to point
// at a copied texture, extension stripped.
func (r *Resolver) texturePath(folder, file string) string {
	return r.category + "/" + folder + "/" + stripExt(filepath.Base(file))
}

// artifactID derives the artifact id: an explicit name wins, then the model
// file base name, then the texture base name, then the type itself.
func artifactID(spec *artifact.ModelSpec, modelFile, textureFile, typ string) string {
	if spec != nil && spec.Name != "" {
		return spec.Name
	}
	if modelFile != "" {
		return stripExt(filepath.Base(modelFile))
	}
	if textureFile != "" {
		return stripExt(filepath.Base(textureFile))
	}
	return typ
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func definitionLabel(def artifact.Definition) string {
	if def.Path != "" {
		return def.Path
	}
	if def.Type != "" {
		return "definition " + def.Type
	}
	return "staged definition"
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func deepCopyTree(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = deepCopyValue(value)
	}
	return out
}

func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return deepCopyTree(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
