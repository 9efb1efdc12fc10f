package resolver_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-packforge/pkg/artifact"
	"github.com/goliatone/go-packforge/pkg/resolver"
)

type captureLogger struct {
	lines []string
}

func (l *captureLogger) Printf(format string, args ...any) {
	l.lines = append(l.lines, format)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readModel(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read model: %v", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		t.Fatalf("decode model: %v", err)
	}
	return tree
}

func TestResolve_SynthesizesDefaultModel(t *testing.T) {
	sourceDir := t.TempDir()
	outputRoot := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "red_apple.png"), "png-bytes")

	def := artifact.Definition{Type: "apple", Texture: "red_apple.png", Dir: sourceDir}
	res := resolver.New("item")

	refs, err := res.Resolve(def, sourceDir, outputRoot)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []resolver.Reference{{Type: "apple", Folder: "red_apple", ID: "red_apple"}}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Fatalf("references mismatch (-want +got):\n%s", diff)
	}

	copied := filepath.Join(outputRoot, "textures", "item", "red_apple", "red_apple.png")
	if _, err := os.Stat(copied); err != nil {
		t.Fatalf("texture not copied: %v", err)
	}

	model := readModel(t, filepath.Join(outputRoot, "models", "item", "red_apple", "red_apple.json"))
	if model["parent"] != "item/generated" {
		t.Fatalf("model parent = %v", model["parent"])
	}
	textures := model["textures"].(map[string]any)
	if textures["layer0"] != "item/red_apple/red_apple" {
		t.Fatalf("layer0 = %v", textures["layer0"])
	}
}

func TestResolve_SingleOriginTextureAdoptsInlineKey(t *testing.T) {
	sourceDir := t.TempDir()
	outputRoot := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "blade.png"), "png-bytes")

	def := artifact.Definition{
		Type:    "sword",
		Texture: "blade.png",
		Model: &artifact.ModelSpec{
			Name: "ruby_sword",
			Raw: map[string]any{
				"parent":   "item/handheld",
				"textures": map[string]any{"blade_layer": "placeholder"},
			},
		},
		Dir: sourceDir,
	}

	refs, err := resolver.New("item").Resolve(def, sourceDir, outputRoot)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if refs[0].ID != "ruby_sword" {
		t.Fatalf("id = %q", refs[0].ID)
	}

	model := readModel(t, filepath.Join(outputRoot, "models", "item", "blade", "ruby_sword.json"))
	textures := model["textures"].(map[string]any)
	// The inline model's own key is adopted as canonical for the single
	// supplied texture.
	if textures["blade_layer"] != "item/blade/blade" {
		t.Fatalf("textures = %#v", textures)
	}
}

func TestResolve_PerTypeModelPrecedence(t *testing.T) {
	sourceDir := t.TempDir()
	outputRoot := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "fruit.png"), "png-bytes")
	writeFile(t, filepath.Join(sourceDir, "pear_model.json"), `{"parent": "item/generated", "textures": {"layer0": "x"}}`)

	def := artifact.Definition{
		Texture: "fruit.png",
		Models: map[string]*artifact.ModelSpec{
			"pear":  {File: "pear_model.json"},
			"apple": nil,
		},
		Dir: sourceDir,
	}

	refs, err := resolver.New("item").Resolve(def, sourceDir, outputRoot)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	byType := map[string]resolver.Reference{}
	for _, ref := range refs {
		byType[ref.Type] = ref
	}
	// The nil per-type entry falls through to synthesis keyed on the texture.
	if byType["apple"].ID != "fruit" {
		t.Fatalf("apple id = %q", byType["apple"].ID)
	}
	if byType["pear"].ID != "pear_model" {
		t.Fatalf("pear id = %q", byType["pear"].ID)
	}

	pear := readModel(t, filepath.Join(outputRoot, "models", "item", "fruit", "pear_model.json"))
	textures := pear["textures"].(map[string]any)
	if textures["layer0"] != "item/fruit/fruit" {
		t.Fatalf("pear textures = %#v", textures)
	}
}

func TestResolve_DirectoryDepthNamespace(t *testing.T) {
	categoryRoot := t.TempDir()
	outputRoot := t.TempDir()

	cases := []struct {
		rel    string
		folder string
	}{
		// depth 2: no namespace, texture base wins
		{"shallow", "gem"},
		// depth 3: first segment
		{"mods/tools", "mods"},
		// depth 4 and deeper: first two segments
		{"mods/tools/picks", "mods/tools"},
		{"mods/tools/picks/deeper", "mods/tools"},
	}
	for _, tc := range cases {
		dir := filepath.Join(categoryRoot, filepath.FromSlash(tc.rel))
		writeFile(t, filepath.Join(dir, "gem.png"), "png-bytes")
		def := artifact.Definition{Type: "gem", Texture: "gem.png", Dir: dir}

		refs, err := resolver.New("item").Resolve(def, categoryRoot, outputRoot)
		if err != nil {
			t.Fatalf("%s: resolve: %v", tc.rel, err)
		}
		if refs[0].Folder != tc.folder {
			t.Errorf("%s: folder = %q, want %q", tc.rel, refs[0].Folder, tc.folder)
		}
	}
}

func TestResolveAll_IsolatesFailingDefinitions(t *testing.T) {
	sourceDir := t.TempDir()
	outputRoot := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "ok.png"), "png-bytes")

	logger := &captureLogger{}
	res := resolver.New("item", resolver.WithLogger(logger))

	// The typeless definition fails alone; its sibling is unaffected.
	defs := []artifact.Definition{
		{Dir: sourceDir},
		{Type: "apple", Texture: "ok.png", Dir: sourceDir},
	}
	refs := res.ResolveAll(context.Background(), defs, sourceDir, outputRoot)

	if len(refs) != 1 || refs[0].Type != "apple" {
		t.Fatalf("references = %#v", refs)
	}
	if len(logger.lines) == 0 {
		t.Fatalf("expected the failing definition to be logged")
	}
}

func TestResolveAll_MissingTextureDoesNotBlockModel(t *testing.T) {
	sourceDir := t.TempDir()
	outputRoot := t.TempDir()

	// Texture file absent: the copy fails and is logged, the model still
	// gets written because synthesis only needs the texture name.
	logger := &captureLogger{}
	res := resolver.New("item", resolver.WithLogger(logger))
	def := artifact.Definition{Type: "apple", Texture: "ghost.png", Dir: sourceDir}

	refs, err := res.Resolve(def, sourceDir, outputRoot)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("references = %#v", refs)
	}
	if _, err := os.Stat(filepath.Join(outputRoot, "models", "item", "ghost", "ghost.json")); err != nil {
		t.Fatalf("model missing: %v", err)
	}
	if len(logger.lines) == 0 {
		t.Fatalf("expected the texture copy failure to be logged")
	}
}
