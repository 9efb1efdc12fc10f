package resolver

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-packforge/pkg/artifact"
)

// outputFolder picks the folder artifacts for this definition are written
// under. Precedence: a namespace declared on a model spec, then a namespace
// derived from the source file's directory depth relative to the category
// root, then the first texture's base name, then the first type name.
func (r *Resolver) outputFolder(def artifact.Definition, types []string, textures map[string]string, categoryRoot string) (folder, namespace string) {
	if ns := declaredNamespace(def, types); ns != "" {
		return ns, ns
	}
	if ns := directoryNamespace(def.Dir, categoryRoot); ns != "" {
		return ns, ""
	}
	if _, file, ok := firstTexture(textures); ok {
		return stripExt(filepath.Base(file)), ""
	}
	if len(types) > 0 {
		return types[0], ""
	}
	return "", ""
}

func declaredNamespace(def artifact.Definition, types []string) string {
	if def.Model != nil && def.Model.Namespace != "" {
		return def.Model.Namespace
	}
	if len(def.Models) == 0 {
		return ""
	}
	keys := make([]string, 0, len(def.Models))
	for key := range def.Models {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if spec := def.Models[key]; spec != nil && spec.Namespace != "" {
			return spec.Namespace
		}
	}
	return ""
}

// directoryNamespace collapses deep source layouts into a short namespace.
// Depth counts the definition file itself as one component below the
// category root: depth four or more keeps the first two directory segments,
// depth three keeps the first, anything shallower yields none.
func directoryNamespace(dir, categoryRoot string) string {
	if dir == "" || categoryRoot == "" {
		return ""
	}
	rel, err := filepath.Rel(categoryRoot, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	depth := len(segments) + 1
	switch {
	case depth >= 4:
		return segments[0] + "/" + segments[1]
	case depth >= 3:
		return segments[0]
	default:
		return ""
	}
}
