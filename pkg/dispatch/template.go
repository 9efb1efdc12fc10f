package dispatch

import "strings"

// Values carries the concrete substitutions for an override-definition
// template. Fallback may be a whole model sub-tree; all other tokens are
// literal strings.
type Values struct {
	Model  string
	Type   string
	Parent string
	Folder string
	ID     string

	Fallback any
}

const fallbackToken = "$fallback"

// Substitute walks the template tree and replaces placeholder tokens,
// returning a new tree; the input is never mutated. A string leaf that is
// exactly a token becomes the token's typed value, which is how $fallback
// can splice an entire model sub-tree. Tokens embedded in longer strings
// are replaced within that leaf only, so substitution never corrupts
// serialized output across value boundaries.
func Substitute(template map[string]any, vals Values) map[string]any {
	if template == nil {
		return nil
	}
	out := make(map[string]any, len(template))
	for key, value := range template {
		out[key] = substituteValue(value, vals)
	}
	return out
}

func substituteValue(value any, vals Values) any {
	switch v := value.(type) {
	case string:
		return substituteLeaf(v, vals)
	case map[string]any:
		return Substitute(v, vals)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = substituteValue(item, vals)
		}
		return out
	default:
		return v
	}
}

func substituteLeaf(leaf string, vals Values) any {
	if leaf == fallbackToken {
		return vals.Fallback
	}

	tokens := [...]struct{ token, value string }{
		{"$fallback", fallbackString(vals.Fallback)},
		{"$folder", vals.Folder},
		{"$parent", vals.Parent},
		{"$model", vals.Model},
		{"$type", vals.Type},
		{"$id", vals.ID},
	}
	for _, t := range tokens {
		if leaf == t.token {
			return t.value
		}
	}
	if !strings.ContainsRune(leaf, '$') {
		return leaf
	}
	for _, t := range tokens {
		leaf = strings.ReplaceAll(leaf, t.token, t.value)
	}
	return leaf
}

// fallbackString flattens a fallback for embedding inside a longer string.
// Only string fallbacks embed meaningfully; tree fallbacks belong on
// exact-match leaves.
func fallbackString(fallback any) string {
	if s, ok := fallback.(string); ok {
		return s
	}
	if m, ok := fallback.(map[string]any); ok {
		if s, ok := m["model"].(string); ok {
			return s
		}
	}
	return ""
}
