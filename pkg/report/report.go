// Package report renders a human-facing summary of one pipeline run.
package report

import (
	"fmt"
	"sort"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-packforge/pkg/dispatch"
)

const summaryTemplate = `packforge run summary
{% for group in groups %}
{{ group.type }} ({{ group.count }} entr{% if group.count == 1 %}y{% else %}ies{% endif %})
{% for entry in group.entries %}  {{ entry.key }} -> {{ entry.threshold }}
{% endfor %}{% endfor %}`

// Render formats the per-type threshold assignments of a run. Types and
// entries come out in deterministic order so summaries diff cleanly.
func Render(assignments map[string][]dispatch.Assignment) (string, error) {
	types := make([]string, 0, len(assignments))
	for typ := range assignments {
		types = append(types, typ)
	}
	sort.Strings(types)

	groups := make([]map[string]any, 0, len(types))
	for _, typ := range types {
		entries := make([]map[string]any, 0, len(assignments[typ]))
		for _, assignment := range assignments[typ] {
			entries = append(entries, map[string]any{
				"key":       assignment.Folder + "/" + assignment.ID,
				"threshold": assignment.Threshold,
			})
		}
		groups = append(groups, map[string]any{
			"type":    typ,
			"count":   len(assignments[typ]),
			"entries": entries,
		})
	}

	tmpl, err := pongo2.FromString(summaryTemplate)
	if err != nil {
		return "", fmt.Errorf("report: parse template: %w", err)
	}
	out, err := tmpl.Execute(pongo2.Context{"groups": groups})
	if err != nil {
		return "", fmt.Errorf("report: render summary: %w", err)
	}
	return out, nil
}
