package report_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-packforge/pkg/dispatch"
	"github.com/goliatone/go-packforge/pkg/report"
)

func TestRender_ListsAssignmentsPerType(t *testing.T) {
	out, err := report.Render(map[string][]dispatch.Assignment{
		"apple": {
			{Type: "apple", Folder: "red_apple", ID: "red_apple", Threshold: 1234567},
		},
		"stone": {
			{Type: "stone", Folder: "ores", ID: "ruby_ore", Threshold: 7654321},
			{Type: "stone", Folder: "ores", ID: "topaz_ore", Threshold: 1111111},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"apple (1 entry)",
		"stone (2 entries)",
		"red_apple/red_apple -> 1234567",
		"ores/ruby_ore -> 7654321",
		"ores/topaz_ore -> 1111111",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	// Deterministic type order.
	if strings.Index(out, "apple") > strings.Index(out, "stone") {
		t.Fatalf("types not sorted:\n%s", out)
	}
}

func TestRender_RepeatedCallsProduceIdenticalOutput(t *testing.T) {
	assignments := map[string][]dispatch.Assignment{
		"apple": {{Type: "apple", Folder: "red_apple", ID: "red_apple", Threshold: 1234567}},
	}
	first, err := report.Render(assignments)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := report.Render(assignments)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if first != second {
		t.Fatalf("renders differ:\n--- first\n%s\n--- second\n%s", first, second)
	}
}

func TestRender_EmptyRun(t *testing.T) {
	out, err := report.Render(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "packforge run summary") {
		t.Fatalf("unexpected summary: %q", out)
	}
}
