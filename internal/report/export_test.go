package report

import (
	"strings"
	"testing"

	"valfront/internal/status"
)

func TestExportGroupText(t *testing.T) {
	id := int64(42)
	resolver := InstanceResolver{
		42: {GUID: "2O2Fr$t4X7Zf8NOew3FLOH", Type: "IfcWall"},
	}
	g := Group{
		Title: "Space boundaries",
		Records: []OutcomeRecord{
			{
				InstanceID: &id,
				Severity:   status.SeverityError,
				Title:      "Space boundaries",
				Expected:   "IfcRelSpaceBoundary",
				Observed:   nil,
				Message:    "missing relationship",
			},
		},
	}

	got := ExportGroupText(g, resolver)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("export has %d lines, want 2:\n%s", len(lines), got)
	}
	if lines[0] != "severity\tid\tentity\texpected\tobserved\tmessage" {
		t.Errorf("header = %q", lines[0])
	}
	want := "Error\t2O2Fr$t4X7Zf8NOew3FLOH\tIfcWall\tIfcRelSpaceBoundary\t\tmissing relationship"
	if lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
}

func TestExportPlaceholders(t *testing.T) {
	unknown := int64(999)
	g := Group{
		Records: []OutcomeRecord{
			{Severity: status.SeverityWarning, Message: "file level"},
			{InstanceID: &unknown, Severity: status.SeverityWarning, Message: "unresolved"},
		},
	}

	got := ExportGroupText(g, InstanceResolver{})
	if !strings.Contains(got, "Warning\t-\t-\t") {
		t.Errorf("missing-instance row not rendered with dashes:\n%s", got)
	}
	if !strings.Contains(got, "Warning\t?\t?\t") {
		t.Errorf("unknown-instance row not rendered with question marks:\n%s", got)
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"plain", "plain"},
		{true, "true"},
		{float64(3.5), "3.5"},
		{float64(2), "2"},
		{int64(7), "7"},
		{map[string]interface{}{"value": "IFC4"}, `{"value":"IFC4"}`},
		{[]interface{}{"a", "b"}, `["a","b"]`},
	}
	for _, tc := range cases {
		if got := formatValue(tc.in); got != tc.want {
			t.Errorf("formatValue(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
