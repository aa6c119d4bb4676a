package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rafq345/callmanager/pkg/diag"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"name": "test", "value": 123}
	if err := Output(&buf, data, FormatJSON); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if result["name"] != "test" {
		t.Errorf("name = %v, want %q", result["name"], "test")
	}
}

func TestOutput_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(&buf, map[string]any{"name": "test"}, FormatYAML); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "name: test") {
		t.Errorf("Output should contain 'name: test', got: %s", buf.String())
	}
}

func TestOutput_Table(t *testing.T) {
	if err := Output(&bytes.Buffer{}, 1, FormatTable); err == nil {
		t.Error("expected error for table format")
	}
}

func TestStylesEntry(t *testing.T) {
	s := NewStyles(DefaultTheme)
	e := diag.Entry{
		Time:    time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		Level:   diag.LevelWarn,
		Message: "connection lost",
	}
	got := s.Entry(e)
	for _, want := range []string{"15:04:05.000", "WARN", "connection lost"} {
		if !strings.Contains(got, want) {
			t.Errorf("Entry() = %q, missing %q", got, want)
		}
	}

	var buf bytes.Buffer
	s.WriteEntries(&buf, []diag.Entry{e, e})
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("WriteEntries wrote %d lines, want 2", n)
	}
	if !strings.Contains(s.State("connected"), "connected") {
		t.Error("State() dropped the name")
	}
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer
	PrintSuccess(&buf, "saved %s", "dev")
	PrintWarning(&buf, "careful")
	PrintInfo(&buf, "n=%d", 3)
	out := buf.String()
	for _, want := range []string{"saved dev", "careful", "n=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}
