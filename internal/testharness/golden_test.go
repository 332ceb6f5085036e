package testharness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeTestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"TestSimple", "TestSimple"},
		{"Test/WithSlash", "Test_WithSlash"},
		{"Test With Spaces", "Test_With_Spaces"},
		{"Complex:Test/Name Here", "Complex_Test_Name_Here"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sanitizeTestName(tt.input); got != tt.want {
				t.Errorf("sanitizeTestName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDiff(t *testing.T) {
	if got := diff("a\nb", "a\nb"); got != "" {
		t.Errorf("diff(identical) = %q, want empty", got)
	}
	got := diff("a\nold", "a\nnew")
	if !strings.Contains(got, "- old") || !strings.Contains(got, "+ new") {
		t.Errorf("diff() = %q, want old and new lines", got)
	}
	if got := diff("a", "a\nb"); !strings.Contains(got, "+ b") {
		t.Errorf("diff(extra line) = %q", got)
	}
}

func TestGoldenPath(t *testing.T) {
	g := &Golden{dir: "testdata", name: "TestX"}
	if got, want := g.path(""), filepath.Join("testdata", "TestX.golden"); got != want {
		t.Errorf("path() = %q, want %q", got, want)
	}
	if got, want := g.path("json"), filepath.Join("testdata", "TestX_json.golden"); got != want {
		t.Errorf("path(json) = %q, want %q", got, want)
	}
}

func TestGoldenAssertMatches(t *testing.T) {
	dir := t.TempDir()
	g := NewGoldenAt(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "TestGoldenAssertMatches.golden"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	g.Assert("hello\n")
}

func TestGoldenAssertJSON(t *testing.T) {
	dir := t.TempDir()
	g := NewGoldenAt(t, dir)
	want := "{\n  \"round\": 1\n}"
	if err := os.WriteFile(filepath.Join(dir, "TestGoldenAssertJSON_json.golden"), []byte(want), 0o644); err != nil {
		t.Fatal(err)
	}
	g.AssertJSON(map[string]int{"round": 1})
}
