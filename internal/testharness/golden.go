// Package testharness holds shared test helpers: golden file snapshots and a
// scripted completion service that stands in for real model providers.
package testharness

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// UpdateGolden rewrites golden files instead of comparing when UPDATE_GOLDEN=1.
var UpdateGolden = os.Getenv("UPDATE_GOLDEN") == "1"

// Golden compares output against testdata/golden/<test name>.golden.
type Golden struct {
	t    *testing.T
	dir  string
	name string
}

// NewGolden returns a golden helper rooted at testdata/golden.
func NewGolden(t *testing.T) *Golden {
	t.Helper()
	return NewGoldenAt(t, filepath.Join("testdata", "golden"))
}

// NewGoldenAt returns a golden helper rooted at dir.
func NewGoldenAt(t *testing.T, dir string) *Golden {
	t.Helper()
	if UpdateGolden {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create golden dir: %v", err)
		}
	}
	return &Golden{
		t:    t,
		dir:  dir,
		name: sanitizeTestName(t.Name()),
	}
}

// Assert compares actual against the test's golden file.
func (g *Golden) Assert(actual string) {
	g.t.Helper()
	g.assertNamed("", actual)
}

// AssertNamed compares actual against a named golden file of the test.
func (g *Golden) AssertNamed(name, actual string) {
	g.t.Helper()
	g.assertNamed(name, actual)
}

// AssertJSON compares the indented JSON encoding of actual.
func (g *Golden) AssertJSON(actual any) {
	g.t.Helper()
	pretty, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal JSON: %v", err)
	}
	g.assertNamed("json", string(pretty))
}

func (g *Golden) assertNamed(name, actual string) {
	g.t.Helper()
	filename := g.path(name)

	if UpdateGolden {
		if err := os.WriteFile(filename, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to update golden file %s: %v", filename, err)
		}
		g.t.Logf("updated golden file: %s", filename)
		return
	}

	expected, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file %s does not exist, rerun with UPDATE_GOLDEN=1.\n\nActual output:\n%s", filename, actual)
		}
		g.t.Fatalf("failed to read golden file %s: %v", filename, err)
	}
	if string(expected) != actual {
		g.t.Errorf("golden file mismatch %s\n\nDiff:\n%s", filename, diff(string(expected), actual))
	}
}

func (g *Golden) path(name string) string {
	if name == "" {
		return filepath.Join(g.dir, g.name+".golden")
	}
	return filepath.Join(g.dir, g.name+"_"+name+".golden")
}

func sanitizeTestName(name string) string {
	return strings.NewReplacer("/", "_", " ", "_", ":", "_").Replace(name)
}

// diff returns a line based diff of two strings.
func diff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")
	n := max(len(expectedLines), len(actualLines))

	var b strings.Builder
	for i := 0; i < n; i++ {
		var exp, act string
		if i < len(expectedLines) {
			exp = expectedLines[i]
		}
		if i < len(actualLines) {
			act = actualLines[i]
		}
		if exp != act {
			b.WriteString("- " + exp + "\n+ " + act + "\n")
		}
	}
	return b.String()
}
