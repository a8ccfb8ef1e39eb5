package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderConvergence(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := Render(buf, Convergence("grid", []float64{3, 1.5, 0.2})); err != nil {
		t.Fatalf("render: %s", err)
	}
	if !strings.Contains(buf.String(), "grid") {
		t.Fatalf("title missing from output")
	}
}

func TestSaveReturns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "returns.html")
	chart := Returns("returns", map[string][]float64{
		"Random": {1, 2, 3},
		"Solved": {4, 5},
	})
	if err := Save(path, chart); err != nil {
		t.Fatalf("save: %s", err)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %s", err)
	}
	if !strings.Contains(string(bs), "Solved") {
		t.Fatalf("series missing from output")
	}
}
