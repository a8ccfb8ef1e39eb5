package util

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSaveJsonCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.json")
	if err := SaveJson(path, map[string]int{"episodes": 10}); err != nil {
		t.Fatalf("save: %s", err)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %s", err)
	}
	out := make(map[string]int)
	if err := json.Unmarshal(bs, &out); err != nil {
		t.Fatalf("unmarshal: %s", err)
	}
	if out["episodes"] != 10 {
		t.Fatalf("unexpected content %s", string(bs))
	}
}

func TestCopiesAreIndependent(t *testing.T) {
	ints := []int{1, 2}
	c := CopyIntSlice(ints)
	c[0] = 5
	if ints[0] != 1 {
		t.Fatalf("int slice shared")
	}
	floats := []float64{1.5}
	f := CopyFloatSlice(floats)
	f[0] = 0
	if floats[0] != 1.5 {
		t.Fatalf("float slice shared")
	}
	m := map[string]int{"x": 1}
	mc := CopyStringIntMap(m)
	mc["x"] = 2
	if m["x"] != 1 {
		t.Fatalf("map shared")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestTerminalPrinterPrintsOnStop(t *testing.T) {
	out := &syncBuffer{}
	printer := NewTerminalPrinter(out, time.Hour)
	first := printer.NewOutput()
	second := printer.NewOutput()
	printer.Start(context.Background())
	first.Set("sweep 3")
	if !second.TrySet("iteration 1") {
		t.Fatalf("uncontended TrySet failed")
	}
	printer.Stop()
	s := out.String()
	if !strings.Contains(s, "sweep 3") || !strings.Contains(s, "iteration 1") {
		t.Fatalf("unexpected output %q", s)
	}
}
