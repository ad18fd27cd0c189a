package ledger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestAppendWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "audit.log")
	l, err := New(path, "fleetd")
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Append("security.decision", map[string]any{"allowed": true}); err != nil {
		t.Fatal(err)
	}
	if err := l.Append("security.decision", map[string]any{"allowed": false}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %d is not valid json: %v", lines+1, err)
		}
		if rec.Service != "fleetd" || rec.Type != "security.decision" {
			t.Errorf("record = %+v", rec)
		}
		if rec.Timestamp == "" {
			t.Error("record missing timestamp")
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("got %d lines, want 2", lines)
	}
}

func TestAppendConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := New(path, "fleetd")
	if err != nil {
		t.Fatal(err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := l.Append("event", map[string]int{"i": i}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	lines := 0
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("interleaved write corrupted line %d: %v", lines+1, err)
		}
		lines++
	}
	if lines != n {
		t.Errorf("got %d lines, want %d", lines, n)
	}
}

func TestNewRejectsEmptyPath(t *testing.T) {
	if _, err := New("", "fleetd"); err == nil {
		t.Fatal("empty path should be an error")
	}
}
