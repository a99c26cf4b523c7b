package appendlog_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/quantumpoly/trustcore/internal/appendlog"
)

var ctx = context.Background()

func TestFileLog_missingFileReadsEmpty(t *testing.T) {
	l := appendlog.NewFileLog(filepath.Join(t.TempDir(), "absent.jsonl"))

	lines, err := l.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll on missing file: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected empty log, got %d lines", len(lines))
	}
}

func TestFileLog_appendThenRead(t *testing.T) {
	l := appendlog.NewFileLog(filepath.Join(t.TempDir(), "log.jsonl"))

	type rec struct {
		ID string `json:"id"`
		N  int    `json:"n"`
	}
	for i, id := range []string{"a", "b", "c"} {
		if err := l.Append(ctx, rec{ID: id, N: i}); err != nil {
			t.Fatalf("Append %q: %v", id, err)
		}
	}

	lines, err := l.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	var got rec
	if err := json.Unmarshal(lines[1], &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "b" || got.N != 1 {
		t.Errorf("line 2: got %+v, want {b 1}", got)
	}
}

func TestFileLog_appendOrderPreserved(t *testing.T) {
	l := appendlog.NewFileLog(filepath.Join(t.TempDir(), "log.jsonl"))

	for i := 0; i < 20; i++ {
		if err := l.Append(ctx, map[string]int{"seq": i}); err != nil {
			t.Fatal(err)
		}
	}

	lines, err := l.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i, line := range lines {
		var rec map[string]int
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatal(err)
		}
		if rec["seq"] != i {
			t.Fatalf("line %d out of order: got seq %d", i, rec["seq"])
		}
	}
}

func TestMemoryLog_roundTrip(t *testing.T) {
	l := appendlog.NewMemoryLog()

	if err := l.Append(ctx, map[string]string{"id": "x"}); err != nil {
		t.Fatal(err)
	}
	lines, err := l.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
}
