package history

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"image-audit/internal/compress"
	"image-audit/internal/organize"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return j
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("NewRunID() = %q, not a UUID: %v", id, err)
	}
	if id == NewRunID() {
		t.Error("NewRunID() returned the same ID twice")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 2; i++ {
		j, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("Open() #%d error = %v", i, err)
		}
		if j.Path() != path {
			t.Errorf("Path() = %q, want %q", j.Path(), path)
		}
		if err := j.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}
}

func TestRecordAndGetRun(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	started := time.UnixMilli(1_700_000_000_000)
	run := &Run{
		Command:   "scan",
		Root:      "/photos",
		Mode:      "all",
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Total:     42,
		Oversized: 3,
		Groups:    5,
		Errors:    1,
	}
	if err := j.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if run.ID == "" {
		t.Fatal("RecordRun() left ID empty")
	}

	got, err := j.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	got.StartedAt = run.StartedAt
	if !reflect.DeepEqual(got, run) {
		t.Errorf("Get() = %+v, want %+v", got, run)
	}
}

func TestGetUnknown(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.Get(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000)
	for i, cmd := range []string{"scan", "compress", "move"} {
		run := &Run{Command: cmd, Root: "/r", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := j.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun(%s) error = %v", cmd, err)
		}
	}

	runs, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(Recent(2)) = %d, want 2", len(runs))
	}
	if runs[0].Command != "move" || runs[1].Command != "compress" {
		t.Errorf("Recent() commands = %s, %s, want move, compress", runs[0].Command, runs[1].Command)
	}
}

func TestRecentEmpty(t *testing.T) {
	j := openTestJournal(t)
	runs, err := j.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Errorf("Recent() = %#v, want empty non-nil", runs)
	}
}

func TestRecordMoves(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	run := &Run{Command: "move", Root: "/r", Mode: "day", StartedAt: time.Now()}
	if err := j.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	result := &organize.MoveResult{
		Moved:  []organize.FileMove{{From: "/r/a.jpg", To: "/r/_days_/2023-05-01/a.jpg"}},
		Failed: []organize.FileMove{{From: "/r/b.jpg", To: "/r/_days_/2023-05-01/b.jpg", Err: "permission denied"}},
	}
	if err := j.RecordMoves(ctx, run.ID, result); err != nil {
		t.Fatalf("RecordMoves() error = %v", err)
	}

	got, err := j.Moves(ctx, run.ID)
	if err != nil {
		t.Fatalf("Moves() error = %v", err)
	}
	want := append(append([]organize.FileMove{}, result.Moved...), result.Failed...)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Moves() = %+v, want %+v", got, want)
	}
}

func TestRecordCompressions(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	run := &Run{Command: "compress", Root: "/r", StartedAt: time.Now()}
	if err := j.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	result := &compress.Result{
		Changed: []compress.FileChange{{Path: "/r/a.jpg", BeforeBytes: 3000, AfterBytes: 1000}},
		Skipped: []compress.FileSkip{
			{Path: "/r/b.png", Reason: compress.ReasonNotSmaller},
			{Path: "/r/c.jpg", Reason: compress.ReasonError, Error: "boom"},
		},
	}
	if err := j.RecordCompressions(ctx, run.ID, result); err != nil {
		t.Fatalf("RecordCompressions() error = %v", err)
	}

	got, err := j.Compressions(ctx, run.ID)
	if err != nil {
		t.Fatalf("Compressions() error = %v", err)
	}
	want := []Compression{
		{Path: "/r/a.jpg", Outcome: "compressed", BeforeBytes: 3000, AfterBytes: 1000},
		{Path: "/r/b.png", Outcome: "not-smaller"},
		{Path: "/r/c.jpg", Outcome: "error", Error: "boom"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compressions() = %+v, want %+v", got, want)
	}
}

func TestRecordMovesUnknownRun(t *testing.T) {
	j := openTestJournal(t)
	result := &organize.MoveResult{Moved: []organize.FileMove{{From: "/a", To: "/b"}}}
	if err := j.RecordMoves(context.Background(), "missing", result); err == nil {
		t.Error("RecordMoves() error = nil, want foreign key failure")
	}
}
