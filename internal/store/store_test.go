package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "history.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close should not error: %v", err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i, err)
		}
		v, err := SchemaVersion(s.db)
		if err != nil {
			t.Fatal(err)
		}
		if v != len(migrations) {
			t.Errorf("expected schema version %d, got %d", len(migrations), v)
		}
		s.Close()
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	entries := []*Expansion{
		{Timestamp: base, Trigger: ":date", OK: true, OutputLen: 10, Variables: 1, Duration: time.Millisecond},
		{Timestamp: base.Add(time.Second), Trigger: ":sig", Source: "base.yml", OK: true, OutputLen: 7},
		{Timestamp: base.Add(2 * time.Second), Trigger: ":date", OK: false, Error: "boom", Variables: 1},
	}
	for _, e := range entries {
		id, err := s.Record(ctx, e)
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if id == 0 || e.ID != id {
			t.Errorf("expected the ID to be set, got %d/%d", id, e.ID)
		}
	}

	all, err := s.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Trigger != ":date" || all[0].OK || all[0].Error != "boom" {
		t.Errorf("newest entry should be the failed :date pass, got %+v", all[0])
	}
	if all[1].Source != "base.yml" {
		t.Errorf("expected source base.yml, got %q", all[1].Source)
	}
	if !all[2].Timestamp.Equal(base) || all[2].Duration != time.Millisecond || all[2].Variables != 1 {
		t.Errorf("oldest entry not preserved: %+v", all[2])
	}

	dates, err := s.Recent(ctx, ":date", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 1 || dates[0].Error != "boom" {
		t.Errorf("unexpected filtered result %+v", dates)
	}
}

func TestTriggerStats(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	for _, e := range []*Expansion{
		{Trigger: ":a", OK: true},
		{Trigger: ":a", OK: false, Error: "x"},
		{Trigger: ":a", OK: true},
		{Trigger: ":b", OK: true},
	} {
		if _, err := s.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.TriggerStats(ctx)
	if err != nil {
		t.Fatalf("TriggerStats failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 triggers, got %d", len(stats))
	}
	if stats[0].Trigger != ":a" || stats[0].Count != 3 || stats[0].Failures != 1 {
		t.Errorf("unexpected stats for :a: %+v", stats[0])
	}
	if stats[0].Last.IsZero() {
		t.Error("last use not set")
	}
}

func TestPrune(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	now := time.Now()

	for _, ts := range []time.Time{now.Add(-48 * time.Hour), now.Add(-30 * time.Hour), now} {
		if _, err := s.Record(ctx, &Expansion{Timestamp: ts, Trigger: ":x", OK: true}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 pruned, got %d", n)
	}
	left, _ := s.Recent(ctx, "", 10)
	if len(left) != 1 {
		t.Errorf("expected 1 left, got %d", len(left))
	}
}

func TestClosedStore(t *testing.T) {
	s := openTest(t)
	s.Close()
	if _, err := s.Record(context.Background(), &Expansion{Trigger: ":x"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Recent(context.Background(), "", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestNullError(t *testing.T) {
	if ns := nullString(""); ns.Valid {
		t.Error("empty error should be NULL")
	}
	if ns := nullString("x"); ns != (sql.NullString{String: "x", Valid: true}) {
		t.Errorf("unexpected %+v", ns)
	}
}

func TestPing(t *testing.T) {
	s := openTest(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping after Close = %v, want ErrClosed", err)
	}
}
