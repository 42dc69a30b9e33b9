package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "journal.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestCloseNilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil db should not error: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.RecordUsage(ctx, "", "af", "ɑ", time.Now()); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	top, err := s.TopUsage(ctx, 5)
	if err != nil {
		t.Fatalf("TopUsage failed: %v", err)
	}
	if len(top) != 1 || top[0].Text != "ɑ" {
		t.Errorf("unexpected usage after reopen: %+v", top)
	}
}

func TestRecordUsageCountsHits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	records := []struct {
		code, text string
		at         time.Time
	}{
		{"af", "ɑ", base},
		{"af", "ɑ", base.Add(time.Second)},
		{"hi", "hello", base.Add(2 * time.Second)},
		{"af", "ɑ", base.Add(3 * time.Second)},
		{"hi", "hi", base.Add(4 * time.Second)},
		{"hi", "hello", base.Add(5 * time.Second)},
	}
	for _, r := range records {
		if err := s.RecordUsage(ctx, "", r.code, r.text, r.at); err != nil {
			t.Fatalf("RecordUsage(%s, %s) failed: %v", r.code, r.text, err)
		}
	}

	top, err := s.TopUsage(ctx, 2)
	if err != nil {
		t.Fatalf("TopUsage failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(top))
	}
	if top[0].Code != "af" || top[0].Hits != 3 {
		t.Errorf("first row = %+v, want af x3", top[0])
	}
	if top[1].Code != "hi" || top[1].Text != "hello" || top[1].Hits != 2 {
		t.Errorf("second row = %+v, want hi/hello x2", top[1])
	}
	if !top[0].LastUsed.Equal(base.Add(3 * time.Second)) {
		t.Errorf("last used = %v", top[0].LastUsed)
	}
}

func TestTopUsageDefaultLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		code := string(rune('a' + i))
		if err := s.RecordUsage(ctx, "", code, code, time.Now()); err != nil {
			t.Fatalf("RecordUsage failed: %v", err)
		}
	}

	top, err := s.TopUsage(ctx, 0)
	if err != nil {
		t.Fatalf("TopUsage failed: %v", err)
	}
	if len(top) != 10 {
		t.Errorf("expected default limit of 10, got %d", len(top))
	}
}

func TestSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Unix(1700000000, 0)

	if err := s.StartSession(ctx, "s1", start); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := s.RecordUsage(ctx, "s1", "af", "ɑ", start); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	if err := s.RecordUsage(ctx, "s1", "hi", "hello", start); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	sess, err := s.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess == nil || sess.Ended != nil || sess.Commits != 2 {
		t.Fatalf("unexpected open session %+v", sess)
	}

	end := start.Add(time.Minute)
	if err := s.EndSession(ctx, "s1", end); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	sess, _ = s.GetSession(ctx, "s1")
	if sess.Ended == nil || !sess.Ended.Equal(end) {
		t.Errorf("session end = %v, want %v", sess.Ended, end)
	}
}

func TestStartSessionTwice(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.StartSession(ctx, "dup", time.Now()); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := s.StartSession(ctx, "dup", time.Now()); err == nil {
		t.Error("expected duplicate session to fail")
	}
}

func TestEndUnknownSession(t *testing.T) {
	s := openTestStore(t)

	err := s.EndSession(context.Background(), "missing", time.Now())
	if !errors.Is(err, ErrUnknownSession) {
		t.Errorf("expected ErrUnknownSession, got %v", err)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := openTestStore(t)

	sess, err := s.GetSession(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil session, got %+v", sess)
	}
}

func TestVerify(t *testing.T) {
	s := openTestStore(t)
	if err := s.Verify(context.Background()); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping after Close should fail")
	}
}

func TestMigrationsRollback(t *testing.T) {
	s := openTestStore(t)

	if err := RollbackMigration(s.db); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}
	v, err := schemaVersion(s.db)
	if err != nil {
		t.Fatalf("schemaVersion failed: %v", err)
	}
	if v != len(migrations)-1 {
		t.Errorf("version = %d, want %d", v, len(migrations)-1)
	}

	if err := MigrateDB(s.db); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}
	if err := s.StartSession(context.Background(), "after", time.Now()); err != nil {
		t.Fatalf("StartSession after re-migrate failed: %v", err)
	}
	if err := s.RecordUsage(context.Background(), "after", "a", "b", time.Now()); err != nil {
		t.Errorf("RecordUsage after re-migrate failed: %v", err)
	}
}

func TestRollbackEverything(t *testing.T) {
	s := openTestStore(t)

	for range migrations {
		if err := RollbackMigration(s.db); err != nil {
			t.Fatalf("RollbackMigration failed: %v", err)
		}
	}
	if err := RollbackMigration(s.db); err == nil {
		t.Error("expected error with nothing to roll back")
	}
	if err := ValidateSchema(s.db); err == nil {
		t.Error("expected missing tables after full rollback")
	}
}
