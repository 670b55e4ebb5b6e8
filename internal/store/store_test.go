package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"requests", "recordings"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	if _, err := s.WriteRequest(t.Context(), createTestRequest("r1", "/status", 200)); err != nil {
		t.Fatalf("WriteRequest() failed: %v", err)
	}
	got, err := s.RecentRequests(t.Context(), 0)
	if err != nil {
		t.Fatalf("RecentRequests() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d requests, want 1", len(got))
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	checks := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
		"user_version": fmt.Sprint(schemaVersion()),
	}
	for name, want := range checks {
		if got := pragma(t, s, name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestOpen_InMemoryPragmas(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	if got := pragma(t, s, "journal_mode"); got != "memory" {
		t.Errorf("journal_mode = %q, want %q", got, "memory")
	}
	if got := pragma(t, s, "user_version"); got != fmt.Sprint(schemaVersion()) {
		t.Errorf("user_version = %q, want %d", got, schemaVersion())
	}
}

func TestOpen_MigratesV0Database(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	// Rebuild requests the way version 0 created it.
	for _, stmt := range []string{
		"DROP TABLE requests",
		`CREATE TABLE requests (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			endpoint TEXT NOT NULL,
			params TEXT NOT NULL DEFAULT '{}',
			status INTEGER NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			virtual_ms INTEGER NOT NULL DEFAULT 0
		)`,
		"PRAGMA user_version = 0",
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if _, err := s.WriteRequest(t.Context(), createTestRequest("r1", "/click", 200)); err != nil {
		t.Fatalf("WriteRequest() after migration failed: %v", err)
	}
	if got := pragma(t, s, "user_version"); got != "1" {
		t.Errorf("user_version = %q, want %q", got, "1")
	}
	got, err := s.ReadRequest(t.Context(), "r1")
	if err != nil {
		t.Fatalf("ReadRequest() failed: %v", err)
	}
	if got.Duration != createTestRequest("r1", "/click", 200).Duration {
		t.Errorf("duration = %v after migration", got.Duration)
	}
}

func TestMigrate_SkipsAppliedVersions(t *testing.T) {
	s := createTestStore(t)

	// Reapplying an up-to-date log must not fail on the existing column.
	if err := migrate(s.db); err != nil {
		t.Fatalf("migrate() on current log failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatal(err)
	}
	if err := migrate(s.db); err != nil {
		t.Fatalf("migrate() with existing column failed: %v", err)
	}
	if got := pragma(t, s, "user_version"); got != "1" {
		t.Errorf("user_version = %q, want %q", got, "1")
	}
}

// pragma reads the current value of a PRAGMA as text.
func pragma(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		t.Fatalf("PRAGMA %s: %v", name, err)
	}
	return value
}
