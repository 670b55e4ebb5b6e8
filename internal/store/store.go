package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// memoryPath keeps the log in memory for the life of the process.
const memoryPath = ":memory:"

// Store is the request and recording log of one driver process.
type Store struct {
	db *sql.DB
}

// Open opens the log at path, creating it when missing, and brings its
// schema up to date. Passing ":memory:" gives a log that is dropped on Close.
//
// A file-backed log runs in WAL mode so that `compose-driver trace` can read
// it while a driver is still appending.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open request log: %w", err)
	}

	// Every connection to ":memory:" is a separate database, and a file log
	// has one writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := setup(db, path == memoryPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func setup(db *sql.DB, inMemory bool) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to request log: %w", err)
	}
	for _, pragma := range pragmasFor(inMemory) {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create request log tables: %w", err)
	}
	return migrate(db)
}

func pragmasFor(inMemory bool) []string {
	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if !inMemory {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}
	return pragmas
}

// Close closes the log.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// migration upgrades a log written by an older driver to version.
type migration struct {
	version int
	apply   func(tx *sql.Tx) error
}

// migrations are applied in order to logs whose user_version is lower.
// schema.sql always describes the latest version, so each step must be a
// no-op on a freshly created log.
var migrations = []migration{
	{version: 1, apply: func(tx *sql.Tx) error {
		return addColumn(tx, "requests", "duration_us", "INTEGER NOT NULL DEFAULT 0")
	}},
}

// schemaVersion is the user_version of an up-to-date log.
func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read request log version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := inTx(db, func(tx *sql.Tx) error {
			if err := m.apply(tx); err != nil {
				return err
			}
			_, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version))
			return err
		}); err != nil {
			return fmt.Errorf("migrate request log to v%d: %w", m.version, err)
		}
	}
	return nil
}

// addColumn adds column to table unless a log already has it.
func addColumn(tx *sql.Tx, table, column, decl string) error {
	var n int
	err := tx.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&n)
	if err != nil || n > 0 {
		return err
	}
	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

func inTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
