package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key BLOB PRIMARY KEY,
    value BLOB NOT NULL
) WITHOUT ROWID;
`

// SQLite stores entries in a single kv table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite backend at path, or an in-memory database when
// path is empty.
//
// The pool is limited to one connection: every connection to ":memory:" is
// a separate database, and SQLite only supports one writer anyway.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(db, path != ""); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// applyPragmas sets the SQLite configuration. WAL only applies to files.
func applyPragmas(db *sql.DB, onDisk bool) error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	if onDisk {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (b *SQLite) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := b.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get: %w", err)
	}
	return present(value), true, nil
}

func (b *SQLite) Put(key, value []byte) error {
	_, err := b.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, present(value),
	)
	if err != nil {
		return fmt.Errorf("sqlite put: %w", err)
	}
	return nil
}

func (b *SQLite) Delete(key []byte) error {
	if _, err := b.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

func (b *SQLite) Clear() error {
	if _, err := b.db.Exec(`DELETE FROM kv`); err != nil {
		return fmt.Errorf("sqlite clear: %w", err)
	}
	return nil
}

// Entries relies on BLOB ordering, which is memcmp order.
func (b *SQLite) Entries() ([]KV, error) {
	rows, err := b.db.Query(`SELECT key, value FROM kv ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite entries: %w", err)
	}
	defer rows.Close()

	var out []KV
	for rows.Next() {
		var kv KV
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("sqlite entries: scan: %w", err)
		}
		kv.Value = present(kv.Value)
		out = append(out, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite entries: %w", err)
	}
	return out, nil
}

func (b *SQLite) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (b *SQLite) verifyPragma(name, expected string) error {
	var value string
	if err := b.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
