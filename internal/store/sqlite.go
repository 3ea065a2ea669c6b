package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/nao1215/emailcrawler/internal/model"
)

// SQLiteTable stores the result table in the emails table of a SQLite
// database. Row order is insertion order.
type SQLiteTable struct {
	path string
}

// NewSQLiteTable returns a SQLiteTable for path.
func NewSQLiteTable(path string) *SQLiteTable {
	return &SQLiteTable{path: path}
}

// Path returns the database path.
func (t *SQLiteTable) Path() string {
	return t.path
}

const createEmailsTable = `
CREATE TABLE IF NOT EXISTS emails (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE
)`

// open opens the database. With create false a missing file is an error
// instead of being created.
func (t *SQLiteTable) open(create bool) (*sql.DB, error) {
	mode := "rw"
	if create {
		mode = "rwc"
		if err := os.MkdirAll(filepath.Dir(t.path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", t.path+"?mode="+mode)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Load reads all rows of the emails table. A database without the table
// has no rows.
func (t *SQLiteTable) Load(ctx context.Context) ([]model.Record, error) {
	if !fileExists(t.path) {
		return nil, nil
	}

	db, err := t.open(false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptTable, err)
	}
	defer db.Close()

	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'emails'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptTable, err)
	}

	rows, err := db.QueryContext(ctx, "SELECT domain, email FROM emails ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptTable, err)
	}
	defer rows.Close()

	records := make([]model.Record, 0)
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.Domain, &r.Email); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptTable, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptTable, err)
	}
	return records, nil
}

// Save replaces the contents of the emails table in one transaction.
func (t *SQLiteTable) Save(ctx context.Context, records []model.Record) error {
	db, err := t.open(true)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, createEmailsTable); err != nil {
		return fmt.Errorf("failed to create emails table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM emails"); err != nil {
		return fmt.Errorf("failed to clear emails table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO emails (domain, email) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Domain, r.Email); err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.Email, err)
		}
	}

	return tx.Commit()
}
