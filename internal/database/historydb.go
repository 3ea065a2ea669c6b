package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/emailcrawler/internal/model"
)

// DatabaseFile is the file name of the history database.
const DatabaseFile = "history.db"

// HistoryDB records crawl runs and the pages they visited.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DatabaseFile)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: pages are inserted from many crawl workers at once
	// and SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		output TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		pages_fetched INTEGER DEFAULT 0,
		pages_failed INTEGER DEFAULT 0,
		urls_claimed INTEGER DEFAULT 0,
		new_emails TEXT DEFAULT '[]',
		added INTEGER DEFAULT 0,
		total_records INTEGER DEFAULT 0,
		error TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		state TEXT NOT NULL,
		error TEXT DEFAULT '',
		email_count INTEGER DEFAULT 0,
		link_count INTEGER DEFAULT 0,
		content_hash TEXT DEFAULT '',
		visited_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// InsertRun records the start of a run and stores the new ID in run.ID.
func (h *HistoryDB) InsertRun(ctx context.Context, run *model.RunSummary) (int64, error) {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	result, err := h.db.ExecContext(ctx,
		`INSERT INTO runs (seed, output, started_at) VALUES (?, ?, ?)`,
		run.Seed, run.Output, formatTimestamp(run.StartedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	run.ID = id
	return id, nil
}

// FinishRun stores the final counters, emails and error of run.
func (h *HistoryDB) FinishRun(ctx context.Context, run *model.RunSummary) error {
	if run.ID == 0 {
		return errors.New("run has no ID: call InsertRun first")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	emailsJSON, err := json.Marshal(run.NewEmails)
	if err != nil {
		return fmt.Errorf("failed to serialize emails: %w", err)
	}

	_, err = h.db.ExecContext(ctx, `
	UPDATE runs SET
		finished_at = ?, pages_fetched = ?, pages_failed = ?, urls_claimed = ?,
		new_emails = ?, added = ?, total_records = ?, error = ?
	WHERE id = ?`,
		formatTimestamp(run.FinishedAt), run.PagesFetched, run.PagesFailed, run.URLsClaimed,
		string(emailsJSON), run.Added, run.TotalRecords, run.Error,
		run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// PageRecord is one claimed page of a run.
type PageRecord struct {
	ID          int64
	RunID       int64
	URL         string
	Depth       int
	State       string
	Error       string
	EmailCount  int
	LinkCount   int
	ContentHash string
	VisitedAt   time.Time
}

// InsertPage records a page of the run identified by page.RunID.
func (h *HistoryDB) InsertPage(ctx context.Context, page *PageRecord) error {
	if page.VisitedAt.IsZero() {
		page.VisitedAt = time.Now()
	}

	result, err := h.db.ExecContext(ctx, `
	INSERT INTO pages (run_id, url, depth, state, error, email_count, link_count, content_hash, visited_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		page.RunID, page.URL, page.Depth, page.State, page.Error,
		page.EmailCount, page.LinkCount, page.ContentHash, formatTimestamp(page.VisitedAt))
	if err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get page ID: %w", err)
	}
	page.ID = id
	return nil
}

// ListPages returns the pages of a run in visit order.
func (h *HistoryDB) ListPages(ctx context.Context, runID int64) ([]PageRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT id, run_id, url, depth, state, error, email_count, link_count, content_hash, visited_at
	FROM pages WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := make([]PageRecord, 0)
	for rows.Next() {
		var p PageRecord
		var visitedAt string
		if err := rows.Scan(&p.ID, &p.RunID, &p.URL, &p.Depth, &p.State, &p.Error,
			&p.EmailCount, &p.LinkCount, &p.ContentHash, &visitedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.VisitedAt = parseTimestamp(visitedAt)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

const selectRun = `
SELECT id, seed, output, started_at, finished_at, pages_fetched, pages_failed,
	urls_claimed, new_emails, added, total_records, error
FROM runs`

// GetRun returns the run with the given ID, or nil if there is none.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*model.RunSummary, error) {
	run, err := scanRun(h.db.QueryRowContext(ctx, selectRun+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. An empty seed lists
// runs of every seed; limit <= 0 means no limit.
func (h *HistoryDB) ListRuns(ctx context.Context, seed string, limit int) ([]*model.RunSummary, error) {
	query := selectRun
	args := make([]any, 0, 2)
	if seed != "" {
		query += " WHERE seed = ?"
		args = append(args, seed)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*model.RunSummary, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.RunSummary, error) {
	var run model.RunSummary
	var startedAt string
	var finishedAt sql.NullString
	var emailsJSON string

	if err := row.Scan(&run.ID, &run.Seed, &run.Output, &startedAt, &finishedAt,
		&run.PagesFetched, &run.PagesFailed, &run.URLsClaimed, &emailsJSON,
		&run.Added, &run.TotalRecords, &run.Error); err != nil {
		return nil, err
	}

	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}

	run.NewEmails = make([]string, 0)
	if emailsJSON != "" {
		if err := json.Unmarshal([]byte(emailsJSON), &run.NewEmails); err != nil {
			return nil, fmt.Errorf("failed to parse emails: %w", err)
		}
	}
	return &run, nil
}

// timestampLayout has a fixed width so that stored timestamps sort
// chronologically as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp tries each of timestampFormats and returns the zero time
// if none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
