package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nao1215/emailcrawler/internal/model"
)

// Column names of the result table.
const (
	ColumnDomain = "Domain"
	ColumnEmail  = "Email"
)

var (
	// ErrUnsupportedFormat is returned by Open for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrCorruptTable is returned by Table.Load when the destination exists
	// but cannot be read as a result table.
	ErrCorruptTable = errors.New("corrupt result table")
)

// Table loads and saves the complete result table.
type Table interface {
	// Load returns all rows in stored order. A missing destination yields
	// no rows and no error.
	Load(ctx context.Context) ([]model.Record, error)

	// Save replaces the stored table with records.
	Save(ctx context.Context, records []model.Record) error

	// Path returns the destination the table reads and writes.
	Path() string
}

// Open returns the Table implementation for path's extension.
func Open(path string) (Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return NewXLSXTable(path), nil
	case ".csv":
		return NewCSVTable(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteTable(path), nil
	default:
		return nil, fmt.Errorf("%w: %q (use .xlsx, .csv, .db, .sqlite or .sqlite3)", ErrUnsupportedFormat, ext)
	}
}

// MergeResult reports the outcome of MergeAndSave.
type MergeResult struct {
	// Added is the number of emails that were not in the table before.
	Added int

	// Total is the number of rows in the table after the merge.
	Total int
}

// Store merges crawl results into a Table. Merges are serialised, so one
// Store may be shared by concurrent crawls writing to the same table.
type Store struct {
	table  Table
	logger *slog.Logger
	mu     sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store around table.
func New(table Table, opts ...Option) *Store {
	s := &Store{
		table:  table,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the destination of the underlying table.
func (s *Store) Path() string {
	return s.table.Path()
}

// LoadExisting returns the set of emails already stored.
// A missing table yields an empty set. A table that cannot be read is
// logged as a warning and also yields an empty set.
func (s *Store) LoadExisting(ctx context.Context) map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.loadLocked(ctx)
	emails := make(map[string]struct{}, len(records))
	for _, r := range records {
		emails[r.Email] = struct{}{}
	}
	return emails
}

// Records returns the stored rows with duplicate and empty emails removed.
func (s *Store) Records(ctx context.Context) []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, _ := s.loadLocked(ctx)
	return records
}

// MergeAndSave adds emails under domain to the stored table and writes the
// table back in full.
//
// Existing rows keep their order and come first; new rows follow sorted by
// email. When an email occurs more than once, the first occurrence wins.
// An empty emails slice is a no-op: nothing is read or written.
// A destination that exists but cannot be read is copied to "<path>.bak"
// before it is replaced.
func (s *Store) MergeAndSave(ctx context.Context, domain string, emails []string) (MergeResult, error) {
	if len(emails) == 0 {
		return MergeResult{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, unreadable := s.loadLocked(ctx)
	if unreadable {
		backup, err := backupFile(s.table.Path())
		if err != nil {
			return MergeResult{}, fmt.Errorf("failed to back up unreadable %s: %w", s.table.Path(), err)
		}
		s.logger.Warn("replacing unreadable result table", "path", s.table.Path(), "backup", backup)
	}

	seen := make(map[string]struct{}, len(records)+len(emails))
	for _, r := range records {
		seen[r.Email] = struct{}{}
	}

	added := 0
	for _, r := range model.NewRecords(domain, emails) {
		if _, ok := seen[r.Email]; ok || r.Email == "" {
			continue
		}
		seen[r.Email] = struct{}{}
		records = append(records, r)
		added++
	}

	if err := s.table.Save(ctx, records); err != nil {
		return MergeResult{}, fmt.Errorf("failed to save %s: %w", s.table.Path(), err)
	}

	s.logger.Debug("result table saved", "path", s.table.Path(), "added", added, "total", len(records))

	return MergeResult{Added: added, Total: len(records)}, nil
}

// loadLocked reads the table and applies first-seen dedup. Read failures
// are logged and treated as an empty table; unreadable reports them.
func (s *Store) loadLocked(ctx context.Context) (records []model.Record, unreadable bool) {
	records, err := s.table.Load(ctx)
	if err != nil {
		s.logger.Warn("could not read existing results, treating as empty",
			"path", s.table.Path(), "error", err)
		return make([]model.Record, 0), true
	}
	return dedup(records), false
}

// dedup removes rows with an empty email and every repeat of an email,
// keeping the first occurrence.
func dedup(records []model.Record) []model.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if r.Email == "" {
			continue
		}
		if _, ok := seen[r.Email]; ok {
			continue
		}
		seen[r.Email] = struct{}{}
		out = append(out, r)
	}
	return out
}
