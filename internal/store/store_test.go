package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/emailcrawler/internal/model"
)

// formats lists one file name per supported backend.
var formats = []string{"emails.xlsx", "emails.csv", "emails.db"}

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "emails.xlsx", want: "*store.XLSXTable"},
		{path: "out/EMAILS.XLSX", want: "*store.XLSXTable"},
		{path: "emails.csv", want: "*store.CSVTable"},
		{path: "emails.db", want: "*store.SQLiteTable"},
		{path: "emails.sqlite", want: "*store.SQLiteTable"},
		{path: "emails.sqlite3", want: "*store.SQLiteTable"},
		{path: "emails.txt", wantErr: true},
		{path: "emails", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			table, err := Open(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := fmt.Sprintf("%T", table); got != tt.want {
				t.Errorf("Open(%q) = %s, want %s", tt.path, got, tt.want)
			}
			if table.Path() != tt.path {
				t.Errorf("Path() = %q, want %q", table.Path(), tt.path)
			}
		})
	}
}

func openTestStore(t *testing.T, name string) (*Store, *bytes.Buffer) {
	t.Helper()

	table, err := Open(filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(table, WithLogger(logger)), &logs
}

func TestStoreMergeAndSave(t *testing.T) {
	t.Parallel()

	for _, name := range formats {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			t.Run("missing table loads empty", func(t *testing.T) {
				t.Parallel()

				ctx := t.Context()
				s, _ := openTestStore(t, name)
				if got := s.LoadExisting(ctx); len(got) != 0 {
					t.Errorf("expected empty set, got %v", got)
				}
			})

			t.Run("empty input does not write", func(t *testing.T) {
				t.Parallel()

				ctx := t.Context()
				s, _ := openTestStore(t, name)
				result, err := s.MergeAndSave(ctx, "https://example.com", nil)
				if err != nil {
					t.Fatalf("MergeAndSave() error = %v", err)
				}
				if result != (MergeResult{}) {
					t.Errorf("expected zero result, got %+v", result)
				}
				if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
					t.Errorf("expected no file to be written, stat error = %v", err)
				}
			})

			t.Run("existing rows first then new sorted", func(t *testing.T) {
				t.Parallel()

				ctx := t.Context()
				s, _ := openTestStore(t, name)
				first, err := s.MergeAndSave(ctx, "https://a.example", []string{"z@a.example", "m@a.example"})
				if err != nil {
					t.Fatalf("MergeAndSave() error = %v", err)
				}
				if first.Added != 2 || first.Total != 2 {
					t.Errorf("first merge = %+v, want Added 2 Total 2", first)
				}

				second, err := s.MergeAndSave(ctx, "https://b.example", []string{"c@b.example", "m@a.example", "a@b.example"})
				if err != nil {
					t.Fatalf("MergeAndSave() error = %v", err)
				}
				if second.Added != 2 || second.Total != 4 {
					t.Errorf("second merge = %+v, want Added 2 Total 4", second)
				}

				want := []model.Record{
					{Domain: "https://a.example", Email: "m@a.example"},
					{Domain: "https://a.example", Email: "z@a.example"},
					{Domain: "https://b.example", Email: "a@b.example"},
					{Domain: "https://b.example", Email: "c@b.example"},
				}
				if got := s.Records(ctx); !slices.Equal(got, want) {
					t.Errorf("Records() = %v, want %v", got, want)
				}

				existing := s.LoadExisting(ctx)
				if len(existing) != 4 {
					t.Errorf("LoadExisting() = %v, want 4 emails", existing)
				}
			})

			t.Run("merge is idempotent", func(t *testing.T) {
				t.Parallel()

				ctx := t.Context()
				s, _ := openTestStore(t, name)
				emails := []string{"b@example.com", "a@example.com"}

				if _, err := s.MergeAndSave(ctx, "https://example.com", emails); err != nil {
					t.Fatalf("MergeAndSave() error = %v", err)
				}
				once := s.Records(ctx)

				again, err := s.MergeAndSave(ctx, "https://example.com", emails)
				if err != nil {
					t.Fatalf("MergeAndSave() error = %v", err)
				}
				if again.Added != 0 || again.Total != 2 {
					t.Errorf("second merge = %+v, want Added 0 Total 2", again)
				}
				if twice := s.Records(ctx); !slices.Equal(once, twice) {
					t.Errorf("table changed: %v -> %v", once, twice)
				}
			})

			t.Run("concurrent merges keep every email", func(t *testing.T) {
				t.Parallel()

				ctx := t.Context()
				s, _ := openTestStore(t, name)
				var wg sync.WaitGroup
				for i := range 8 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						domain := fmt.Sprintf("https://site%d.example", i)
						if _, err := s.MergeAndSave(ctx, domain, []string{fmt.Sprintf("user%d@example.com", i)}); err != nil {
							t.Errorf("MergeAndSave() error = %v", err)
						}
					}()
				}
				wg.Wait()

				if got := s.LoadExisting(ctx); len(got) != 8 {
					t.Errorf("expected 8 emails, got %d", len(got))
				}
			})
		})
	}
}

func TestStoreCorruptTable(t *testing.T) {
	t.Parallel()

	for _, name := range formats {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, logs := openTestStore(t, name)
			garbage := strings.Repeat("\x00\x01 not a table ", 64)
			if strings.HasSuffix(name, ".csv") {
				garbage = "\"unterminated,quote\nx"
			}
			if err := os.WriteFile(s.Path(), []byte(garbage), 0o600); err != nil {
				t.Fatalf("failed to write corrupt file: %v", err)
			}

			if got := s.LoadExisting(t.Context()); len(got) != 0 {
				t.Errorf("expected empty set for corrupt table, got %v", got)
			}
			if !strings.Contains(logs.String(), "treating as empty") {
				t.Errorf("expected warning log, got %q", logs.String())
			}

			if strings.HasSuffix(name, ".db") {
				// A corrupt database is not overwritten.
				if _, err := s.MergeAndSave(t.Context(), "https://example.com", []string{"a@example.com"}); err == nil {
					t.Error("expected save into corrupt database to fail")
				}
				return
			}

			result, err := s.MergeAndSave(t.Context(), "https://example.com", []string{"a@example.com"})
			if err != nil {
				t.Fatalf("MergeAndSave() error = %v", err)
			}
			if result.Added != 1 || result.Total != 1 {
				t.Errorf("MergeAndSave() = %+v, want Added 1 Total 1", result)
			}

			backup, err := os.ReadFile(s.Path() + ".bak")
			if err != nil {
				t.Fatalf("expected backup of unreadable table: %v", err)
			}
			if string(backup) != garbage {
				t.Errorf("backup does not hold the previous contents")
			}
			if !strings.Contains(logs.String(), "replacing unreadable result table") {
				t.Errorf("expected replace warning, got %q", logs.String())
			}
		})
	}
}

func TestStoreReadableTableHasNoBackup(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, "emails.csv")
	for _, email := range []string{"a@example.com", "b@example.com"} {
		if _, err := s.MergeAndSave(t.Context(), "https://example.com", []string{email}); err != nil {
			t.Fatalf("MergeAndSave() error = %v", err)
		}
	}
	if _, err := os.Stat(s.Path() + ".bak"); !os.IsNotExist(err) {
		t.Errorf("expected no backup for a readable table, stat error = %v", err)
	}
}

func TestCSVTableDedupOnLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "emails.csv")
	content := "Domain,Email\n" +
		"https://old.example,a@example.com\n" +
		"https://new.example,a@example.com\n" +
		"https://old.example,\n" +
		"https://old.example,b@example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}

	s := New(NewCSVTable(path))
	result, err := s.MergeAndSave(t.Context(), "https://new.example", []string{"b@example.com", "c@example.com"})
	if err != nil {
		t.Fatalf("MergeAndSave() error = %v", err)
	}
	if result.Added != 1 || result.Total != 3 {
		t.Errorf("MergeAndSave() = %+v, want Added 1 Total 3", result)
	}

	want := []model.Record{
		{Domain: "https://old.example", Email: "a@example.com"},
		{Domain: "https://old.example", Email: "b@example.com"},
		{Domain: "https://new.example", Email: "c@example.com"},
	}
	if got := s.Records(t.Context()); !slices.Equal(got, want) {
		t.Errorf("Records() = %v, want %v", got, want)
	}
}

func TestParseRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rows    [][]string
		want    []model.Record
		wantErr bool
	}{
		{name: "empty sheet", rows: nil, want: nil},
		{name: "header only", rows: [][]string{{"Domain", "Email"}}, want: []model.Record{}},
		{
			name: "columns found by header",
			rows: [][]string{{"Email", "Note", "Domain"}, {"a@example.com", "x", "https://example.com"}},
			want: []model.Record{{Domain: "https://example.com", Email: "a@example.com"}},
		},
		{
			name: "short rows",
			rows: [][]string{{"Domain", "Email"}, {"https://example.com"}},
			want: []model.Record{{Domain: "https://example.com"}},
		},
		{name: "missing email column", rows: [][]string{{"Domain", "Address"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseRows(tt.rows)
			if tt.wantErr {
				if !errors.Is(err, ErrCorruptTable) {
					t.Errorf("expected ErrCorruptTable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("parseRows() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSQLiteTableWithoutEmailsTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "other.db")
	table := NewSQLiteTable(path)
	db, err := table.open(true)
	if err != nil {
		t.Fatalf("open() error = %v", err)
	}
	if _, err := db.ExecContext(context.Background(), "CREATE TABLE unrelated (id INTEGER)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	_ = db.Close()

	records, err := table.Load(t.Context())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %v", records)
	}
}
