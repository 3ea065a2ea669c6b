package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/nao1215/emailcrawler/internal/model"
)

// CSVTable stores the result table as comma-separated values with a
// header row.
type CSVTable struct {
	path string
}

// NewCSVTable returns a CSVTable for path.
func NewCSVTable(path string) *CSVTable {
	return &CSVTable{path: path}
}

// Path returns the CSV file path.
func (t *CSVTable) Path() string {
	return t.path
}

// Load reads the CSV file.
func (t *CSVTable) Load(_ context.Context) ([]model.Record, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptTable, err)
	}
	return parseRows(rows)
}

// Save writes records and replaces the file.
func (t *CSVTable) Save(_ context.Context, records []model.Record) error {
	return writeFileAtomic(t.path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{ColumnDomain, ColumnEmail}); err != nil {
			return err
		}
		for _, r := range records {
			if err := cw.Write([]string{r.Domain, r.Email}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
