package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/emailcrawler/internal/model"
)

// defaultSheet is the sheet excelize creates in a new workbook.
const defaultSheet = "Sheet1"

// XLSXTable stores the result table in the first sheet of an Excel
// workbook, with a header row.
type XLSXTable struct {
	path string
}

// NewXLSXTable returns an XLSXTable for path.
func NewXLSXTable(path string) *XLSXTable {
	return &XLSXTable{path: path}
}

// Path returns the workbook path.
func (t *XLSXTable) Path() string {
	return t.path
}

// Load reads the first sheet of the workbook.
func (t *XLSXTable) Load(_ context.Context) ([]model.Record, error) {
	if !fileExists(t.path) {
		return nil, nil
	}

	f, err := excelize.OpenFile(t.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptTable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrCorruptTable)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptTable, err)
	}
	return parseRows(rows)
}

// Save writes records to a new workbook and replaces the file.
func (t *XLSXTable) Save(_ context.Context, records []model.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	header := []any{ColumnDomain, ColumnEmail}
	if err := f.SetSheetRow(defaultSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.Domain, r.Email}
		if err := f.SetSheetRow(defaultSheet, cell, &row); err != nil {
			return err
		}
	}

	return writeFileAtomic(t.path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

// parseRows converts tabular rows with a Domain/Email header into records.
// Columns are located by header name, so extra columns are ignored.
// An empty sheet has no records.
func parseRows(rows [][]string) ([]model.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	domainCol, emailCol := -1, -1
	for i, name := range rows[0] {
		switch strings.TrimSpace(name) {
		case ColumnDomain:
			domainCol = i
		case ColumnEmail:
			emailCol = i
		}
	}
	if emailCol < 0 {
		return nil, fmt.Errorf("%w: missing %q column", ErrCorruptTable, ColumnEmail)
	}

	records := make([]model.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var r model.Record
		if domainCol >= 0 && domainCol < len(row) {
			r.Domain = row[domainCol]
		}
		if emailCol < len(row) {
			r.Email = strings.TrimSpace(row[emailCol])
		}
		records = append(records, r)
	}
	return records, nil
}
