// Package store persists the (Domain, Email) result table and merges new
// crawl results into it.
//
// The table format follows the output path's extension:
//
//	.xlsx                  Excel workbook (github.com/xuri/excelize/v2)
//	.csv                   comma-separated values
//	.db .sqlite .sqlite3   SQLite database (modernc.org/sqlite)
//
// Every format holds the same two columns, Domain and Email, and email
// values are unique across the table. A merge always rewrites the whole
// table; file formats are replaced atomically via a temporary file.
package store
