// Package store defines the named-table capability the ledger is kept in.
package store

import (
	"context"
	"errors"
)

var (
	// ErrTableNotFound is returned by Read when the named table does not exist.
	ErrTableNotFound = errors.New("table not found")
	// ErrNotConfigured is returned when a backend lacks the settings it needs.
	ErrNotConfigured = errors.New("store not configured")
)

// CellUpdate addresses a single cell. Row is the 1-based row number as the
// table shows it (1 is the header row); Col is the 0-based column index.
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// Store is a spreadsheet-like collection of named tables of string cells.
// Row 0 of Read is the header row.
type Store interface {
	Read(ctx context.Context, table string) ([][]string, error)
	Append(ctx context.Context, table string, rows [][]string) error
	UpdateCells(ctx context.Context, table string, updates []CellUpdate) error
	WriteHeader(ctx context.Context, table string, header []string) error
}

// Pad returns row extended with empty strings to at least n cells.
func Pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
