// Package workbook keeps ledger tables as worksheets of a local XLSX file.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"billing/internal/logger"
	"billing/internal/store"
)

// Workbook is a store.Store over a single .xlsx file. Every write is saved
// before the call returns.
type Workbook struct {
	path string
	log  zerolog.Logger

	mu   sync.Mutex
	file *excelize.File
}

var _ store.Store = (*Workbook)(nil)

// Open loads path, or starts an empty workbook when the file does not exist.
func Open(path string) (*Workbook, error) {
	const op = "workbook.Open"

	var (
		f   *excelize.File
		err error
	)
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		f = excelize.NewFile()
	} else {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &Workbook{path: path, file: f, log: logger.WithComponent("workbook")}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *Workbook) Read(ctx context.Context, table string) ([][]string, error) {
	const op = "workbook.Read"

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasSheet(table) {
		return nil, fmt.Errorf("%s: %s: %w", op, table, store.ErrTableNotFound)
	}
	rows, err := w.file.GetRows(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, table, err)
	}
	return rows, nil
}

func (w *Workbook) Append(ctx context.Context, table string, rows [][]string) error {
	const op = "workbook.Append"

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureSheet(table); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	existing, err := w.file.GetRows(table)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", op, table, err)
	}
	next := len(existing) + 1
	for i, row := range rows {
		if err := w.setRow(table, next+i, row); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	w.log.Debug().Str("table", table).Int("rows_written", len(rows)).Msg("Appended rows")
	return w.save(op)
}

func (w *Workbook) UpdateCells(ctx context.Context, table string, updates []store.CellUpdate) error {
	const op = "workbook.UpdateCells"

	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasSheet(table) {
		return fmt.Errorf("%s: %s: %w", op, table, store.ErrTableNotFound)
	}
	for _, u := range updates {
		cell, err := excelize.CoordinatesToCellName(u.Col+1, u.Row)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := w.file.SetCellStr(table, cell, u.Value); err != nil {
			return fmt.Errorf("%s: %s: %w", op, cell, err)
		}
	}
	return w.save(op)
}

func (w *Workbook) WriteHeader(ctx context.Context, table string, header []string) error {
	const op = "workbook.WriteHeader"

	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureSheet(table); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := w.setRow(table, 1, header); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return w.save(op)
}

func (w *Workbook) hasSheet(table string) bool {
	idx, err := w.file.GetSheetIndex(table)
	return err == nil && idx >= 0
}

func (w *Workbook) ensureSheet(table string) error {
	if w.hasSheet(table) {
		return nil
	}
	if _, err := w.file.NewSheet(table); err != nil {
		return fmt.Errorf("create sheet %s: %w", table, err)
	}
	w.log.Info().Str("table", table).Msg("Created worksheet")
	return nil
}

func (w *Workbook) setRow(table string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return w.file.SetSheetRow(table, cell, &cells)
}

func (w *Workbook) save(op string) error {
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("%s: save %s: %w", op, w.path, err)
	}
	return nil
}
