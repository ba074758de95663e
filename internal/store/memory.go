package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store. Tables are created on first write.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][][]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string][][]string)}
}

// Seed replaces a table's contents, header first.
func (m *Memory) Seed(table string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = cloneRows(rows)
}

func (m *Memory) Read(ctx context.Context, table string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", table, ErrTableNotFound)
	}
	return cloneRows(rows), nil
}

func (m *Memory) Append(ctx context.Context, table string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], cloneRows(rows)...)
	return nil
}

func (m *Memory) UpdateCells(ctx context.Context, table string, updates []CellUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("update %s: %w", table, ErrTableNotFound)
	}
	for _, u := range updates {
		if u.Row < 1 || u.Col < 0 {
			return fmt.Errorf("update %s: invalid cell row=%d col=%d", table, u.Row, u.Col)
		}
		for len(rows) < u.Row {
			rows = append(rows, nil)
		}
		r := Pad(rows[u.Row-1], u.Col+1)
		r[u.Col] = u.Value
		rows[u.Row-1] = r
	}
	m.tables[table] = rows
	return nil
}

func (m *Memory) WriteHeader(ctx context.Context, table string, header []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	h := append([]string(nil), header...)
	if len(rows) == 0 {
		m.tables[table] = [][]string{h}
		return nil
	}
	rows[0] = h
	return nil
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
