package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/store"
)

func TestMemory_ReadMissingTable(t *testing.T) {
	m := store.NewMemory()
	_, err := m.Read(context.Background(), "Challan")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrTableNotFound))
}

func TestMemory_AppendAndUpdate(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.WriteHeader(ctx, "Challan", []string{"Firm", "Qty"}))
	require.NoError(t, m.Append(ctx, "Challan", [][]string{{"ACME", "2"}, {"ACME"}}))

	require.NoError(t, m.UpdateCells(ctx, "Challan", []store.CellUpdate{{Row: 3, Col: 2, Value: "5.00"}}))

	rows, err := m.Read(ctx, "Challan")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Firm", "Qty"}, rows[0])
	assert.Equal(t, []string{"ACME", "", "5.00"}, rows[2])
}

func TestMemory_ReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.Seed("ID", [][]string{{"Firm"}, {"ACME"}})

	rows, err := m.Read(ctx, "ID")
	require.NoError(t, err)
	rows[1][0] = "changed"

	again, err := m.Read(ctx, "ID")
	require.NoError(t, err)
	assert.Equal(t, "ACME", again[1][0])
}

func TestMemory_WriteHeaderKeepsRows(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.Seed("Challan", [][]string{{"Firm"}, {"ACME"}})

	require.NoError(t, m.WriteHeader(ctx, "Challan", []string{"Firm", "INVOICE_MTR"}))

	rows, err := m.Read(ctx, "Challan")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Firm", "INVOICE_MTR"}, {"ACME"}}, rows)
}

func TestPad(t *testing.T) {
	assert.Equal(t, []string{"a", "", ""}, store.Pad([]string{"a"}, 3))
	assert.Equal(t, []string{"a", "b"}, store.Pad([]string{"a", "b"}, 1))
}
