package archive_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/archive"
)

var ts = time.Date(2026, 10, 14, 10, 15, 0, 0, time.UTC)

func TestName(t *testing.T) {
	assert.Equal(t, "Challan_12_Om_Traders_20261014-101500.pdf", archive.Name("challan", "12", " Om Traders ", ts))
	assert.Equal(t, "Challan_12_Party_20261014-101500.pdf", archive.Name("challan", "12", "", ts))
	assert.Equal(t, "Invoice_3_Supplier_20261014-101500.pdf", archive.Name("invoice", "3", "  ", ts))
	assert.Equal(t, "Invoice_3_A_B_C_20261014-101500.pdf", archive.Name("invoice", "3", "A/B C", ts))
}

func TestLocalSaveSuffixesCollisions(t *testing.T) {
	dir := t.TempDir()
	l := archive.Local{Dir: dir}
	name := archive.Name("challan", "1", "Om", ts)

	first, err := l.Save(context.Background(), "challan", "ACME/ZONE", name, []byte("one"))
	require.NoError(t, err)
	second, err := l.Save(context.Background(), "challan", "ACME/ZONE", name, []byte("two"))
	require.NoError(t, err)
	third, err := l.Save(context.Background(), "challan", "ACME/ZONE", name, []byte("three"))
	require.NoError(t, err)

	folder := filepath.Join(dir, "challan", "ACME_ZONE")
	assert.Equal(t, filepath.Join(folder, "Challan_1_Om_20261014-101500.pdf"), first)
	assert.Equal(t, filepath.Join(folder, "Challan_1_Om_20261014-101500_1.pdf"), second)
	assert.Equal(t, filepath.Join(folder, "Challan_1_Om_20261014-101500_2.pdf"), third)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestWriteNewKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "Invoice_3_Om.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	p, err := archive.WriteNew(dir, "Invoice_3_Om.pdf", []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Invoice_3_Om_1.pdf"), p)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	data, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestLocalSaveUnknownFirm(t *testing.T) {
	dir := t.TempDir()
	p, err := archive.Local{Dir: dir}.Save(context.Background(), "invoice", " ", "x.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "invoice", "Unknown", "x.pdf"), p)
}

func TestGCSRequiresBucket(t *testing.T) {
	_, err := archive.GCS{}.Save(context.Background(), "invoice", "ACME", "x.pdf", nil)
	assert.Error(t, err)
}
