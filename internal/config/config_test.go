package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", BackendMemory)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.GSTTotal)
	assert.Equal(t, "123456", cfg.SACDefault)
	assert.Equal(t, 5, cfg.ChallanMaxRows)
	assert.Equal(t, 10, cfg.InvoiceMaxRows)
	assert.Equal(t, 15*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "Challan", cfg.ChallanTable)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"LEDGER_BACKEND": "csv"}},
		{"sheets without spreadsheet", map[string]string{"LEDGER_BACKEND": BackendSheets, "SPREADSHEET_ID": "", "GOOGLE_SHEET_URL": ""}},
		{"negative gst", map[string]string{"LEDGER_BACKEND": BackendMemory, "GST_TOTAL": "-1"}},
		{"zero rows", map[string]string{"LEDGER_BACKEND": BackendMemory, "INV_MAX_ROWS": "0"}},
		{"bad timezone", map[string]string{"LEDGER_BACKEND": BackendMemory, "APP_TIMEZONE": "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSpreadsheetRef_PrefersID(t *testing.T) {
	cfg := Config{SpreadsheetID: "abc", GoogleSheetURL: "https://docs.google.com/spreadsheets/d/xyz/edit"}
	assert.Equal(t, "abc", cfg.SpreadsheetRef())

	cfg.SpreadsheetID = ""
	assert.Equal(t, cfg.GoogleSheetURL, cfg.SpreadsheetRef())
}

func TestGetLoggerConfig(t *testing.T) {
	cfg := Config{LogLevel: "debug", LogFormat: "json", LogOutput: "stdout"}
	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "stdout", lc.Output)
}
