package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "", true)
	log = WithRequestID(log, "req-1")
	log = WithFields(log, map[string]interface{}{"invoice": "42"})

	log.Info().Msg("issued")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "42", entry["invoice"])
	assert.Equal(t, "issued", entry["message"])
}

func TestNew_ConsoleIsDefault(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", "", true)
	l.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestSetup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = filepath.Join(t.TempDir(), "billing.log")
	require.NoError(t, Setup(cfg))

	cfg.Level = "loud"
	assert.Error(t, Setup(cfg))
}
