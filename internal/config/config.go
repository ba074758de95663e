package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // APP_TIMEZONE must resolve on hosts without zoneinfo

	"github.com/kelseyhightower/envconfig"

	"billing/internal/logger"
)

// Backend names accepted by LEDGER_BACKEND.
const (
	BackendSheets   = "sheets"
	BackendWorkbook = "xlsx"
	BackendMemory   = "memory"
)

// Config is built once at startup and handed down by value.
type Config struct {
	// Ledger backend
	Backend      string        `envconfig:"LEDGER_BACKEND" default:"sheets"`
	WorkbookPath string        `envconfig:"LEDGER_WORKBOOK" default:"ledger.xlsx"`
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"15s"`

	// Google Sheets Configuration
	SpreadsheetID         string `envconfig:"SPREADSHEET_ID"`
	GoogleSheetURL        string `envconfig:"GOOGLE_SHEET_URL"`
	GoogleCredentials     string `envconfig:"GOOGLE_SA_JSON"`
	GoogleCredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Table names
	FirmTable     string `envconfig:"ID_TAB_NAME" default:"ID"`
	SupplierTable string `envconfig:"SUPPLIER_TAB_NAME" default:"Supplier"`
	ChallanTable  string `envconfig:"CHALLAN_TAB_NAME" default:"Challan"`
	InvoiceTable  string `envconfig:"INVOICE_TAB_NAME" default:"Invoice"`

	// Document rules
	GSTTotal       float64       `envconfig:"GST_TOTAL" default:"5.0"`
	SACDefault     string        `envconfig:"SAC_DEFAULT" default:"123456"`
	ChallanMaxRows int           `envconfig:"CH_MAX_ROWS" default:"5"`
	InvoiceMaxRows int           `envconfig:"INV_MAX_ROWS" default:"10"`
	Timezone       string        `envconfig:"APP_TIMEZONE" default:"Asia/Kolkata"`
	PhoneRegion    string        `envconfig:"PHONE_REGION" default:"IN"`
	LogoTimeout    time.Duration `envconfig:"LOGO_TIMEOUT" default:"8s"`

	// Archive copies
	SaveDir         string `envconfig:"SAVE_DIR"`
	GCSOutputBucket string `envconfig:"GCS_OUTPUT_BUCKET"`
	GCSOutputFolder string `envconfig:"GCS_OUTPUT_FOLDER"`

	// Redis-backed numbering lock and reconciliation queue
	RedisAddr         string        `envconfig:"REDIS_ADDR"`
	RedisPassword     string        `envconfig:"REDIS_PASSWORD"`
	RedisDB           int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL           time.Duration `envconfig:"NUMBER_LOCK_TTL" default:"30s"`
	ReconcileQueue    string        `envconfig:"RECONCILE_QUEUE" default:"reconcile"`
	ReconcileRetries  int           `envconfig:"RECONCILE_MAX_RETRY" default:"5"`
	WorkerConcurrency int           `envconfig:"WORKER_CONCURRENCY" default:"2"`
	MetricsAddr       string        `envconfig:"METRICS_ADDR"`

	// Logging Configuration
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"console"`
	LogTimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02T15:04:05Z07:00"`
	LogOutput     string `envconfig:"LOG_OUTPUT" default:"stderr"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendSheets:
		if c.SpreadsheetID == "" && c.GoogleSheetURL == "" {
			return fmt.Errorf("SPREADSHEET_ID or GOOGLE_SHEET_URL is required for the sheets backend")
		}
	case BackendWorkbook:
		if c.WorkbookPath == "" {
			return fmt.Errorf("LEDGER_WORKBOOK is required for the xlsx backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.Backend)
	}
	if c.GSTTotal < 0 {
		return fmt.Errorf("GST_TOTAL must not be negative")
	}
	if c.ChallanMaxRows <= 0 || c.InvoiceMaxRows <= 0 {
		return fmt.Errorf("CH_MAX_ROWS and INV_MAX_ROWS must be positive")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the configured timezone, UTC when it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SpreadsheetRef returns the spreadsheet id or URL, whichever is set.
func (c Config) SpreadsheetRef() string {
	if c.SpreadsheetID != "" {
		return c.SpreadsheetID
	}
	return c.GoogleSheetURL
}

// GetLoggerConfig returns a logger configuration from the main config
func (c Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}
