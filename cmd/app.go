package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"billing/internal/archive"
	"billing/internal/config"
	"billing/internal/document"
	"billing/internal/layout"
	"billing/internal/ledger"
	"billing/internal/reconciliation"
	"billing/internal/sequence"
	"billing/internal/sheets"
	"billing/internal/store"
	"billing/internal/totals"
	"billing/internal/workbook"
)

// app is the wired object graph behind every command.
type app struct {
	cfg      config.Config
	repo     *ledger.Repository
	engine   *reconciliation.Engine
	metrics  *reconciliation.Metrics
	reader   *reconciliation.DataReader
	docs     *document.Service
	redisOpt *asynq.RedisClientOpt

	closers []func() error
	log     zerolog.Logger
}

// newApp loads the configuration and builds the store, numbering,
// reconciliation and document layers from it.
func newApp(ctx context.Context, log zerolog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	st, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.repo = ledger.New(st, ledger.Tables{
		Firms:     cfg.FirmTable,
		Suppliers: cfg.SupplierTable,
		Challan:   cfg.ChallanTable,
		Invoice:   cfg.InvoiceTable,
	}, cfg.StoreTimeout)
	a.metrics = reconciliation.NewMetrics(nil)
	a.reader = reconciliation.NewDataReader(a.repo)

	var (
		locker sequence.Locker
		marks  sequence.Watermarks
		queue  reconciliation.Queue
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		a.closers = append(a.closers, client.Close)
		locker = sequence.NewRedisLocker(client, cfg.LockTTL)
		marks = sequence.NewRedisWatermarks(client)
		a.engine = reconciliation.NewEngine(a.repo, a.metrics, locker)

		a.redisOpt = &asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		q := reconciliation.NewAsynqQueue(*a.redisOpt, cfg.ReconcileQueue, cfg.ReconcileRetries)
		a.closers = append(a.closers, q.Close)
		queue = q
		log.Info().Str("redis", cfg.RedisAddr).Msg("Using Redis for numbering and reconciliation")
	} else {
		a.engine = reconciliation.NewEngine(a.repo, a.metrics, nil)
		q := reconciliation.NewLocalQueue(a.engine, reconciliation.LocalOptions{
			Workers:  cfg.WorkerConcurrency,
			MaxRetry: cfg.ReconcileRetries,
			Timeout:  cfg.StoreTimeout * 2,
		})
		a.closers = append(a.closers, func() error { q.Close(); return nil })
		queue = q
	}

	archives, err := a.archives(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	renderer := layout.NewRenderer(layout.Options{
		ChallanRows: cfg.ChallanMaxRows,
		InvoiceRows: cfg.InvoiceMaxRows,
		SACDefault:  cfg.SACDefault,
		Logos:       layout.StockSource{Client: &http.Client{Timeout: cfg.LogoTimeout}},
		LogoTimeout: cfg.LogoTimeout,
	})

	a.docs = document.NewService(document.Deps{
		Ledger:    a.repo,
		Allocator: sequence.NewAllocator(locker, marks),
		Renderer:  renderer,
		Queue:     queue,
		Archives:  archives,
	}, document.Options{
		Rates:       totals.NewRates(cfg.GSTTotal),
		SACDefault:  cfg.SACDefault,
		Location:    cfg.Location(),
		PhoneRegion: cfg.PhoneRegion,
	})
	return a, nil
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	switch a.cfg.Backend {
	case config.BackendSheets:
		svc, err := sheets.NewSheetsService(ctx, sheets.Options{
			Spreadsheet:     a.cfg.SpreadsheetRef(),
			CredentialsJSON: a.cfg.GoogleCredentials,
			CredentialsFile: a.cfg.GoogleCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		return svc, nil
	case config.BackendWorkbook:
		wb, err := workbook.Open(a.cfg.WorkbookPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		a.closers = append(a.closers, wb.Close)
		return wb, nil
	default:
		a.log.Warn().Msg("Using in-memory ledger, nothing will be kept")
		return store.NewMemory(), nil
	}
}

func (a *app) archives(ctx context.Context) ([]archive.Archiver, error) {
	var out []archive.Archiver
	if a.cfg.SaveDir != "" {
		out = append(out, archive.Local{Dir: a.cfg.SaveDir})
	}
	if a.cfg.GCSOutputBucket != "" {
		client, err := archive.NewGCSClient(ctx, a.cfg.GoogleCredentials)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Cloud Storage client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		out = append(out, archive.GCS{Client: client, Bucket: a.cfg.GCSOutputBucket, Prefix: a.cfg.GCSOutputFolder})
	}
	return out, nil
}

// close releases everything in reverse order of acquisition; the local
// reconciliation queue drains first.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("Failed to release resource")
		}
	}
	a.closers = nil
}

// createCommandContext bounds a command by timeout and cancels it on
// SIGINT or SIGTERM. A zero timeout only handles signals.
func createCommandContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
