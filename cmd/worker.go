package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"billing/internal/logger"
	"billing/internal/reconciliation"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background reconciliation worker",
	Long: `Consume reconciliation jobs scheduled by issued invoices from the Redis
queue and mark the invoiced lines on their challans. Failed jobs are retried
with backoff up to RECONCILE_MAX_RETRY times.

Required environment variables:
  REDIS_ADDR - Redis address shared with the issuing commands

Optional:
  METRICS_ADDR - Serve Prometheus metrics on this address (e.g. :9090)`,
	Example: `  REDIS_ADDR=localhost:6379 METRICS_ADDR=:9090 billing worker`,
	RunE:    runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("worker")

	ctx, cancel := createCommandContext(0, log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		return err
	}
	defer a.close()

	if a.redisOpt == nil {
		return fmt.Errorf("REDIS_ADDR environment variable is required")
	}

	worker := reconciliation.NewWorker(*a.redisOpt, a.cfg.ReconcileQueue, a.cfg.WorkerConcurrency, a.engine)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})

	if addr := a.cfg.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		log.Info().Str("addr", addr).Msg("Serving metrics")
	}

	log.Info().
		Str("queue", a.cfg.ReconcileQueue).
		Int("concurrency", a.cfg.WorkerConcurrency).
		Msg("Reconciliation worker started")

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Reconciliation worker stopped")
	return nil
}
