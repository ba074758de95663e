package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"billing/internal/ledger"
	"billing/internal/logger"
	"billing/internal/reconciliation"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Mark an invoice's lines on their challans",
	Long: `Rebuild the reconciliation job of an invoice from the invoice ledger and
write the invoiced quantity of each line onto the first matching challan row
that has no marker yet. Rows are matched on firm, supplier code, challan
number and description.

Issuing an invoice already schedules this; the command re-runs it, for
example after the background job gave up.`,
	Example: `  # Show which challan rows would be marked
  billing reconcile --invoice 42 --dry-run

  # Mark them
  billing reconcile --invoice 42`,
	RunE: runReconcile,
}

// ReconcileOutput reports the rows marked for an invoice.
type ReconcileOutput struct {
	Invoice string       `json:"invoice"`
	Firm    string       `json:"firm"`
	Party   string       `json:"party"`
	Items   int          `json:"items"`
	DryRun  bool         `json:"dry_run"`
	Marked  int          `json:"marked"`
	Marks   []MarkOutput `json:"marks,omitempty"`
}

// MarkOutput is one challan row and the quantity written to it.
type MarkOutput struct {
	Row int    `json:"row"`
	Qty string `json:"qty"`
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("invoice", "", "Invoice number to reconcile")
	reconcileCmd.Flags().Bool("dry-run", false, "Show the marks without writing them")
	reconcileCmd.Flags().Int("timeout", 60, "Timeout in seconds")
	_ = reconcileCmd.MarkFlagRequired("invoice")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reconcile")

	number, _ := cmd.Flags().GetString("invoice")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	number = strings.TrimSpace(number)
	if number == "" {
		return fmt.Errorf("--invoice must not be empty")
	}

	ctx, cancel := createCommandContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		return err
	}
	defer a.close()

	job, err := a.reader.ReadJob(ctx, number)
	if err != nil {
		return err
	}

	log.Info().
		Str("job", job.Key()).
		Int("items", len(job.Items)).
		Bool("dry_run", dryRun).
		Msg("Starting reconciliation")

	out := ReconcileOutput{
		Invoice: job.InvoiceNumber,
		Firm:    job.Firm,
		Party:   job.SupplierCode,
		Items:   len(job.Items),
		DryRun:  dryRun,
	}

	if dryRun {
		snap, err := a.repo.ChallanSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("reconciliation processing failed: %w", err)
		}
		marks := reconciliation.Plan(ledger.Lines(snap.Records), job)
		out.Marked = len(marks)
		for _, m := range marks {
			out.Marks = append(out.Marks, MarkOutput{Row: m.Row, Qty: m.Qty})
		}
		return outputJSON(out, log)
	}

	n, err := a.engine.Reconcile(ctx, job)
	if err != nil {
		return fmt.Errorf("reconciliation processing failed: %w", err)
	}
	out.Marked = n

	log.Info().Int("marked", n).Msg("Reconciliation completed successfully")
	return outputJSON(out, log)
}
