package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"billing/internal/logger"
	"billing/internal/reconciliation"
	"billing/internal/totals"
)

var importableCmd = &cobra.Command{
	Use:   "importable",
	Short: "List challan lines not yet invoiced",
	Long: `List the challans of a firm and supplier that still carry lines without
an invoiced-quantity marker, grouped by challan number in ledger order.
These are the lines an invoice can be built from.`,
	Example: `  billing importable --firm "Acme Traders" --supplier S01`,
	RunE:    runImportable,
}

// ImportableOutput is one challan in the importable listing.
type ImportableOutput struct {
	Number            string                 `json:"number"`
	Date              string                 `json:"date"`
	SupplierChallanNo string                 `json:"supplier_challan_no,omitempty"`
	Lines             []ImportableLineOutput `json:"lines"`
}

// ImportableLineOutput is one uninvoiced line.
type ImportableLineOutput struct {
	Row         int    `json:"row"`
	Description string `json:"description"`
	Qty         string `json:"qty"`
	Rate        string `json:"rate"`
}

func init() {
	rootCmd.AddCommand(importableCmd)

	importableCmd.Flags().String("firm", "", "Firm legal name as logged in the ledger")
	importableCmd.Flags().String("supplier", "", "Supplier code")
	importableCmd.Flags().Int("timeout", 30, "Timeout in seconds")
	_ = importableCmd.MarkFlagRequired("supplier")
}

func runImportable(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("importable")

	firm, _ := cmd.Flags().GetString("firm")
	supplier, _ := cmd.Flags().GetString("supplier")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := createCommandContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		return err
	}
	defer a.close()

	challans := a.reader.ReadImportable(ctx, firm, supplier)
	log.Info().
		Str("firm", firm).
		Str("supplier", supplier).
		Int("challans", len(challans)).
		Msg("Importable challans read")

	return outputJSON(importableOutput(challans), log)
}

func importableOutput(challans []reconciliation.ImportableChallan) []ImportableOutput {
	out := make([]ImportableOutput, 0, len(challans))
	for _, ch := range challans {
		o := ImportableOutput{
			Number:            ch.Number,
			Date:              ch.Date,
			SupplierChallanNo: ch.SupplierChallanNo,
		}
		for _, l := range ch.Lines {
			o.Lines = append(o.Lines, ImportableLineOutput{
				Row:         l.Row,
				Description: l.Description,
				Qty:         totals.Format(l.Qty),
				Rate:        totals.Format(l.Rate),
			})
		}
		out = append(out, o)
	}
	return out
}
