package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"billing/internal/logger"
	"billing/pkg/services"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice [request.json|-]",
	Short: "Issue a GST tax invoice",
	Long: `Issue a tax invoice from a JSON request.

The document discount is shared across the items by amount, CGST and SGST
are charged at half of GST_TOTAL each and the grand total is rounded to
whole rupees, with the remainder carried on the last line. Every valid item
is logged to the invoice table. Items that name a challan are then marked
as invoiced on that challan's ledger rows, in the background.

Request format:
  {
    "firm": "Acme Traders",
    "party": {"code": "S01"},
    "discount": "50",
    "sac": "998821",
    "items": [{"challan_no": "12", "description": "Bolt", "qty": "10", "rate": "2.50"}]
  }`,
	Example: `  # Issue an invoice
  billing invoice request.json

  # Issue an invoice with an explicit number
  jq '.number = "INV-0042"' request.json | billing invoice -`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoice,
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
	addDocumentFlags(invoiceCmd)
}

func runInvoice(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	var req services.InvoiceRequest
	if err := readRequest(args[0], &req, log); err != nil {
		return err
	}
	if err := checkHeader(len(req.Items)); err != nil {
		return err
	}

	log.Info().
		Str("firm", req.Firm).
		Str("party", req.Party.Code).
		Int("items", len(req.Items)).
		Str("discount", req.Discount).
		Msg("Issuing invoice")

	return issueDocument(cmd, log, func(ctx context.Context, svc services.DocumentService) (*services.Result, error) {
		return svc.CreateInvoice(ctx, req)
	})
}
