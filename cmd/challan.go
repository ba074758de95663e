package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"billing/internal/logger"
	"billing/pkg/services"
)

var challanCmd = &cobra.Command{
	Use:   "challan [request.json|-]",
	Short: "Issue a delivery challan",
	Long: `Issue a delivery challan from a JSON request.

The challan gets the next number of the challan ledger unless the request
carries one, is printed twice on a single A4 page and every valid item is
logged to the challan table. Items with an empty description, a
non-positive quantity or a negative rate are dropped.

Request format:
  {
    "firm": "Acme Traders",
    "party": {"code": "S01", "mobile": "9876543210"},
    "date": "14/10/2026",
    "supplier_challan_no": "SC-12",
    "items": [{"description": "Bolt", "qty": "10", "rate": "2.50"}]
  }`,
	Example: `  # Issue a challan and save the PDF under its generated name
  billing challan request.json

  # Read the request from stdin and choose the output path
  cat request.json | billing challan - -o out/challan.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runChallan,
}

func init() {
	rootCmd.AddCommand(challanCmd)
	addDocumentFlags(challanCmd)
}

func runChallan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("challan")

	var req services.ChallanRequest
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
		Msg("Issuing challan")

	return issueDocument(cmd, log, func(ctx context.Context, svc services.DocumentService) (*services.Result, error) {
		return svc.CreateChallan(ctx, req)
	})
}
