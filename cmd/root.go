package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"billing/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "billing",
	Short: "Billing - challans, tax invoices and their ledger",
	Long: `Billing issues delivery challans and GST tax invoices for the firms
in the ledger, logs every item to the Challan and Invoice tables and marks
invoiced lines back on their challans.

The ledger lives in a Google Sheets spreadsheet, a local .xlsx workbook or
in memory, selected with LEDGER_BACKEND.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Billing CLI executed")

		fmt.Println("Welcome to Billing!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
