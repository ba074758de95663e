package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"billing/internal/ledger"
	"billing/internal/logger"
)

var nextNumberCmd = &cobra.Command{
	Use:       "next-number [challan|invoice]",
	Short:     "Show the number the next document would get",
	Long:      `Read the ledger and print the number the next challan or invoice would be issued with. Nothing is reserved.`,
	Example:   `  billing next-number invoice`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{ledger.Challan, ledger.Invoice},
	RunE:      runNextNumber,
}

func init() {
	rootCmd.AddCommand(nextNumberCmd)

	nextNumberCmd.Flags().Int("timeout", 30, "Timeout in seconds")
}

func runNextNumber(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("next-number")

	kind := strings.ToLower(strings.TrimSpace(args[0]))
	if kind != ledger.Challan && kind != ledger.Invoice {
		return fmt.Errorf("unknown document kind %q, want challan or invoice", args[0])
	}
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := createCommandContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		return err
	}
	defer a.close()

	next := a.docs.NextNumber(ctx, kind)
	log.Debug().Str("kind", kind).Str("number", next).Msg("Next number")
	fmt.Println(next)
	return nil
}
