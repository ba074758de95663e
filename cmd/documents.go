package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"billing/internal/archive"
	"billing/internal/document"
	"billing/internal/totals"
	"billing/pkg/services"
)

// DocumentOutput is the JSON summary printed after a document is issued.
type DocumentOutput struct {
	Kind      string          `json:"kind"`
	Number    string          `json:"number"`
	Date      string          `json:"date"`
	Firm      string          `json:"firm"`
	Party     string          `json:"party"`
	Items     int             `json:"items"`
	Truncated int             `json:"truncated"`
	Total     string          `json:"total"`
	Summary   *SummaryOutput  `json:"summary,omitempty"`
	File      string          `json:"file"`
	Metadata  CommandMetadata `json:"metadata"`
}

// SummaryOutput is the invoice tax summary.
type SummaryOutput struct {
	Subtotal   string `json:"subtotal"`
	Discount   string `json:"discount"`
	Taxable    string `json:"taxable"`
	CGST       string `json:"cgst"`
	SGST       string `json:"sgst"`
	RoundOff   string `json:"round_off"`
	GrandTotal string `json:"grand_total"`
}

// CommandMetadata contains information about the command run.
type CommandMetadata struct {
	ProcessedAt time.Time     `json:"processed_at"`
	Duration    time.Duration `json:"duration"`
	PDFBytes    int           `json:"pdf_bytes"`
}

// requestHeader is the part of a request checked before any ledger access.
// An unknown or empty firm falls back to the first firm of the ledger and
// an empty party prints blank.
type requestHeader struct {
	Items int `validate:"gt=0"`
}

var requestValidator = validator.New()

func addDocumentFlags(c *cobra.Command) {
	c.Flags().StringP("output", "o", "", "PDF output path (default: generated file name in the current directory)")
	c.Flags().Int("timeout", 60, "Timeout in seconds")
}

// readRequest decodes a JSON request from path, or stdin when path is "-".
func readRequest(path string, v interface{}, log zerolog.Logger) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to open request file")
			return fmt.Errorf("failed to open request file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close request file")
			}
		}()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request JSON: %w", err)
	}
	return nil
}

func checkHeader(items int) error {
	if err := requestValidator.Struct(requestHeader{Items: items}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("request needs at least one item")
		}
		return err
	}
	return nil
}

// issueDocument runs create against a freshly wired app and writes the
// resulting PDF and summary.
func issueDocument(cmd *cobra.Command, log zerolog.Logger, create func(ctx context.Context, svc services.DocumentService) (*services.Result, error)) error {
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := createCommandContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		return err
	}
	defer a.close()

	startTime := time.Now()
	res, err := create(ctx, a.docs)
	if err != nil {
		return handleDocumentError(err, log)
	}

	file := outputPath
	if file == "" {
		// Default names never replace an earlier download.
		file, err = archive.WriteNew(".", res.FileName, res.PDF)
	} else {
		err = writeOutput(file, res.PDF)
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Str("file_name", res.FileName).
			Msg("Failed to write PDF")
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	out := DocumentOutput{
		Kind:      res.Document.Kind,
		Number:    res.Document.Number,
		Date:      res.Document.Date,
		Firm:      res.Document.Firm.CompanyName,
		Party:     res.Document.Party.Code,
		Items:     len(res.Items),
		Truncated: res.Truncated,
		Total:     totals.Format(res.Total),
		File:      file,
		Metadata: CommandMetadata{
			ProcessedAt: time.Now(),
			Duration:    time.Since(startTime),
			PDFBytes:    len(res.PDF),
		},
	}
	if res.Lines != nil {
		s := res.Summary
		out.Total = s.GrandTotal.StringFixed(0)
		out.Summary = &SummaryOutput{
			Subtotal:   totals.Format(s.SubTotal),
			Discount:   totals.Format(s.Discount),
			Taxable:    totals.Format(s.Taxable),
			CGST:       totals.Format(s.CGST),
			SGST:       totals.Format(s.SGST),
			RoundOff:   totals.Format(s.RoundOff),
			GrandTotal: s.GrandTotal.StringFixed(0),
		}
	}
	return outputJSON(out, log)
}

// writeOutput writes data to an explicitly requested path, replacing it.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// handleDocumentError maps a failed request to the message shown to the user.
func handleDocumentError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Document creation failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("document creation timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("document creation was canceled")
	default:
		return fmt.Errorf("%s (%w)", document.UserMessage(err), err)
	}
}

// outputJSON pretty-prints v to stdout.
func outputJSON(v interface{}, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal output to JSON")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	if _, err := os.Stdout.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}
