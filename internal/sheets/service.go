// Package sheets keeps ledger tables in a Google Sheets spreadsheet, one
// worksheet per table.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"billing/internal/logger"
	"billing/internal/store"
)

// Options configures access to a spreadsheet.
type Options struct {
	// Spreadsheet is either the spreadsheet ID or its full URL.
	Spreadsheet     string
	CredentialsJSON string
	CredentialsFile string
}

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger

	mu    sync.Mutex
	known map[string]int64
}

var _ store.Store = (*Service)(nil)

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, opts Options) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(opts.Spreadsheet)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}
	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Resolved spreadsheet ID")

	creds, err := loadCredentials(opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	return newService(ctx, spreadsheetID, config.Client(ctx), log)
}

func newService(ctx context.Context, spreadsheetID string, client *http.Client, log zerolog.Logger) (*Service, error) {
	const op = "newService"

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
		known:         make(map[string]int64),
	}, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	if opts.CredentialsJSON != "" {
		return []byte(opts.CredentialsJSON), nil
	}
	if opts.CredentialsFile != "" {
		creds, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	}
	return nil, fmt.Errorf("no service account credentials: %w", store.ErrNotConfigured)
}

// Read returns every populated row of the worksheet, header first.
func (s *Service) Read(ctx context.Context, table string) ([][]string, error) {
	const op = "Read"

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, quoteTable(table)).Context(ctx).Do()
	if err != nil {
		if isMissingSheet(err) {
			return nil, fmt.Errorf("%s: %s: %w", op, table, store.ErrTableNotFound)
		}
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, table, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j := range row {
			cells[j] = getString(row, j)
		}
		rows[i] = cells
	}

	s.log.Debug().
		Str("table", table).
		Int("rows", len(rows)).
		Msg("Read worksheet")

	return rows, nil
}

// Append adds rows after the last populated row.
func (s *Service) Append(ctx context.Context, table string, rows [][]string) error {
	const op = "Append"

	if len(rows) == 0 {
		return nil
	}
	if _, err := s.ensureSheet(ctx, table); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	valueRange := &sheets.ValueRange{Values: toValues(rows)}
	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		quoteTable(table)+"!A1",
		valueRange,
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to %s: %w", op, table, err)
	}

	s.log.Info().
		Str("table", table).
		Int("rows_written", len(rows)).
		Msg("Appended rows")

	return nil
}

// UpdateCells writes each cell in a single batch request.
func (s *Service) UpdateCells(ctx context.Context, table string, updates []store.CellUpdate) error {
	const op = "UpdateCells"

	if len(updates) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		if u.Row < 1 || u.Col < 0 {
			return fmt.Errorf("%s: invalid cell row=%d col=%d", op, u.Row, u.Col)
		}
		data = append(data, &sheets.ValueRange{
			Range:  CellRef(table, u.Row, u.Col),
			Values: [][]interface{}{{u.Value}},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	if _, err := s.sheetsService.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: failed to update %s: %w", op, table, err)
	}

	s.log.Info().
		Str("table", table).
		Int("cells", len(updates)).
		Msg("Updated cells")

	return nil
}

// WriteHeader replaces row 1, creating the worksheet if needed.
func (s *Service) WriteHeader(ctx context.Context, table string, header []string) error {
	const op = "WriteHeader"

	sheetID, err := s.ensureSheet(ctx, table)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	valueRange := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err = s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		quoteTable(table)+"!A1",
		valueRange,
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to write header of %s: %w", op, table, err)
	}

	if err := s.formatHeaders(ctx, sheetID, len(header)); err != nil {
		s.log.Warn().Err(err).Str("table", table).Msg("Failed to format headers, continuing anyway")
	}

	s.log.Info().Str("table", table).Int("columns", len(header)).Msg("Wrote header row")
	return nil
}

// ensureSheet returns the worksheet's sheet ID, adding the worksheet when
// the spreadsheet does not have it yet.
func (s *Service) ensureSheet(ctx context.Context, table string) (int64, error) {
	const op = "ensureSheet"

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.known[table]; ok {
		return id, nil
	}

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == table {
			s.known[table] = sheet.Properties.SheetId
			return sheet.Properties.SheetId, nil
		}
	}

	s.log.Info().Str("table", table).Msg("Creating new sheet")

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: table},
			}},
		},
	}
	resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to create sheet %s: %w", op, table, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, fmt.Errorf("%s: empty reply creating sheet %s", op, table)
	}

	id := resp.Replies[0].AddSheet.Properties.SheetId
	s.known[table] = id
	return id, nil
}

// formatHeaders makes the header row bold on a light gray background
func (s *Service) formatHeaders(ctx context.Context, sheetID int64, columns int) error {
	const op = "formatHeaders"

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{
							Red:   0.93,
							Green: 0.93,
							Blue:  0.93,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
	}

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func isMissingSheet(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

func toValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		values[i] = cells
	}
	return values
}

func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	if s, ok := row[index].(string); ok {
		return s
	}
	return fmt.Sprint(row[index])
}
