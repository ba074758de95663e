package sheets

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	spreadsheetURL = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	spreadsheetID  = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)
)

// extractSpreadsheetID accepts a Google Sheets URL or a bare spreadsheet ID
func extractSpreadsheetID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if matches := spreadsheetURL.FindStringSubmatch(ref); len(matches) == 2 {
		return matches[1], nil
	}
	if spreadsheetID.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("invalid Google Sheets URL or ID %q", ref)
}

// ColumnName converts a 0-based column index to its A1 letters.
func ColumnName(col int) string {
	name := ""
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

// CellRef builds an A1 reference such as 'Challan'!D7.
func CellRef(table string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteTable(table), ColumnName(col), row)
}

func quoteTable(table string) string {
	return "'" + strings.ReplaceAll(table, "'", "''") + "'"
}
