// Package archive keeps server-side copies of issued documents.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Archiver stores one rendered document and reports where it went.
type Archiver interface {
	Save(ctx context.Context, kind, firm, name string, data []byte) (string, error)
}

const stampLayout = "20060102-150405"

// Name builds the download name of a document, e.g.
// Challan_12_Om_Traders_20261014-101500.pdf.
func Name(kind, number, party string, ts time.Time) string {
	prefix, fallback := "Challan", "Party"
	if kind == "invoice" {
		prefix, fallback = "Invoice", "Supplier"
	}
	party = strings.TrimSpace(party)
	if party == "" {
		party = fallback
	}
	party = strings.ReplaceAll(party, " ", "_")
	party = strings.ReplaceAll(party, "/", "_")
	return fmt.Sprintf("%s_%s_%s_%s.pdf", prefix, number, party, ts.Format(stampLayout))
}

// folder is the firm's directory name.
func folder(firm string) string {
	firm = strings.TrimSpace(firm)
	if firm == "" {
		return "Unknown"
	}
	return strings.ReplaceAll(firm, "/", "_")
}

// candidate returns name with _i inserted before the extension; i == 0
// is name itself.
func candidate(name string, i int) string {
	if i == 0 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), i, ext)
}

// maxAttempts bounds collision suffixing.
const maxAttempts = 1000
