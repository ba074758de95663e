// Package schema maps human-edited spreadsheet headers onto a closed set
// of canonical field names.
package schema

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key folds s to the comparison form used for header matching: case
// folded, with everything but ASCII letters and digits removed.
func Key(s string) string {
	folded := cases.Fold().String(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Field is a canonical column and the raw spellings that map to it. The
// canonical name always matches itself.
type Field struct {
	Name     string
	Synonyms []string
}

// Table is an ordered, closed set of canonical fields. When a raw header
// matches several fields the first one in declaration order wins.
type Table struct {
	Name   string
	Fields []Field

	keys []map[string]struct{}
}

// NewTable builds a Table, precomputing folded synonym keys.
func NewTable(name string, fields ...Field) *Table {
	t := &Table{Name: name, Fields: fields, keys: make([]map[string]struct{}, len(fields))}
	for i, f := range fields {
		set := map[string]struct{}{Key(f.Name): {}}
		for _, s := range f.Synonyms {
			set[Key(s)] = struct{}{}
		}
		t.keys[i] = set
	}
	return t
}

// Canonical returns the canonical field for a raw header, if any.
func (t *Table) Canonical(raw string) (string, bool) {
	k := Key(raw)
	if k == "" {
		return "", false
	}
	for i, set := range t.keys {
		if _, ok := set[k]; ok {
			return t.Fields[i].Name, true
		}
	}
	return "", false
}

// Names lists the canonical field names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// MapHeader maps each raw header to its canonical field. Unmatched headers
// are left out. Mapping a header of canonical names returns each name
// unchanged.
func (t *Table) MapHeader(header []string) map[string]string {
	out := make(map[string]string, len(header))
	for _, h := range header {
		if c, ok := t.Canonical(h); ok {
			out[h] = c
		}
	}
	return out
}

// Columns returns, for every header position, the canonical field it
// feeds, or "" for ignored columns.
func (t *Table) Columns(header []string) []string {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i], _ = t.Canonical(h)
	}
	return cols
}

// Record is one normalized row. Row is the 1-based row number in the
// source table, so 2 is the first data row.
type Record struct {
	Row    int
	Fields map[string]string
}

// Get returns the trimmed value of a canonical field.
func (r Record) Get(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

// Normalize converts raw rows (header first) into records holding every
// canonical field. Blank rows are skipped and cells past the header are
// ignored. When two columns feed one field the later non-empty cell wins.
func (t *Table) Normalize(values [][]string) []Record {
	if len(values) == 0 {
		return nil
	}
	cols := t.Columns(values[0])

	records := make([]Record, 0, len(values)-1)
	for i, row := range values[1:] {
		if blank(row) {
			continue
		}
		rec := Record{Row: i + 2, Fields: make(map[string]string, len(t.Fields))}
		for _, f := range t.Fields {
			rec.Fields[f.Name] = ""
		}
		for j, cell := range row {
			if j >= len(cols) {
				break
			}
			c := cols[j]
			if c == "" {
				continue
			}
			if strings.TrimSpace(cell) == "" && rec.Fields[c] != "" {
				continue
			}
			rec.Fields[c] = cell
		}
		records = append(records, rec)
	}
	return records
}

// Index returns the position of the column feeding field in header, or -1.
// The first matching column is used.
func (t *Table) Index(header []string, field string) int {
	for i, h := range header {
		if c, ok := t.Canonical(h); ok && c == field {
			return i
		}
	}
	return -1
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
