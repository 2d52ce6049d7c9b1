package core

import (
	"errors"
	"slices"
	"strings"
	"time"
)

var ErrUnparseableDate = errors.New("unparseable date")

type (
	// Table is a raw tabular payload: header names plus rows keyed by header.
	Table struct {
		Headers []string
		Rows    []map[string]string
	}

	// FieldMap names the headers holding the two logical record fields.
	FieldMap struct {
		Date     string
		Category string
	}

	// IngestResult is the outcome of turning a Table into Records.
	IngestResult struct {
		Records []Record
		Dropped int
	}
)

// DefaultFieldMap matches the layout of the adoptions sheet.
func DefaultFieldMap() FieldMap {
	return FieldMap{Date: "Date", Category: "Species"}
}

// dateLayouts are tried in order; the first successful parse wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// ParseDate parses a calendar date in any of the supported layouts and
// returns it as a civil date at UTC midnight.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrUnparseableDate
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return NewDate(y, int(m), d), nil
	}
	return Date{}, ErrUnparseableDate
}

// TableFromMatrix treats the first row as headers and keys every following
// row by them. Missing trailing cells become empty strings.
func TableFromMatrix(values [][]string) Table {
	if len(values) == 0 {
		return Table{}
	}
	headers := make([]string, len(values[0]))
	for i, h := range values[0] {
		headers[i] = strings.TrimSpace(h)
	}
	rows := make([]map[string]string, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(raw) {
				row[h] = raw[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return Table{Headers: headers, Rows: rows}
}

// ParseRecords converts table rows into Records. A row is kept only when
// both fields are non-empty and the date parses; everything else is counted
// in Dropped and otherwise ignored.
func ParseRecords(t Table, fields FieldMap) IngestResult {
	res := IngestResult{Records: make([]Record, 0, len(t.Rows))}
	headers := t.Headers
	if len(headers) == 0 && len(t.Rows) > 0 {
		headers = sortedKeys(t.Rows[0])
	}
	dateKey := resolveHeader(headers, fields.Date)
	catKey := resolveHeader(headers, fields.Category)

	for _, row := range t.Rows {
		rawDate := strings.TrimSpace(row[dateKey])
		rawCat := strings.TrimSpace(row[catKey])
		if rawDate == "" || rawCat == "" {
			res.Dropped++
			continue
		}
		d, err := ParseDate(rawDate)
		if err != nil {
			res.Dropped++
			continue
		}
		res.Records = append(res.Records, Record{Date: d, Category: ParseCategory(rawCat)})
	}
	return res
}

// resolveHeader picks the column for field: an exact match wins, otherwise
// the first header in table order that matches case-insensitively. An
// unmatched field resolves to itself and reads as empty.
func resolveHeader(headers []string, field string) string {
	if slices.Contains(headers, field) {
		return field
	}
	want := strings.TrimSpace(field)
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return h
		}
	}
	return field
}

func sortedKeys(row map[string]string) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
