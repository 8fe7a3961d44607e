// Package ingest turns comma-separated exports into typed forecast records.
package ingest

import (
	"strings"
)

// Row is one data line keyed by the header names.
type Row map[string]string

// Get returns the trimmed value of a field, or "" when the row does not have it.
func (r Row) Get(field string) string {
	return r[field]
}

// Parse splits delimited text into rows keyed by the first line's field names.
// Quoting is not supported: a literal comma inside a value shifts the columns after it.
// Short rows leave the missing fields empty and extra values are ignored.
func Parse(text string) []Row {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		headers []string
		rows    []Row
	)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := splitLine(line)
		if headers == nil {
			headers = values
			continue
		}

		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(values) {
				row[h] = values[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows
}

func splitLine(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
