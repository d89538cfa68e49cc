// Package tabular reads operator-supplied record lists that arrive either as
// JSON ({"data": [...]} or a bare array) or as delimited text with a header row.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when a body is neither valid JSON nor readable CSV.
var ErrMalformed = errors.New("malformed tabular data")

// Row is one record with lower-cased, trimmed keys.
type Row map[string]string

// First returns the first non-empty value among keys.
func (r Row) First(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// Parse detects the body format and returns its rows. contentType may be empty.
func Parse(body []byte, contentType string) ([]Row, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if strings.Contains(strings.ToLower(contentType), "json") || trimmed[0] == '{' || trimmed[0] == '[' {
		return parseJSON(trimmed)
	}
	return parseCSV(trimmed)
}

func parseJSON(body []byte) ([]Row, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformed)
	}

	root := gjson.ParseBytes(body)
	var list gjson.Result
	switch {
	case root.IsArray():
		list = root
	case root.IsObject() && root.Get("data").IsArray():
		list = root.Get("data")
	default:
		return nil, nil
	}

	var rows []Row
	list.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		row := make(Row)
		item.ForEach(func(key, value gjson.Result) bool {
			if value.Type == gjson.Null {
				return true
			}
			row[strings.ToLower(strings.TrimSpace(key.String()))] = value.String()
			return true
		})
		rows = append(rows, row)
		return true
	})
	return rows, nil
}

func parseCSV(body []byte) ([]Row, error) {
	firstLine, _, _ := bytes.Cut(body, []byte("\n"))

	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = sniffDelimiter(string(firstLine))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrMalformed, err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var rows []Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read record: %w", ErrMalformed, err)
		}

		row := make(Row, len(header))
		for i, value := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = strings.TrimSpace(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sniffDelimiter picks the most frequent candidate delimiter in the header line.
func sniffDelimiter(line string) rune {
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
