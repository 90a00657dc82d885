package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// Row is one sheet row keyed by column header, kept in header order.
type Row struct {
	Keys   []string
	Values map[string]any
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.Values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var grid [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		grid = append(grid, rec)
	}
	return grid, nil
}

// Rows converts a sheet grid into row objects. The first non-blank row is
// the header; blank rows are skipped and empty cells are left out of the
// row object.
func Rows(grid [][]string) ([]Row, error) {
	start := -1
	for i, rec := range grid {
		if !blank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return []Row{}, nil
	}

	headers := headerKeys(grid[start])
	if len(headers) == 0 {
		return nil, errors.New("header row is empty")
	}

	out := make([]Row, 0, len(grid)-start-1)
	for _, rec := range grid[start+1:] {
		if blank(rec) {
			continue
		}
		row := Row{Values: map[string]any{}}
		for i, key := range headers {
			if i >= len(rec) {
				break
			}
			v := strings.TrimSpace(rec[i])
			if v == "" {
				continue
			}
			row.Keys = append(row.Keys, key)
			row.Values[key] = cellValue(v)
		}
		out = append(out, row)
	}
	return out, nil
}

// SheetToJSON renders the grid as an indented JSON array of row objects.
func SheetToJSON(grid [][]string) (string, error) {
	rows, err := Rows(grid)
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func headerKeys(rec []string) []string {
	last := len(rec) - 1
	for last >= 0 && strings.TrimSpace(rec[last]) == "" {
		last--
	}
	seen := map[string]int{}
	keys := make([]string, 0, last+1)
	for _, h := range rec[:last+1] {
		key := normalizeHeader(h)
		if key == "" {
			key = "__EMPTY"
		}
		if n, ok := seen[key]; ok {
			seen[key] = n + 1
			key = key + "_" + strconv.Itoa(n+1)
		} else {
			seen[key] = 0
		}
		keys = append(keys, key)
	}
	return keys
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.TrimSpace(h)
}

func cellValue(v string) any {
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		if looksNumeric(v) {
			return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	switch strings.ToUpper(v) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return v
}

// looksNumeric rejects forms ParseFloat accepts but a spreadsheet would keep
// as text, such as hex literals, "Inf" or values with leading zeros.
func looksNumeric(v string) bool {
	s := strings.TrimPrefix(strings.TrimPrefix(v, "-"), "+")
	if s == "" {
		return false
	}
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != 'e' && r != 'E' && r != '-' && r != '+' {
			return false
		}
	}
	return true
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
