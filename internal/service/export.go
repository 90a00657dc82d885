package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsintel/backend/internal/models"
)

var ErrUnknownTable = errors.New("unknown export table")

const (
	TableBenchmarks       = "benchmarks"
	TableStaffing         = "staffing_recommendations"
	TableAgentPerformance = "agent_performance_analysis"
)

// exportLabels maps a table name to the file label used in its download name.
var exportLabels = map[string]string{
	TableBenchmarks:       "historical_benchmarking",
	TableStaffing:         "staffing_recommendations",
	TableAgentPerformance: "agent_performance_analysis",
}

func ExportTables() []string {
	return []string{TableBenchmarks, TableStaffing, TableAgentPerformance}
}

// Row is one flat record with its field order preserved.
type Row struct {
	Keys   []string
	Values map[string]string
}

// RowsFromJSON reads a JSON array of objects into rows, keeping the key
// order of every object. Nested values are kept as compact JSON text.
func RowsFromJSON(data []byte) ([]Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var rows []Row
	for dec.More() {
		row, err := readRow(dec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return rows, nil
}

func readRow(dec *json.Decoder) (Row, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return Row{}, err
	}
	row := Row{Values: map[string]string{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Row{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Row{}, fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Row{}, err
		}
		if _, seen := row.Values[key]; !seen {
			row.Keys = append(row.Keys, key)
		}
		row.Values[key] = cellText(raw)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Row{}, err
	}
	return row, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func cellText(raw json.RawMessage) string {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// ExportCSV renders rows with every field double-quoted and embedded quotes
// doubled. The header is the key list of the first row. Empty input yields
// nil.
func ExportCSV(rows []Row) []byte {
	if len(rows) == 0 {
		return nil
	}
	header := rows[0].Keys
	lines := make([]string, 0, len(rows)+1)

	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = quote(h)
	}
	lines = append(lines, strings.Join(cells, ","))

	for _, row := range rows {
		cells := make([]string, len(header))
		for i, h := range header {
			cells[i] = quote(row.Values[h])
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return []byte(strings.Join(lines, "\n"))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportFilename is <label>_<YYYY-MM-DD>.csv, dated in UTC.
func ExportFilename(label string, now time.Time) string {
	return label + "_" + now.UTC().Format("2006-01-02") + ".csv"
}

// ExportTable selects one tabular slice of an analysis result. It returns
// the file label alongside the ordered rows.
func ExportTable(res models.AnalysisResult, table string) (string, []Row, error) {
	label, ok := exportLabels[table]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	var data any
	switch table {
	case TableBenchmarks:
		data = BenchmarkRows(res)
	case TableStaffing:
		data = res.StaffingRecommendations
	case TableAgentPerformance:
		data = res.ShiftAnalysis
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", nil, err
	}
	if string(b) == "null" {
		return label, nil, nil
	}
	rows, err := RowsFromJSON(b)
	if err != nil {
		return "", nil, err
	}
	return label, rows, nil
}
