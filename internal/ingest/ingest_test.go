package ingest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDecodeJSONPassthrough(t *testing.T) {
	out, err := Decode("data.json", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"a":1}` {
		t.Fatalf("expected literal passthrough, got %q", out)
	}
}

func TestDecodeJSONUppercaseExtension(t *testing.T) {
	out, err := Decode("EXPORT.JSON", []byte(`[1,2]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `[1,2]` {
		t.Fatalf("unexpected content: %q", out)
	}
}

func TestDecodeCSVKeepsRowOrderAndHeaders(t *testing.T) {
	content := "ticket_id,type,sla_target_hours\nINC-1,VPN Issue,4\nINC-2,\"Access, Request\",24\n"
	out, err := Decode("week.csv", []byte(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, out)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["ticket_id"] != "INC-1" || rows[1]["ticket_id"] != "INC-2" {
		t.Fatalf("row order not preserved: %+v", rows)
	}
	if rows[1]["type"] != "Access, Request" {
		t.Fatalf("quoted field mangled: %v", rows[1]["type"])
	}
	if rows[0]["sla_target_hours"] != float64(4) {
		t.Fatalf("expected numeric cell, got %#v", rows[0]["sla_target_hours"])
	}
	for _, r := range rows {
		if len(r) != 3 {
			t.Fatalf("expected keys to match header, got %v", r)
		}
	}
}

func TestDecodeCSVKeyOrderFollowsHeader(t *testing.T) {
	out, err := Decode("x.csv", []byte("zeta,alpha\n1,2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[\n  {\n    \"zeta\": 1,\n    \"alpha\": 2\n  }\n]"
	if out != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", out, want)
	}
}

func TestDecodeCSVSkipsBlankRowsAndEmptyCells(t *testing.T) {
	grid := [][]string{
		{"", ""},
		{"id", "note", "id"},
		{"a", "", "b"},
		{"", "", ""},
		{"c", "x"},
	}
	rows, err := Rows(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if len(rows[0].Keys) != 2 || rows[0].Keys[1] != "id_1" {
		t.Fatalf("expected duplicate header suffix, got %v", rows[0].Keys)
	}
	if rows[1].Values["note"] != "x" {
		t.Fatalf("unexpected row: %+v", rows[1].Values)
	}
}

func TestCellValueKeepsLeadingZeroText(t *testing.T) {
	if v := cellValue("007"); v != "007" {
		t.Fatalf("expected text, got %#v", v)
	}
	if v := cellValue("0.5"); v != json.Number("0.5") {
		t.Fatalf("expected number, got %#v", v)
	}
	if v := cellValue("TRUE"); v != true {
		t.Fatalf("expected bool, got %#v", v)
	}
}

func TestDecodeXLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "shift")
	_ = f.SetCellValue(sheet, "B1", "tickets")
	_ = f.SetCellValue(sheet, "A2", "Morning")
	_ = f.SetCellValue(sheet, "B2", 12)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	out, err := Decode("log.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(rows) != 1 || rows[0]["shift"] != "Morning" || rows[0]["tickets"] != float64(12) {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestDecodeXLSFirstSheet(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "tickets.xls"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	out, err := Decode("export.XLS", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), `[`) {
		t.Fatalf("expected JSON array, got %q", out)
	}
	if i, j := strings.Index(out, `"ticket_id"`), strings.Index(out, `"shift"`); i < 0 || j < i {
		t.Fatalf("expected header order kept, got %s", out)
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	// row 3 of the fixture follows a gap and carries no ROW record
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %s", len(rows), out)
	}
	want := []map[string]any{
		{"ticket_id": "INC-1", "shift": "Morning", "hours": 2.5},
		{"ticket_id": "INC-2", "shift": "Evening", "hours": float64(4)},
	}
	for i, w := range want {
		if len(rows[i]) != len(w) {
			t.Fatalf("row %d: expected keys %v, got %v", i, w, rows[i])
		}
		for k, v := range w {
			if rows[i][k] != v {
				t.Fatalf("row %d: %s = %v, want %v", i, k, rows[i][k], v)
			}
		}
	}
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	_, err := Decode("notes.txt", []byte("hello"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecodeCorruptSpreadsheet(t *testing.T) {
	for _, name := range []string{"broken.xlsx", "broken.xls"} {
		_, err := Decode(name, []byte("definitely not a workbook"))
		if !errors.Is(err, ErrParseFailed) {
			t.Fatalf("%s: expected ErrParseFailed, got %v", name, err)
		}
	}
}
