package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, use .xlsx, .xls, .csv or .json")
	ErrParseFailed       = errors.New("parsing failed, check file structure")
)

const (
	ExtXLSX = ".xlsx"
	ExtXLS  = ".xls"
	ExtCSV  = ".csv"
	ExtJSON = ".json"
)

// Supported reports whether filename carries an extension Decode accepts.
func Supported(filename string) bool {
	switch Ext(filename) {
	case ExtXLSX, ExtXLS, ExtCSV, ExtJSON:
		return true
	}
	return false
}

func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
}

// Decode turns an uploaded file into the text stored as dataset content.
// Spreadsheets and CSV become a JSON array of row objects built from the
// first sheet; JSON uploads pass through unchanged.
func Decode(filename string, data []byte) (content string, err error) {
	ext := Ext(filename)
	if !Supported(filename) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	defer func() {
		if r := recover(); r != nil {
			content = ""
			err = fmt.Errorf("%w: %v", ErrParseFailed, r)
		}
	}()

	var grid [][]string
	switch ext {
	case ExtJSON:
		return decodeText(data), nil
	case ExtCSV:
		grid, err = readCSV(data)
	case ExtXLSX:
		grid, err = readXLSX(data)
	case ExtXLS:
		grid, err = readXLS(data)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	out, err := SheetToJSON(grid)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return out, nil
}

func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("first sheet unreadable")
	}

	rows := make([]*xls.Row, int(sheet.MaxRow)+1)
	width := 0
	for i := range rows {
		rows[i] = xlsRow(sheet, i)
		if rows[i] != nil && rows[i].LastCol() > width {
			width = rows[i].LastCol()
		}
	}

	// cells written without a ROW record report LastCol 0, so every row is
	// read to the widest column seen
	grid := make([][]string, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, 0, width+1)
		for j := 0; j <= width; j++ {
			cells = append(cells, row.Col(j))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// xlsRow returns nil for a row with no records; WorkSheet.Row panics on those.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
