package spreadsheet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first worksheet with raw cell values so numbers keep
// their stored form (phones are not reformatted, dates stay serials).
func readXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	headers := buildHeaders(rows[0], width)

	table := &Table{Sheet: sheet, Format: FormatXLSX, Headers: headers}
	for i, cells := range rows[1:] {
		sheetRow := i + 2 // 1-based, header is row 1
		row := make(RawRow, width)
		for c, h := range headers {
			if c >= len(cells) || cells[c] == "" {
				row[h] = ""
				continue
			}
			row[h] = typedCell(f, sheet, c+1, sheetRow, cells[c])
		}
		if blankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// typedCell converts a raw cell string using the cell's stored type.
func typedCell(f *excelize.File, sheet string, col, row int, raw string) any {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	ct, err := f.GetCellType(sheet, axis)
	if err != nil {
		return raw
	}

	switch ct {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return v
		}
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return raw
}
