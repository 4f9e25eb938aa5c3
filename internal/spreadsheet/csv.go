package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV reads a delimited export. Cells stay strings; the row processor
// coerces them per column type.
func readCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	width := len(header)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}
		if len(rec) > width {
			width = len(rec)
		}
		records = append(records, rec)
	}

	headers := buildHeaders(header, width)
	table := &Table{Sheet: "csv", Format: FormatCSV, Headers: headers}
	for _, rec := range records {
		row := make(RawRow, width)
		for c, h := range headers {
			if c < len(rec) {
				row[h] = rec[c]
			} else {
				row[h] = ""
			}
		}
		if blankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// sniffDelimiter picks ';' for exports from Spanish-locale spreadsheets,
// which use it when ',' is the decimal separator.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}
