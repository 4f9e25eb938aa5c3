// Package spreadsheet turns uploaded contact workbooks (xlsx or csv) into a
// header-keyed Table that the import pipeline can consume without caring
// about the source format.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ignite/lead-intake/internal/pkg/logger"
)

var (
	// ErrNoSheet is returned when a workbook has no worksheets.
	ErrNoSheet = errors.New("spreadsheet: workbook has no sheets")
	// ErrEmptyFile is returned when the first sheet has no data rows.
	ErrEmptyFile = errors.New("spreadsheet: no data rows")
	// ErrUnsupportedFormat is returned for anything that is not xlsx or csv.
	ErrUnsupportedFormat = errors.New("spreadsheet: unsupported file format")
)

// UserMessage returns the end-user text for a decoding failure.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoSheet):
		return "El archivo no contiene hojas de cálculo válidas"
	case errors.Is(err, ErrEmptyFile):
		return "El archivo está vacío o no contiene datos válidos"
	case errors.Is(err, ErrUnsupportedFormat):
		return "Formato de archivo no válido. Por favor suba un archivo Excel (.xlsx, .xls, .csv)"
	default:
		return "Error al procesar el archivo Excel"
	}
}

// Format identifies how a file is decoded.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatXLS  Format = "xls"
)

// Extensions accepted at upload time. Legacy .xls passes the upload check
// but is rejected by Decode.
var allowedExtensions = map[string]Format{
	".xlsx": FormatXLSX,
	".xlsm": FormatXLSX,
	".xls":  FormatXLS,
	".csv":  FormatCSV,
}

// RawRow is one data row keyed by header. Values are string, float64, bool
// or time.Time; missing cells are "".
type RawRow map[string]any

// Table is the first sheet of a workbook.
type Table struct {
	Sheet   string   `json:"sheet"`
	Format  Format   `json:"format"`
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"rows"`
}

// ValidateFileName checks the extension of an uploaded file name.
func ValidateFileName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %q (use .xlsx, .xls o .csv)", ErrUnsupportedFormat, ext)
	}
	return nil
}

// DetectFormat resolves the decoding format from the file name, falling back
// to content sniffing when the name carries no known extension.
func DetectFormat(name string, data []byte) Format {
	if f, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	switch {
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return FormatXLSX
	case bytes.HasPrefix(data, []byte{0xD0, 0xCF, 0x11, 0xE0}):
		return FormatXLS
	default:
		return FormatCSV
	}
}

// Decode reads the first sheet of data into a Table.
func Decode(name string, data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var (
		table *Table
		err   error
	)
	switch format := DetectFormat(name, data); format {
	case FormatXLSX:
		table, err = readXLSX(data)
	case FormatCSV:
		table, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	logger.Debug("spreadsheet decoded",
		"file", name,
		"format", string(table.Format),
		"sheet", table.Sheet,
		"columns", len(table.Headers),
		"rows", len(table.Rows))
	return table, nil
}

// buildHeaders trims header cells, names blank ones __EMPTY, __EMPTY_1, ...
// and suffixes repeated names with _1, _2 so every key in a RawRow is unique.
func buildHeaders(cells []string, width int) []string {
	headers := make([]string, width)
	seen := make(map[string]bool, width)
	blanks := 0

	for i := 0; i < width; i++ {
		var h string
		if i < len(cells) {
			h = strings.TrimSpace(cells[i])
		}
		if h == "" {
			h = "__EMPTY"
			if blanks > 0 {
				h = fmt.Sprintf("__EMPTY_%d", blanks)
			}
			blanks++
		}
		base := h
		for n := 1; seen[h]; n++ {
			h = fmt.Sprintf("%s_%d", base, n)
		}
		seen[h] = true
		headers[i] = h
	}
	return headers
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func blankRow(row RawRow) bool {
	for _, v := range row {
		if !isBlank(v) {
			return false
		}
	}
	return true
}
