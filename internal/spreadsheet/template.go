package spreadsheet

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const templateSheet = "Contactos"

// ContactTemplateHeaders is the column layout of the downloadable template.
var ContactTemplateHeaders = []string{
	"Nombre", "Celular", "Email", "Empresa", "Cargo",
	"Origen de Lead", "Fecha Lead", "Fase", "Observación", "Encargado",
}

var contactTemplateSample = [][]any{
	{"María Pérez", "3001234567", "maria@ejemplo.com", "Acme S.A.S.", "Gerente", "Facebook", "2024-01-15", "Nuevo", "Interesada en plan anual", "Carlos"},
	{"Juan Gómez", "3109876543", "", "", "", "Google", "2024-01-16", "Contactado", "", "Ana"},
}

// TemplateFileName is the download name for the template generated on day.
func TemplateFileName(day time.Time) string {
	return fmt.Sprintf("plantilla_contactos_%s.xlsx", day.Format("2006-01-02"))
}

// ContactTemplate builds the contact template workbook with sample rows.
func ContactTemplate() ([]byte, error) {
	return BuildWorkbook(templateSheet, ContactTemplateHeaders, contactTemplateSample)
}

// BuildWorkbook writes a single-sheet workbook with a bold header row.
func BuildWorkbook(sheet string, headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, r := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := r
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if len(headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, "A", last, 20); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
