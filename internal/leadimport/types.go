// Package leadimport turns a decoded contact spreadsheet into validated
// contacts grouped by lead source, each group bound to a first-contact
// message template.
package leadimport

import (
	"errors"
	"time"

	"github.com/ignite/lead-intake/internal/spreadsheet"
)

var (
	ErrUnknownColumnType = errors.New("unknown column type")
	ErrInvalidCatalog    = errors.New("invalid catalog")
)

// Row-level messages shown to the person who uploaded the file.
const (
	MsgNameRequired  = "Nombre es requerido"
	MsgPhoneRequired = "Teléfono es requerido"
	MsgPhoneInvalid  = "Número de teléfono inválido"
	MsgEmailInvalid  = "Email inválido"
	MsgRowFailed     = "Error procesando fila"
)

// NoSourceLabel groups contacts that have no lead source.
const NoSourceLabel = "Sin origen"

// Severity of an ExcelError.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ExcelError is one row-level problem. Row is the spreadsheet row number
// (data index + 2, the header being row 1).
type ExcelError struct {
	Row        int      `json:"row"`
	Column     string   `json:"column,omitempty"`
	Error      string   `json:"error"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Issue is a validation finding on a single contact.
type Issue struct {
	Column   ColumnType `json:"column,omitempty"`
	Message  string     `json:"message"`
	Severity Severity   `json:"severity"`
}

// ProcessedContact is one normalized row.
type ProcessedContact struct {
	ID               string             `json:"id"`
	Row              int                `json:"row"`
	Name             string             `json:"name"`
	Phone            string             `json:"phone"`
	Email            string             `json:"email,omitempty"`
	Company          string             `json:"company,omitempty"`
	Position         string             `json:"position,omitempty"`
	LeadSource       string             `json:"lead_source,omitempty"`
	LeadDate         *time.Time         `json:"lead_date,omitempty"`
	Phase            string             `json:"phase,omitempty"`
	Observations     string             `json:"observations,omitempty"`
	Manager          string             `json:"manager,omitempty"`
	RawData          spreadsheet.RawRow `json:"raw_data"`
	IsValid          bool               `json:"is_valid"`
	ValidationErrors []string           `json:"validation_errors"`
	Issues           []Issue            `json:"issues,omitempty"`
}

// LeadSourceGroup is the set of valid contacts sharing a lead source.
type LeadSourceGroup struct {
	Source         string             `json:"source"`
	Contacts       []ProcessedContact `json:"contacts"`
	Count          int                `json:"count"`
	DefaultMessage string             `json:"default_message"`
	CustomMessage  string             `json:"custom_message"`
}

// ProcessingStats summarizes one run.
type ProcessingStats struct {
	TotalProcessed   int           `json:"total_processed"`
	ValidContacts    int           `json:"valid_contacts"`
	InvalidContacts  int           `json:"invalid_contacts"`
	Duplicates       int           `json:"duplicates"`
	LeadSourcesFound int           `json:"lead_sources_found"`
	ProcessingTime   time.Duration `json:"-"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

// Result is the outcome of processing one file. It is only produced for
// files that decoded successfully; row problems live in Errors.
type Result struct {
	Success       bool               `json:"success"`
	ExcelType     ExcelType          `json:"excel_type"`
	TotalRows     int                `json:"total_rows"`
	ValidContacts []ProcessedContact `json:"valid_contacts"`
	Errors        []ExcelError       `json:"errors"`
	LeadSources   []LeadSourceGroup  `json:"lead_sources"`
	ColumnMapping ColumnMapping      `json:"column_mapping"`
	Stats         ProcessingStats    `json:"processing_stats"`
}
