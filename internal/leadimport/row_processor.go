package leadimport

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/lead-intake/internal/spreadsheet"
)

// rowProcessor extracts and validates one data row at a time against a
// finished column mapping.
type rowProcessor struct {
	mapping       ColumnMapping
	countryPrefix string
	newID         func() string
}

func newContactID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// RowNumber converts a 0-based data index into the spreadsheet row number.
func RowNumber(index int) int { return index + 2 }

// process never returns a Go error: extraction failures become a single
// "Error procesando fila" issue on an invalid contact.
func (p *rowProcessor) process(index int, row spreadsheet.RawRow) (contact ProcessedContact) {
	contact = ProcessedContact{
		ID:               p.newID(),
		Row:              RowNumber(index),
		RawData:          row,
		ValidationErrors: []string{},
	}

	defer func() {
		if r := recover(); r != nil {
			contact.rowFailure(fmt.Errorf("%v", r))
		}
	}()

	if err := p.extract(&contact, row); err != nil {
		contact.rowFailure(err)
		return contact
	}
	validateContact(&contact)
	return contact
}

func (p *rowProcessor) extract(c *ProcessedContact, row spreadsheet.RawRow) error {
	for _, col := range p.mapping.Detected {
		if col.Duplicate || col.Type == ColumnOther {
			continue
		}
		value := row[col.Key]

		switch col.Type {
		case ColumnPhone:
			phone, err := cleanPhone(value, p.countryPrefix)
			if err != nil {
				return fmt.Errorf("%s: %w", col.Key, err)
			}
			setFirst(&c.Phone, phone)
		case ColumnLeadDate:
			if c.LeadDate != nil {
				continue
			}
			if t, ok := ParseLeadDate(value); ok {
				c.LeadDate = &t
			}
		default:
			s, err := CleanString(value)
			if err != nil {
				return fmt.Errorf("%s: %w", col.Key, err)
			}
			if field := c.textField(col.Type); field != nil {
				setFirst(field, s)
			}
		}
	}
	return nil
}

// setFirst keeps the first non-empty value when several columns share a type.
func setFirst(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func (c *ProcessedContact) textField(t ColumnType) *string {
	switch t {
	case ColumnName:
		return &c.Name
	case ColumnEmail:
		return &c.Email
	case ColumnCompany:
		return &c.Company
	case ColumnPosition:
		return &c.Position
	case ColumnLeadSource:
		return &c.LeadSource
	case ColumnPhase:
		return &c.Phase
	case ColumnObservations:
		return &c.Observations
	case ColumnManager:
		return &c.Manager
	}
	return nil
}

func (c *ProcessedContact) rowFailure(err error) {
	c.Issues = []Issue{{Message: fmt.Sprintf("%s: %v", MsgRowFailed, err), Severity: SeverityError}}
	c.syncValidation()
}

func (c *ProcessedContact) addIssue(col ColumnType, msg string, sev Severity) {
	c.Issues = append(c.Issues, Issue{Column: col, Message: msg, Severity: sev})
}

// syncValidation derives IsValid and ValidationErrors from Issues.
// Warnings are listed but never invalidate.
func (c *ProcessedContact) syncValidation() {
	c.IsValid = true
	c.ValidationErrors = make([]string, 0, len(c.Issues))
	for _, is := range c.Issues {
		c.ValidationErrors = append(c.ValidationErrors, is.Message)
		if is.Severity == SeverityError {
			c.IsValid = false
		}
	}
}

// validateContact applies the required-field, phone and email checks, then
// the phone-as-name fallback.
func validateContact(c *ProcessedContact) {
	if strings.TrimSpace(c.Name) == "" {
		c.addIssue(ColumnName, MsgNameRequired, SeverityError)
	}

	switch {
	case strings.TrimSpace(c.Phone) == "":
		c.addIssue(ColumnPhone, MsgPhoneRequired, SeverityError)
	case !IsValidPhone(c.Phone):
		c.addIssue(ColumnPhone, MsgPhoneInvalid, SeverityError)
	}

	if c.Email != "" && !IsValidEmail(c.Email) {
		c.addIssue(ColumnEmail, MsgEmailInvalid, SeverityWarning)
	}

	if strings.TrimSpace(c.Name) == "" && c.Phone != "" {
		c.Name = c.Phone
		kept := c.Issues[:0]
		for _, is := range c.Issues {
			if is.Message != MsgNameRequired {
				kept = append(kept, is)
			}
		}
		c.Issues = kept
	}
	c.syncValidation()
}

// errorsFor converts the issues of one contact into file-level errors.
// Invalid contacts report every issue; valid ones only their warnings.
func errorsFor(c ProcessedContact, m ColumnMapping) []ExcelError {
	var out []ExcelError
	for _, is := range c.Issues {
		if c.IsValid && is.Severity != SeverityWarning {
			continue
		}
		out = append(out, ExcelError{
			Row:        c.Row,
			Column:     headerFor(m, is.Column),
			Error:      is.Message,
			Severity:   is.Severity,
			Suggestion: suggestionFor(is.Message),
		})
	}
	return out
}

// headerFor names the first header carrying t, for error reporting.
func headerFor(m ColumnMapping, t ColumnType) string {
	if t == "" {
		return ""
	}
	for _, c := range m.Detected {
		if !c.Duplicate && c.Type == t {
			return c.Key
		}
	}
	return ""
}

func suggestionFor(msg string) string {
	switch msg {
	case MsgNameRequired:
		return "Agregue una columna de nombre o complete el nombre del contacto"
	case MsgPhoneRequired:
		return "Agregue una columna de teléfono o celular con un número"
	case MsgPhoneInvalid:
		return "El número debe tener entre 10 y 15 dígitos"
	case MsgEmailInvalid:
		return "Use el formato usuario@dominio.com"
	}
	return ""
}
