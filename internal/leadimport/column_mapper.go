package leadimport

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnType is the semantic meaning assigned to a spreadsheet column.
type ColumnType string

const (
	ColumnName         ColumnType = "name"
	ColumnPhone        ColumnType = "phone"
	ColumnEmail        ColumnType = "email"
	ColumnCompany      ColumnType = "company"
	ColumnPosition     ColumnType = "position"
	ColumnLeadSource   ColumnType = "lead_source"
	ColumnLeadDate     ColumnType = "lead_date"
	ColumnPhase        ColumnType = "phase"
	ColumnObservations ColumnType = "observations"
	ColumnManager      ColumnType = "manager"
	ColumnOther        ColumnType = "other"
)

var columnTypes = []ColumnType{
	ColumnName, ColumnPhone, ColumnEmail, ColumnCompany, ColumnPosition,
	ColumnLeadSource, ColumnLeadDate, ColumnPhase, ColumnObservations, ColumnManager,
	ColumnOther,
}

// ColumnTypes lists every column type in display order.
func ColumnTypes() []ColumnType {
	out := make([]ColumnType, len(columnTypes))
	copy(out, columnTypes)
	return out
}

// ParseColumnType validates a caller-supplied type name.
func ParseColumnType(s string) (ColumnType, error) {
	want := ColumnType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range columnTypes {
		if t == want {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumnType, s)
}

// RequiredByDefault reports whether the column is required before a profile
// is chosen.
func (t ColumnType) RequiredByDefault() bool {
	return t == ColumnName || t == ColumnPhone
}

// Dictionary maps normalized header synonyms to column types. It is built
// once and only read afterwards, so one instance is shared by every import.
type Dictionary struct {
	entries map[string]ColumnType
}

// NewDictionary normalizes every synonym with NormalizeText. Two synonyms that
// normalize to the same key but name different types are rejected.
func NewDictionary(synonyms map[ColumnType][]string) (*Dictionary, error) {
	d := &Dictionary{entries: make(map[string]ColumnType)}
	for t, words := range synonyms {
		if t == ColumnOther {
			return nil, fmt.Errorf("%w: synonyms cannot map to %q", ErrInvalidCatalog, ColumnOther)
		}
		if _, err := ParseColumnType(string(t)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		for _, w := range words {
			key := NormalizeText(w)
			if key == "" {
				continue
			}
			if prev, ok := d.entries[key]; ok && prev != t {
				return nil, fmt.Errorf("%w: synonym %q maps to both %s and %s", ErrInvalidCatalog, w, prev, t)
			}
			d.entries[key] = t
		}
	}
	return d, nil
}

// Lookup normalizes header and returns its column type.
func (d *Dictionary) Lookup(header string) (ColumnType, bool) {
	t, ok := d.entries[NormalizeText(header)]
	return t, ok
}

// Len is the number of normalized synonyms.
func (d *Dictionary) Len() int { return len(d.entries) }

// Synonyms returns the normalized synonyms grouped by type, sorted.
func (d *Dictionary) Synonyms() map[ColumnType][]string {
	out := make(map[ColumnType][]string)
	for k, t := range d.entries {
		out[t] = append(out[t], k)
	}
	for t := range out {
		sort.Strings(out[t])
	}
	return out
}

// DetectedColumn is the mapping decision for one header.
type DetectedColumn struct {
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	Required   bool       `json:"required"`
	MappedTo   ColumnType `json:"mapped_to,omitempty"`
	Overridden bool       `json:"overridden,omitempty"`
	Duplicate  bool       `json:"duplicate,omitempty"`
}

// ColumnMapping is built once per file by MapColumns and read-only after.
// Detected carries the effective type of every header (manual override when
// present), Suggested only the automatic dictionary matches.
type ColumnMapping struct {
	Detected  []DetectedColumn      `json:"detected"`
	Suggested map[string]ColumnType `json:"suggested"`
	Manual    map[string]ColumnType `json:"manual"`
}

// MapColumns assigns a column type to every header. Headers that repeat an
// earlier header verbatim are marked Duplicate, typed Other and never read;
// the first occurrence wins.
func MapColumns(headers []string, dict *Dictionary, manual map[string]ColumnType) ColumnMapping {
	m := ColumnMapping{
		Detected:  make([]DetectedColumn, 0, len(headers)),
		Suggested: make(map[string]ColumnType),
		Manual:    make(map[string]ColumnType, len(manual)),
	}
	for h, t := range manual {
		m.Manual[h] = t
	}

	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		col := DetectedColumn{Key: h, Name: h, Type: ColumnOther}

		if seen[h] {
			col.Duplicate = true
			m.Detected = append(m.Detected, col)
			continue
		}
		seen[h] = true

		if dict != nil {
			if t, ok := dict.Lookup(h); ok {
				col.Type = t
				m.Suggested[h] = t
			}
		}
		if t, ok := m.Manual[h]; ok {
			col.Type = t
			col.Overridden = true
		}
		if col.Type != ColumnOther {
			col.MappedTo = col.Type
		}
		col.Required = col.Type.RequiredByDefault()
		m.Detected = append(m.Detected, col)
	}
	return m
}

// Has reports whether any readable column has type t.
func (m ColumnMapping) Has(t ColumnType) bool {
	for _, c := range m.Detected {
		if !c.Duplicate && c.Type == t {
			return true
		}
	}
	return false
}

// DistinctTypes counts the distinct effective types, Other included.
func (m ColumnMapping) DistinctTypes() int {
	set := make(map[ColumnType]struct{})
	for _, c := range m.Detected {
		if !c.Duplicate {
			set[c.Type] = struct{}{}
		}
	}
	return len(set)
}

// TypeOf returns the effective type of header.
func (m ColumnMapping) TypeOf(header string) ColumnType {
	for _, c := range m.Detected {
		if c.Key == header && !c.Duplicate {
			return c.Type
		}
	}
	return ColumnOther
}

// applyProfile marks columns required by the profile, in addition to the
// name and phone columns that are always required.
func (m *ColumnMapping) applyProfile(p Profile) {
	for i := range m.Detected {
		c := &m.Detected[i]
		c.Required = c.Type.RequiredByDefault() || p.requires(c.Type)
	}
}
