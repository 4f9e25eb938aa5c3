package leadimport

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/lead-intake/internal/pkg/logger"
	"github.com/ignite/lead-intake/internal/spreadsheet"
)

// Processor runs the import pipeline. It holds only read-only configuration,
// so one instance can serve concurrent requests.
type Processor struct {
	catalog       *Catalog
	countryPrefix string
	now           func() time.Time
	newID         func() string
}

// Option configures a Processor.
type Option func(*Processor)

// WithCountryPrefix overrides DefaultCountryPrefix. An empty prefix turns
// prefixing off.
func WithCountryPrefix(prefix string) Option {
	return func(p *Processor) { p.countryPrefix = prefix }
}

// WithClock replaces time.Now for processing-time measurement.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithIDGenerator replaces the contact ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(p *Processor) { p.newID = fn }
}

// NewProcessor builds a Processor over catalog (DefaultCatalog when nil).
func NewProcessor(catalog *Catalog, opts ...Option) *Processor {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	p := &Processor{
		catalog:       catalog,
		countryPrefix: DefaultCountryPrefix,
		now:           time.Now,
		newID:         newContactID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog returns the catalog the processor matches against.
func (p *Processor) Catalog() *Catalog { return p.catalog }

type processOptions struct {
	manual   map[string]ColumnType
	messages map[string]string
}

// ProcessOption adjusts a single Process call.
type ProcessOption func(*processOptions)

// WithManualMapping forces the type of the named headers, overriding the
// dictionary.
func WithManualMapping(m map[string]ColumnType) ProcessOption {
	return func(o *processOptions) { o.manual = m }
}

// WithCustomMessages sets group custom messages by source label once the
// groups are built.
func WithCustomMessages(m map[string]string) ProcessOption {
	return func(o *processOptions) { o.messages = m }
}

// ProcessFile decodes data and processes its first sheet. Decoding failures
// abort the whole operation and yield no result.
func (p *Processor) ProcessFile(ctx context.Context, name string, data []byte, opts ...ProcessOption) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := spreadsheet.Decode(name, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return p.Process(table, opts...)
}

// Process maps the columns, picks the profile, validates every row in order
// and groups the valid contacts by lead source.
func (p *Processor) Process(table *spreadsheet.Table, opts ...ProcessOption) (*Result, error) {
	start := p.now()

	if table == nil || len(table.Headers) == 0 || len(table.Rows) == 0 {
		return nil, spreadsheet.ErrEmptyFile
	}

	var o processOptions
	for _, opt := range opts {
		opt(&o)
	}

	mapping := MapColumns(table.Headers, p.catalog.Dictionary(), o.manual)
	excelType := Classify(mapping)
	profile := p.catalog.Profile(excelType)
	mapping.applyProfile(profile)

	logger.Info("excel type detected",
		"type", string(excelType),
		"columns", len(mapping.Detected),
		"matched", len(mapping.Suggested),
		"manual", len(mapping.Manual),
		"rows", len(table.Rows))

	rp := rowProcessor{mapping: mapping, countryPrefix: p.countryPrefix, newID: p.newID}

	result := &Result{
		Success:       true,
		ExcelType:     excelType,
		TotalRows:     len(table.Rows),
		ValidContacts: []ProcessedContact{},
		Errors:        []ExcelError{},
		ColumnMapping: mapping,
	}

	for i, row := range table.Rows {
		c := rp.process(i, row)
		result.Errors = append(result.Errors, errorsFor(c, mapping)...)
		if c.IsValid {
			result.ValidContacts = append(result.ValidContacts, c)
		} else {
			logger.Debug("row rejected", "row", c.Row, "phone", c.Phone, "errors", len(c.Issues))
		}
	}

	groups := GroupByLeadSource(result.ValidContacts, profile.Templates)
	if groups == nil {
		groups = []LeadSourceGroup{}
	}
	if len(o.messages) > 0 {
		if unknown := ApplyCustomMessages(groups, o.messages); len(unknown) > 0 {
			logger.Warn("custom messages for unknown sources ignored", "sources", fmt.Sprint(unknown))
		}
	}
	result.LeadSources = groups
	result.Stats = buildStats(result.TotalRows, result.ValidContacts, groups, p.now().Sub(start))

	logger.Info("import processed",
		"type", string(excelType),
		"total", result.Stats.TotalProcessed,
		"valid", result.Stats.ValidContacts,
		"invalid", result.Stats.InvalidContacts,
		"duplicates", result.Stats.Duplicates,
		"lead_sources", result.Stats.LeadSourcesFound,
		"duration_ms", result.Stats.ProcessingTimeMs)

	return result, nil
}
