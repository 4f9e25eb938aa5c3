package leadimport

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/lead-intake/internal/spreadsheet"
)

func testProcessor(opts ...Option) *Processor {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 1500 * time.Millisecond)
	}
	ids := 0
	nextID := func() string {
		ids++
		return fmt.Sprintf("c-%d", ids)
	}
	return NewProcessor(nil, append([]Option{WithClock(clock), WithIDGenerator(nextID)}, opts...)...)
}

func leadsTable() *spreadsheet.Table {
	headers := []string{"Nombre", "Celular", "Email", "Origen de Lead", "Empresa"}
	rows := [][]any{
		{"Ana", "300 123 4567", "ana@x.com", "Facebook", "Acme"},
		{"", "3109876543", "", "Google", ""},
		{"Luis", "", "", "Web", ""},
		{"Marta", "3001234567", "bad-email", "facebook", ""},
		{"Pedro", 3201112233.0, "", "", ""},
		{"", "", "", "", ""},
	}
	t := &spreadsheet.Table{Sheet: "Hoja1", Headers: headers}
	for _, r := range rows {
		row := spreadsheet.RawRow{}
		for i, h := range headers {
			row[h] = r[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func TestProcessLeadsFile(t *testing.T) {
	res, err := testProcessor().Process(leadsTable())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, ExcelLeads, res.ExcelType)
	assert.Equal(t, 6, res.TotalRows)

	require.Len(t, res.ValidContacts, 4)
	assert.Equal(t, "c-1", res.ValidContacts[0].ID)
	assert.Equal(t, "573109876543", res.ValidContacts[1].Name)
	assert.Equal(t, "573201112233", res.ValidContacts[3].Phone)

	want := []ExcelError{
		{Row: 4, Column: "Celular", Error: MsgPhoneRequired, Severity: SeverityError},
		{Row: 5, Column: "Email", Error: MsgEmailInvalid, Severity: SeverityWarning},
		{Row: 7, Column: "Nombre", Error: MsgNameRequired, Severity: SeverityError},
		{Row: 7, Column: "Celular", Error: MsgPhoneRequired, Severity: SeverityError},
	}
	require.Len(t, res.Errors, len(want))
	for i, w := range want {
		got := res.Errors[i]
		assert.Equal(t, w.Row, got.Row, "error %d row", i)
		assert.Equal(t, w.Column, got.Column, "error %d column", i)
		assert.Equal(t, w.Error, got.Error, "error %d message", i)
		assert.Equal(t, w.Severity, got.Severity, "error %d severity", i)
	}

	sources := make([]string, len(res.LeadSources))
	for i, g := range res.LeadSources {
		sources[i] = g.Source
	}
	assert.Equal(t, []string{"Facebook", "Google", "facebook", NoSourceLabel}, sources)

	leads := DefaultCatalog().Profile(ExcelLeads).Templates
	assert.Equal(t, leads[0].Template, res.LeadSources[0].DefaultMessage)
	assert.Equal(t, leads[1].Template, res.LeadSources[1].DefaultMessage)
	assert.Equal(t, leads[0].Template, res.LeadSources[2].DefaultMessage)
	assert.Equal(t, DefaultTemplate.Template, res.LeadSources[3].DefaultMessage)

	assert.Equal(t, ProcessingStats{
		TotalProcessed:   6,
		ValidContacts:    4,
		InvalidContacts:  2,
		Duplicates:       1,
		LeadSourcesFound: 4,
		ProcessingTime:   1500 * time.Millisecond,
		ProcessingTimeMs: 1500,
	}, res.Stats)

	for _, c := range res.ColumnMapping.Detected {
		switch c.Key {
		case "Nombre", "Celular", "Origen de Lead":
			assert.True(t, c.Required, "%s should be required for leads", c.Key)
		default:
			assert.False(t, c.Required, "%s should be optional", c.Key)
		}
	}
}

func TestApplyCustomMessagesCaseVariants(t *testing.T) {
	res, err := testProcessor().Process(leadsTable())
	require.NoError(t, err)
	upper, lower := &res.LeadSources[0], &res.LeadSources[2]
	require.Equal(t, "Facebook", upper.Source)
	require.Equal(t, "facebook", lower.Source)

	unknown := ApplyCustomMessages(res.LeadSources, map[string]string{"Facebook": "Hola {nombre}"})
	assert.Empty(t, unknown)
	assert.Equal(t, "Hola {nombre}", upper.Message())
	assert.Equal(t, lower.DefaultMessage, lower.Message())

	unknown = ApplyCustomMessages(res.LeadSources, map[string]string{"facebook": "Buenas"})
	assert.Empty(t, unknown)
	assert.Equal(t, "Hola {nombre}", upper.Message())
	assert.Equal(t, "Buenas", lower.Message())

	unknown = ApplyCustomMessages(res.LeadSources, map[string]string{"FACEBOOK": "Hey"})
	assert.Empty(t, unknown)
	assert.Equal(t, "Hey", upper.Message(), "folded match picks the first group")
	assert.Equal(t, "Buenas", lower.Message())
}

func TestProcessAccountsForEveryRow(t *testing.T) {
	res, err := testProcessor().Process(leadsTable())
	require.NoError(t, err)

	failing := map[int]bool{}
	for _, e := range res.Errors {
		if e.Severity == SeverityError {
			failing[e.Row] = true
		}
	}
	assert.Equal(t, res.TotalRows, len(res.ValidContacts)+len(failing))

	grouped := 0
	for _, g := range res.LeadSources {
		grouped += g.Count
	}
	assert.Equal(t, len(res.ValidContacts), grouped)
}

func TestProcessSimpleFile(t *testing.T) {
	table := &spreadsheet.Table{
		Headers: []string{"name", "phone"},
		Rows: []spreadsheet.RawRow{
			{"name": "Ana", "phone": "3001234567"},
			{"name": "Ana bis", "phone": "573001234567"},
		},
	}
	res, err := testProcessor().Process(table)
	require.NoError(t, err)

	assert.Equal(t, ExcelSimple, res.ExcelType)
	require.Len(t, res.LeadSources, 1)
	assert.Equal(t, NoSourceLabel, res.LeadSources[0].Source)
	assert.Equal(t, DefaultCatalog().Profile(ExcelSimple).Templates[0].Template, res.LeadSources[0].DefaultMessage)
	assert.Equal(t, 1, res.Stats.Duplicates)
}

func TestProcessOptions(t *testing.T) {
	table := &spreadsheet.Table{
		Headers: []string{"Cliente", "Dato"},
		Rows:    []spreadsheet.RawRow{{"Cliente": "Ana", "Dato": "3001234567"}},
	}
	p := testProcessor(WithCountryPrefix(""))
	res, err := p.Process(table,
		WithManualMapping(map[string]ColumnType{"Dato": ColumnPhone}),
		WithCustomMessages(map[string]string{NoSourceLabel: "Hola {nombre}"}),
	)
	require.NoError(t, err)

	require.Len(t, res.ValidContacts, 1)
	assert.Equal(t, "3001234567", res.ValidContacts[0].Phone)
	assert.Equal(t, map[string]ColumnType{"Dato": ColumnPhone}, res.ColumnMapping.Manual)
	assert.Equal(t, "Hola {nombre}", res.LeadSources[0].CustomMessage)
	assert.NotEqual(t, res.LeadSources[0].DefaultMessage, res.LeadSources[0].CustomMessage)
}

func TestProcessEmptyTable(t *testing.T) {
	p := testProcessor()
	for _, table := range []*spreadsheet.Table{
		nil,
		{Headers: []string{"Nombre"}},
		{Rows: []spreadsheet.RawRow{{}}},
	} {
		res, err := p.Process(table)
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, spreadsheet.ErrEmptyFile), "got %v", err)
	}
}

func TestProcessFile(t *testing.T) {
	data, err := spreadsheet.ContactTemplate()
	require.NoError(t, err)

	res, err := testProcessor().ProcessFile(context.Background(), "plantilla.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, ExcelLeads, res.ExcelType)
	assert.Len(t, res.ValidContacts, 2)
	for _, c := range res.ColumnMapping.Detected {
		assert.NotEqual(t, ColumnOther, c.Type, "template header %q should be recognized", c.Key)
	}

	_, err = testProcessor().ProcessFile(context.Background(), "vacio.csv", []byte("Nombre,Celular\n"))
	assert.True(t, errors.Is(err, spreadsheet.ErrEmptyFile))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = testProcessor().ProcessFile(ctx, "plantilla.xlsx", data)
	assert.True(t, errors.Is(err, context.Canceled))
}
