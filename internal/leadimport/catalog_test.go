package leadimport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	leads := c.Profile(ExcelLeads)
	assert.Equal(t, ExcelLeads, leads.Type)
	assert.Equal(t, []ColumnType{ColumnName, ColumnPhone, ColumnLeadSource}, leads.Required)
	require.Len(t, leads.Templates, 4)
	assert.Equal(t, "Facebook", leads.Templates[0].LeadSource)

	simple := c.Profile(ExcelSimple)
	require.Len(t, simple.Templates, 1)
	assert.Equal(t, "Hola {name}, esperamos que estés bien. Te contactamos desde nuestra empresa.", simple.Templates[0].Template)

	custom := c.Profile(ExcelCustom)
	assert.Empty(t, custom.Required)
	assert.Equal(t, "Hola, te contactamos desde nuestra empresa.", custom.Templates[0].Template)

	for _, word := range []string{"whatsapp", "Móvil", "correo", "organizacion", "responsable", "lead date"} {
		if _, ok := c.Dictionary().Lookup(word); !ok {
			t.Errorf("default dictionary is missing %q", word)
		}
	}
}

func TestCatalogCopiesAreIndependent(t *testing.T) {
	c := DefaultCatalog()
	p := c.Profile(ExcelLeads)
	p.Templates[0].Template = "changed"
	p.Required[0] = ColumnOther

	again := c.Profile(ExcelLeads)
	assert.NotEqual(t, "changed", again.Templates[0].Template)
	assert.Equal(t, ColumnName, again.Required[0])
}

func TestLoadCatalogOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
profiles:
  leads:
    required: [name, phone, lead_source]
    templates:
      - lead_source: Instagram
        template: "Hola {nombre}, te vimos en Instagram."
      - template: "Hola {nombre}, gracias por tu interés."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	leads := c.Profile(ExcelLeads)
	require.Len(t, leads.Templates, 2)
	assert.Equal(t, "Instagram", leads.Templates[0].LeadSource)

	// untouched sections come from the built-in catalog
	assert.Equal(t, DefaultCatalog().Profile(ExcelSimple), c.Profile(ExcelSimple))
	_, ok := c.Dictionary().Lookup("celular")
	assert.True(t, ok)
}

func TestLoadCatalogEmptyPath(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Same(t, DefaultCatalog(), c)
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "columns: [::"},
		{"unknown column type", "columns:\n  age: [edad]\n"},
		{"unknown profile", "profiles:\n  vip:\n    templates: [{template: hola}]\n"},
		{"bad required type", "profiles:\n  simple:\n    required: [age]\n"},
		{"empty template", "profiles:\n  custom:\n    templates: [{template: \"\"}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml), DefaultCatalog())
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("ParseCatalog error = %v, want ErrInvalidCatalog", err)
			}
		})
	}

	_, err := ParseCatalog([]byte("profiles: {}\n"), nil)
	assert.True(t, errors.Is(err, ErrInvalidCatalog), "no base and no columns")
}
