package leadimport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapColumns(t *testing.T) {
	dict := DefaultCatalog().Dictionary()
	headers := []string{"Nombre Completo", "TELÉFONO", "Correo", "Compañía", "Origen de Lead", "Fecha Lead", "Color favorito"}

	m := MapColumns(headers, dict, nil)
	require.Len(t, m.Detected, len(headers))

	want := []ColumnType{ColumnName, ColumnPhone, ColumnEmail, ColumnCompany, ColumnLeadSource, ColumnLeadDate, ColumnOther}
	for i, c := range m.Detected {
		if c.Type != want[i] {
			t.Errorf("header %q mapped to %s, want %s", c.Key, c.Type, want[i])
		}
	}

	assert.True(t, m.Detected[0].Required)
	assert.True(t, m.Detected[1].Required)
	assert.False(t, m.Detected[2].Required)
	assert.Equal(t, ColumnType(""), m.Detected[6].MappedTo)
	assert.Len(t, m.Suggested, 6)
	assert.NotContains(t, m.Suggested, "Color favorito")
	assert.Empty(t, m.Manual)
}

func TestMapColumnsIsStable(t *testing.T) {
	dict := DefaultCatalog().Dictionary()
	a := MapColumns([]string{"celular", "nombre"}, dict, nil)
	b := MapColumns([]string{"nombre", "celular"}, dict, nil)
	assert.Equal(t, a.TypeOf("celular"), b.TypeOf("celular"))
	assert.Equal(t, a.TypeOf("nombre"), b.TypeOf("nombre"))
}

func TestMapColumnsManualOverride(t *testing.T) {
	dict := DefaultCatalog().Dictionary()
	m := MapColumns([]string{"Cliente", "Dato 1"}, dict, map[string]ColumnType{
		"Cliente": ColumnCompany,
		"Dato 1":  ColumnPhone,
	})

	assert.Equal(t, ColumnCompany, m.TypeOf("Cliente"))
	assert.Equal(t, ColumnPhone, m.TypeOf("Dato 1"))
	assert.True(t, m.Detected[0].Overridden)
	assert.Equal(t, ColumnName, m.Suggested["Cliente"], "suggestion keeps the dictionary match")
	assert.NotContains(t, m.Suggested, "Dato 1")
	assert.True(t, m.Detected[1].Required)
}

func TestMapColumnsDuplicateHeader(t *testing.T) {
	m := MapColumns([]string{"Nombre", "Celular", "Nombre"}, DefaultCatalog().Dictionary(), nil)

	assert.False(t, m.Detected[0].Duplicate)
	assert.Equal(t, ColumnName, m.Detected[0].Type)
	assert.True(t, m.Detected[2].Duplicate)
	assert.Equal(t, ColumnOther, m.Detected[2].Type)
	assert.False(t, m.Detected[2].Required)
	assert.Equal(t, 2, m.DistinctTypes())
}

func TestNewDictionaryRejectsConflicts(t *testing.T) {
	_, err := NewDictionary(map[ColumnType][]string{
		ColumnName:  {"Contacto"},
		ColumnPhone: {"contacto"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCatalog))

	_, err = NewDictionary(map[ColumnType][]string{ColumnOther: {"x"}})
	assert.True(t, errors.Is(err, ErrInvalidCatalog))
}

func TestParseColumnType(t *testing.T) {
	got, err := ParseColumnType(" Lead_Source ")
	require.NoError(t, err)
	assert.Equal(t, ColumnLeadSource, got)

	_, err = ParseColumnType("age")
	assert.True(t, errors.Is(err, ErrUnknownColumnType))
}
