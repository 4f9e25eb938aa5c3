package leadimport

import (
	"testing"
	"time"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Teléfono   Móvil ", "telefono movil"},
		{"NOMBRE COMPLETO", "nombre completo"},
		{"Compañía", "compania"},
		{"Origen_de_Lead", "origen_de_lead"},
		{"\tE-mail\n", "e-mail"},
		{"Observación", "observacion"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanPhone(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"3001234567", "573001234567"},
		{"573001234567", "573001234567"},
		{"+57 300 123 4567", "573001234567"},
		{"(300) 123-4567", "573001234567"},
		{3001234567.0, "573001234567"},
		{"5712345678", "5712345678"},
		{"12345", "12345"},
		{"", ""},
		{nil, ""},
		{0.0, ""},
	}
	for _, tt := range tests {
		got, err := CleanPhone(tt.in)
		if err != nil {
			t.Fatalf("CleanPhone(%v) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("CleanPhone(%v) = %q, want %q", tt.in, got, tt.want)
		}
		again, _ := CleanPhone(got)
		if again != got {
			t.Errorf("CleanPhone not idempotent for %v: %q then %q", tt.in, got, again)
		}
	}
}

func TestCleanPhoneCustomPrefix(t *testing.T) {
	got, err := cleanPhone("5512345678", "52")
	if err != nil {
		t.Fatal(err)
	}
	if got != "525512345678" {
		t.Errorf("cleanPhone with prefix 52 = %q", got)
	}
	got, _ = cleanPhone("3001234567", "")
	if got != "3001234567" {
		t.Errorf("cleanPhone without prefix = %q", got)
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := map[string]bool{
		"573001234567":     true,
		"3001234567":       true,
		"123456789012345":  true,
		"1234567890123456": false,
		"12345":            false,
		"":                 false,
	}
	for in, want := range tests {
		if got := IsValidPhone(in); got != want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := map[string]bool{
		"ana@ejemplo.com":  true,
		"a.b+c@mail.co":    true,
		"bad-email":        false,
		"ana@ejemplo":      false,
		"ana @ejemplo.com": false,
		"@ejemplo.com":     false,
		"ana@@ejemplo.com": false,
	}
	for in, want := range tests {
		if got := IsValidEmail(in); got != want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"  Ana  ", "Ana"},
		{nil, ""},
		{0.0, ""},
		{12.5, "12.5"},
		{42, "42"},
		{true, "true"},
		{false, ""},
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "2024-01-15"},
	}
	for _, tt := range tests {
		got, err := CleanString(tt.in)
		if err != nil {
			t.Fatalf("CleanString(%v) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("CleanString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := CleanString([]int{1}); err == nil {
		t.Error("CleanString([]int) should fail")
	}
}

func TestParseLeadDate(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		in     any
		want   time.Time
		wantOK bool
	}{
		{"serial", 45292.0, jan1, true},
		{"native", jan15, jan15, true},
		{"iso", "2024-01-15", jan15, true},
		{"day first", "15/01/2024", jan15, true},
		{"garbage", "pronto", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"zero", 0.0, time.Time{}, false},
		{"bool", true, time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLeadDate(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseLeadDate(%v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseLeadDate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
