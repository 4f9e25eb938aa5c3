package leadimport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultCountryPrefix is prepended to bare 10-digit national numbers.
const DefaultCountryPrefix = "57"

// excelEpochOffset is the serial number of 1970-01-01 in spreadsheet date
// serials (1900 date system).
const excelEpochOffset = 25569

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Date layouts tried for textual lead dates. Day-first before month-first,
// matching the Spanish-language exports these files come from.
var leadDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02/01/2006 15:04",
	"02-Jan-2006",
}

// NormalizeText canonicalizes a header or dictionary key: lower-case,
// diacritics removed, internal whitespace collapsed, trimmed.
// "  Teléfono   Móvil " → "telefono movil".
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	return strings.Join(strings.Fields(s), " ")
}

// CleanString coerces a cell value to a trimmed string. Empty cells, numeric
// zero and false become "". Unsupported value types are an error.
func CleanString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case float64:
		if val == 0 {
			return "", nil
		}
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case float32:
		return CleanString(float64(val))
	case int:
		return CleanString(float64(val))
	case int64:
		return CleanString(float64(val))
	case bool:
		if !val {
			return "", nil
		}
		return "true", nil
	case time.Time:
		if val.IsZero() {
			return "", nil
		}
		return val.Format("2006-01-02"), nil
	default:
		return "", fmt.Errorf("unsupported cell value %T", v)
	}
}

// CleanPhone strips everything but digits and prefixes bare 10-digit numbers
// with DefaultCountryPrefix. CleanPhone(CleanPhone(x)) == CleanPhone(x).
func CleanPhone(v any) (string, error) {
	return cleanPhone(v, DefaultCountryPrefix)
}

func cleanPhone(v any, prefix string) (string, error) {
	s, err := CleanString(v)
	if err != nil {
		return "", err
	}
	digits := onlyDigits(s)
	if len(digits) == 10 && prefix != "" && !strings.HasPrefix(digits, prefix) {
		digits = prefix + digits
	}
	return digits, nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidPhone reports whether phone has 10 to 15 digits once non-digits are dropped.
func IsValidPhone(phone string) bool {
	n := len(onlyDigits(phone))
	return n >= 10 && n <= 15
}

// IsValidEmail checks the local@domain.tld shape.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ParseLeadDate converts a lead-date cell. Native dates pass through,
// numbers are spreadsheet serials, strings are tried against known layouts.
// Anything else yields ok == false.
func ParseLeadDate(v any) (t time.Time, ok bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case float64:
		return serialToTime(val)
	case int:
		return serialToTime(float64(val))
	case int64:
		return serialToTime(float64(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range leadDateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func serialToTime(serial float64) (time.Time, bool) {
	if serial == 0 {
		return time.Time{}, false
	}
	ms := (serial - excelEpochOffset) * 86400 * 1000
	return time.UnixMilli(int64(ms)).UTC(), true
}
