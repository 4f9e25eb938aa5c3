package leadimport

import (
	"regexp"
	"strings"
)

// placeholderPattern matches every known placeholder, any letter case.
var placeholderPattern = regexp.MustCompile(`(?i)\{(nombre|name|empresa|company|cargo|position|email|telefono|phone|origen|lead_source|fase|phase|observaciones|observations|encargado|manager)\}`)

// Placeholders lists the supported placeholder tokens.
func Placeholders() []string {
	return []string{
		"{nombre}", "{name}", "{empresa}", "{company}", "{cargo}", "{position}",
		"{email}", "{telefono}", "{phone}", "{origen}", "{lead_source}",
		"{fase}", "{phase}", "{observaciones}", "{observations}", "{encargado}", "{manager}",
	}
}

// ReplaceVariables fills the bilingual placeholders of template with the
// contact's fields. Unknown placeholders are left as they are. Inserted
// values are not scanned again, so a name containing "{empresa}" stays literal.
func ReplaceVariables(template string, c ProcessedContact) string {
	return MapPlaceholders(template, func(key string) string {
		return placeholderValue(c, key)
	})
}

// MapPlaceholders replaces every known placeholder in s with fn(key), where
// key is the lower-case name between the braces.
func MapPlaceholders(s string, fn func(key string) string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(tok string) string {
		return fn(strings.ToLower(tok[1 : len(tok)-1]))
	})
}

func placeholderValue(c ProcessedContact, key string) string {
	switch key {
	case "nombre", "name":
		return c.Name
	case "empresa", "company":
		return c.Company
	case "cargo", "position":
		return c.Position
	case "email":
		return c.Email
	case "telefono", "phone":
		return c.Phone
	case "origen", "lead_source":
		return c.LeadSource
	case "fase", "phase":
		return c.Phase
	case "observaciones", "observations":
		return c.Observations
	case "encargado", "manager":
		return c.Manager
	}
	return ""
}

// ContactFields exposes a contact's fields under every placeholder name,
// for template engines that take a binding map.
func ContactFields(c ProcessedContact) map[string]string {
	out := make(map[string]string, 17)
	for _, p := range Placeholders() {
		key := p[1 : len(p)-1]
		out[key] = placeholderValue(c, key)
	}
	return out
}
