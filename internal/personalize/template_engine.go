// Package personalize renders first-contact messages for imported contacts.
// Plain templates use the {nombre}-style placeholders; templates containing
// Liquid tags ({{ }} or {% %}) are rendered with Liquid first.
package personalize

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/osteele/liquid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ignite/lead-intake/internal/leadimport"
	"github.com/ignite/lead-intake/internal/pkg/logger"
)

// RenderMode determines how the template engine handles errors
type RenderMode int

const (
	// RenderModeLax keeps the template text when Liquid fails (bulk rendering)
	RenderModeLax RenderMode = iota
	// RenderModeStrict returns the error and flags unknown variables (preview)
	RenderModeStrict
)

// TemplateService renders message templates with a parsed-template cache.
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // template text -> *liquid.Template
	title  cases.Caser
	mu     sync.Mutex
}

// TemplateValidationError represents a validation issue in a template
type TemplateValidationError struct {
	Variable string `json:"variable"`
	Message  string `json:"message"`
}

// RenderResult contains the rendered output and any warnings
type RenderResult struct {
	Output   string                    `json:"output"`
	Warnings []TemplateValidationError `json:"warnings,omitempty"`
	Success  bool                      `json:"success"`
}

// NewTemplateService creates a template service with the message filters registered.
func NewTemplateService() *TemplateService {
	ts := &TemplateService{
		engine: liquid.NewEngine(),
		title:  cases.Title(language.Spanish),
	}
	ts.registerCustomFilters()
	return ts
}

func (ts *TemplateService) registerCustomFilters() {
	// {{ empresa | default: "nuestra empresa" }}
	ts.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		if s := fmt.Sprintf("%v", value); strings.TrimSpace(s) == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	// {{ nombre | capitalize }}
	ts.engine.RegisterFilter("capitalize", func(s string) string {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 {
			return s
		}
		return strings.ToUpper(string(r)) + strings.ToLower(s[size:])
	})

	// {{ nombre | titlecase }}
	ts.engine.RegisterFilter("titlecase", func(s string) string {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		return ts.title.String(strings.ToLower(s))
	})

	// {{ nombre | first_name }}
	ts.engine.RegisterFilter("first_name", func(s string) string {
		if f := strings.Fields(s); len(f) > 0 {
			return f[0]
		}
		return ""
	})

	// {{ observaciones | truncate: 40 }}
	ts.engine.RegisterFilter("truncate", func(s string, length int) string {
		if length < 0 {
			length = 0
		}
		runes := []rune(s)
		if len(runes) <= length {
			return s
		}
		if length <= 3 {
			return string(runes[:length])
		}
		return string(runes[:length-3]) + "..."
	})

	// {{ telefono | mask_phone }}
	ts.engine.RegisterFilter("mask_phone", logger.RedactPhone)

	// {% assign has_company = empresa | present %}
	ts.engine.RegisterFilter("present", func(value interface{}) bool {
		if value == nil {
			return false
		}
		s := fmt.Sprintf("%v", value)
		return strings.TrimSpace(s) != "" && s != "<nil>"
	})
}

// Bindings builds the Liquid context for a contact: every placeholder name,
// the lead date and the untouched spreadsheet row under "raw".
func Bindings(c leadimport.ProcessedContact) map[string]interface{} {
	b := make(map[string]interface{}, 20)
	for k, v := range leadimport.ContactFields(c) {
		b[k] = v
	}
	b["id"] = c.ID
	if c.LeadDate != nil {
		b["lead_date"] = *c.LeadDate
		b["fecha_lead"] = *c.LeadDate
	} else {
		b["lead_date"] = ""
		b["fecha_lead"] = ""
	}
	raw := make(map[string]interface{}, len(c.RawData))
	for k, v := range c.RawData {
		raw[k] = v
	}
	b["raw"] = raw
	return b
}

// IsLiquid reports whether template uses Liquid syntax.
func IsLiquid(template string) bool {
	return strings.Contains(template, "{{") || strings.Contains(template, "{%")
}

// Parse compiles a template string and returns any syntax errors
func (ts *TemplateService) Parse(template string) error {
	if !IsLiquid(template) {
		return nil
	}
	_, err := ts.parse(bindPlaceholders(template))
	return err
}

func (ts *TemplateService) parse(template string) (*liquid.Template, error) {
	if cached, ok := ts.cache.Load(template); ok {
		return cached.(*liquid.Template), nil
	}
	tpl, err := ts.engine.ParseString(template)
	if err != nil {
		return nil, err
	}
	ts.cache.Store(template, tpl)
	return tpl, nil
}

// Render produces the message for one contact. In Liquid templates the
// {nombre}-style placeholders outside tags become bound variables, so values
// inserted by either syntax are never expanded again.
func (ts *TemplateService) Render(template string, c leadimport.ProcessedContact) (string, error) {
	if !IsLiquid(template) {
		return leadimport.ReplaceVariables(template, c), nil
	}

	tpl, err := ts.parse(bindPlaceholders(template))
	if err != nil {
		return template, fmt.Errorf("parse template: %w", err)
	}
	b := Bindings(c)
	for k, v := range leadimport.ContactFields(c) {
		b[placeholderPrefix+k] = v
	}
	out, err := tpl.RenderString(b)
	if err != nil {
		return template, fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

const placeholderPrefix = "__ph_"

var rawTagPattern = regexp.MustCompile(`^\{%-?\s*(end)?raw\b`)

// bindPlaceholders rewrites placeholders in the literal text of a Liquid
// template into output tags. Text inside tags and raw blocks is kept.
func bindPlaceholders(template string) string {
	var sb strings.Builder
	inRaw := false
	last := 0
	for _, loc := range liquidTagPattern.FindAllStringIndex(template, -1) {
		literal := template[last:loc[0]]
		if inRaw {
			sb.WriteString(literal)
		} else {
			sb.WriteString(placeholderTags(literal))
		}
		tag := template[loc[0]:loc[1]]
		if m := rawTagPattern.FindStringSubmatch(tag); m != nil {
			inRaw = m[1] == ""
		}
		sb.WriteString(tag)
		last = loc[1]
	}
	if inRaw {
		sb.WriteString(template[last:])
	} else {
		sb.WriteString(placeholderTags(template[last:]))
	}
	return sb.String()
}

func placeholderTags(s string) string {
	return leadimport.MapPlaceholders(s, func(key string) string {
		return "{{ " + placeholderPrefix + key + " }}"
	})
}

// RenderWithMode renders with configurable error handling.
func (ts *TemplateService) RenderWithMode(template string, c leadimport.ProcessedContact, mode RenderMode) (*RenderResult, error) {
	result := &RenderResult{Success: true, Warnings: []TemplateValidationError{}}

	if mode == RenderModeStrict {
		result.Warnings = ts.ValidateVariables(template, Bindings(c))
		if len(result.Warnings) > 0 {
			result.Success = false
		}
	}

	out, err := ts.Render(template, c)
	if err != nil {
		if mode == RenderModeStrict {
			return result, err
		}
		logger.Warn("template render failed, sending template text", "error", err.Error())
		result.Output = leadimport.ReplaceVariables(template, c)
		result.Success = false
		return result, nil
	}
	result.Output = out
	return result, nil
}

var liquidVarPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.]*?)(?:\s*\||\s*\}\})`)
var bracePattern = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)

// ValidateVariables lists Liquid variables and brace placeholders the
// bindings do not provide.
func (ts *TemplateService) ValidateVariables(template string, ctx map[string]interface{}) []TemplateValidationError {
	var out []TemplateValidationError
	seen := make(map[string]bool)

	for _, m := range liquidVarPattern.FindAllStringSubmatch(template, -1) {
		name := strings.TrimSpace(m[1])
		root := strings.SplitN(name, ".", 2)[0]
		if seen[name] || isLiquidKeyword(root) {
			continue
		}
		seen[name] = true
		if _, ok := ctx[root]; !ok {
			out = append(out, TemplateValidationError{
				Variable: name,
				Message:  fmt.Sprintf("La variable '%s' no existe para los contactos", name),
			})
		}
	}

	known := make(map[string]bool)
	for _, p := range leadimport.Placeholders() {
		known[p] = true
	}
	for _, m := range bracePattern.FindAllStringSubmatch(stripLiquid(template), -1) {
		tok := "{" + strings.ToLower(m[1]) + "}"
		if seen[tok] || known[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, TemplateValidationError{
			Variable: m[0],
			Message:  fmt.Sprintf("El marcador %s no se reemplazará", m[0]),
		})
	}
	return out
}

var liquidTagPattern = regexp.MustCompile(`(?s)\{\{.*?\}\}|\{%.*?%\}`)

func stripLiquid(template string) string {
	return liquidTagPattern.ReplaceAllString(template, "")
}

// ClearCache removes all cached templates
func (ts *TemplateService) ClearCache() {
	ts.cache.Range(func(k, _ interface{}) bool {
		ts.cache.Delete(k)
		return true
	})
}

func isLiquidKeyword(name string) bool {
	switch strings.ToLower(name) {
	case "if", "elsif", "else", "endif", "unless", "endunless", "case", "when", "endcase",
		"for", "endfor", "assign", "capture", "endcapture", "forloop",
		"true", "false", "nil", "null", "blank", "empty", "and", "or", "not", "contains":
		return true
	}
	return false
}
