package leadimport

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ValidationRule documents a per-column check of a profile.
type ValidationRule struct {
	Column  ColumnType `yaml:"column" json:"column"`
	Rule    string     `yaml:"rule" json:"rule"`
	Message string     `yaml:"message" json:"message"`
}

// MessageTemplate is a first-contact message. LeadSource empty means the
// template applies to any source.
type MessageTemplate struct {
	LeadSource string   `yaml:"lead_source,omitempty" json:"lead_source,omitempty"`
	Template   string   `yaml:"template" json:"template"`
	Variables  []string `yaml:"variables,omitempty" json:"variables,omitempty"`
	Priority   int      `yaml:"priority" json:"priority"`
}

// Profile is the processing configuration for one ExcelType.
type Profile struct {
	Type      ExcelType         `yaml:"-" json:"type"`
	Required  []ColumnType      `yaml:"required" json:"required_columns"`
	Optional  []ColumnType      `yaml:"optional" json:"optional_columns"`
	Rules     []ValidationRule  `yaml:"rules" json:"validation_rules"`
	Templates []MessageTemplate `yaml:"templates" json:"message_templates"`
}

func (p Profile) requires(t ColumnType) bool {
	for _, r := range p.Required {
		if r == t {
			return true
		}
	}
	return false
}

func (p Profile) clone() Profile {
	out := p
	out.Required = append([]ColumnType(nil), p.Required...)
	out.Optional = append([]ColumnType(nil), p.Optional...)
	out.Rules = append([]ValidationRule(nil), p.Rules...)
	out.Templates = make([]MessageTemplate, len(p.Templates))
	for i, t := range p.Templates {
		t.Variables = append([]string(nil), t.Variables...)
		out.Templates[i] = t
	}
	return out
}

// Catalog holds the column dictionary and the three import profiles.
// It is immutable once built; accessors hand out copies.
type Catalog struct {
	dict     *Dictionary
	profiles map[ExcelType]Profile
}

type catalogFile struct {
	Columns  map[string][]string `yaml:"columns"`
	Profiles map[string]Profile  `yaml:"profiles"`
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := ParseCatalog(defaultCatalogYAML, nil)
		if err != nil {
			panic(fmt.Sprintf("leadimport: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadCatalog reads a catalog override file. Sections the file leaves out
// (the column list, or any of the profiles) keep their built-in values.
// An empty path returns DefaultCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(data, DefaultCatalog())
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog builds a catalog from YAML, taking missing sections from base
// when base is non-nil.
func ParseCatalog(data []byte, base *Catalog) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{profiles: make(map[ExcelType]Profile, 3)}

	if len(file.Columns) > 0 {
		synonyms := make(map[ColumnType][]string, len(file.Columns))
		for name, words := range file.Columns {
			t, err := ParseColumnType(name)
			if err != nil {
				return nil, fmt.Errorf("%w: columns: %v", ErrInvalidCatalog, err)
			}
			synonyms[t] = words
		}
		dict, err := NewDictionary(synonyms)
		if err != nil {
			return nil, err
		}
		c.dict = dict
	} else if base != nil {
		c.dict = base.dict
	} else {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidCatalog)
	}

	for name, p := range file.Profiles {
		t, ok := ParseExcelType(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown profile %q", ErrInvalidCatalog, name)
		}
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("%w: profile %s: %v", ErrInvalidCatalog, name, err)
		}
		p.Type = t
		c.profiles[t] = p.clone()
	}
	for _, t := range []ExcelType{ExcelSimple, ExcelLeads, ExcelCustom} {
		if _, ok := c.profiles[t]; ok {
			continue
		}
		if base == nil {
			return nil, fmt.Errorf("%w: missing profile %q", ErrInvalidCatalog, t)
		}
		c.profiles[t] = base.profiles[t]
	}
	return c, nil
}

func validateProfile(p Profile) error {
	check := func(list []ColumnType) error {
		for _, t := range list {
			if _, err := ParseColumnType(string(t)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(p.Required); err != nil {
		return err
	}
	if err := check(p.Optional); err != nil {
		return err
	}
	for _, r := range p.Rules {
		if _, err := ParseColumnType(string(r.Column)); err != nil {
			return err
		}
	}
	for i, t := range p.Templates {
		if t.Template == "" {
			return fmt.Errorf("template %d is empty", i)
		}
	}
	return nil
}

// Dictionary returns the shared column dictionary.
func (c *Catalog) Dictionary() *Dictionary { return c.dict }

// Profile returns a copy of the profile for t.
func (c *Catalog) Profile(t ExcelType) Profile {
	return c.profiles[t].clone()
}

// Profiles returns copies of all profiles in simple, leads, custom order.
func (c *Catalog) Profiles() []Profile {
	return []Profile{c.Profile(ExcelSimple), c.Profile(ExcelLeads), c.Profile(ExcelCustom)}
}
