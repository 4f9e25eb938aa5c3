package personalize

import (
	"fmt"

	"github.com/ignite/lead-intake/internal/leadimport"
)

// Message is a rendered first-contact message ready for the sender.
type Message struct {
	ContactID  string `json:"contact_id"`
	Row        int    `json:"row"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	LeadSource string `json:"lead_source"`
	Text       string `json:"text"`
}

// Preview shows a group's effective template rendered for its first contact.
type Preview struct {
	Source   string                    `json:"source"`
	Count    int                       `json:"count"`
	Template string                    `json:"template"`
	Sample   string                    `json:"sample"`
	Warnings []TemplateValidationError `json:"warnings,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// RenderGroup renders the group's effective message for every contact in it.
func (ts *TemplateService) RenderGroup(g leadimport.LeadSourceGroup) ([]Message, error) {
	template := g.Message()
	if err := ts.Parse(template); err != nil {
		return nil, fmt.Errorf("template for %q: %w", g.Source, err)
	}

	out := make([]Message, 0, len(g.Contacts))
	for _, c := range g.Contacts {
		text, err := ts.Render(template, c)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", c.Row, err)
		}
		out = append(out, Message{
			ContactID:  c.ID,
			Row:        c.Row,
			Name:       c.Name,
			Phone:      c.Phone,
			LeadSource: g.Source,
			Text:       text,
		})
	}
	return out, nil
}

// RenderAll renders every group of an import result, in group order.
func (ts *TemplateService) RenderAll(res *leadimport.Result) ([]Message, error) {
	if res == nil {
		return nil, nil
	}
	var out []Message
	for _, g := range res.LeadSources {
		msgs, err := ts.RenderGroup(g)
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
	}
	return out, nil
}

// PreviewGroups renders one sample per group in strict mode. Template errors
// are reported on the preview rather than failing the whole call.
func (ts *TemplateService) PreviewGroups(groups []leadimport.LeadSourceGroup) []Preview {
	out := make([]Preview, 0, len(groups))
	for _, g := range groups {
		p := Preview{Source: g.Source, Count: g.Count, Template: g.Message()}
		if len(g.Contacts) == 0 {
			p.Sample = p.Template
			out = append(out, p)
			continue
		}
		res, err := ts.RenderWithMode(p.Template, g.Contacts[0], RenderModeStrict)
		if err != nil {
			p.Error = err.Error()
		}
		if res != nil {
			p.Sample = res.Output
			p.Warnings = res.Warnings
		}
		out = append(out, p)
	}
	return out
}
