package leadimport

import "strings"

// DefaultTemplate is used when a profile declares no template for a source
// and no generic one.
var DefaultTemplate = MessageTemplate{
	Template:  "Hola {nombre}, te contactamos desde nuestra empresa.",
	Variables: []string{"nombre"},
	Priority:  1,
}

// SourceLabel is the group label for a lead source value.
func SourceLabel(source string) string {
	if strings.TrimSpace(source) == "" {
		return NoSourceLabel
	}
	return source
}

// GroupByLeadSource partitions valid contacts by lead source, keeping the
// order in which each source first appears, and binds every group to its
// resolved template.
func GroupByLeadSource(contacts []ProcessedContact, templates []MessageTemplate) []LeadSourceGroup {
	index := make(map[string]int)
	var groups []LeadSourceGroup

	for _, c := range contacts {
		if !c.IsValid {
			continue
		}
		label := SourceLabel(c.LeadSource)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, LeadSourceGroup{Source: label})
		}
		groups[i].Contacts = append(groups[i].Contacts, c)
	}

	for i := range groups {
		g := &groups[i]
		g.Count = len(g.Contacts)
		tpl := FindTemplate(g.Source, templates)
		g.DefaultMessage = tpl.Template
		g.CustomMessage = tpl.Template
	}
	return groups
}

// FindTemplate resolves the template for a source label: an exact
// case-insensitive source match, else the first template without a source,
// else DefaultTemplate.
func FindTemplate(source string, templates []MessageTemplate) MessageTemplate {
	for _, t := range templates {
		if t.LeadSource != "" && strings.EqualFold(t.LeadSource, source) {
			return t
		}
	}
	for _, t := range templates {
		if t.LeadSource == "" {
			return t
		}
	}
	return DefaultTemplate
}

// Message is the text to send to the group: the custom message when set,
// otherwise the default.
func (g *LeadSourceGroup) Message() string {
	if strings.TrimSpace(g.CustomMessage) != "" {
		return g.CustomMessage
	}
	return g.DefaultMessage
}

// SetCustomMessage replaces the group's editable message.
func (g *LeadSourceGroup) SetCustomMessage(msg string) { g.CustomMessage = msg }

// ResetCustomMessage restores the resolved template text.
func (g *LeadSourceGroup) ResetCustomMessage() { g.CustomMessage = g.DefaultMessage }

// GenerateCustomMessages maps each group's source label to its effective message.
func GenerateCustomMessages(groups []LeadSourceGroup) map[string]string {
	out := make(map[string]string, len(groups))
	for i := range groups {
		out[groups[i].Source] = groups[i].Message()
	}
	return out
}

// ApplyCustomMessages sets the custom message of every group named in
// messages. An exact label wins; otherwise the first group matching without
// case is used. Unknown sources are returned so callers can report them.
func ApplyCustomMessages(groups []LeadSourceGroup, messages map[string]string) (unknown []string) {
	exact := make(map[string]int, len(groups))
	folded := make(map[string]int, len(groups))
	for i := range groups {
		exact[groups[i].Source] = i
		key := strings.ToLower(groups[i].Source)
		if _, ok := folded[key]; !ok {
			folded[key] = i
		}
	}
	for source, msg := range messages {
		i, ok := exact[source]
		if !ok {
			i, ok = folded[strings.ToLower(source)]
		}
		if !ok {
			unknown = append(unknown, source)
			continue
		}
		groups[i].SetCustomMessage(msg)
	}
	return unknown
}
