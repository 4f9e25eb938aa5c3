// Package intake ties the import pipeline together for the API and the CLI:
// it fetches or receives a spreadsheet, processes it, applies the caller's
// message overrides and optionally renders every message.
package intake

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ignite/lead-intake/internal/leadimport"
	"github.com/ignite/lead-intake/internal/personalize"
	"github.com/ignite/lead-intake/internal/pkg/logger"
	"github.com/ignite/lead-intake/internal/storage"
)

// ErrNoSource is returned when a request carries neither data nor a source URI.
var ErrNoSource = errors.New("intake: no file or source given")

// Request describes one import.
type Request struct {
	// Name and Data carry an uploaded file. When Data is nil, Source is fetched.
	Name   string
	Data   []byte
	Source string

	Mapping  map[string]string // header -> column type name
	Messages map[string]string // lead source -> custom message
	Render   bool
}

// Outcome is the processed import plus the rendered messages when requested.
type Outcome struct {
	*leadimport.Result
	Messages       []personalize.Message `json:"messages,omitempty"`
	UnknownSources []string              `json:"unknown_sources,omitempty"`
}

// Service runs imports.
type Service struct {
	processor *leadimport.Processor
	templates *personalize.TemplateService
	fetcher   storage.Fetcher
}

// NewService builds a Service. fetcher may be nil when only uploads are served.
func NewService(p *leadimport.Processor, ts *personalize.TemplateService, fetcher storage.Fetcher) *Service {
	if ts == nil {
		ts = personalize.NewTemplateService()
	}
	return &Service{processor: p, templates: ts, fetcher: fetcher}
}

// Processor returns the underlying pipeline.
func (s *Service) Processor() *leadimport.Processor { return s.processor }

// Templates returns the template service.
func (s *Service) Templates() *personalize.TemplateService { return s.templates }

// Import processes one request.
func (s *Service) Import(ctx context.Context, req Request) (*Outcome, error) {
	manual, err := ParseMapping(req.Mapping)
	if err != nil {
		return nil, err
	}

	name, data := req.Name, req.Data
	if data == nil {
		if req.Source == "" {
			return nil, ErrNoSource
		}
		if s.fetcher == nil {
			return nil, fmt.Errorf("%w: %s", storage.ErrUnsupportedSource, req.Source)
		}
		name, data, err = s.fetcher.Fetch(ctx, req.Source)
		if err != nil {
			return nil, err
		}
	}

	res, err := s.processor.ProcessFile(ctx, name, data, leadimport.WithManualMapping(manual))
	if err != nil {
		return nil, err
	}

	out := &Outcome{Result: res}
	if len(req.Messages) > 0 {
		out.UnknownSources = leadimport.ApplyCustomMessages(res.LeadSources, req.Messages)
		sort.Strings(out.UnknownSources)
	}
	if req.Render {
		msgs, err := s.templates.RenderAll(res)
		if err != nil {
			return nil, fmt.Errorf("render messages: %w", err)
		}
		out.Messages = msgs
	}

	logger.Info("import completed",
		"file", name,
		"valid", res.Stats.ValidContacts,
		"errors", len(res.Errors),
		"rendered", len(out.Messages))
	return out, nil
}

// ParseMapping converts a header -> type-name mapping into column types.
func ParseMapping(m map[string]string) (map[string]leadimport.ColumnType, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]leadimport.ColumnType, len(m))
	for header, name := range m {
		t, err := leadimport.ParseColumnType(name)
		if err != nil {
			return nil, fmt.Errorf("mapping for %q: %w", header, err)
		}
		out[strings.TrimSpace(header)] = t
	}
	return out, nil
}
