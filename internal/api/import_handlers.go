package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/lead-intake/internal/intake"
	"github.com/ignite/lead-intake/internal/leadimport"
	"github.com/ignite/lead-intake/internal/personalize"
	"github.com/ignite/lead-intake/internal/pkg/httputil"
	"github.com/ignite/lead-intake/internal/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ImportHandler serves the contact import endpoints.
type ImportHandler struct {
	svc       *intake.Service
	maxUpload int64
	now       func() time.Time
}

// NewImportHandler creates the handler. maxUpload bounds the uploaded file.
func NewImportHandler(svc *intake.Service, maxUpload int64) *ImportHandler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &ImportHandler{svc: svc, maxUpload: maxUpload, now: time.Now}
}

// RegisterRoutes registers import routes
func (h *ImportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Get("/columns", h.HandleListColumns)
		r.Get("/profiles", h.HandleListProfiles)
		r.Get("/placeholders", h.HandleListPlaceholders)
		r.Get("/template", h.HandleDownloadTemplate)

		r.Post("/", h.HandleUpload)
		r.Post("/remote", h.HandleRemote)
		r.Post("/preview", h.HandlePreview)
	})
}

// ==========================================
// CATALOG
// ==========================================

// ColumnInfo describes a column type for the manual mapping UI.
type ColumnInfo struct {
	Type     leadimport.ColumnType `json:"type"`
	Required bool                  `json:"required"`
	Synonyms []string              `json:"synonyms"`
}

// HandleListColumns lists the column types and the headers they match.
//
//	GET /api/imports/columns
func (h *ImportHandler) HandleListColumns(w http.ResponseWriter, r *http.Request) {
	synonyms := h.svc.Processor().Catalog().Dictionary().Synonyms()
	out := make([]ColumnInfo, 0, len(leadimport.ColumnTypes()))
	for _, t := range leadimport.ColumnTypes() {
		s := synonyms[t]
		if s == nil {
			s = []string{}
		}
		out = append(out, ColumnInfo{Type: t, Required: t.RequiredByDefault(), Synonyms: s})
	}
	httputil.OK(w, map[string]interface{}{"columns": out})
}

// HandleListProfiles lists the profiles with their rules and templates.
//
//	GET /api/imports/profiles
func (h *ImportHandler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{"profiles": h.svc.Processor().Catalog().Profiles()})
}

// HandleListPlaceholders lists the message placeholders.
//
//	GET /api/imports/placeholders
func (h *ImportHandler) HandleListPlaceholders(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{"placeholders": leadimport.Placeholders()})
}

// HandleDownloadTemplate returns the contact template workbook.
//
//	GET /api/imports/template
func (h *ImportHandler) HandleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := spreadsheet.ContactTemplate()
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Attachment(w, xlsxContentType, spreadsheet.TemplateFileName(h.now()), data)
}

// ==========================================
// PROCESSING
// ==========================================

// HandleUpload processes an uploaded spreadsheet. Form fields: file,
// mapping (JSON header -> column type), messages[<source>] and render.
//
//	POST /api/imports
func (h *ImportHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.ErrorCode(w, http.StatusRequestEntityTooLarge, "too_large", "El archivo supera el tamaño máximo permitido", nil)
			return
		}
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "file required")
		return
	}
	defer file.Close()

	if err := spreadsheet.ValidateFileName(header.Filename); err != nil {
		writeImportError(w, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if int64(len(data)) > h.maxUpload {
		httputil.ErrorCode(w, http.StatusRequestEntityTooLarge, "too_large", "El archivo supera el tamaño máximo permitido", nil)
		return
	}

	req := intake.Request{
		Name:     header.Filename,
		Data:     data,
		Messages: formMessages(r),
	}
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Mapping); err != nil {
			httputil.BadRequest(w, "invalid mapping: "+err.Error())
			return
		}
	}
	req.Render, _ = strconv.ParseBool(r.FormValue("render"))

	h.runImport(w, r, req)
}

// RemoteImportRequest is the body of POST /api/imports/remote.
type RemoteImportRequest struct {
	Source   string            `json:"source"`
	Mapping  map[string]string `json:"mapping,omitempty"`
	Messages map[string]string `json:"messages,omitempty"`
	Render   bool              `json:"render,omitempty"`
}

// HandleRemote processes a spreadsheet fetched from s3:// or http(s)://, or a
// path below storage.local_root when one is configured.
//
//	POST /api/imports/remote
func (h *ImportHandler) HandleRemote(w http.ResponseWriter, r *http.Request) {
	var body RemoteImportRequest
	if !httputil.Decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Source) == "" {
		httputil.BadRequest(w, "source required")
		return
	}
	h.runImport(w, r, intake.Request{
		Source:   body.Source,
		Mapping:  body.Mapping,
		Messages: body.Messages,
		Render:   body.Render,
	})
}

func (h *ImportHandler) runImport(w http.ResponseWriter, r *http.Request, req intake.Request) {
	out, err := h.svc.Import(r.Context(), req)
	if err != nil {
		writeImportError(w, err)
		return
	}
	httputil.OK(w, out)
}

// formMessages collects messages[<source>] form fields.
func formMessages(r *http.Request) map[string]string {
	if r.MultipartForm == nil {
		return nil
	}
	var out map[string]string
	for key, values := range r.MultipartForm.Value {
		source, ok := strings.CutPrefix(key, "messages[")
		if !ok || !strings.HasSuffix(source, "]") || len(values) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[strings.TrimSuffix(source, "]")] = values[0]
	}
	return out
}

// ==========================================
// PREVIEW
// ==========================================

// PreviewContact is the sample contact a template is rendered against.
type PreviewContact struct {
	Name         string         `json:"name"`
	Phone        string         `json:"phone"`
	Email        string         `json:"email"`
	Company      string         `json:"company"`
	Position     string         `json:"position"`
	LeadSource   string         `json:"lead_source"`
	Phase        string         `json:"phase"`
	Observations string         `json:"observations"`
	Manager      string         `json:"manager"`
	Raw          map[string]any `json:"raw,omitempty"`
}

// PreviewRequest is the body of POST /api/imports/preview.
type PreviewRequest struct {
	Template string         `json:"template"`
	Contact  PreviewContact `json:"contact"`
}

func (p PreviewContact) toContact() leadimport.ProcessedContact {
	return leadimport.ProcessedContact{
		Name:         p.Name,
		Phone:        p.Phone,
		Email:        p.Email,
		Company:      p.Company,
		Position:     p.Position,
		LeadSource:   p.LeadSource,
		Phase:        p.Phase,
		Observations: p.Observations,
		Manager:      p.Manager,
		RawData:      p.Raw,
		IsValid:      true,
	}
}

// HandlePreview renders a template for a sample contact, reporting unknown
// variables as warnings.
//
//	POST /api/imports/preview
func (h *ImportHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Template) == "" {
		httputil.BadRequest(w, "template required")
		return
	}

	res, err := h.svc.Templates().RenderWithMode(req.Template, req.Contact.toContact(), personalize.RenderModeStrict)
	if err != nil {
		httputil.ErrorCode(w, http.StatusUnprocessableEntity, "invalid_template", err.Error(), res.Warnings)
		return
	}
	httputil.OK(w, res)
}
