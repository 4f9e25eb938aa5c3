package api

import (
	"errors"
	"net/http"

	"github.com/ignite/lead-intake/internal/intake"
	"github.com/ignite/lead-intake/internal/leadimport"
	"github.com/ignite/lead-intake/internal/pkg/httputil"
	"github.com/ignite/lead-intake/internal/pkg/logger"
	"github.com/ignite/lead-intake/internal/spreadsheet"
	"github.com/ignite/lead-intake/internal/storage"
)

// writeImportError maps pipeline and storage errors to status codes. File
// errors carry the user-facing text the upload screen shows.
func writeImportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		httputil.ErrorCode(w, http.StatusBadRequest, "unsupported_format", spreadsheet.UserMessage(err), nil)
	case errors.Is(err, spreadsheet.ErrEmptyFile):
		httputil.ErrorCode(w, http.StatusUnprocessableEntity, "empty_file", spreadsheet.UserMessage(err), nil)
	case errors.Is(err, spreadsheet.ErrNoSheet):
		httputil.ErrorCode(w, http.StatusUnprocessableEntity, "no_sheet", spreadsheet.UserMessage(err), nil)
	case errors.Is(err, leadimport.ErrUnknownColumnType):
		httputil.ErrorCode(w, http.StatusBadRequest, "unknown_column_type", err.Error(), leadimport.ColumnTypes())
	case errors.Is(err, intake.ErrNoSource):
		httputil.ErrorCode(w, http.StatusBadRequest, "no_source", err.Error(), nil)
	case errors.Is(err, storage.ErrUnsupportedSource):
		httputil.ErrorCode(w, http.StatusBadRequest, "unsupported_source", err.Error(), nil)
	case errors.Is(err, storage.ErrNotFound):
		httputil.ErrorCode(w, http.StatusNotFound, "source_not_found", err.Error(), nil)
	case errors.Is(err, storage.ErrTooLarge):
		httputil.ErrorCode(w, http.StatusRequestEntityTooLarge, "too_large", err.Error(), nil)
	default:
		logger.Error("import failed", "error", err.Error())
		httputil.ErrorCode(w, http.StatusInternalServerError, "processing_failed", spreadsheet.UserMessage(err), nil)
	}
}
