package server

import (
	"errors"
	"net/http"

	"github.com/joseph-ayodele/doc-assistant/internal/common"
	"github.com/joseph-ayodele/doc-assistant/internal/export"
)

// statusFor maps an action error to the HTTP status shown to the user.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	var appErr *common.AppError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrCapabilityDisabled),
		errors.Is(err, export.ErrNothingToExport):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNoText):
		return http.StatusConflict
	case errors.As(err, &appErr) && appErr.Code == "CAPABILITY_ERROR":
		return http.StatusBadGateway
	case errors.As(err, &appErr) && appErr.Code == "EXTRACTION_ERROR":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// message is the banner text for err; AppErrors show their message only.
func message(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("http.handler.error", "req_id", common.RequestIDFromContext(r.Context()), "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Warn("http.handler.rejected", "req_id", common.RequestIDFromContext(r.Context()), "path", r.URL.Path, "status", status, "error", err)
	}
	s.render(w, status, "error.html", pageData{
		Title: http.StatusText(status),
		Theme: s.opts.Theme,
		Error: message(err),
	})
}
