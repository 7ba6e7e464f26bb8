package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/riichinakano/forest-zaim-app/internal/fiscal"
	"github.com/riichinakano/forest-zaim-app/internal/logging"
	"github.com/riichinakano/forest-zaim-app/internal/model"
	"github.com/riichinakano/forest-zaim-app/internal/series"
)

// ProblemDetail is an RFC 7807 problem response.
type ProblemDetail struct {
	Type      string `json:"type,omitempty"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownStatement):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidSelection), errors.Is(err, fiscal.ErrUnknownEra):
		return http.StatusBadRequest
	case errors.Is(err, series.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	attrs := []any{
		slog.String(logging.FieldRequestID, middleware.GetReqID(r.Context())),
		slog.String(logging.FieldPath, r.URL.Path),
		slog.Int(logging.FieldStatusCode, status),
		logging.Err(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Warn("request rejected", attrs...)
	}
	writeProblem(w, r, status, err.Error())
}
