package standingshttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	"github.com/Black-And-White-Club/judge-standings/app/observability"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, standingsdomain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, standingsdomain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, standingsdomain.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed",
			observability.ExtractCorrelationID(r.Context()),
			slog.String("path", r.URL.Path),
			observability.Error(err),
		)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func writeBinary(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
