package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger         *slog.Logger
	NotFoundStatus int
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg, NotFoundStatus: http.StatusNotFound}
}

// WithNotFoundStatus sets the status written for NotFound errors.
func (h *BaseHandler) WithNotFoundStatus(status int) *BaseHandler {
	if status != 0 {
		h.NotFoundStatus = status
	}
	return h
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteNoChange answers a request whose update was a no-op.
func (h *BaseHandler) WriteNoChange(w http.ResponseWriter) {
	h.WriteRawJSON(w, http.StatusAccepted, "{}")
}

// WriteRawJSON writes an already encoded JSON body.
func (h *BaseHandler) WriteRawJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		h.Logger.Error("failed to write response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResp := map[string]interface{}{
		"code":    status,
		"message": message,
	}

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		h.Logger.Error("failed to encode error response", "error", err)
	}
}

// HandleServiceError maps a service error to its HTTP status and writes the
// structured error body. Errors that are not AppErrors become 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		h.Logger.Error("unexpected service error", "error", err)
		appErr = internal.NewInternalError("Internal server error", err)
	}

	status := appErr.StatusCode
	if appErr.Type == internal.ErrorTypeNotFound {
		status = h.NotFoundStatus
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	h.WriteJSON(w, status, internal.Response{Error: appErr})
}

// DecodeJSON decodes the request body into dst. A malformed body is
// reported as a validation error.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return internal.NewValidationError(fmt.Sprintf("invalid request body: %v", err), internal.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

// PathID parses the named chi URL parameter as a positive identity.
func (h *BaseHandler) PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, internal.NewInvalidArgumentError(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}
