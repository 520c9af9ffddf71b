// MsHoa Learning | 2026
// response.go

package core

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
)

var exposeErrors atomic.Bool

// ExposeErrorDetails controls whether 500 responses carry the underlying
// error message. Enabled outside production at bootstrap.
func ExposeErrorDetails(enabled bool) {
	exposeErrors.Store(enabled)
}

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	//nolint:errcheck // response write failure is not recoverable
	_ = json.NewEncoder(w).Encode(env)
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func OKMessage(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

func CreatedMessage(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: message,
		Code:    "BAD_REQUEST",
	})
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "authentication required"
	}
	WriteJSON(w, http.StatusUnauthorized, Envelope{
		Success: false,
		Message: message,
		Code:    "UNAUTHORIZED",
	})
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "insufficient permissions"
	}
	WriteJSON(w, http.StatusForbidden, Envelope{
		Success: false,
		Message: message,
		Code:    "FORBIDDEN",
	})
}

func NotFound(w http.ResponseWriter, resource string) {
	WriteJSON(w, http.StatusNotFound, Envelope{
		Success: false,
		Message: resource + " not found",
		Code:    "NOT_FOUND",
	})
}

func Conflict(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusConflict, Envelope{
		Success: false,
		Message: message,
		Code:    "CONFLICT",
	})
}

func JSONError(w http.ResponseWriter, err error) {
	if appErr, ok := AsAppError(err); ok {
		WriteJSON(w, appErr.Status, Envelope{
			Success: false,
			Message: appErr.Message,
			Code:    appErr.Code,
		})
		return
	}

	InternalServerError(w, err)
}

func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)

	message := "internal server error"
	if exposeErrors.Load() && err != nil {
		message = err.Error()
	}

	WriteJSON(w, http.StatusInternalServerError, Envelope{
		Success: false,
		Message: message,
		Code:    "INTERNAL_ERROR",
	})
}
