package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/templui/hrvault/internal/service"
)

const maxJSONBody = 64 << 10

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, v)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

// writeError maps an error kind to a status code and a message the user can
// act on. Unexpected errors are logged; their text never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	}
	writeJSON(w, status, errorResponse{Error: code, Message: service.UserMessage(err)})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, service.ErrInvalidSharePolicy),
		errors.Is(err, service.ErrInvalidRecipient),
		errors.Is(err, service.ErrMissingToken):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, service.ErrFileNotFound), errors.Is(err, service.ErrLinkNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrLinkUnusable):
		return http.StatusGone, "link_unusable"
	case errors.Is(err, service.ErrTokenGenerationFailed):
		return http.StatusBadGateway, "token_generation_failed"
	case errors.Is(err, service.ErrPersistenceFailed):
		return http.StatusServiceUnavailable, "persistence_failed"
	case errors.Is(err, service.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal"
}
