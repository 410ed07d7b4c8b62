package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
)

type APIResponse[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func writeJSON[T any](w http.ResponseWriter, status int, data T) {
	writeEnvelope(w, status, "ok", data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, message, "")
}

// writeAppError maps err to a status code. Validation errors carry their
// per-field messages in data; anything that is not an AppError is reported
// as an internal error without leaking its text.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperror.AppError
	if !errors.As(err, &ae) {
		slog.Error("unhandled error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if fields := ae.Fields(); len(fields) > 0 {
		writeEnvelope(w, ae.HTTPStatus(), ae.Message(), fields)
		return
	}
	writeError(w, ae.HTTPStatus(), ae.Message())
}

func writeEnvelope[T any](w http.ResponseWriter, status int, message string, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse[T]{Message: message, Data: data})
}
