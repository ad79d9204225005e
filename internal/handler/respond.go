package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/taskline/taskline-go/internal/model"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// errorResponse builds a plain message body.
func errorResponse(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// writeValidationError renders per-field validation messages as a 422.
func writeValidationError(w http.ResponseWriter, ve *model.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "The given data was invalid.",
		"errors":  ve.Errors,
	})
}
