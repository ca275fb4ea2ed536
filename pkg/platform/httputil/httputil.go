// Package httputil renders JSON responses and the shared error envelope.
package httputil

import (
	"encoding/json"
	"net/http"
	"time"

	dErrors "clearledger/pkg/domain-errors"
)

const internalMessage = "internal server error"

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into status and envelope. Errors that are not
// domain errors, and internal domain errors, never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := internalMessage
	if de, ok := dErrors.As(err); ok {
		status = dErrors.HTTPStatus(de.Code)
		if de.Code != dErrors.CodeInternal {
			message = de.Message
		}
	}
	WriteErrorMessage(w, status, message)
}

// WriteErrorMessage writes the envelope with an explicit status.
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Message:   message,
	})
}
