// Package respond writes the API's JSON response envelope. Every response,
// success or failure, carries at least {"status": ..., "message": ...};
// success payloads add their own fields by embedding Envelope.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/user/weather-api-go/apperror"
)

// Envelope is the common part of every response body. Handler-specific
// response structs embed it so payload fields sit alongside status and
// message at the top level.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// OK returns an Envelope with status 200.
func OK(message string) Envelope {
	return Envelope{Status: http.StatusOK, Message: message}
}

// JSON writes v as the response body with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// An encode failure at this point can only be reported by the
	// half-written response itself.
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as an envelope. *AppError values map to their status code
// with their full message chain; anything else becomes a 500 carrying the raw
// error text.
func Error(w http.ResponseWriter, err error) {
	if appErr, ok := apperror.FromError(err); ok {
		JSON(w, appErr.StatusCode(), Envelope{
			Status:  appErr.StatusCode(),
			Message: appErr.Error(),
		})
		return
	}
	JSON(w, http.StatusInternalServerError, Envelope{
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
	})
}
