// Package respond writes the {success, ...} JSON envelope every endpoint uses.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
)

// Envelope is the body of 200 responses, successful or soft-failed.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the body of 4xx and 5xx responses. Type carries the
// failing subsystem tag for hard errors.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteSuccess writes 200 {success:true, message, data}.
func WriteSuccess(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// WriteSoft writes 200 {success:false, message} for expected business outcomes.
func WriteSoft(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: false, Message: message, Data: data})
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes 500 {success:false, type, message, error} tagged
// with the subsystem that produced err.
func WriteInternalError(w http.ResponseWriter, message string, err error) {
	resp := ErrorResponse{
		Type:    model.TagOf(err),
		Message: message,
		Error:   http.StatusText(http.StatusInternalServerError),
		Code:    http.StatusInternalServerError,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	WriteJSON(w, http.StatusInternalServerError, resp)
}
