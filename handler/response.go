package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SubmitResponse is returned by the link and upload submission endpoints.
type SubmitResponse struct {
	Code     string `json:"code"`
	ShortURL string `json:"short"`
	File     string `json:"file,omitempty"` // generated storage name for file entries
	QR       string `json:"qr,omitempty"`   // data-URL QR artifact when requested
}

// APIResponse is the envelope of the /api/upload endpoint.
type APIResponse struct {
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
	ShortURL   string  `json:"short_url,omitempty"`
	QRCodeData *string `json:"qr_code_data,omitempty"`
}

// SendJSONError sends a JSON error response
func SendJSONError(w http.ResponseWriter, statusCode int, err error, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   err.Error(),
		Message: message,
	}

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		log.Error().Err(encodeErr).Msg("Failed to encode error response")
	}
}

// SendJSONSuccess sends a JSON success response
func SendJSONSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode success response")
	}
}
