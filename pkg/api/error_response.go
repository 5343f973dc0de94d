package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rcastelli/plandb/pkg/domain"
)

// ErrorResponse represents a standard JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// WriteJSONError writes a JSON error response with the given status code and message
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	json.NewEncoder(w).Encode(response)
}

// StatusForError maps the domain error taxonomy to HTTP status codes.
// All domain errors are caller-contract violations, surfaced directly.
func StatusForError(err error) int {
	var (
		duplicateKey  *domain.DuplicateKeyError
		notFound      *domain.NotFoundError
		multiArray    *domain.MultiArrayIndexError
		invalidTTL    *domain.InvalidTTLFieldError
		invalidID     *domain.InvalidDocumentIDError
		duplicateName *domain.DuplicateIndexNameError
	)
	switch {
	case errors.As(err, &duplicateKey):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &multiArray), errors.As(err, &invalidTTL), errors.As(err, &invalidID):
		return http.StatusBadRequest
	case errors.As(err, &duplicateName):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteDomainError writes the error with its mapped status code.
func WriteDomainError(w http.ResponseWriter, err error) {
	WriteJSONError(w, StatusForError(err), err.Error())
}
