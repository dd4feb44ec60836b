package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/domain"
)

const maxBodyBytes = 1 << 20

type envelope map[string]interface{}

type ErrorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, statusCode int, body envelope) {
	body["success"] = true
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func respondMessage(w http.ResponseWriter, statusCode int, message string, fields []domain.FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Message: message,
		Errors:  fields,
	})
}

// respondError maps a service error onto a status code and the error envelope.
// Internal errors are logged; their text never reaches the client.
func respondError(w http.ResponseWriter, r *http.Request, lgr logger.Logger, action string, err error) {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		respondMessage(w, http.StatusBadRequest, "Validation failed", verrs)
	case errors.Is(err, domain.ErrValidation):
		respondMessage(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		respondMessage(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrSlotFull):
		respondMessage(w, http.StatusConflict, "The selected pickup time is full, please choose another", nil)
	default:
		lgr.Error(action, "Request failed", logger.RequestID(r.Context()), map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}, err)
		respondMessage(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// decodeJSON reads a JSON body of at most maxBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		respondMessage(w, http.StatusBadRequest, msg, nil)
		return false
	}
	return true
}
