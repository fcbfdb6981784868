package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/logger"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

// WriteJSON encodes data with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError answers with the status mapped from err. Internal errors never leak their message.
func WriteError(w http.ResponseWriter, err error) int {
	status := apperr.StatusCode(err)
	message := err.Error()
	var appErr *apperr.Error
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		status = http.StatusInternalServerError
		message = "internal server error"
	}
	_ = WriteJSON(w, status, ErrorResponse(message, apperr.Kind(err)))
	return status
}

// RespondError writes err and logs it under the API category, at ERROR only for 5xx.
func RespondError(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	status := WriteError(w, err)
	if status >= http.StatusInternalServerError {
		log.Error("API", fmt.Sprintf("%s: %v", op, err))
		return
	}
	log.Warn("API", fmt.Sprintf("%s: %v", op, err))
}

// DecodeJSON reads a request body into dst and validates it.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return Validate(dst)
}
