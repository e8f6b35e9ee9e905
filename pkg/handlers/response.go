package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/apperrors"
)

// ApiResponse wraps successful payloads.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidationErrorResponse lists every problem found in a rejected batch.
type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeData writes a successful ApiResponse.
func writeData(w http.ResponseWriter, statusCode int, data any, logger *zap.Logger) {
	if err := WriteJSON(w, statusCode, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, statusCode int, code, message string, logger *zap.Logger) {
	if err := ErrorResponse(w, statusCode, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeServiceError maps service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var bulkErr *apperrors.BulkValidationError
	var tableErr *apperrors.TableError

	switch {
	case errors.As(err, &bulkErr):
		resp := ValidationErrorResponse{
			Error:   "validation_failed",
			Message: bulkErr.Error(),
			Errors:  bulkErr.Errors,
		}
		if err := WriteJSON(w, http.StatusUnprocessableEntity, resp); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrUnknownSupplier):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), logger)
	case errors.Is(err, apperrors.ErrNoIncident):
		writeError(w, http.StatusConflict, "no_incident", err.Error(), logger)
	case errors.Is(err, apperrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), logger)
	case errors.As(err, &tableErr):
		logger.Error("Supplier table unavailable", zap.String("op", tableErr.Op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "table_unavailable", err.Error(), logger)
	default:
		logger.Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), logger)
	}
}
