package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"annotator/internal/dto"
	"annotator/internal/logger"
	"annotator/internal/service"
	"annotator/internal/service/storage"
)

// sendJSON writes data with the given status.
func sendJSON(w http.ResponseWriter, logger *logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// sendErrorResponse maps service and storage errors to a status code.
func sendErrorResponse(w http.ResponseWriter, logger *logger.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	}
	sendJSON(w, logger, status, dto.ErrorResponse{
		Error:          err.Error(),
		NeedsDirectory: errors.Is(err, service.ErrNoDirectory),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoDirectory),
		errors.Is(err, service.ErrInvalidAnnotation),
		errors.Is(err, storage.ErrDirectoryNotFound),
		errors.Is(err, storage.ErrNotDirectory),
		errors.Is(err, storage.ErrMissingImagesDir),
		errors.Is(err, storage.ErrNoImages),
		errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrPreviewUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, service.ErrNoRenderer):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// badRequest reports a malformed request body or parameter.
func badRequest(w http.ResponseWriter, logger *logger.Logger, message string) {
	sendJSON(w, logger, http.StatusBadRequest, dto.ErrorResponse{Error: message})
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
