package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/generation"
	"github.com/panelworks/panelgen-api/internal/pipeline"
	"github.com/panelworks/panelgen-api/internal/store"
	"github.com/panelworks/panelgen-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrSceneNotFound),
		errors.Is(err, store.ErrArtifactNotFound),
		errors.Is(err, task.ErrJobNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, task.ErrJobTerminal),
		errors.Is(err, pipeline.ErrMissingArtifact):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, task.ErrUnknownJobType):
		return http.StatusBadRequest

	// Capacity and upstream availability
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, generation.ErrCircuitOpen),
		errors.Is(err, pipeline.ErrNoModelClient):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrSceneNotFound):
		return "Scene not found"

	case errors.Is(err, store.ErrArtifactNotFound):
		return "Artifact not found"

	case errors.Is(err, task.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, pipeline.ErrMissingArtifact):
		var missing *pipeline.MissingArtifactError
		if errors.As(err, &missing) {
			return fmt.Sprintf("Required %s artifact does not exist yet", missing.Type)
		}
		return "Required upstream artifact does not exist yet"

	case errors.Is(err, store.ErrVersionConflict):
		return "Artifact version conflict, retry the request"

	case errors.Is(err, task.ErrJobTerminal):
		return "Job already finished"

	case errors.Is(err, task.ErrQueueFull):
		return "Job queue is full, try again later"

	case errors.Is(err, task.ErrQueueClosed):
		return "Job queue is shutting down"

	case errors.Is(err, task.ErrUnknownJobType):
		return "Unknown job type"

	case errors.Is(err, generation.ErrCircuitOpen):
		return "Model provider temporarily unavailable"

	case errors.Is(err, pipeline.ErrNoModelClient):
		return "No model provider configured for this operation"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, domain.ErrInvalidFormat):
		return "Invalid data format"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'CreateSceneRequest.Title' Error:Field
	// validation for 'Title' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid identifier"
	default:
		return "validation failed"
	}
}
