package apiresponses

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/faults"
)

// APIError represents a standardized error response.
// This ensures consistent error message formatting across all API endpoints.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// RespondNotFound sends a 404 Not Found response with a standardized message.
// Use this when a requested resource does not exist.
func RespondNotFound(c *gin.Context, resourceType, resourceName string) {
	c.JSON(http.StatusNotFound, APIError{
		Error: fmt.Sprintf("%s not found: %s", resourceType, resourceName),
		Code:  "NOT_FOUND",
	})
}

// RespondBadRequest sends a 400 Bad Request response.
// Use this for client errors like malformed JSON or invalid parameters.
func RespondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, APIError{
		Error: message,
		Code:  "BAD_REQUEST",
	})
}

// RespondMissingField sends a 400 response for an absent required field.
func RespondMissingField(c *gin.Context, field string) {
	c.JSON(http.StatusBadRequest, APIError{
		Error: fmt.Sprintf("missing required field: %s", field),
		Code:  "MISSING_FIELD",
	})
}

// RespondPreconditionFailed sends a 412 Precondition Failed response.
// Use this when the resource is not yet in a state that allows the action
// (e.g. no triage assessment recorded).
func RespondPreconditionFailed(c *gin.Context, message string) {
	c.JSON(http.StatusPreconditionFailed, APIError{
		Error: message,
		Code:  "PRECONDITION_FAILED",
	})
}

// RespondConflict sends a 409 Conflict response.
// Use this when the request conflicts with current state (e.g. a concurrent
// update won).
func RespondConflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, APIError{
		Error: message,
		Code:  "CONFLICT",
	})
}

// RespondInternalError sends a 500 Internal Server Error response.
// It logs the error with full details but returns a sanitized message to the client.
func RespondInternalError(c *gin.Context, operation string, err error, log *zap.SugaredLogger) {
	if log != nil {
		log.Errorw(fmt.Sprintf("Failed to %s", operation), "error", err)
	}
	c.JSON(http.StatusInternalServerError, APIError{
		Error: fmt.Sprintf("failed to %s", operation),
		Code:  "INTERNAL_ERROR",
	})
}

// RespondFault maps a workflow error onto the matching HTTP response:
// NotFound→404, InvalidInput→400, PreconditionFailed→412, Conflict→409,
// anything else (including dependency failures) →500 with the full error
// logged and a sanitized message returned.
func RespondFault(c *gin.Context, operation string, err error, log *zap.SugaredLogger) {
	switch faults.KindOf(err) {
	case faults.KindNotFound:
		c.JSON(http.StatusNotFound, APIError{Error: err.Error(), Code: "NOT_FOUND"})
	case faults.KindInvalidInput:
		c.JSON(http.StatusBadRequest, APIError{Error: err.Error(), Code: "INVALID_INPUT"})
	case faults.KindPreconditionFailed:
		c.JSON(http.StatusPreconditionFailed, APIError{Error: err.Error(), Code: "PRECONDITION_FAILED"})
	case faults.KindConflict:
		c.JSON(http.StatusConflict, APIError{Error: err.Error(), Code: "CONFLICT"})
	default:
		RespondInternalError(c, operation, err, log)
	}
}
