package errors

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	"github.com/stwalsh4118/ptcalc/api/internal/middleware"
)

// Error code constants for standardized error responses
const (
	ErrNotFound       = "NOT_FOUND"
	ErrBadRequest     = "BAD_REQUEST"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
	ErrValidation     = "VALIDATION_ERROR"
	ErrDepreciating   = "DEPRECIATING_ASSESSMENT"
	ErrDemandService  = "DEMAND_SERVICE_ERROR"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// respond writes the envelope and returns the fields every error log carries.
func respond(c *gin.Context, status int, code, message string, details map[string]interface{}) map[string]interface{} {
	requestID := middleware.GetRequestID(c)

	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})

	return map[string]interface{}{
		"request_id": requestID,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"code":       code,
	}
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	fields := respond(c, http.StatusNotFound, ErrNotFound, message, nil)
	if log := middleware.GetLogger(c); log != nil {
		fields["message"] = message
		log.Warn("Resource not found", fields)
	}
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	fields := respond(c, http.StatusBadRequest, ErrBadRequest, message, details)
	if log := middleware.GetLogger(c); log != nil {
		fields["message"] = message
		if details != nil {
			fields["details"] = details
		}
		log.Warn("Bad request", fields)
	}
}

// InternalServerError returns a 500 Internal Server Error response.
// err is logged; the client only sees message.
func InternalServerError(c *gin.Context, message string, err error) {
	fields := respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil)
	if log := middleware.GetLogger(c); log != nil {
		fields["message"] = message
		log.Error("Internal server error", err, fields)
	}
}

// ValidationError returns a 400 Bad Request error response with field-specific binding errors.
// Details are keyed by the field path below the request struct, e.g. "CalculationCriteria[0].TenantID".
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, err := range validationErrors {
		details[fieldPath(err)] = formatValidationError(err)
	}

	fields := respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details)
	if log := middleware.GetLogger(c); log != nil {
		fields["fields"] = details
		log.Warn("Validation error", fields)
	}
}

// CalculationValidationError returns a 400 Bad Request response listing every failed input check.
// Details are keyed by the check's error code.
func CalculationValidationError(c *gin.Context, verr *calculator.ValidationError) {
	details := make(map[string]interface{}, len(verr.Fields))
	for code, message := range verr.Fields {
		details[code] = message
	}

	fields := respond(c, http.StatusBadRequest, ErrValidation, "Property failed calculation validation", details)
	if log := middleware.GetLogger(c); log != nil {
		fields["fields"] = details
		log.Warn("Calculation input rejected", fields)
	}
}

// DepreciatingAssessment returns a 409 Conflict response for a reassessment below the collected amount.
func DepreciatingAssessment(c *gin.Context, message string) {
	fields := respond(c, http.StatusConflict, ErrDepreciating, message, nil)
	if log := middleware.GetLogger(c); log != nil {
		fields["message"] = message
		log.Warn("Depreciating assessment", fields)
	}
}

// DemandServiceError returns a 502 Bad Gateway response when the billing service call failed.
// The upstream error is logged but not exposed to the client.
func DemandServiceError(c *gin.Context, err error) {
	fields := respond(c, http.StatusBadGateway, ErrDemandService, "The billing service could not process the demand", nil)
	if log := middleware.GetLogger(c); log != nil {
		log.Error("Demand service call failed", err, fields)
	}
}

// fieldPath drops the top-level struct name from the error namespace.
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 && i < len(ns)-1 {
		return ns[i+1:]
	}
	return err.Field()
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	collection := err.Kind() == reflect.Slice || err.Kind() == reflect.Map || err.Kind() == reflect.Array

	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if collection {
			return "Must contain at least " + err.Param() + " item(s)"
		}
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		if collection {
			return "Must contain at most " + err.Param() + " item(s)"
		}
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "len":
		return "Must have length of " + err.Param()
	case "gt":
		return "Must be greater than " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lt":
		return "Must be less than " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "numeric":
		return "Must be numeric"
	case "uuid":
		return "Must be a valid UUID"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
