package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
	"github.com/stwalsh4118/ptcalc/api/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestContext creates a test Gin context with logger and request ID in context.
func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/calculate/_estimate", nil)
	c.Set(middleware.LoggerKey, logger.New("test"))
	c.Set(middleware.RequestIDKey, "test-request-id")
	return c, w
}

// parseErrorResponse parses the JSON response into an ErrorResponse struct.
func parseErrorResponse(t *testing.T, body *bytes.Buffer) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &response), "Failed to parse error response JSON")
	return response
}

func TestEnvelope(t *testing.T) {
	tests := []struct {
		name           string
		write          func(c *gin.Context)
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name:           "not found",
			write:          func(c *gin.Context) { NotFound(c, "Route not found") },
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrNotFound,
			expectedMsg:    "Route not found",
		},
		{
			name:           "bad request",
			write:          func(c *gin.Context) { BadRequest(c, "Invalid request body", nil) },
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrBadRequest,
			expectedMsg:    "Invalid request body",
		},
		{
			name:           "internal server error hides the cause",
			write:          func(c *gin.Context) { InternalServerError(c, "Failed to estimate property tax", errors.New("rate table nil")) },
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrInternalServer,
			expectedMsg:    "Failed to estimate property tax",
		},
		{
			name:           "depreciating assessment",
			write:          func(c *gin.Context) { DepreciatingAssessment(c, "new assessment is lower than the amount already collected") },
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrDepreciating,
			expectedMsg:    "new assessment is lower than the amount already collected",
		},
		{
			name:           "demand service hides the upstream error",
			write:          func(c *gin.Context) { DemandServiceError(c, errors.New("POST /billing-service/demand/_create: status 500")) },
			expectedStatus: http.StatusBadGateway,
			expectedCode:   ErrDemandService,
			expectedMsg:    "The billing service could not process the demand",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			c, w := setupTestContext()

			// Act
			tt.write(c)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			response := parseErrorResponse(t, w.Body)
			assert.Equal(t, tt.expectedCode, response.Error.Code)
			assert.Equal(t, tt.expectedMsg, response.Error.Message)
			assert.Equal(t, "test-request-id", response.Error.RequestID)
			assert.Nil(t, response.Error.Details)
		})
	}
}

func TestBadRequest_WithDetails(t *testing.T) {
	c, w := setupTestContext()

	BadRequest(c, "Mutation fee must not be negative", map[string]interface{}{
		"feeAmount": "-1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrBadRequest, response.Error.Code)
	assert.Equal(t, map[string]interface{}{"feeAmount": "-1"}, response.Error.Details)
}

type testCriteria struct {
	TenantID       string `validate:"required"`
	AssessmentYear string `validate:"len=7"`
}

type testRequest struct {
	CalculationCriteria []testCriteria `validate:"required,min=1,dive"`
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected map[string]interface{}
	}{
		{
			name:  "top-level fields",
			input: testCriteria{AssessmentYear: "2024"},
			expected: map[string]interface{}{
				"TenantID":       "This field is required",
				"AssessmentYear": "Must have length of 7",
			},
		},
		{
			name:  "nested criteria keep their index",
			input: testRequest{CalculationCriteria: []testCriteria{{TenantID: "up.agra", AssessmentYear: "2024-25"}, {AssessmentYear: "2024-25"}}},
			expected: map[string]interface{}{
				"CalculationCriteria[1].TenantID": "This field is required",
			},
		},
		{
			name:  "empty criteria list",
			input: testRequest{CalculationCriteria: []testCriteria{}},
			expected: map[string]interface{}{
				"CalculationCriteria": "Must contain at least 1 item(s)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			c, w := setupTestContext()
			err := validator.New().Struct(tt.input)
			require.Error(t, err)
			var validationErrors validator.ValidationErrors
			require.True(t, errors.As(err, &validationErrors))

			// Act
			ValidationError(c, validationErrors)

			// Assert
			assert.Equal(t, http.StatusBadRequest, w.Code)
			response := parseErrorResponse(t, w.Body)
			assert.Equal(t, ErrValidation, response.Error.Code)
			assert.Equal(t, "Validation failed for one or more fields", response.Error.Message)
			assert.Equal(t, tt.expected, response.Error.Details)
		})
	}
}

func TestFormatValidationError(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		param    string
		kind     reflect.Kind
		expected string
	}{
		{"required", "required", "", reflect.String, "This field is required"},
		{"min on value", "min", "5", reflect.String, "Value is too short or small (minimum: 5)"},
		{"min on list", "min", "1", reflect.Slice, "Must contain at least 1 item(s)"},
		{"max on value", "max", "100", reflect.Int, "Value is too long or large (maximum: 100)"},
		{"max on list", "max", "50", reflect.Slice, "Must contain at most 50 item(s)"},
		{"len", "len", "7", reflect.String, "Must have length of 7"},
		{"gt", "gt", "0", reflect.Int, "Must be greater than 0"},
		{"gte", "gte", "0", reflect.Int, "Must be greater than or equal to 0"},
		{"lt", "lt", "100", reflect.Int, "Must be less than 100"},
		{"lte", "lte", "100", reflect.Int, "Must be less than or equal to 100"},
		{"oneof", "oneof", "OWNER RENTED", reflect.String, "Must be one of: OWNER RENTED"},
		{"numeric", "numeric", "", reflect.String, "Must be numeric"},
		{"uuid", "uuid", "", reflect.String, "Must be a valid UUID"},
		{"unknown", "unknown_tag", "", reflect.String, "Validation failed for tag: unknown_tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockErr := &mockFieldError{tag: tt.tag, param: tt.param, kind: tt.kind}
			assert.Equal(t, tt.expected, formatValidationError(mockErr))
		})
	}
}

func TestFieldPath(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		expected  string
	}{
		{"nested", "CalculationRequest.CalculationCriteria[0].TenantID", "CalculationCriteria[0].TenantID"},
		{"no namespace", "", "TestField"},
		{"bare struct name", "CalculationRequest.", "TestField"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fieldPath(&mockFieldError{namespace: tt.namespace}))
		})
	}
}

func TestErrorResponseWithoutContext(t *testing.T) {
	// No logger or request ID on the context
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/missing", nil)

	NotFound(c, "Route not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Empty(t, response.Error.RequestID)
}

func TestErrorConstants(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", ErrNotFound)
	assert.Equal(t, "BAD_REQUEST", ErrBadRequest)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", ErrInternalServer)
	assert.Equal(t, "VALIDATION_ERROR", ErrValidation)
	assert.Equal(t, "DEPRECIATING_ASSESSMENT", ErrDepreciating)
	assert.Equal(t, "DEMAND_SERVICE_ERROR", ErrDemandService)
}

func TestCalculationValidationError(t *testing.T) {
	c, w := setupTestContext()
	verr := calculator.NewValidationError()
	verr.Add(calculator.CodeAreaNull, "Land area or build-up area is mandatory for calculation")
	verr.Add(calculator.CodeNonVacantLandUnits, "At least one unit is mandatory for a property that is not vacant land")

	CalculationValidationError(c, verr)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrValidation, response.Error.Code)
	assert.Equal(t, "Property failed calculation validation", response.Error.Message)
	assert.Len(t, response.Error.Details, 2)
	assert.Equal(t, "Land area or build-up area is mandatory for calculation", response.Error.Details[calculator.CodeAreaNull])
	assert.Equal(t, "test-request-id", response.Error.RequestID)
}

// mockFieldError is a mock implementation of validator.FieldError for testing.
type mockFieldError struct {
	tag       string
	param     string
	kind      reflect.Kind
	namespace string
}

func (m *mockFieldError) Tag() string                    { return m.tag }
func (m *mockFieldError) ActualTag() string              { return m.tag }
func (m *mockFieldError) Namespace() string              { return m.namespace }
func (m *mockFieldError) StructNamespace() string        { return m.namespace }
func (m *mockFieldError) Field() string                  { return "TestField" }
func (m *mockFieldError) StructField() string            { return "TestField" }
func (m *mockFieldError) Value() interface{}             { return nil }
func (m *mockFieldError) Param() string                  { return m.param }
func (m *mockFieldError) Kind() reflect.Kind             { return m.kind }
func (m *mockFieldError) Type() reflect.Type             { return nil }
func (m *mockFieldError) Translate(ut.Translator) string { return "" }
func (m *mockFieldError) Error() string                  { return "" }
