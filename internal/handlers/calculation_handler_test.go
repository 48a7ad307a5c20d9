package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	apierrors "github.com/stwalsh4118/ptcalc/api/internal/errors"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
	"github.com/stwalsh4118/ptcalc/api/internal/middleware"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
	"github.com/stwalsh4118/ptcalc/api/internal/services"
)

// MockEstimationService is a mock implementation of services.EstimationService for testing.
type MockEstimationService struct {
	mock.Mock
}

func (m *MockEstimationService) Estimate(ctx context.Context, criteria models.CalculationCriteria) (*models.Calculation, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Calculation), args.Error(1)
}

func (m *MockEstimationService) EstimateAll(ctx context.Context, criteria []models.CalculationCriteria) (map[string]*models.Calculation, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*models.Calculation), args.Error(1)
}

func (m *MockEstimationService) Prepare(ctx context.Context, criteria models.CalculationCriteria) (*services.Estimation, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Estimation), args.Error(1)
}

// MockDemandService is a mock implementation of services.DemandService for testing.
type MockDemandService struct {
	mock.Mock
}

func (m *MockDemandService) CalculateAndCreateDemand(ctx context.Context, criteria []models.CalculationCriteria) (*services.DemandResult, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DemandResult), args.Error(1)
}

// MockMutationService is a mock implementation of services.MutationService for testing.
type MockMutationService struct {
	mock.Mock
}

func (m *MockMutationService) Calculate(ctx context.Context, criteria models.MutationCriteria) (*models.Calculation, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Calculation), args.Error(1)
}

type calculationFixture struct {
	estimation *MockEstimationService
	demands    *MockDemandService
	mutation   *MockMutationService
	router     *gin.Engine
}

// setupCalculationTestRouter creates a test router with middleware and calculation handlers.
func setupCalculationTestRouter() *calculationFixture {
	gin.SetMode(gin.TestMode)
	f := &calculationFixture{
		estimation: new(MockEstimationService),
		demands:    new(MockDemandService),
		mutation:   new(MockMutationService),
	}
	handler := NewCalculationHandler(f.estimation, f.demands, f.mutation)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.New("test")))

	v1 := router.Group("/api/v1")
	{
		calculate := v1.Group("/calculate")
		{
			calculate.POST("/_estimate", handler.Estimate)
			calculate.POST("/_calculate", handler.Calculate)
		}
		v1.POST("/mutation/_calculate", handler.Mutation)
	}
	f.router = router
	return f
}

func (f *calculationFixture) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	switch b := body.(type) {
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func testProperty(propertyID string) *models.Property {
	area := decimal.RequireFromString("100")
	return &models.Property{
		PropertyID: propertyID,
		TenantID:   "up.agra",
		Address:    models.Address{Locality: models.Locality{Code: "LOC1"}},
		PropertyDetails: []models.PropertyDetail{{
			FinancialYear: "2024-25",
			PropertyType:  "BUILTUP",
			BuildUpArea:   &area,
			RoadWidth:     decimal.RequireFromString("12"),
			Units: []models.Unit{{
				UsageCategoryMajor: models.UsageResidential,
				ConstructionType:   "pucca",
				UnitArea:           area,
			}},
		}},
	}
}

func testCalculation(serviceNumber string) *models.Calculation {
	return &models.Calculation{
		ServiceNumber: serviceNumber,
		TenantID:      "up.agra",
		TotalAmount:   decimal.RequireFromString("1764"),
		TaxAmount:     decimal.RequireFromString("1764"),
		TaxHeadEstimates: []models.TaxHeadEstimate{
			{TaxHeadCode: models.TaxHeadHouseTax, EstimateAmount: decimal.RequireFromString("900"), Category: models.CategoryTax},
		},
	}
}

func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorResponse {
	t.Helper()
	var response apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestEstimate_Success(t *testing.T) {
	// Arrange
	f := setupCalculationTestRouter()
	criteria := []models.CalculationCriteria{{TenantID: "up.agra", Property: testProperty("PT-1")}}
	f.estimation.On("EstimateAll", mock.Anything, mock.AnythingOfType("[]models.CalculationCriteria")).
		Return(map[string]*models.Calculation{"PT-1": testCalculation("PT-1")}, nil)

	// Act
	w := f.post(t, "/api/v1/calculate/_estimate", CalculationRequest{CalculationCriteria: criteria})

	// Assert
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var response struct {
		Calculations map[string]struct {
			ServiceNumber    string `json:"serviceNumber"`
			TotalAmount      string `json:"totalAmount"`
			TaxHeadEstimates []struct {
				TaxHeadCode string `json:"taxHeadCode"`
				Category    string `json:"category"`
			} `json:"taxHeadEstimates"`
		} `json:"calculations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	calc, ok := response.Calculations["PT-1"]
	require.True(t, ok)
	assert.Equal(t, "PT-1", calc.ServiceNumber)
	assert.Equal(t, "1764", calc.TotalAmount)
	require.Len(t, calc.TaxHeadEstimates, 1)
	assert.Equal(t, "TAX", calc.TaxHeadEstimates[0].Category)
	f.estimation.AssertExpectations(t)
}

func TestEstimate_BindingErrors(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedCode string
	}{
		{"malformed JSON", `{"CalculationCriteria": [`, apierrors.ErrBadRequest},
		{"empty criteria", `{"CalculationCriteria": []}`, apierrors.ErrValidation},
		{"missing criteria", `{}`, apierrors.ErrValidation},
		{"missing tenant", `{"CalculationCriteria": [{"property": {"propertyId": "PT-1", "tenantId": "up.agra", "propertyDetails": [{"financialYear": "2024-25"}]}}]}`, apierrors.ErrValidation},
		{"missing property details", `{"CalculationCriteria": [{"tenantId": "up.agra", "property": {"propertyId": "PT-1", "tenantId": "up.agra"}}]}`, apierrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupCalculationTestRouter()

			w := f.post(t, "/api/v1/calculate/_estimate", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.expectedCode, parseErrorResponse(t, w).Error.Code)
			f.estimation.AssertNotCalled(t, "EstimateAll", mock.Anything, mock.Anything)
		})
	}
}

func TestEstimate_ServiceErrors(t *testing.T) {
	verr := calculator.NewValidationError()
	verr.Add(calculator.CodeAreaNull, "Land area or build-up area is mandatory for calculation")

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"validation", verr, http.StatusBadRequest, apierrors.ErrValidation},
		{"depreciating assessment", fmt.Errorf("%w: collected 1000.00, assessed 900.00", calculator.ErrDepreciatingAssessment), http.StatusConflict, apierrors.ErrDepreciating},
		{"demand service", fmt.Errorf("%w: timeout", services.ErrDemandService), http.StatusBadGateway, apierrors.ErrDemandService},
		{"unexpected", fmt.Errorf("failed to load master rates: boom"), http.StatusInternalServerError, apierrors.ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := setupCalculationTestRouter()
			f.estimation.On("EstimateAll", mock.Anything, mock.Anything).Return(nil, tt.err)

			// Act
			w := f.post(t, "/api/v1/calculate/_estimate", CalculationRequest{
				CalculationCriteria: []models.CalculationCriteria{{TenantID: "up.agra", Property: testProperty("PT-1")}},
			})

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			response := parseErrorResponse(t, w)
			assert.Equal(t, tt.expectedCode, response.Error.Code)
			assert.NotEmpty(t, response.Error.RequestID)
		})
	}
}

func TestCalculate_Success(t *testing.T) {
	// Arrange
	f := setupCalculationTestRouter()
	f.demands.On("CalculateAndCreateDemand", mock.Anything, mock.Anything).Return(&services.DemandResult{
		Calculations: map[string]*models.Calculation{"PT-1": testCalculation("PT-1")},
		Demands:      []models.Demand{{ID: "d-1", ConsumerCode: "PT-1", BusinessService: "PT"}},
	}, nil)

	// Act
	w := f.post(t, "/api/v1/calculate/_calculate", CalculationRequest{
		CalculationCriteria: []models.CalculationCriteria{{TenantID: "up.agra", Property: testProperty("PT-1")}},
	})

	// Assert
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var response CalculateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Demands, 1)
	assert.Equal(t, "d-1", response.Demands[0].ID)
	assert.Contains(t, response.Calculations, "PT-1")
	f.demands.AssertExpectations(t)
}

func TestMutation_Success(t *testing.T) {
	// Arrange
	f := setupCalculationTestRouter()
	var received models.MutationCriteria
	f.mutation.On("Calculate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		received = args.Get(1).(models.MutationCriteria)
	}).Return(testCalculation("ACK-1"), nil)

	body := `{"MutationCriteria": {"tenantId": "up.agra", "feeAmount": 1000, "property": {
		"propertyId": "PT-1", "tenantId": "up.agra", "acknowldgementNumber": "ACK-1",
		"propertyDetails": [{"financialYear": "2024-25", "additionalDetails": {"marketValue": 2500000, "documentDate": 1709251200000}}]}}}`

	// Act
	w := f.post(t, "/api/v1/mutation/_calculate", body)

	// Assert
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ACK-1", received.Property.AcknowledgementNumber)
	assert.True(t, decimal.RequireFromString("1000").Equal(received.FeeAmount))
	var response MutationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ACK-1", response.Calculation.ServiceNumber)
}

func TestMutation_NegativeFee(t *testing.T) {
	f := setupCalculationTestRouter()
	body := `{"MutationCriteria": {"tenantId": "up.agra", "feeAmount": -5, "property": {
		"propertyId": "PT-1", "tenantId": "up.agra", "propertyDetails": [{"financialYear": "2024-25"}]}}}`

	w := f.post(t, "/api/v1/mutation/_calculate", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrBadRequest, parseErrorResponse(t, w).Error.Code)
	f.mutation.AssertNotCalled(t, "Calculate", mock.Anything, mock.Anything)
}

func TestMutation_ValidationError(t *testing.T) {
	// Arrange
	f := setupCalculationTestRouter()
	verr := calculator.NewValidationError()
	verr.Add(calculator.CodeDocumentDateNull, "Document date is mandatory for mutation calculation")
	f.mutation.On("Calculate", mock.Anything, mock.Anything).Return(nil, verr)

	body := `{"MutationCriteria": {"tenantId": "up.agra", "feeAmount": 1000, "property": {
		"propertyId": "PT-1", "tenantId": "up.agra", "propertyDetails": [{"financialYear": "2024-25",
		"additionalDetails": {"marketValue": 10}}]}}}`

	// Act
	w := f.post(t, "/api/v1/mutation/_calculate", body)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w)
	assert.Equal(t, apierrors.ErrValidation, response.Error.Code)
	assert.Contains(t, response.Error.Details, calculator.CodeDocumentDateNull)
}
