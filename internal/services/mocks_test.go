package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

var fixedNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

// MockMasterData is a mock implementation of MasterData for testing
type MockMasterData struct {
	mock.Mock
}

func (m *MockMasterData) MasterRates(ctx context.Context, tenantID string) (calculator.MasterRates, error) {
	args := m.Called(ctx, tenantID)
	rates, _ := args.Get(0).(calculator.MasterRates)
	return rates, args.Error(1)
}

func (m *MockMasterData) TaxHeadCategories(ctx context.Context, tenantID string) (calculator.TaxHeadCategories, error) {
	args := m.Called(ctx, tenantID)
	categories, _ := args.Get(0).(calculator.TaxHeadCategories)
	return categories, args.Error(1)
}

func (m *MockMasterData) TimeRules(ctx context.Context, tenantID string) (models.TimeRules, error) {
	args := m.Called(ctx, tenantID)
	rules, _ := args.Get(0).(models.TimeRules)
	return rules, args.Error(1)
}

func (m *MockMasterData) FinancialYear(ctx context.Context, tenantID, code string) (*models.FinancialYear, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FinancialYear), args.Error(1)
}

// MockDemandClient is a mock implementation of DemandClient for testing
type MockDemandClient struct {
	mock.Mock
}

func (m *MockDemandClient) SearchDemands(ctx context.Context, tenantID, businessService string, consumerCodes []string) ([]models.Demand, error) {
	args := m.Called(ctx, tenantID, businessService, consumerCodes)
	demands, _ := args.Get(0).([]models.Demand)
	return demands, args.Error(1)
}

func (m *MockDemandClient) CreateDemands(ctx context.Context, demands []models.Demand) ([]models.Demand, error) {
	args := m.Called(ctx, demands)
	created, _ := args.Get(0).([]models.Demand)
	return created, args.Error(1)
}

func (m *MockDemandClient) UpdateDemands(ctx context.Context, demands []models.Demand) ([]models.Demand, error) {
	args := m.Called(ctx, demands)
	updated, _ := args.Get(0).([]models.Demand)
	return updated, args.Error(1)
}

func (m *MockDemandClient) SearchTaxPeriods(ctx context.Context, tenantID, service string) ([]models.TaxPeriod, error) {
	args := m.Called(ctx, tenantID, service)
	periods, _ := args.Get(0).([]models.TaxPeriod)
	return periods, args.Error(1)
}

// MockPaymentRepository is a mock implementation of PaymentRepository for testing
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByPropertyID(ctx context.Context, propertyID string) (*models.PropertyPayment, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyPayment), args.Error(1)
}

func (m *MockPaymentRepository) FindByPropertyIDAndFinancialYear(ctx context.Context, propertyID, financialYear string) (*models.PropertyPayment, error) {
	args := m.Called(ctx, propertyID, financialYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyPayment), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.PropertyPayment) (bool, error) {
	args := m.Called(ctx, payment)
	return args.Bool(0), args.Error(1)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func testEstimator() *calculator.Estimator {
	return calculator.NewEstimator(calculator.DefaultConfig(), nil, &calculator.Diagnostics{}, func() time.Time { return fixedNow })
}

func testLogger() *logger.Logger {
	return logger.New("test")
}

func testMaster() calculator.MasterRates {
	rates := calculator.NewRateTable()
	rates.Set("LOC1", "12", "pucca", dec("10"))
	return calculator.MasterRates{Rates: rates, Categories: calculator.CategoryMultipliers{}}
}

// testProperty is a five-year-old owner-occupied house whose fresh baseline is
// house 900, water 576 and sewer 288.
func testProperty(propertyID, assessmentNumber string) *models.Property {
	return &models.Property{
		PropertyID: propertyID,
		TenantID:   "up.agra",
		Address:    models.Address{Locality: models.Locality{Code: "LOC1"}},
		Owners: []models.Owner{
			{UUID: "o-1", Name: "Former Owner"},
			{UUID: "o-2", Name: "Asha Verma", Active: true},
		},
		PropertyDetails: []models.PropertyDetail{{
			FinancialYear:    "2024-25",
			AssessmentNumber: assessmentNumber,
			PropertyType:     "BUILTUP",
			BuildUpArea:      decPtr("100"),
			ConstructionYear: 2019,
			RoadWidth:        dec("12"),
			Units: []models.Unit{{
				UsageCategoryMajor: models.UsageResidential,
				OccupancyType:      "OWNED",
				ConstructionType:   "pucca",
				UnitArea:           dec("100"),
			}},
		}},
	}
}

func estimateLine(calc *models.Calculation, code string) *models.TaxHeadEstimate {
	for i := range calc.TaxHeadEstimates {
		if calc.TaxHeadEstimates[i].TaxHeadCode == code {
			return &calc.TaxHeadEstimates[i]
		}
	}
	return nil
}

// lineTotal sums every estimate line carrying the tax head code.
func lineTotal(calc *models.Calculation, code string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range calc.TaxHeadEstimates {
		if e.TaxHeadCode == code {
			total = total.Add(e.EstimateAmount)
		}
	}
	return total
}
