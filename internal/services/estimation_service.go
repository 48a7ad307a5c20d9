package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
	"github.com/stwalsh4118/ptcalc/api/internal/masterdata"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
	"github.com/stwalsh4118/ptcalc/api/internal/repository"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentEstimates bounds the fan-out of EstimateAll.
const maxConcurrentEstimates = 4

// Service-level errors
var (
	ErrDemandService = errors.New("demand service call failed")
)

// Estimation is a prepared estimate together with what produced it.
type Estimation struct {
	Calculation *models.Calculation
	// Baseline is nil for a migrated property with no stored payment.
	Baseline *models.PropertyPayment
	// Fresh reports whether Baseline was computed from ARV rather than read from the store.
	Fresh bool
	// OldDemand is the demand the estimate was reconciled against, if any.
	OldDemand *models.Demand
}

// EstimationService defines the interface for property tax estimation.
type EstimationService interface {
	// Estimate returns the tax calculation for one property.
	// Returns *calculator.ValidationError for incomplete input and
	// calculator.ErrDepreciatingAssessment when the new tax is below what was collected.
	Estimate(ctx context.Context, criteria models.CalculationCriteria) (*models.Calculation, error)

	// EstimateAll estimates every criteria, keyed by assessment number (property id when absent).
	EstimateAll(ctx context.Context, criteria []models.CalculationCriteria) (map[string]*models.Calculation, error)

	// Prepare runs an estimate and keeps the baseline and reconciled demand for demand generation.
	Prepare(ctx context.Context, criteria models.CalculationCriteria) (*Estimation, error)
}

// EstimationConfig configures the estimation service.
type EstimationConfig struct {
	// PropertyTaxService is the billing business service property tax demands are raised under.
	PropertyTaxService string
}

// estimationService is the concrete implementation of EstimationService.
type estimationService struct {
	estimator *calculator.Estimator
	master    MasterData
	payments  repository.PaymentRepository
	demands   DemandClient
	cfg       EstimationConfig
	log       *logger.Logger
}

// NewEstimationService creates a new instance of EstimationService.
func NewEstimationService(
	estimator *calculator.Estimator,
	master MasterData,
	payments repository.PaymentRepository,
	demands DemandClient,
	cfg EstimationConfig,
	log *logger.Logger,
) EstimationService {
	return &estimationService{
		estimator: estimator,
		master:    master,
		payments:  payments,
		demands:   demands,
		cfg:       cfg,
		log:       log,
	}
}

func (s *estimationService) Estimate(ctx context.Context, criteria models.CalculationCriteria) (*models.Calculation, error) {
	est, err := s.Prepare(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return est.Calculation, nil
}

func (s *estimationService) EstimateAll(ctx context.Context, criteria []models.CalculationCriteria) (map[string]*models.Calculation, error) {
	results := make(map[string]*models.Calculation, len(criteria))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEstimates)
	for _, c := range criteria {
		g.Go(func() error {
			calc, err := s.Estimate(gctx, c)
			if err != nil {
				return err
			}
			mu.Lock()
			results[resultKey(c.Property)] = calc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *estimationService) Prepare(ctx context.Context, criteria models.CalculationCriteria) (*Estimation, error) {
	// Validate
	property := criteria.Property
	detail := property.Current()
	if err := calculator.ValidateForCalculation(detail); err != nil {
		s.log.Warn("Property failed calculation validation", map[string]interface{}{
			"tenant_id": criteria.TenantID,
			"error":     err.Error(),
		})
		return nil, err
	}

	tenantID := criteria.TenantID
	if tenantID == "" {
		tenantID = property.TenantID
	}
	log := s.log.WithTenant(tenantID)
	fields := map[string]interface{}{
		"property_id":    property.PropertyID,
		"financial_year": detail.FinancialYear,
	}

	// Baseline
	est := &Estimation{}
	if detail.IsMigrated() {
		baseline, err := s.storedBaseline(ctx, property.PropertyID, detail.FinancialYear)
		if err != nil {
			log.Error("Failed to read stored baseline", err, fields)
			return nil, err
		}
		if baseline == nil {
			log.Info("No stored baseline for migrated property", fields)
		}
		est.Baseline = baseline
	} else {
		master, err := s.master.MasterRates(ctx, tenantID)
		if err != nil {
			log.Error("Failed to load master rates", err, fields)
			return nil, fmt.Errorf("failed to load master rates: %w", err)
		}
		est.Baseline = s.estimator.Baseline(uuid.NewString(), property, master)
		est.Fresh = true
	}

	categories, err := s.master.TaxHeadCategories(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tax heads: %w", err)
	}
	rules, err := s.master.TimeRules(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load time rules: %w", err)
	}

	// Validity period
	fromDate, toDate := criteria.FromDate, criteria.ToDate
	var fy *models.FinancialYear
	if fromDate == 0 || toDate == 0 {
		code := criteria.AssessmentYear
		if code == "" {
			code = detail.FinancialYear
		}
		fy, err = s.master.FinancialYear(ctx, tenantID, code)
		switch {
		case errors.Is(err, masterdata.ErrNoRecords):
			log.Warn("Financial year master not found, validity period left open", fields)
		case err != nil:
			return nil, fmt.Errorf("failed to load financial year: %w", err)
		default:
			fromDate, toDate = fy.StartingDate, fy.EndingDate
		}
	}

	// Prior demand
	if est.Baseline != nil {
		demands, err := s.demands.SearchDemands(ctx, tenantID, s.cfg.PropertyTaxService, []string{property.PropertyID})
		if err != nil {
			log.Error("Failed to search prior demands", err, fields)
			return nil, fmt.Errorf("%w: %w", ErrDemandService, err)
		}
		est.OldDemand = latestDemand(demands, fromDate, toDate)
	}

	calc, err := s.estimator.Estimate(calculator.EstimateInput{
		TenantID:      tenantID,
		ServiceNumber: property.PropertyID,
		Payment:       est.Baseline,
		Categories:    categories,
		Rules:         rules,
		FromDate:      fromDate,
		ToDate:        toDate,
		OldDemand:     est.OldDemand,
	})
	if err != nil {
		log.Warn("Estimate rejected", map[string]interface{}{
			"property_id": property.PropertyID,
			"error":       err.Error(),
		})
		return nil, err
	}
	est.Calculation = calc

	log.Info("Estimate computed", map[string]interface{}{
		"property_id":  property.PropertyID,
		"total_amount": calc.TotalAmount.String(),
		"tax_heads":    len(calc.TaxHeadEstimates),
		"migrated":     detail.IsMigrated(),
	})
	return est, nil
}

// storedBaseline reads the baseline for the year, falling back to the latest one for the property.
func (s *estimationService) storedBaseline(ctx context.Context, propertyID, financialYear string) (*models.PropertyPayment, error) {
	payment, err := s.payments.FindByPropertyIDAndFinancialYear(ctx, propertyID, financialYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored baseline: %w", err)
	}
	if payment != nil {
		return payment, nil
	}
	payment, err = s.payments.FindByPropertyID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored baseline: %w", err)
	}
	return payment, nil
}

// latestDemand picks the most recent non-cancelled demand. When a period is known,
// only demands starting inside it are considered.
func latestDemand(demands []models.Demand, fromDate, toDate int64) *models.Demand {
	var latest *models.Demand
	for i := range demands {
		d := &demands[i]
		if d.Status == models.DemandStatusCancelled {
			continue
		}
		if fromDate != 0 && toDate != 0 && (d.TaxPeriodFrom < fromDate || d.TaxPeriodFrom > toDate) {
			continue
		}
		if latest == nil || d.TaxPeriodFrom >= latest.TaxPeriodFrom {
			latest = d
		}
	}
	return latest
}

func resultKey(property *models.Property) string {
	if detail := property.Current(); detail != nil && detail.AssessmentNumber != "" {
		return detail.AssessmentNumber
	}
	return property.PropertyID
}
