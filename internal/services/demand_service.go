package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
	"github.com/stwalsh4118/ptcalc/api/internal/repository"
)

// DemandResult is the outcome of a calculate-and-raise-demand request.
type DemandResult struct {
	Calculations map[string]*models.Calculation `json:"calculations"`
	Demands      []models.Demand                `json:"demands"`
}

// DemandService defines the interface for raising property tax demands.
type DemandService interface {
	// CalculateAndCreateDemand estimates every criteria, persists fresh baselines,
	// cancels the prior demand for the year and raises one new demand per property.
	// Every estimate is computed before anything is written; a validation or
	// depreciating-assessment failure aborts the whole request.
	CalculateAndCreateDemand(ctx context.Context, criteria []models.CalculationCriteria) (*DemandResult, error)
}

// DemandConfig configures the demand service.
type DemandConfig struct {
	PropertyTaxService   string
	MinimumAmountPayable decimal.Decimal
}

// demandService is the concrete implementation of DemandService.
type demandService struct {
	estimation EstimationService
	payments   repository.PaymentRepository
	demands    DemandClient
	cfg        DemandConfig
	log        *logger.Logger
}

// NewDemandService creates a new instance of DemandService.
func NewDemandService(
	estimation EstimationService,
	payments repository.PaymentRepository,
	demands DemandClient,
	cfg DemandConfig,
	log *logger.Logger,
) DemandService {
	return &demandService{
		estimation: estimation,
		payments:   payments,
		demands:    demands,
		cfg:        cfg,
		log:        log,
	}
}

func (s *demandService) CalculateAndCreateDemand(ctx context.Context, criteria []models.CalculationCriteria) (*DemandResult, error) {
	prepared := make([]*Estimation, 0, len(criteria))
	for _, c := range criteria {
		est, err := s.estimation.Prepare(ctx, c)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, est)
	}

	result := &DemandResult{Calculations: make(map[string]*models.Calculation, len(criteria))}
	var cancelled, raised []models.Demand
	for i, est := range prepared {
		property := criteria[i].Property
		result.Calculations[resultKey(property)] = est.Calculation

		if est.Fresh && est.Baseline != nil {
			created, err := s.payments.Create(ctx, est.Baseline)
			if err != nil {
				s.log.Error("Failed to persist baseline", err, map[string]interface{}{
					"property_id":    property.PropertyID,
					"financial_year": est.Baseline.FinancialYear,
				})
				return nil, fmt.Errorf("failed to persist baseline: %w", err)
			}
			if !created {
				s.log.Debug("Baseline already stored", map[string]interface{}{
					"property_id":    property.PropertyID,
					"financial_year": est.Baseline.FinancialYear,
				})
			}
		}

		if est.OldDemand != nil {
			old := *est.OldDemand
			old.Status = models.DemandStatusCancelled
			cancelled = append(cancelled, old)
		}
		raised = append(raised, s.newDemand(property, est.Calculation))
	}

	if len(cancelled) > 0 {
		if _, err := s.demands.UpdateDemands(ctx, cancelled); err != nil {
			s.log.Error("Failed to cancel prior demands", err, map[string]interface{}{
				"count": len(cancelled),
			})
			return nil, fmt.Errorf("%w: %w", ErrDemandService, err)
		}
	}

	created, err := s.demands.CreateDemands(ctx, raised)
	if err != nil {
		s.log.Error("Failed to create demands", err, map[string]interface{}{
			"count": len(raised),
		})
		return nil, fmt.Errorf("%w: %w", ErrDemandService, err)
	}
	result.Demands = created

	s.log.Info("Demands raised", map[string]interface{}{
		"created":   len(created),
		"cancelled": len(cancelled),
	})
	return result, nil
}

func (s *demandService) newDemand(property *models.Property, calc *models.Calculation) models.Demand {
	details := make([]models.DemandDetail, 0, len(calc.TaxHeadEstimates))
	for _, e := range calc.TaxHeadEstimates {
		details = append(details, models.DemandDetail{
			TaxHeadMasterCode: e.TaxHeadCode,
			TaxAmount:         e.EstimateAmount,
			CollectionAmount:  decimal.Zero,
			TenantID:          calc.TenantID,
		})
	}
	return models.Demand{
		TenantID:             calc.TenantID,
		ConsumerCode:         property.PropertyID,
		BusinessService:      s.cfg.PropertyTaxService,
		Payer:                property.ActiveOwner(),
		TaxPeriodFrom:        calc.FromDate,
		TaxPeriodTo:          calc.ToDate,
		MinimumAmountPayable: s.cfg.MinimumAmountPayable,
		Status:               models.DemandStatusActive,
		DemandDetails:        details,
	}
}
