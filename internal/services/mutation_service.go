package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// MutationService defines the interface for mutation fee calculation.
type MutationService interface {
	// Calculate prices an ownership transfer and creates or updates its demand.
	// Returns *calculator.ValidationError when market value or document date is missing
	// and ErrDemandService when the billing service rejects the demand write.
	Calculate(ctx context.Context, criteria models.MutationCriteria) (*models.Calculation, error)
}

// MutationConfig configures the mutation service.
type MutationConfig struct {
	BusinessService      string
	MinimumAmountPayable decimal.Decimal
}

// mutationService is the concrete implementation of MutationService.
type mutationService struct {
	estimator *calculator.Estimator
	master    MasterData
	demands   DemandClient
	cfg       MutationConfig
	log       *logger.Logger
}

// NewMutationService creates a new instance of MutationService.
func NewMutationService(
	estimator *calculator.Estimator,
	master MasterData,
	demands DemandClient,
	cfg MutationConfig,
	log *logger.Logger,
) MutationService {
	return &mutationService{
		estimator: estimator,
		master:    master,
		demands:   demands,
		cfg:       cfg,
		log:       log,
	}
}

func (s *mutationService) Calculate(ctx context.Context, criteria models.MutationCriteria) (*models.Calculation, error) {
	property := criteria.Property
	detail := property.Current()
	if detail == nil {
		verr := calculator.NewValidationError()
		verr.Add(calculator.CodePropertyDetailsNull, "Property details are mandatory for mutation calculation")
		return nil, verr
	}
	details, err := calculator.ValidateForMutation(detail.AdditionalDetails)
	if err != nil {
		s.log.Warn("Mutation failed validation", map[string]interface{}{
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
		"acknowledgement_number": property.AcknowledgementNumber,
	}

	rules, err := s.master.TimeRules(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load time rules: %w", err)
	}

	now := s.estimator.Now()
	fee := criteria.FeeAmount
	rebate, penalty := s.estimator.Applicability().MutationEffects(fee, rules, details.DocumentDate, now)
	exemption := decimal.Zero

	// Validity period
	periods, err := s.demands.SearchTaxPeriods(ctx, tenantID, s.cfg.BusinessService)
	if err != nil {
		log.Error("Failed to search tax periods", err, fields)
		return nil, fmt.Errorf("%w: %w", ErrDemandService, err)
	}
	var period models.TaxPeriod
	found := false
	for _, p := range periods {
		if p.Contains(now.UnixMilli()) {
			period, found = p, true
			break
		}
	}
	if !found {
		log.Warn("No tax period covers the calculation date", fields)
	}

	estimates := []models.TaxHeadEstimate{
		{TaxHeadCode: models.TaxHeadMutationFee, EstimateAmount: fee, Category: models.CategoryTax},
		{TaxHeadCode: models.TaxHeadMutationPenalty, EstimateAmount: penalty, Category: models.CategoryPenalty},
		{TaxHeadCode: models.TaxHeadMutationRebate, EstimateAmount: rebate, Category: models.CategoryRebate},
	}
	if !exemption.IsZero() {
		estimates = append(estimates, models.TaxHeadEstimate{
			TaxHeadCode: models.TaxHeadMutationExemption, EstimateAmount: exemption, Category: models.CategoryExemption,
		})
	}

	calc := &models.Calculation{
		ServiceNumber:    property.AcknowledgementNumber,
		TenantID:         tenantID,
		TotalAmount:      fee.Add(penalty).Add(rebate).Add(exemption),
		TaxAmount:        fee,
		Penalty:          penalty,
		Rebate:           rebate,
		Exemption:        exemption,
		FromDate:         period.FromDate,
		ToDate:           period.ToDate,
		TaxHeadEstimates: estimates,
	}

	if err := s.syncDemand(ctx, property, calc); err != nil {
		log.Error("Failed to write mutation demand", err, fields)
		return nil, err
	}

	log.Info("Mutation fee computed", map[string]interface{}{
		"acknowledgement_number": property.AcknowledgementNumber,
		"fee":                    fee.String(),
		"penalty":                penalty.String(),
		"rebate":                 rebate.String(),
	})
	return calc, nil
}

// syncDemand creates the mutation demand, or patches every demand already raised for the acknowledgement.
func (s *mutationService) syncDemand(ctx context.Context, property *models.Property, calc *models.Calculation) error {
	existing, err := s.demands.SearchDemands(ctx, calc.TenantID, s.cfg.BusinessService, []string{property.AcknowledgementNumber})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDemandService, err)
	}

	if len(existing) == 0 {
		details := make([]models.DemandDetail, 0, len(calc.TaxHeadEstimates))
		for _, e := range calc.TaxHeadEstimates {
			details = append(details, models.DemandDetail{
				TaxHeadMasterCode: e.TaxHeadCode,
				TaxAmount:         e.EstimateAmount,
				CollectionAmount:  decimal.Zero,
				TenantID:          calc.TenantID,
			})
		}
		demand := models.Demand{
			TenantID:             calc.TenantID,
			ConsumerCode:         property.AcknowledgementNumber,
			ConsumerType:         " ",
			BusinessService:      s.cfg.BusinessService,
			Payer:                property.ActiveOwner(),
			TaxPeriodFrom:        calc.FromDate,
			TaxPeriodTo:          calc.ToDate,
			MinimumAmountPayable: s.cfg.MinimumAmountPayable,
			Status:               models.DemandStatusActive,
			DemandDetails:        details,
		}
		if _, err := s.demands.CreateDemands(ctx, []models.Demand{demand}); err != nil {
			return fmt.Errorf("%w: create: %w", ErrDemandService, err)
		}
		return nil
	}

	for i := range existing {
		demand := &existing[i]
		demand.TaxPeriodFrom = calc.FromDate
		demand.TaxPeriodTo = calc.ToDate
		if demand.Payer == nil {
			demand.Payer = property.ActiveOwner()
		}
		// Only fee, penalty and rebate lines already on the demand are patched.
		for _, e := range calc.TaxHeadEstimates[:3] {
			if d := demand.Detail(e.TaxHeadCode); d != nil {
				d.TaxAmount = e.EstimateAmount
			}
		}
	}
	if _, err := s.demands.UpdateDemands(ctx, existing); err != nil {
		return fmt.Errorf("%w: update: %w", ErrDemandService, err)
	}
	return nil
}
