package calculator

import (
	"time"

	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// EstimateInput is everything one estimate needs once collaborators have been consulted.
type EstimateInput struct {
	TenantID      string
	ServiceNumber string
	// Payment is the baseline to expand. A nil payment yields an empty estimate.
	Payment    *models.PropertyPayment
	Categories TaxHeadCategories
	Rules      models.TimeRules
	FromDate   int64
	ToDate     int64
	// OldDemand is the latest demand raised for the fiscal year, if any.
	OldDemand *models.Demand
}

// Estimator runs the pure part of an estimate: baseline, expansion, aggregation, balancing and carry-forward.
// It is safe for concurrent use.
type Estimator struct {
	cfg           Config
	arv           *ARVCalculator
	applicability *ApplicabilityResolver
	now           func() time.Time
}

// NewEstimator creates an Estimator. now is the reference clock for age bands and rule windows.
func NewEstimator(cfg Config, log Logger, diagnostics *Diagnostics, now func() time.Time) *Estimator {
	if now == nil {
		now = time.Now
	}
	if cfg.PrimaryTaxHead == "" {
		cfg.PrimaryTaxHead = models.TaxHeadHouseTax
	}
	return &Estimator{
		cfg:           cfg,
		arv:           NewARVCalculatorWithConfig(cfg, log, diagnostics, now),
		applicability: NewApplicabilityResolver(cfg, log, diagnostics),
		now:           now,
	}
}

// ARV exposes the estimator's ARV calculator.
func (e *Estimator) ARV() *ARVCalculator {
	return e.arv
}

// Applicability exposes the estimator's rule resolver.
func (e *Estimator) Applicability() *ApplicabilityResolver {
	return e.applicability
}

// Now returns the estimator's reference time.
func (e *Estimator) Now() time.Time {
	return e.now()
}

// Baseline computes a fresh payment baseline for the property from its ARV.
func (e *Estimator) Baseline(id string, property *models.Property, master MasterRates) *models.PropertyPayment {
	detail := property.Current()
	financialYear := ""
	if detail != nil {
		financialYear = detail.FinancialYear
	}
	arv := e.arv.PropertyARV(property, master)
	return NewBaseline(id, property.PropertyID, financialYear, e.arv.HeadTaxes(arv))
}

// Estimate builds a Calculation from a baseline.
// It fails only with ErrDepreciatingAssessment.
func (e *Estimator) Estimate(in EstimateInput) (*models.Calculation, error) {
	categories := in.Categories
	if len(categories) == 0 {
		categories = DefaultTaxHeadCategories()
	}

	estimates := Expand(in.Payment)
	if in.Payment != nil {
		basis := RunningTotal(estimates)
		effects := e.applicability.TimeEffects(basis, in.Rules, e.now())
		estimates = append(estimates, effects.Estimates()...)
	}

	totals := Aggregate(estimates, categories, e.cfg.PrimaryTaxHead)

	roundOff := RoundOff(totals.TaxAmount.Add(totals.Penalty), totals.Rebate.Add(totals.Exemption), e.cfg.RoundOffPlaces)
	totals.Add(roundOff, e.cfg.PrimaryTaxHead)
	estimates = append(estimates, roundOff)

	carry, ok, err := Reconcile(totals.PtTax, in.OldDemand, e.cfg.PrimaryTaxHead)
	if err != nil {
		return nil, err
	}
	if ok {
		carry.Category = categories.CategoryOf(carry.TaxHeadCode)
		totals.Add(carry, "")
		estimates = append(estimates, carry)
	}

	return &models.Calculation{
		ServiceNumber:    in.ServiceNumber,
		TenantID:         in.TenantID,
		TotalAmount:      totals.Total(),
		TaxAmount:        totals.TaxAmount,
		Penalty:          totals.Penalty,
		Rebate:           totals.Rebate,
		Exemption:        totals.Exemption,
		FromDate:         in.FromDate,
		ToDate:           in.ToDate,
		TaxHeadEstimates: estimates,
	}, nil
}
