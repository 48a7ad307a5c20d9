package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// Reconcile nets a new primary tax amount against what was collected on the primary head of the prior
// demand for the year. Collections on other heads (water, sewer, arrears, round-off) do not count.
//
// It returns the carry-forward credit line and true when newPtTax exceeds the collected amount, nothing
// when they are equal or there is no prior demand, and ErrDepreciatingAssessment when the new amount is lower.
func Reconcile(newPtTax decimal.Decimal, oldDemand *models.Demand, primaryTaxHead string) (models.TaxHeadEstimate, bool, error) {
	if oldDemand == nil {
		return models.TaxHeadEstimate{}, false, nil
	}

	collected := oldDemand.CollectedFor(primaryTaxHead)
	delta := newPtTax.Sub(collected)
	switch {
	case delta.IsNegative():
		return models.TaxHeadEstimate{}, false, fmt.Errorf("%w: collected %s, assessed %s",
			ErrDepreciatingAssessment, collected.StringFixed(2), newPtTax.StringFixed(2))
	case delta.IsZero():
		return models.TaxHeadEstimate{}, false, nil
	default:
		return models.TaxHeadEstimate{
			TaxHeadCode:    models.TaxHeadAdvanceCarryForward,
			EstimateAmount: delta.Neg(),
		}, true, nil
	}
}
