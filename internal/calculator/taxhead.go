package calculator

import (
	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// TaxHeadCategories maps tax-head codes to their aggregation category.
type TaxHeadCategories map[string]models.Category

// CategoryOf returns the category for a code. Unknown codes are CategoryOther.
func (m TaxHeadCategories) CategoryOf(code string) models.Category {
	if c, ok := m[code]; ok {
		return c
	}
	return models.CategoryOther
}

// DefaultTaxHeadCategories is used when master data publishes no tax-head masters.
func DefaultTaxHeadCategories() TaxHeadCategories {
	return TaxHeadCategories{
		models.TaxHeadHouseTax:            models.CategoryTax,
		models.TaxHeadWaterTax:            models.CategoryTax,
		models.TaxHeadSewerTax:            models.CategoryTax,
		models.TaxHeadSurchargeHouseTax:   models.CategoryTax,
		models.TaxHeadSurchargeWaterTax:   models.CategoryTax,
		models.TaxHeadSurchargeSewerTax:   models.CategoryTax,
		models.TaxHeadArrearHouseTax:      models.CategoryTax,
		models.TaxHeadArrearWaterTax:      models.CategoryTax,
		models.TaxHeadArrearSewerTax:      models.CategoryTax,
		models.TaxHeadAdvanceCarryForward: models.CategoryOther,
		models.TaxHeadTimeRebate:          models.CategoryRebate,
		models.TaxHeadTimePenalty:         models.CategoryPenalty,
		models.TaxHeadTimeInterest:        models.CategoryPenalty,
		models.TaxHeadFireCess:            models.CategoryTax,
		models.TaxHeadRoundOff:            models.CategoryOther,
	}
}

// NewBaseline materializes a fresh payment baseline from computed head taxes.
// Arrears, surcharges and payment totals start at zero.
func NewBaseline(id, propertyID, financialYear string, taxes HeadTaxes) *models.PropertyPayment {
	return &models.PropertyPayment{
		ID:                 id,
		PropertyID:         propertyID,
		FinancialYear:      financialYear,
		ArrearHouseTax:     decimal.Zero,
		ArrearWaterTax:     decimal.Zero,
		ArrearSewerTax:     decimal.Zero,
		HouseTax:           taxes.House,
		WaterTax:           taxes.Water,
		SewerTax:           taxes.Sewer,
		SurchargeHouseTax:  decimal.Zero,
		SurchargeWaterTax:  decimal.Zero,
		SurchargeSewerTax:  decimal.Zero,
		BillGeneratedTotal: decimal.Zero,
		TotalPaidAmount:    decimal.Zero,
	}
}

// Expand turns a payment baseline into tax-head estimates in a fixed order.
// The carry-forward line is a credit equal to the amount already paid.
func Expand(payment *models.PropertyPayment) []models.TaxHeadEstimate {
	if payment == nil {
		return nil
	}
	lines := []struct {
		code   string
		amount decimal.Decimal
	}{
		{models.TaxHeadSewerTax, payment.SewerTax},
		{models.TaxHeadSurchargeHouseTax, payment.SurchargeHouseTax},
		{models.TaxHeadSurchargeWaterTax, payment.SurchargeWaterTax},
		{models.TaxHeadSurchargeSewerTax, payment.SurchargeSewerTax},
		{models.TaxHeadArrearHouseTax, payment.ArrearHouseTax},
		{models.TaxHeadArrearWaterTax, payment.ArrearWaterTax},
		{models.TaxHeadArrearSewerTax, payment.ArrearSewerTax},
		{models.TaxHeadHouseTax, payment.HouseTax},
		{models.TaxHeadWaterTax, payment.WaterTax},
		{models.TaxHeadAdvanceCarryForward, payment.TotalPaidAmount.Neg()},
	}

	estimates := make([]models.TaxHeadEstimate, 0, len(lines))
	for _, l := range lines {
		estimates = append(estimates, models.TaxHeadEstimate{TaxHeadCode: l.code, EstimateAmount: l.amount})
	}
	return estimates
}

// RunningTotal is the payable basis of an expansion: every debit added, the paid credit subtracted.
func RunningTotal(estimates []models.TaxHeadEstimate) decimal.Decimal {
	total := decimal.Zero
	for _, e := range estimates {
		total = total.Add(e.EstimateAmount)
	}
	return total
}

// Totals are the per-category sums of a set of estimates.
type Totals struct {
	TaxAmount decimal.Decimal
	Penalty   decimal.Decimal
	Rebate    decimal.Decimal
	Exemption decimal.Decimal
	// PtTax is the sum of the primary tax head only.
	PtTax decimal.Decimal
}

// Total is the payable amount.
func (t Totals) Total() decimal.Decimal {
	return t.TaxAmount.Add(t.Penalty).Add(t.Rebate).Add(t.Exemption)
}

// Add folds one categorized estimate into the totals.
func (t *Totals) Add(e models.TaxHeadEstimate, primaryCode string) {
	switch e.Category {
	case models.CategoryTax, models.CategoryOther:
		t.TaxAmount = t.TaxAmount.Add(e.EstimateAmount)
	case models.CategoryPenalty:
		t.Penalty = t.Penalty.Add(e.EstimateAmount)
	case models.CategoryRebate:
		t.Rebate = t.Rebate.Add(e.EstimateAmount)
	case models.CategoryExemption:
		t.Exemption = t.Exemption.Add(e.EstimateAmount)
	default:
		panic("calculator: unhandled tax head category " + e.Category.String())
	}
	if e.TaxHeadCode == primaryCode {
		t.PtTax = t.PtTax.Add(e.EstimateAmount)
	}
}

// Aggregate tags every estimate with its category in place and sums them.
func Aggregate(estimates []models.TaxHeadEstimate, categories TaxHeadCategories, primaryCode string) Totals {
	var totals Totals
	for i := range estimates {
		estimates[i].Category = categories.CategoryOf(estimates[i].TaxHeadCode)
		totals.Add(estimates[i], primaryCode)
	}
	return totals
}

// RoundOff returns the balancing line that brings debit plus credit to the given precision.
// The line is always produced; its category is TAX when non-negative and REBATE otherwise.
func RoundOff(debit, credit decimal.Decimal, places int32) models.TaxHeadEstimate {
	total := debit.Add(credit)
	adjustment := total.Round(places).Sub(total)

	category := models.CategoryTax
	if adjustment.IsNegative() {
		category = models.CategoryRebate
	}
	return models.TaxHeadEstimate{
		TaxHeadCode:    models.TaxHeadRoundOff,
		EstimateAmount: adjustment,
		Category:       category,
	}
}
