package calculator

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

var (
	hundred           = decimal.NewFromInt(100)
	monthsPerYear     = decimal.NewFromInt(12)
	residentialFactor = decimal.RequireFromString("0.8")
)

// MasterRates is the tenant master data an ARV computation reads.
type MasterRates struct {
	Rates      *RateTable
	Categories CategoryMultipliers
}

// HeadTaxes are the three recurring taxes derived from a property's ARV.
type HeadTaxes struct {
	House decimal.Decimal
	Water decimal.Decimal
	Sewer decimal.Decimal
}

// ARVCalculator computes Annual Rental Value and the head taxes derived from it.
type ARVCalculator struct {
	cfg         Config
	rates       *RateResolver
	multipliers *MultiplierResolver
	now         func() time.Time
}

// NewARVCalculator creates an ARVCalculator with the stock rate constants.
func NewARVCalculator() *ARVCalculator {
	return NewARVCalculatorWithConfig(DefaultConfig(), nil, nil, time.Now)
}

// NewARVCalculatorWithConfig creates an ARVCalculator. now supplies the current year for age bands.
func NewARVCalculatorWithConfig(cfg Config, log Logger, diagnostics *Diagnostics, now func() time.Time) *ARVCalculator {
	if now == nil {
		now = time.Now
	}
	return &ARVCalculator{
		cfg:         cfg,
		rates:       NewRateResolver(log, diagnostics),
		multipliers: NewMultiplierResolver(cfg, log, diagnostics),
		now:         now,
	}
}

// UnitARV computes the ARV of one built unit of the property's current detail.
func (c *ARVCalculator) UnitARV(property *models.Property, unit models.Unit, master MasterRates) decimal.Decimal {
	detail := property.Current()
	if detail == nil {
		return decimal.Zero
	}

	baseRate := c.rates.Resolve(master.Rates, property.Address.Locality.Code, detail.RoadWidth, unit.ConstructionType)
	if baseRate.IsZero() {
		return decimal.Zero
	}

	if strings.EqualFold(unit.UsageCategoryMajor, models.UsageResidential) {
		currentYear := c.now().In(c.cfg.location()).Year()
		ageRebate := c.multipliers.AgeRebate(unit, detail.ConstructionYear, currentYear)
		factor := hundred.Add(ageRebate).Div(hundred)
		return baseRate.Mul(unit.UnitArea).Mul(factor).Mul(monthsPerYear).Mul(residentialFactor)
	}

	multiplier := c.multipliers.CategoryMultiplier(unit, master.Categories)
	nonResRebate := c.multipliers.NonResidentialRebate(unit)
	facilities := c.multipliers.FacilitiesRebate(unit.UsageCategoryMajor, models.ParseFacilities(detail.AdditionalDetails))
	factor := hundred.Sub(nonResRebate).Add(facilities).Div(hundred)
	return baseRate.Mul(multiplier).Mul(unit.UnitArea).Mul(factor).Mul(monthsPerYear)
}

// VacantLandARV computes the ARV of vacant land from its land area.
func (c *ARVCalculator) VacantLandARV(property *models.Property, master MasterRates) decimal.Decimal {
	detail := property.Current()
	if detail == nil || detail.LandArea == nil {
		return decimal.Zero
	}

	baseRate := c.rates.Resolve(master.Rates, property.Address.Locality.Code, detail.RoadWidth, VacantLandConstructionType)
	facilities := c.multipliers.FacilitiesRebate(detail.UsageCategoryMajor, models.ParseFacilities(detail.AdditionalDetails))
	factor := hundred.Add(facilities).Div(hundred)
	return baseRate.Mul(*detail.LandArea).Mul(factor).Mul(monthsPerYear)
}

// PropertyARV computes the property's total ARV, rounded half-up to two places.
func (c *ARVCalculator) PropertyARV(property *models.Property, master MasterRates) decimal.Decimal {
	detail := property.Current()
	if detail == nil {
		return decimal.Zero
	}

	if detail.IsVacant() {
		return c.VacantLandARV(property, master).Round(2)
	}

	total := decimal.Zero
	for _, unit := range detail.Units {
		total = total.Add(c.UnitARV(property, unit, master))
	}
	return total.Round(2)
}

// HeadTaxes splits a total ARV into house, water and sewer tax, each rounded half-up to two places.
func (c *ARVCalculator) HeadTaxes(arv decimal.Decimal) HeadTaxes {
	return HeadTaxes{
		House: arv.Mul(c.cfg.HouseTaxMultiplier).Round(2),
		Water: arv.Mul(c.cfg.WaterTaxMultiplier).Round(2),
		Sewer: arv.Mul(c.cfg.SewerTaxMultiplier).Round(2),
	}
}
