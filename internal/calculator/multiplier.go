package calculator

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// AgeRebates are the age/occupancy percentages applied to residential units.
// Bands are up to 10 years, 11 to 20 years, and over 20 years since construction.
type AgeRebates struct {
	OwnedUpTo10  decimal.Decimal `yaml:"ownedUpTo10"`
	Owned11To20  decimal.Decimal `yaml:"owned11To20"`
	OwnedOver20  decimal.Decimal `yaml:"ownedOver20"`
	RentedUpTo10 decimal.Decimal `yaml:"rentedUpTo10"`
	Rented11To20 decimal.Decimal `yaml:"rented11To20"`
	RentedOver20 decimal.Decimal `yaml:"rentedOver20"`
}

// DefaultAgeRebates returns the stock age/occupancy percentages.
func DefaultAgeRebates() AgeRebates {
	return AgeRebates{
		OwnedUpTo10:  decimal.NewFromInt(-25),
		Owned11To20:  decimal.RequireFromString("-32.5"),
		OwnedOver20:  decimal.NewFromInt(-40),
		RentedUpTo10: decimal.NewFromInt(25),
		Rented11To20: decimal.RequireFromString("12.5"),
		RentedOver20: decimal.Zero,
	}
}

// CategoryMultipliers maps a lower-cased unit category to its rate multiplier.
type CategoryMultipliers map[string]decimal.Decimal

// Lookup returns the multiplier for a category, matching case-insensitively.
func (m CategoryMultipliers) Lookup(category string) (decimal.Decimal, bool) {
	v, ok := m[normalizeKey(category)]
	return v, ok
}

// NonResidentialRebatePolicy returns the non-residential rebate percentage for a unit.
type NonResidentialRebatePolicy func(unit models.Unit) decimal.Decimal

// ZeroNonResidentialRebate is the stock policy: no non-residential rebate.
func ZeroNonResidentialRebate(models.Unit) decimal.Decimal {
	return decimal.Zero
}

// MultiplierResolver derives the percentage adjustments used by the ARV formulas.
type MultiplierResolver struct {
	ageRebates        AgeRebates
	facilitiesPresent decimal.Decimal
	facilitiesAbsent  decimal.Decimal
	nonResidential    NonResidentialRebatePolicy
	log               Logger
	diagnostics       *Diagnostics
}

// NewMultiplierResolver creates a MultiplierResolver from the calculator config.
func NewMultiplierResolver(cfg Config, log Logger, diagnostics *Diagnostics) *MultiplierResolver {
	if log == nil {
		log = NopLogger{}
	}
	policy := cfg.NonResidentialRebate
	if policy == nil {
		policy = ZeroNonResidentialRebate
	}
	return &MultiplierResolver{
		ageRebates:        cfg.AgeRebates,
		facilitiesPresent: cfg.FacilitiesPresentRebate,
		facilitiesAbsent:  cfg.FacilitiesAbsentRebate,
		nonResidential:    policy,
		log:               log,
		diagnostics:       diagnostics,
	}
}

// AgeRebate returns the age/occupancy percentage for a residential or mixed-use unit.
// Other usages get zero.
func (r *MultiplierResolver) AgeRebate(unit models.Unit, constructionYear, currentYear int) decimal.Decimal {
	usage := unit.UsageCategoryMajor
	if !strings.EqualFold(usage, models.UsageResidential) && !strings.EqualFold(usage, models.UsageMixed) {
		return decimal.Zero
	}

	age := currentYear - constructionYear
	rented := unit.IsRented()
	switch {
	case age <= 10:
		if rented {
			return r.ageRebates.RentedUpTo10
		}
		return r.ageRebates.OwnedUpTo10
	case age <= 20:
		if rented {
			return r.ageRebates.Rented11To20
		}
		return r.ageRebates.Owned11To20
	default:
		if rented {
			return r.ageRebates.RentedOver20
		}
		return r.ageRebates.OwnedOver20
	}
}

// CategoryMultiplier returns the multiplier for the unit's category, or zero when it is not published.
func (r *MultiplierResolver) CategoryMultiplier(unit models.Unit, multipliers CategoryMultipliers) decimal.Decimal {
	m, ok := multipliers.Lookup(unit.Category)
	if !ok {
		r.diagnostics.multiplierMiss()
		r.log.Warn("Category multiplier not found, using zero", map[string]interface{}{
			"category": unit.Category,
			"usage":    unit.UsageCategoryMajor,
		})
		return decimal.Zero
	}
	return m
}

// FacilitiesRebate returns the facilities percentage for a usage. Only non-residential usage qualifies.
func (r *MultiplierResolver) FacilitiesRebate(usage string, facilities models.Facilities) decimal.Decimal {
	if !strings.Contains(strings.ToUpper(usage), models.UsageNonResidential) {
		return decimal.Zero
	}
	if facilities.Any() {
		return r.facilitiesPresent
	}
	return r.facilitiesAbsent
}

// NonResidentialRebate returns the configured policy's percentage for the unit.
func (r *MultiplierResolver) NonResidentialRebate(unit models.Unit) decimal.Decimal {
	return r.nonResidential(unit)
}
