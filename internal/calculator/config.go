package calculator

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// Config holds the rate constants used by the calculator.
type Config struct {
	AgeRebates AgeRebates

	HouseTaxMultiplier decimal.Decimal
	WaterTaxMultiplier decimal.Decimal
	SewerTaxMultiplier decimal.Decimal

	FacilitiesPresentRebate decimal.Decimal
	FacilitiesAbsentRebate  decimal.Decimal

	// NonResidentialRebate defaults to ZeroNonResidentialRebate when nil.
	NonResidentialRebate NonResidentialRebatePolicy

	// PrimaryTaxHead identifies the tax head whose amount is reconciled against prior demands.
	PrimaryTaxHead string

	// RoundOffPlaces is the precision the payable total is balanced to.
	RoundOffPlaces int32

	// Location is the time zone fiscal windows and deadlines are evaluated in.
	Location *time.Location
}

// DefaultConfig returns the stock rate constants.
func DefaultConfig() Config {
	return Config{
		AgeRebates:              DefaultAgeRebates(),
		HouseTaxMultiplier:      decimal.RequireFromString("0.125"),
		WaterTaxMultiplier:      decimal.RequireFromString("0.08"),
		SewerTaxMultiplier:      decimal.RequireFromString("0.04"),
		FacilitiesPresentRebate: decimal.NewFromInt(-10),
		FacilitiesAbsentRebate:  decimal.Zero,
		NonResidentialRebate:    ZeroNonResidentialRebate,
		PrimaryTaxHead:          models.TaxHeadHouseTax,
		RoundOffPlaces:          0,
		Location:                time.UTC,
	}
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
