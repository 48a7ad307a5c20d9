package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Category classifies a tax head for aggregation.
type Category int

// Categories. OTHER absorbs any category the tax-head master does not name.
const (
	CategoryOther Category = iota
	CategoryTax
	CategoryPenalty
	CategoryRebate
	CategoryExemption
)

var categoryNames = map[Category]string{
	CategoryOther:     "OTHER",
	CategoryTax:       "TAX",
	CategoryPenalty:   "PENALTY",
	CategoryRebate:    "REBATE",
	CategoryExemption: "EXEMPTION",
}

// ParseCategory maps a category name to its Category, defaulting to CategoryOther.
func ParseCategory(s string) Category {
	for c, name := range categoryNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return c
		}
	}
	return CategoryOther
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[CategoryOther]
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	*c = ParseCategory(string(text))
	return nil
}

// Tax head codes.
const (
	TaxHeadSewerTax            = "PT_SEWER_TAX"
	TaxHeadAdvanceCarryForward = "PT_ADVANCE_CARRYFORWARD"
	TaxHeadSurchargeHouseTax   = "PT_SURCHARGE_HOUSE_TAX"
	TaxHeadSurchargeWaterTax   = "PT_SURCHARGE_WATER_TAX"
	TaxHeadSurchargeSewerTax   = "PT_SURCHARGE_SEWER_TAX"
	TaxHeadArrearHouseTax      = "PT_ARREAR_HOUSE_TAX"
	TaxHeadArrearWaterTax      = "PT_ARREAR_WATER_TAX"
	TaxHeadArrearSewerTax      = "PT_ARREAR_SEWER_TAX"
	TaxHeadHouseTax            = "PT_HOUSE_TAX"
	TaxHeadWaterTax            = "PT_WATER_TAX"
	TaxHeadTimeRebate          = "PT_TIME_REBATE"
	TaxHeadTimePenalty         = "PT_TIME_PENALTY"
	TaxHeadTimeInterest        = "PT_TIME_INTEREST"
	TaxHeadFireCess            = "PT_FIRE_CESS"
	TaxHeadRoundOff            = "PT_ROUNDOFF"
)

// Mutation tax head codes.
const (
	TaxHeadMutationFee       = "PT_MUTATION_FEE"
	TaxHeadMutationPenalty   = "PT_MUTATION_PENALTY"
	TaxHeadMutationRebate    = "PT_MUTATION_REBATE"
	TaxHeadMutationExemption = "PT_MUTATION_EXEMPTION"
)

// TaxHeadEstimate is a single categorized line item. Credits carry negative amounts.
type TaxHeadEstimate struct {
	TaxHeadCode    string          `json:"taxHeadCode"`
	EstimateAmount decimal.Decimal `json:"estimateAmount"`
	Category       Category        `json:"category"`
}

// Calculation is the result of one estimate.
type Calculation struct {
	ServiceNumber    string            `json:"serviceNumber,omitempty"`
	TenantID         string            `json:"tenantId"`
	TotalAmount      decimal.Decimal   `json:"totalAmount"`
	TaxAmount        decimal.Decimal   `json:"taxAmount"`
	Penalty          decimal.Decimal   `json:"penalty"`
	Rebate           decimal.Decimal   `json:"rebate"`
	Exemption        decimal.Decimal   `json:"exemption"`
	FromDate         int64             `json:"fromDate,omitempty"`
	ToDate           int64             `json:"toDate,omitempty"`
	TaxHeadEstimates []TaxHeadEstimate `json:"taxHeadEstimates"`
}

// CalculationCriteria is one property to be estimated.
type CalculationCriteria struct {
	TenantID       string    `json:"tenantId" binding:"required"`
	Property       *Property `json:"property" binding:"required"`
	AssessmentYear string    `json:"assessmentYear,omitempty"`
	FromDate       int64     `json:"fromDate,omitempty"`
	ToDate         int64     `json:"toDate,omitempty"`
}

// MutationCriteria is one ownership transfer to be priced.
type MutationCriteria struct {
	TenantID  string          `json:"tenantId" binding:"required"`
	Property  *Property       `json:"property" binding:"required"`
	FeeAmount decimal.Decimal `json:"feeAmount"`
}

// MarshalJSON keeps estimate-lists stable as an empty array rather than null.
func (c Calculation) MarshalJSON() ([]byte, error) {
	type alias Calculation
	if c.TaxHeadEstimates == nil {
		c.TaxHeadEstimates = []TaxHeadEstimate{}
	}
	return json.Marshal(alias(c))
}
