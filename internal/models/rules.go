package models

import "github.com/shopspring/decimal"

// ApplicableRule is a time-windowed rebate, penalty, interest or cess definition from master data.
// Exactly one of StartingDay or EndingDay is expected to be set ("DD/MM").
type ApplicableRule struct {
	FromFY                       string           `json:"fromFY" yaml:"fromFY"`
	StartingDay                  string           `json:"startingDay,omitempty" yaml:"startingDay,omitempty"`
	EndingDay                    string           `json:"endingDay,omitempty" yaml:"endingDay,omitempty"`
	Rate                         *decimal.Decimal `json:"rate,omitempty" yaml:"rate,omitempty"`
	FlatAmount                   *decimal.Decimal `json:"flatAmount,omitempty" yaml:"flatAmount,omitempty"`
	MinAmount                    *decimal.Decimal `json:"minAmount,omitempty" yaml:"minAmount,omitempty"`
	MaxAmount                    *decimal.Decimal `json:"maxAmount,omitempty" yaml:"maxAmount,omitempty"`
	Slabs                        []RuleSlab       `json:"slabs,omitempty" yaml:"slabs,omitempty"`
	MutationPaymentPeriodInMonth *int             `json:"mutationPaymentPeriodInMonth,omitempty" yaml:"mutationPaymentPeriodInMonth,omitempty"`
}

// RuleSlab is one tier of a tiered rule. To is exclusive; a nil To is unbounded.
type RuleSlab struct {
	From decimal.Decimal  `json:"from" yaml:"from"`
	To   *decimal.Decimal `json:"to,omitempty" yaml:"to,omitempty"`
	Rate decimal.Decimal  `json:"rate" yaml:"rate"`
}

// TimeRules groups the rule lists for one tenant.
type TimeRules struct {
	Rebate   []ApplicableRule
	Penalty  []ApplicableRule
	Interest []ApplicableRule
	FireCess []ApplicableRule
}

// TaxPeriod is a billing validity window in epoch milliseconds.
type TaxPeriod struct {
	ID              string `json:"id,omitempty"`
	TenantID        string `json:"tenantId,omitempty"`
	FromDate        int64  `json:"fromDate"`
	ToDate          int64  `json:"toDate"`
	FinancialYear   string `json:"financialYear,omitempty"`
	PeriodCycle     string `json:"periodCycle,omitempty"`
	BusinessService string `json:"service,omitempty"`
}

// Contains reports whether the epoch millisecond instant falls in the period.
func (p TaxPeriod) Contains(ms int64) bool {
	return ms >= p.FromDate && ms <= p.ToDate
}

// FinancialYear is a fiscal-year master record.
type FinancialYear struct {
	Code         string `json:"finYearRange" yaml:"finYearRange"`
	StartingDate int64  `json:"startingDate" yaml:"startingDate"`
	EndingDate   int64  `json:"endingDate" yaml:"endingDate"`
}

// TaxHeadMaster maps a tax-head code to its aggregation category.
type TaxHeadMaster struct {
	Code     string `json:"code" yaml:"code"`
	Category string `json:"category" yaml:"category"`
}
