package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PropertyPayment is the stored per-property, per-year baseline that drives tax-head expansion.
// (PropertyID, FinancialYear) is unique.
type PropertyPayment struct {
	ID                 string          `json:"id"`
	PropertyID         string          `json:"propertyId"`
	FinancialYear      string          `json:"financialYear"`
	ArrearHouseTax     decimal.Decimal `json:"arrearHouseTax"`
	ArrearWaterTax     decimal.Decimal `json:"arrearWaterTax"`
	ArrearSewerTax     decimal.Decimal `json:"arrearSewerTax"`
	HouseTax           decimal.Decimal `json:"houseTax"`
	WaterTax           decimal.Decimal `json:"waterTax"`
	SewerTax           decimal.Decimal `json:"sewerTax"`
	SurchargeHouseTax  decimal.Decimal `json:"surchargeHouseTax"`
	SurchargeWaterTax  decimal.Decimal `json:"surchargeWaterTax"`
	SurchargeSewerTax  decimal.Decimal `json:"surchargeSewerTax"`
	BillGeneratedTotal decimal.Decimal `json:"billGeneratedTotal"`
	TotalPaidAmount    decimal.Decimal `json:"totalPaidAmount"`
	LastPaymentDate    *time.Time      `json:"lastPaymentDate,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}
