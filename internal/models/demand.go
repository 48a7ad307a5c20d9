package models

import "github.com/shopspring/decimal"

// Demand statuses.
const (
	DemandStatusActive    = "ACTIVE"
	DemandStatusCancelled = "CANCELLED"
)

// Demand is a billing record raised against a consumer code for a tax period.
type Demand struct {
	ID                   string          `json:"id,omitempty"`
	TenantID             string          `json:"tenantId"`
	ConsumerCode         string          `json:"consumerCode"`
	ConsumerType         string          `json:"consumerType,omitempty"`
	BusinessService      string          `json:"businessService"`
	Payer                *Owner          `json:"payer,omitempty"`
	TaxPeriodFrom        int64           `json:"taxPeriodFrom"`
	TaxPeriodTo          int64           `json:"taxPeriodTo"`
	MinimumAmountPayable decimal.Decimal `json:"minimumAmountPayable"`
	Status               string          `json:"status,omitempty"`
	DemandDetails        []DemandDetail  `json:"demandDetails"`
}

// DemandDetail is one tax-head line of a demand.
type DemandDetail struct {
	ID                string          `json:"id,omitempty"`
	DemandID          string          `json:"demandId,omitempty"`
	TaxHeadMasterCode string          `json:"taxHeadMasterCode"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	CollectionAmount  decimal.Decimal `json:"collectionAmount"`
	TenantID          string          `json:"tenantId,omitempty"`
}

// Collected sums what has been collected against the demand.
func (d *Demand) Collected() decimal.Decimal {
	total := decimal.Zero
	if d == nil {
		return total
	}
	for _, detail := range d.DemandDetails {
		total = total.Add(detail.CollectionAmount)
	}
	return total
}

// CollectedFor returns what has been collected against one tax head, zero when the demand has no such line.
func (d *Demand) CollectedFor(taxHeadCode string) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	if detail := d.Detail(taxHeadCode); detail != nil {
		return detail.CollectionAmount
	}
	return decimal.Zero
}

// Detail returns the detail line for a tax head, or nil.
func (d *Demand) Detail(taxHeadCode string) *DemandDetail {
	for i := range d.DemandDetails {
		if d.DemandDetails[i].TaxHeadMasterCode == taxHeadCode {
			return &d.DemandDetails[i]
		}
	}
	return nil
}
