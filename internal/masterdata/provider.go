package masterdata

import (
	"context"
	"encoding/json"
	"errors"
)

// Module and master names published by the master-data service.
const (
	ModulePropertyTax = "PropertyTax"
	ModuleLocation    = "egov-location"
	ModuleBilling     = "BillingService"
	ModuleFinance     = "egf-master"

	MasterCategories    = "Categories"
	MasterRebate        = "Rebate"
	MasterPenalty       = "Penalty"
	MasterInterest      = "Interest"
	MasterFireCess      = "FireCess"
	MasterBoundary      = "TenantBoundary"
	MasterTaxHead       = "TaxHeadMaster"
	MasterFinancialYear = "FinancialYear"
)

// Filters applied on the master-data side.
const (
	FilterCategory      = "$[?(@.label=='category')]"
	FilterLocality      = "$..[?(@.label=='Locality')]"
	FilterPropertyTax   = "[?(@.service=='PT')]"
	FilterFinancialYear = "[?(@.module=='PT')]"
)

// ErrNoRecords is returned when a required master has no records for a tenant.
var ErrNoRecords = errors.New("no master data records")

// Request selects masters of one module for a tenant.
type Request struct {
	TenantID string
	Module   string
	Masters  []string
	// Filter is applied to every master in the request.
	Filter string
}

// Response holds raw records by module and master.
type Response map[string]map[string][]json.RawMessage

// Records returns the records of one master, or nil.
func (r Response) Records(module, master string) []json.RawMessage {
	if r == nil {
		return nil
	}
	return r[module][master]
}

// Provider looks up master data.
type Provider interface {
	Lookup(ctx context.Context, req Request) (Response, error)
}
