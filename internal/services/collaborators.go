package services

import (
	"context"

	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// MasterData supplies decoded tenant master data.
type MasterData interface {
	MasterRates(ctx context.Context, tenantID string) (calculator.MasterRates, error)
	TaxHeadCategories(ctx context.Context, tenantID string) (calculator.TaxHeadCategories, error)
	TimeRules(ctx context.Context, tenantID string) (models.TimeRules, error)
	FinancialYear(ctx context.Context, tenantID, code string) (*models.FinancialYear, error)
}

// DemandClient is the billing collaborator.
type DemandClient interface {
	SearchDemands(ctx context.Context, tenantID, businessService string, consumerCodes []string) ([]models.Demand, error)
	CreateDemands(ctx context.Context, demands []models.Demand) ([]models.Demand, error)
	UpdateDemands(ctx context.Context, demands []models.Demand) ([]models.Demand, error)
	SearchTaxPeriods(ctx context.Context, tenantID, service string) ([]models.TaxPeriod, error)
}
