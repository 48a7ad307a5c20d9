package masterdata

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/ptcalc/api/internal/cache"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// ServiceConfig configures the master-data service.
type ServiceConfig struct {
	// CategoryTenant is the tenant category multipliers are published under.
	CategoryTenant string
	CacheTTL       time.Duration
}

// Service decodes master data into calculator inputs and caches them per tenant.
type Service struct {
	provider       Provider
	categoryTenant string
	log            *logger.Logger

	rates    *cache.TTLCache[calculator.MasterRates]
	taxHeads *cache.TTLCache[calculator.TaxHeadCategories]
	rules    *cache.TTLCache[models.TimeRules]
	years    *cache.TTLCache[[]models.FinancialYear]
}

// NewService creates a Service over provider.
func NewService(provider Provider, cfg ServiceConfig, log *logger.Logger) *Service {
	return &Service{
		provider:       provider,
		categoryTenant: cfg.CategoryTenant,
		log:            log,
		rates:          cache.New[calculator.MasterRates](cfg.CacheTTL),
		taxHeads:       cache.New[calculator.TaxHeadCategories](cfg.CacheTTL),
		rules:          cache.New[models.TimeRules](cfg.CacheTTL),
		years:          cache.New[[]models.FinancialYear](cfg.CacheTTL),
	}
}

// MasterRates returns the tenant's base-rate table with the category multipliers.
func (s *Service) MasterRates(ctx context.Context, tenantID string) (calculator.MasterRates, error) {
	return s.rates.Get(ctx, tenantID, func(ctx context.Context) (calculator.MasterRates, error) {
		boundary, err := s.provider.Lookup(ctx, Request{
			TenantID: tenantID,
			Module:   ModuleLocation,
			Masters:  []string{MasterBoundary},
			Filter:   FilterLocality,
		})
		if err != nil {
			return calculator.MasterRates{}, err
		}
		table, err := DecodeRateTable(boundary.Records(ModuleLocation, MasterBoundary))
		if err != nil {
			return calculator.MasterRates{}, fmt.Errorf("failed to decode rate table for %s: %w", tenantID, err)
		}

		categoryTenant := s.categoryTenant
		if categoryTenant == "" {
			categoryTenant = stateTenant(tenantID)
		}
		cats, err := s.provider.Lookup(ctx, Request{
			TenantID: categoryTenant,
			Module:   ModulePropertyTax,
			Masters:  []string{MasterCategories},
			Filter:   FilterCategory,
		})
		if err != nil {
			return calculator.MasterRates{}, err
		}
		multipliers, err := DecodeCategories(cats.Records(ModulePropertyTax, MasterCategories))
		if err != nil {
			return calculator.MasterRates{}, fmt.Errorf("failed to decode categories for %s: %w", categoryTenant, err)
		}

		s.log.Info("Loaded master rates", map[string]interface{}{
			"tenant_id":  tenantID,
			"localities": table.Localities(),
			"categories": len(multipliers),
		})
		return calculator.MasterRates{Rates: table, Categories: multipliers}, nil
	})
}

// TaxHeadCategories returns the tenant's tax-head to category map.
func (s *Service) TaxHeadCategories(ctx context.Context, tenantID string) (calculator.TaxHeadCategories, error) {
	return s.taxHeads.Get(ctx, tenantID, func(ctx context.Context) (calculator.TaxHeadCategories, error) {
		resp, err := s.provider.Lookup(ctx, Request{
			TenantID: tenantID,
			Module:   ModuleBilling,
			Masters:  []string{MasterTaxHead},
			Filter:   FilterPropertyTax,
		})
		if err != nil {
			return nil, err
		}
		return DecodeTaxHeads(resp.Records(ModuleBilling, MasterTaxHead))
	})
}

// TimeRules returns the tenant's rebate, penalty, interest and fire cess rules.
func (s *Service) TimeRules(ctx context.Context, tenantID string) (models.TimeRules, error) {
	return s.rules.Get(ctx, tenantID, func(ctx context.Context) (models.TimeRules, error) {
		resp, err := s.provider.Lookup(ctx, Request{
			TenantID: tenantID,
			Module:   ModulePropertyTax,
			Masters:  []string{MasterRebate, MasterPenalty, MasterInterest, MasterFireCess},
		})
		if err != nil {
			return models.TimeRules{}, err
		}

		var rules models.TimeRules
		targets := []struct {
			master string
			dst    *[]models.ApplicableRule
		}{
			{MasterRebate, &rules.Rebate},
			{MasterPenalty, &rules.Penalty},
			{MasterInterest, &rules.Interest},
			{MasterFireCess, &rules.FireCess},
		}
		for _, target := range targets {
			decoded, err := DecodeRules(resp.Records(ModulePropertyTax, target.master))
			if err != nil {
				return models.TimeRules{}, fmt.Errorf("failed to decode %s rules for %s: %w", target.master, tenantID, err)
			}
			*target.dst = decoded
		}
		return rules, nil
	})
}

// FinancialYear returns the financial-year master for code, or ErrNoRecords when absent.
func (s *Service) FinancialYear(ctx context.Context, tenantID, code string) (*models.FinancialYear, error) {
	years, err := s.years.Get(ctx, tenantID, func(ctx context.Context) ([]models.FinancialYear, error) {
		resp, err := s.provider.Lookup(ctx, Request{
			TenantID: tenantID,
			Module:   ModuleFinance,
			Masters:  []string{MasterFinancialYear},
			Filter:   FilterFinancialYear,
		})
		if err != nil {
			return nil, err
		}
		return DecodeFinancialYears(resp.Records(ModuleFinance, MasterFinancialYear))
	})
	if err != nil {
		return nil, err
	}

	for i := range years {
		if years[i].Code == code {
			fy := years[i]
			return &fy, nil
		}
	}
	return nil, fmt.Errorf("financial year %s for %s: %w", code, tenantID, ErrNoRecords)
}

// Invalidate drops every cached master for the tenant.
func (s *Service) Invalidate(tenantID string) {
	s.rates.Invalidate(tenantID)
	s.taxHeads.Invalidate(tenantID)
	s.rules.Invalidate(tenantID)
	s.years.Invalidate(tenantID)
}

// Purge drops every cached master.
func (s *Service) Purge() {
	s.rates.Purge()
	s.taxHeads.Purge()
	s.rules.Purge()
	s.years.Purge()
}
