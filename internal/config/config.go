package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	MasterData MasterDataConfig
	Billing    BillingConfig
	Mutation   MutationConfig
	Tax        TaxConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// DatabaseConfig holds PostgreSQL connection configuration.
// URL, when set, takes precedence over the individual fields.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// RateLimitConfig holds the per-client limits for calculation routes.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// MasterDataConfig holds master-data service configuration.
// FixturePath, when set, serves master data from a YAML file instead of the remote service.
type MasterDataConfig struct {
	Host           string
	SearchEndpoint string
	FixturePath    string
	CategoryTenant string
	CacheTTL       time.Duration
}

// BillingConfig holds billing-service configuration.
type BillingConfig struct {
	Host                 string
	DemandSearchEndpoint string
	DemandCreateEndpoint string
	DemandUpdateEndpoint string
	TaxPeriodEndpoint    string
	PropertyTaxService   string
	Timeout              time.Duration
	MaxRetries           int
	MinimumAmountPayable decimal.Decimal
}

// MutationConfig holds mutation-fee configuration.
type MutationConfig struct {
	BusinessService string
}

// TaxConfig holds the rate constants handed to the calculator.
type TaxConfig struct {
	HouseTaxMultiplier decimal.Decimal
	WaterTaxMultiplier decimal.Decimal
	SewerTaxMultiplier decimal.Decimal

	OwnedUpTo10  decimal.Decimal
	Owned11To20  decimal.Decimal
	OwnedOver20  decimal.Decimal
	RentedUpTo10 decimal.Decimal
	Rented11To20 decimal.Decimal
	RentedOver20 decimal.Decimal

	FacilitiesPresentRebate decimal.Decimal
	FacilitiesAbsentRebate  decimal.Decimal

	PrimaryTaxHead string
	RoundOffPlaces int
	Location       *time.Location
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	// Missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "ptcalc")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	v.SetDefault("MDMS_HOST", "http://localhost:8094")
	v.SetDefault("MDMS_SEARCH_ENDPOINT", "/egov-mdms-service/v1/_search")
	v.SetDefault("MDMS_CATEGORY_TENANT", "up")
	v.SetDefault("CACHE_TTL", "15m")

	v.SetDefault("BILLING_HOST", "http://localhost:8081")
	v.SetDefault("BILLING_DEMAND_SEARCH_ENDPOINT", "/billing-service/demand/_search")
	v.SetDefault("BILLING_DEMAND_CREATE_ENDPOINT", "/billing-service/demand/_create")
	v.SetDefault("BILLING_DEMAND_UPDATE_ENDPOINT", "/billing-service/demand/_update")
	v.SetDefault("BILLING_TAXPERIOD_ENDPOINT", "/billing-service/taxperiods/_search")
	v.SetDefault("BILLING_PT_SERVICE", "PT")
	v.SetDefault("BILLING_TIMEOUT", "10s")
	v.SetDefault("BILLING_MAX_RETRIES", 3)
	v.SetDefault("BILLING_MINIMUM_AMOUNT_PAYABLE", "0")

	v.SetDefault("MUTATION_BUSINESS_SERVICE", "PT.MUTATION")

	v.SetDefault("TAX_HOUSE_MULTIPLIER", "0.125")
	v.SetDefault("TAX_WATER_MULTIPLIER", "0.08")
	v.SetDefault("TAX_SEWER_MULTIPLIER", "0.04")
	v.SetDefault("TAX_OWNED_LT_10", "-25")
	v.SetDefault("TAX_OWNED_10_20", "-32.5")
	v.SetDefault("TAX_OWNED_GT_20", "-40")
	v.SetDefault("TAX_RENTED_LT_10", "25")
	v.SetDefault("TAX_RENTED_10_20", "12.5")
	v.SetDefault("TAX_RENTED_GT_20", "0")
	v.SetDefault("TAX_FACILITIES_PRESENT_REBATE", "-10")
	v.SetDefault("TAX_FACILITIES_ABSENT_REBATE", "0")
	v.SetDefault("PRIMARY_TAX_HEAD", "PT_HOUSE_TAX")
	v.SetDefault("ROUNDOFF_PLACES", 0)
	v.SetDefault("TIMEZONE", "Asia/Kolkata")

	// Bind environment variables
	v.AutomaticEnv()

	location, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	p := decimalParser{v: v}

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			Env:      v.GetString("ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		MasterData: MasterDataConfig{
			Host:           v.GetString("MDMS_HOST"),
			SearchEndpoint: v.GetString("MDMS_SEARCH_ENDPOINT"),
			FixturePath:    v.GetString("MDMS_FIXTURE"),
			CategoryTenant: v.GetString("MDMS_CATEGORY_TENANT"),
			CacheTTL:       v.GetDuration("CACHE_TTL"),
		},
		Billing: BillingConfig{
			Host:                 v.GetString("BILLING_HOST"),
			DemandSearchEndpoint: v.GetString("BILLING_DEMAND_SEARCH_ENDPOINT"),
			DemandCreateEndpoint: v.GetString("BILLING_DEMAND_CREATE_ENDPOINT"),
			DemandUpdateEndpoint: v.GetString("BILLING_DEMAND_UPDATE_ENDPOINT"),
			TaxPeriodEndpoint:    v.GetString("BILLING_TAXPERIOD_ENDPOINT"),
			PropertyTaxService:   v.GetString("BILLING_PT_SERVICE"),
			Timeout:              v.GetDuration("BILLING_TIMEOUT"),
			MaxRetries:           v.GetInt("BILLING_MAX_RETRIES"),
			MinimumAmountPayable: p.get("BILLING_MINIMUM_AMOUNT_PAYABLE"),
		},
		Mutation: MutationConfig{
			BusinessService: v.GetString("MUTATION_BUSINESS_SERVICE"),
		},
		Tax: TaxConfig{
			HouseTaxMultiplier:      p.get("TAX_HOUSE_MULTIPLIER"),
			WaterTaxMultiplier:      p.get("TAX_WATER_MULTIPLIER"),
			SewerTaxMultiplier:      p.get("TAX_SEWER_MULTIPLIER"),
			OwnedUpTo10:             p.get("TAX_OWNED_LT_10"),
			Owned11To20:             p.get("TAX_OWNED_10_20"),
			OwnedOver20:             p.get("TAX_OWNED_GT_20"),
			RentedUpTo10:            p.get("TAX_RENTED_LT_10"),
			Rented11To20:            p.get("TAX_RENTED_10_20"),
			RentedOver20:            p.get("TAX_RENTED_GT_20"),
			FacilitiesPresentRebate: p.get("TAX_FACILITIES_PRESENT_REBATE"),
			FacilitiesAbsentRebate:  p.get("TAX_FACILITIES_ABSENT_REBATE"),
			PrimaryTaxHead:          v.GetString("PRIMARY_TAX_HEAD"),
			RoundOffPlaces:          v.GetInt("ROUNDOFF_PLACES"),
			Location:                location,
		},
	}

	if p.err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", p.err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.URL == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Port == "" {
			return fmt.Errorf("DB_PORT is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}

	// Validate collaborators
	if c.MasterData.FixturePath == "" && c.MasterData.Host == "" {
		return fmt.Errorf("MDMS_HOST or MDMS_FIXTURE is required")
	}
	if c.Billing.Host == "" {
		return fmt.Errorf("BILLING_HOST is required")
	}
	if c.Billing.MaxRetries < 0 {
		return fmt.Errorf("BILLING_MAX_RETRIES must be non-negative")
	}
	if c.Mutation.BusinessService == "" {
		return fmt.Errorf("MUTATION_BUSINESS_SERVICE is required")
	}

	// Validate tax config
	if c.Tax.PrimaryTaxHead == "" {
		return fmt.Errorf("PRIMARY_TAX_HEAD is required")
	}
	if c.Tax.RoundOffPlaces < 0 {
		return fmt.Errorf("ROUNDOFF_PLACES must be non-negative")
	}

	return nil
}

// Calculator converts the tax configuration into calculator constants.
func (t TaxConfig) Calculator() calculator.Config {
	cfg := calculator.DefaultConfig()
	cfg.AgeRebates = calculator.AgeRebates{
		OwnedUpTo10:  t.OwnedUpTo10,
		Owned11To20:  t.Owned11To20,
		OwnedOver20:  t.OwnedOver20,
		RentedUpTo10: t.RentedUpTo10,
		Rented11To20: t.Rented11To20,
		RentedOver20: t.RentedOver20,
	}
	cfg.HouseTaxMultiplier = t.HouseTaxMultiplier
	cfg.WaterTaxMultiplier = t.WaterTaxMultiplier
	cfg.SewerTaxMultiplier = t.SewerTaxMultiplier
	cfg.FacilitiesPresentRebate = t.FacilitiesPresentRebate
	cfg.FacilitiesAbsentRebate = t.FacilitiesAbsentRebate
	cfg.PrimaryTaxHead = t.PrimaryTaxHead
	cfg.RoundOffPlaces = int32(t.RoundOffPlaces)
	cfg.Location = t.Location
	return cfg
}

// decimalParser reads decimal settings, keeping the first parse failure.
type decimalParser struct {
	v   *viper.Viper
	err error
}

func (p *decimalParser) get(key string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(p.v.GetString(key)))
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("%s must be a decimal: %w", key, err)
		}
		return decimal.Zero
	}
	return d
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
