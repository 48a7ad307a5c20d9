package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/ptcalc/api/internal/billing"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	"github.com/stwalsh4118/ptcalc/api/internal/client"
	"github.com/stwalsh4118/ptcalc/api/internal/config"
	"github.com/stwalsh4118/ptcalc/api/internal/database"
	apierrors "github.com/stwalsh4118/ptcalc/api/internal/errors"
	"github.com/stwalsh4118/ptcalc/api/internal/handlers"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
	"github.com/stwalsh4118/ptcalc/api/internal/masterdata"
	"github.com/stwalsh4118/ptcalc/api/internal/middleware"
	"github.com/stwalsh4118/ptcalc/api/internal/repository"
	"github.com/stwalsh4118/ptcalc/api/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.NewWithOptions(logger.Options{
		Env:   cfg.Server.Env,
		Level: cfg.Server.LogLevel,
	})
	log.Info("Starting property tax calculator API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Create database connection pool
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to apply database schema", err, nil)
	}

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Collaborators
	provider, err := newMasterDataProvider(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize master data provider", err, map[string]interface{}{
			"fixture": cfg.MasterData.FixturePath,
		})
	}
	master := masterdata.NewService(provider, masterdata.ServiceConfig{
		CategoryTenant: cfg.MasterData.CategoryTenant,
		CacheTTL:       cfg.MasterData.CacheTTL,
	}, log.Named("masterdata"))

	// SIGHUP drops cached master data so the next request reloads it
	go purgeOnHangup(ctx, master, log)

	billingClient := billing.NewClient(
		newCollaboratorClient(cfg.Billing.Host, cfg, log),
		billing.Endpoints{
			DemandSearch:    cfg.Billing.DemandSearchEndpoint,
			DemandCreate:    cfg.Billing.DemandCreateEndpoint,
			DemandUpdate:    cfg.Billing.DemandUpdateEndpoint,
			TaxPeriodSearch: cfg.Billing.TaxPeriodEndpoint,
		},
	)

	// Initialize repository and service layers
	diagnostics := &calculator.Diagnostics{}
	estimator := calculator.NewEstimator(cfg.Tax.Calculator(), log, diagnostics, nil)
	payments := repository.NewPaymentRepository(db)

	estimationService := services.NewEstimationService(estimator, master, payments, billingClient, services.EstimationConfig{
		PropertyTaxService: cfg.Billing.PropertyTaxService,
	}, log)
	demandService := services.NewDemandService(estimationService, payments, billingClient, services.DemandConfig{
		PropertyTaxService:   cfg.Billing.PropertyTaxService,
		MinimumAmountPayable: cfg.Billing.MinimumAmountPayable,
	}, log)
	mutationService := services.NewMutationService(estimator, master, billingClient, services.MutationConfig{
		BusinessService:      cfg.Mutation.BusinessService,
		MinimumAmountPayable: cfg.Billing.MinimumAmountPayable,
	}, log)

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, diagnostics, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	calculationHandler := handlers.NewCalculationHandler(estimationService, demandService, mutationService)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Run(ctx)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(limiter.Middleware(log))
	{
		calculate := v1.Group("/calculate")
		{
			calculate.POST("/_estimate", calculationHandler.Estimate)
			calculate.POST("/_calculate", calculationHandler.Calculate)
		}

		mutation := v1.Group("/mutation")
		{
			mutation.POST("/_calculate", calculationHandler.Mutation)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

func purgeOnHangup(ctx context.Context, master *masterdata.Service, log *logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			master.Purge()
			log.Info("Master data cache purged", nil)
		}
	}
}

// newMasterDataProvider serves master data from the fixture file when one is configured,
// and from the remote master-data service otherwise.
func newMasterDataProvider(cfg *config.Config, log *logger.Logger) (masterdata.Provider, error) {
	if cfg.MasterData.FixturePath != "" {
		log.Info("Serving master data from fixture", map[string]interface{}{
			"path": cfg.MasterData.FixturePath,
		})
		fixture, err := masterdata.NewFileProvider(cfg.MasterData.FixturePath)
		if err != nil {
			return nil, err
		}
		return fixture, nil
	}
	return masterdata.NewHTTPProvider(
		newCollaboratorClient(cfg.MasterData.Host, cfg, log),
		cfg.MasterData.SearchEndpoint,
	), nil
}

func newCollaboratorClient(baseURL string, cfg *config.Config, log *logger.Logger) *client.Client {
	retry := client.DefaultRetryConfig()
	retry.MaxRetries = cfg.Billing.MaxRetries

	return client.New(
		client.WithBaseURL(baseURL),
		client.WithTimeout(cfg.Billing.Timeout),
		client.WithRetryConfig(retry),
		client.WithLogger(log.With(map[string]interface{}{"collaborator": baseURL})),
	)
}
