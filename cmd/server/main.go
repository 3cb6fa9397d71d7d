package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	httpapi "carrental-backend/internal/api/http"
	"carrental-backend/internal/config"
	"carrental-backend/internal/gateway"
	"carrental-backend/internal/logger"
	"carrental-backend/internal/repository/postgres"
	"carrental-backend/internal/security"
	"carrental-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Car Rental Booking Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Apply schema migrations
	if err := postgres.RunMigrations(db, cfg.Database.MigrationsDir); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Schema migrations applied", "dir", cfg.Database.MigrationsDir)

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)
	webhookVerifier := security.NewWebhookVerifier(cfg.Gateway.WebhookSecret)

	// Initialize Payment Gateway client
	var gatewayClient gateway.Client
	if cfg.Gateway.Provider == "" || cfg.Gateway.Provider == "mock" {
		logger.Info("Using mock payment gateway", "site_url", cfg.Gateway.SiteURL)
		gatewayClient = gateway.NewMockClient(cfg.Gateway.SiteURL)
	} else {
		logger.Error("Unsupported gateway provider", "provider", cfg.Gateway.Provider)
		log.Fatalf("Gateway provider '%s' not yet implemented", cfg.Gateway.Provider)
	}

	// Initialize Services
	bookingSvc := service.NewBookingService(
		db,
		store.VehicleRepository,
		store.BookingRepository,
		store.PaymentRepository,
		gatewayClient,
		service.NewRequesterAuthorizer(),
		cfg.Booking,
		cfg.Gateway,
	)
	paymentSvc := service.NewPaymentService(
		db,
		store.PaymentRepository,
		store.BookingRepository,
		store.VehicleRepository,
		gatewayClient,
		cfg.Gateway,
	)
	reconcilerSvc := service.NewReconciler(
		db,
		store.PaymentRepository,
		store.BookingRepository,
		store.GatewayEventRepository,
	)

	// Initialize HTTP handlers
	bookingHandler := httpapi.NewBookingHandler(bookingSvc, paymentSvc)
	webhookHandler := httpapi.NewWebhookHandler(reconcilerSvc, webhookVerifier)
	router := httpapi.NewRouter(bookingHandler, webhookHandler, tokenManager)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
