package main

import (
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"carrental-backend/internal/config"
	"carrental-backend/internal/gateway"
	"carrental-backend/internal/jobs"
	"carrental-backend/internal/logger"
	"carrental-backend/internal/repository/postgres"
	"carrental-backend/internal/scheduler"
	"carrental-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a single job and exit (expire-pending-bookings, report-unmatched-events, all-nightly)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Car Rental cron runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories and Services
	store := postgres.NewStore(db)
	gatewayClient := gateway.NewMockClient(cfg.Gateway.SiteURL)
	if cfg.Gateway.Provider != "" && cfg.Gateway.Provider != "mock" {
		logger.Error("Unsupported gateway provider", "provider", cfg.Gateway.Provider)
		log.Fatalf("Gateway provider '%s' not yet implemented", cfg.Gateway.Provider)
	}

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

	jobRunner := jobs.NewJobRunner(db, store, bookingSvc, cfg)

	// Single-run mode for manual invocation and container jobs
	if *runOnce != "" {
		runJobOnce(jobRunner, *runOnce)
		return
	}

	// Scheduled mode
	sched := scheduler.NewScheduler(jobRunner)
	sched.Start()
	logger.Info("Scheduler started, waiting for jobs...")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping scheduler...")
	sched.Stop()
	logger.Info("Scheduler stopped")
}

func runJobOnce(jr *jobs.JobRunner, name string) {
	logger.Info("Running single job", "job", name)
	switch name {
	case "expire-pending-bookings":
		jr.ExpirePendingBookings()
	case "report-unmatched-events":
		jr.ReportUnmatchedEvents()
	case "all-nightly":
		jr.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", name)
		os.Exit(1)
	}
	logger.Info("Job finished", "job", name)
}
