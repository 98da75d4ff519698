package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"github.com/retailrewards/rewards-backend/api/routes"
	"github.com/retailrewards/rewards-backend/internal/config"
	"github.com/retailrewards/rewards-backend/internal/fraud"
	"github.com/retailrewards/rewards-backend/internal/handlers"
	"github.com/retailrewards/rewards-backend/internal/repositories"
	mongorepo "github.com/retailrewards/rewards-backend/internal/repositories/mongodb"
	"github.com/retailrewards/rewards-backend/internal/scheduler"
	"github.com/retailrewards/rewards-backend/internal/services"
	"github.com/retailrewards/rewards-backend/pkg/geocoder"
	"github.com/retailrewards/rewards-backend/pkg/mongodb"
	"github.com/retailrewards/rewards-backend/pkg/notifier"
)

func main() {
	// .env is optional; real deployments use environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongorepo.EnsureIndexes(indexCtx, db); err != nil {
		cancelIndex()
		slog.Error("Failed to ensure indexes", "error", err)
		os.Exit(1)
	}
	cancelIndex()

	// Repositories
	var customerRepo repositories.CustomerRepository = mongorepo.NewCustomerRepository(db)
	var shopRepo repositories.ShopRepository = mongorepo.NewShopRepository(db)
	var receiptRepo repositories.ReceiptRepository = mongorepo.NewReceiptRepository(db)
	var drawRepo repositories.DrawRepository = mongorepo.NewDrawRepository(db)

	// Collaborators
	var winnerNotifier notifier.Notifier
	if cfg.Notifier.Mock {
		winnerNotifier = notifier.NewMockNotifier()
	} else {
		winnerNotifier = notifier.NewWhatsAppNotifier(cfg.Notifier.BaseURL)
	}
	var shopGeocoder geocoder.Geocoder
	if !cfg.Geocoder.Mock {
		shopGeocoder = geocoder.NewNominatimGeocoder(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)
	}

	classifier := fraud.NewClassifier(fraud.Thresholds{
		ValidKm:      cfg.Fraud.ValidKm,
		ReviewKm:     cfg.Fraud.ReviewKm,
		SuspiciousKm: cfg.Fraud.SuspiciousKm,
	})

	// Services
	ingestionService := services.NewIngestionService(customerRepo, shopRepo, receiptRepo, classifier, shopGeocoder)
	receiptService := services.NewReceiptService(receiptRepo, customerRepo, shopRepo, classifier)
	drawService := services.NewDrawService(drawRepo, receiptRepo, customerRepo, winnerNotifier)
	customerService := services.NewCustomerService(customerRepo)
	shopService := services.NewShopService(shopRepo)

	deps := routes.HandlerDependencies{
		ReceiptHandler:  handlers.NewReceiptHandler(ingestionService, receiptService),
		FraudHandler:    handlers.NewFraudHandler(receiptService),
		DrawHandler:     handlers.NewDrawHandler(drawService),
		CustomerHandler: handlers.NewCustomerHandler(customerService),
		ShopHandler:     handlers.NewShopHandler(shopService),
	}

	var drawScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		drawScheduler, err = scheduler.New(drawService, cfg.Scheduler.CronSpec)
		if err != nil {
			slog.Error("Failed to create scheduler", "error", err)
			os.Exit(1)
		}
		deps.SchedulerHandler = handlers.NewSchedulerHandler(drawScheduler)

		catchupCtx, cancelCatchup := context.WithTimeout(context.Background(), 5*time.Minute)
		if err := drawScheduler.RunPending(catchupCtx); err != nil {
			slog.Error("Startup draw catch-up failed", "error", err)
		}
		cancelCatchup()

		drawScheduler.Start()
		defer drawScheduler.Stop()
	}

	router := routes.SetupRouter(cfg, deps)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting")
}

// setupLogger installs a JSON slog handler at the configured level
func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
