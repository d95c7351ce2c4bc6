package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"hostel-ops-backend/config"
	"hostel-ops-backend/internal/api"
	"hostel-ops-backend/internal/billing"
	"hostel-ops-backend/internal/db"
	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/ledger"
	"hostel-ops-backend/internal/mealoff"
	"hostel-ops-backend/internal/notification"
	"hostel-ops-backend/internal/store"
	"hostel-ops-backend/pkg/logging"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)
	gin.SetMode(gin.ReleaseMode)
	slog.Info("Configuration loaded", "path", configPath, "hostel", cfg.Hostel.Name, "timezone", cfg.Hostel.Timezone)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	var notifier mealoff.Notifier
	if cfg.Push.Enabled() {
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		})
		pool.Start(ctx)
		notifier = pool
		slog.Info("Push notifications enabled", "workers", cfg.WorkerPool.Size)
	} else {
		slog.Warn("VAPID keys are not configured; push notifications are disabled")
	}

	meals := ledger.NewMealLedger(appStore)
	rent := ledger.NewRentLedger(appStore)
	deps := api.Deps{
		Store:          appStore,
		Directory:      identity.NewDirectory(appStore, identity.NewPasswordAuthenticator(appStore)),
		Tokens:         identity.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Meals:          meals,
		Rent:           rent,
		Billing:        billing.NewGuard(billing.NewAggregator(appStore, meals, rent), appStore),
		MealOff:        mealoff.NewWorkflow(appStore, cfg.Hostel.Location, notifier),
		VAPIDPublicKey: cfg.Push.PublicKey,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(deps, cfg.Server, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server ListenAndServe", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	slog.Info("Shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server Shutdown", "error", err)
		os.Exit(1)
	}
	cancel()

	slog.Info("Server gracefully stopped")
}
