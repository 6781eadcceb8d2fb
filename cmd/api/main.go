package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slotwise/bookingd/internal/api/router"
	appbootstrap "github.com/slotwise/bookingd/internal/app/bootstrap"
	appconfig "github.com/slotwise/bookingd/internal/config"
	"github.com/slotwise/bookingd/internal/http/handlers"
	"github.com/slotwise/bookingd/internal/observability/metrics"
	"github.com/slotwise/bookingd/internal/realtime"
	"github.com/slotwise/bookingd/internal/scheduling"
	"github.com/slotwise/bookingd/pkg/logging"
)

func main() {
	// .env is optional; real deployments set environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting bookingd API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := appbootstrap.BuildDBPool(ctx, cfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := appbootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	catalogRepo, cachedCatalog := appbootstrap.BuildCatalog(pool, redisClient, cfg, logger)
	notifyService := appbootstrap.BuildNotifyService(cfg, logger)

	hub := realtime.NewHub(logger, bookingMetrics)
	publisher := realtime.NewPublisher(hub)

	slotStore := scheduling.NewSlotStore(pool)
	appointmentStore := scheduling.NewAppointmentStore(pool)
	engine := scheduling.NewEngine(scheduling.EngineConfig{
		Pool:      pool,
		Slots:     slotStore,
		Appts:     appointmentStore,
		Publisher: publisher,
		Metrics:   bookingMetrics,
		Logger:    logger,
		Timeout:   cfg.BookingTimeout,
	})

	routerCfg := &router.Config{
		Logger:              logger,
		AppointmentsHandler: handlers.NewAppointmentsHandler(engine, slotStore, notifyService, logger),
		SlotsHandler:        handlers.NewSlotsHandler(slotStore, cachedCatalog, logger),
		ServicesHandler:     handlers.NewServicesHandler(catalogRepo, cachedCatalog, logger),
		ProvidersHandler:    handlers.NewProvidersHandler(catalogRepo, logger),
		RealtimeHandler:     realtime.NewHandler(hub, logger),
		MetricsHandler:      promhttp.Handler(),
		AuthSecret:          cfg.AuthJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
