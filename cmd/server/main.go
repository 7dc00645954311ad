package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amalxloop/EatFlex/internal/config"
	"github.com/amalxloop/EatFlex/internal/database"
	"github.com/amalxloop/EatFlex/internal/logging"
	"github.com/amalxloop/EatFlex/internal/metrics"
	"github.com/amalxloop/EatFlex/internal/routes"
	notifyws "github.com/amalxloop/EatFlex/internal/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const (
	bodyLimitBytes  = 11 * 1024 * 1024
	shutdownTimeout = 10 * time.Second
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	pool, err := database.Connect(ctx, cfg.DBUrl, cfg.DBMaxConns, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// 3. Metrics and notification hub
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	hub := notifyws.NewHub(log)
	go hub.Run(ctx)

	// 4. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "EatFlex API",
		BodyLimit: bodyLimitBytes,
	})

	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	if err := routes.RegisterRoutes(ctx, app, cfg, routes.Dependencies{
		DB:       pool,
		Hub:      hub,
		Metrics:  appMetrics,
		Gatherer: registry,
		Logger:   log,
	}); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	// 5. Start Server
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		serverErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("Server failed")
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	}
}
