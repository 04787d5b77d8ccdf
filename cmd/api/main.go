package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/wayfinder/internal/adapters/http"
	"github.com/samirrijal/wayfinder/internal/adapters/llm"
	natsadapter "github.com/samirrijal/wayfinder/internal/adapters/nats"
	"github.com/samirrijal/wayfinder/internal/adapters/nominatim"
	"github.com/samirrijal/wayfinder/internal/adapters/ors"
	"github.com/samirrijal/wayfinder/internal/adapters/places"
	"github.com/samirrijal/wayfinder/internal/adapters/postgres"
	"github.com/samirrijal/wayfinder/internal/adapters/valkey"
	"github.com/samirrijal/wayfinder/internal/core/agents"
	"github.com/samirrijal/wayfinder/internal/core/classify"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
	"github.com/samirrijal/wayfinder/internal/pkg/config"
	"github.com/samirrijal/wayfinder/internal/pkg/logging"
	"github.com/samirrijal/wayfinder/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("wayfinder-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database (user memory)
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Cache.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, collaborator caching disabled", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, query events disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// LLM classifier stage
	llmClient, llmCleanup, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("llm: %v", err)
	}
	defer llmCleanup()
	if llmClient == nil {
		slog.Warn("no llm api key, classification runs on rules alone")
	}

	// Collaborators
	routing := ors.NewClient(cfg.Routing.BaseURL, cfg.Routing.APIKey)
	placeSearch := places.NewClient(cfg.Places.BaseURL, cfg.Places.APIKey)
	geocoder := nominatim.NewClient(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)
	memory := postgres.NewMemoryRepo(db)

	// Use cases
	poiSvc := usecases.NewPOIService(routing, placeSearch, cacheSvc)
	enrouteSvc := usecases.NewEnrouteService(routing, placeSearch, cacheSvc)
	routeSvc := usecases.NewRouteService(routing)
	geocodeSvc := usecases.NewGeocodeService(geocoder, cacheSvc)

	// Agents
	classifier := classify.NewClassifier(llmClient, classify.NewRuleClassifier())
	simple := agents.NewSimpleAgent(poiSvc, routeSvc, geocodeSvc)
	multi := agents.NewMultiStepAgent(poiSvc, routeSvc, geocodeSvc, routing, agents.Locale{
		City:        cfg.Geocoder.City,
		State:       cfg.Geocoder.State,
		CountryCode: cfg.Geocoder.CountryCode,
	})
	orchestrator := agents.NewOrchestrator(classifier, simple, multi, memory, events)

	deps := &http.Dependencies{
		Orchestrator: orchestrator,
		Classifier:   classifier,
		POIs:         poiSvc,
		Enroute:      enrouteSvc,
		Routes:       routeSvc,
		Geocoder:     geocodeSvc,
		NATS:         natsConn,
		DB:           db,
		Cache:        cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Wayfinder API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.wayfinder.dev",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
