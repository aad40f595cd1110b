package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keepstack/keepstack/internal/api"
	"github.com/keepstack/keepstack/internal/backup"
	"github.com/keepstack/keepstack/internal/config"
	"github.com/keepstack/keepstack/internal/events"
	"github.com/keepstack/keepstack/internal/factory"
	"github.com/keepstack/keepstack/internal/health"
	"github.com/keepstack/keepstack/internal/logger"
	"github.com/keepstack/keepstack/internal/quota"
	"github.com/keepstack/keepstack/internal/searchindex"
	"github.com/keepstack/keepstack/internal/service"
	"github.com/keepstack/keepstack/internal/store"
)

func main() {
	log := logger.New("keepstackd")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("doc_driver", cfg.DocDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("keepstack service starting…")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// -------- Storage areas -----------------
	bus := events.NewBus(log)
	defer bus.Close()

	areas, err := factory.NewAreas(cfg, bus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Storage areas unavailable")
	}
	defer func() { _ = areas.Close() }()

	st := store.NewManager(areas.Sync, areas.Local, areas.Documents, bus, log)

	// -------- Search engine -----------------
	eng := searchindex.NewEngine(st, areas.Documents, bus, searchindex.Config{
		MinTokenLength:  cfg.MinTokenLength,
		StalenessWindow: time.Duration(cfg.IndexStalenessMs) * time.Millisecond,
		KeywordWeight:   cfg.KeywordWeight,
		SubstringWeight: cfg.SubstringWeight,
		MaxPageSize:     cfg.MaxPageSize,
		HistoryCap:      cfg.HistoryCap,
		HistoryDisabled: !cfg.HistoryEnabled,
		SuggestionCap:   cfg.SuggestionCap,
	}, log)
	if err := eng.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Search index unavailable")
	}

	svc := service.New(st, eng, backup.NewManager(st, bus, log), bus, log)

	// -------- Health monitor ----------------
	checkers := []health.HealthChecker{
		health.NewAreaChecker("sync", areas.Sync, log),
		health.NewAreaChecker("local", areas.Local, log),
		health.NewAreaChecker("document", areas.Documents, log),
	}
	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	for _, c := range checkers {
		go c.Start(ctx, 30*time.Second)
	}
	go svcHealth.Start(ctx, 30*time.Second)

	// -------- Router & Server ---------------
	router := api.NewRouter(api.Deps{
		Service:   svc,
		Monitors:  []*quota.Monitor{areas.Sync, areas.Local},
		IsHealthy: svcHealth.IsHealthy,
	})
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("Server exited")
}
