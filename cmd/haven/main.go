package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/antoniostano/haven/internal/config"
	"github.com/antoniostano/haven/internal/genclient"
	"github.com/antoniostano/haven/internal/httpapi"
	"github.com/antoniostano/haven/internal/observability"
	"github.com/antoniostano/haven/internal/orchestrator"
	"github.com/antoniostano/haven/internal/store"
	"github.com/antoniostano/haven/internal/workflow"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	st, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if cfg.DatabaseURL == "" {
		log.Info().Msg("store: in-memory (set DATABASE_URL for postgres persistence)")
	} else {
		log.Info().Msg("store: postgres")
	}

	client, err := genclient.New(ctx, genclient.Config{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("generation client init failed")
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "mock"
	}
	log.Info().Str("provider", provider).Str("model", cfg.Model).Msg("generation client ready")

	wf, err := workflow.NewFromClient(client, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("workflow init failed")
	}

	sessions := orchestrator.NewManager(wf, st, metrics)

	api := httpapi.New(cfg, sessions, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Info().Str("addr", cfg.BindAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	log.Info().Msg("shutdown complete")
}
