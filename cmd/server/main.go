package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/opsintel/backend/internal/ai"
	"github.com/opsintel/backend/internal/config"
	"github.com/opsintel/backend/internal/db"
	httpapi "github.com/opsintel/backend/internal/http"
	"github.com/opsintel/backend/internal/http/handlers"
	"github.com/opsintel/backend/internal/session"
	"github.com/opsintel/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := log.Level(level).With().Str("service", "opsintel-backend").Logger()

	ctx := context.Background()

	var analyzer ai.Analyzer
	if cfg.AIAPIKey == "" {
		analyzer = ai.MockAnalyzer{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock analyzer")
	} else {
		analyzer = ai.NewOpenAIAnalyzer(ai.OpenAIConfig{
			APIKey:    cfg.AIAPIKey,
			BaseURL:   cfg.AIBaseURL,
			Model:     cfg.AIModel,
			MaxTokens: cfg.AIMaxTokens,
			Timeout:   cfg.RequestTimeout,
		})
		logger.Info().Str("model", cfg.AIModel).Msg("using openai analyzer")
	}

	opts := session.Options{
		Analyzer:         analyzer,
		Logger:           logger,
		ProgressInterval: cfg.ProgressInterval,
	}

	var archive handlers.Archive
	if cfg.DatabaseURL != "" {
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect db")
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare archive schema")
		}
		opts.Archive = store
		archive = store
		logger.Info().Msg("result archive enabled")
	}

	var exports handlers.Publisher
	if cfg.Export.Enabled() {
		s3, err := storage.New(ctx, cfg.Export.Endpoint, cfg.Export.Region, cfg.Export.Bucket, cfg.Export.AccessKey, cfg.Export.SecretKey, cfg.Export.UseSSL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect export bucket")
		}
		exports = s3
		logger.Info().Str("bucket", cfg.Export.Bucket).Msg("export publishing enabled")
	}

	ctrl := session.New(opts)
	router := httpapi.Router(cfg, ctrl, archive, exports, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	if err := ctrl.Wait(ctxShutdown); err != nil {
		logger.Warn().Err(err).Msg("aborting in-flight analyses")
	}
	ctrl.Close()
	logger.Info().Msg("server stopped")
}
