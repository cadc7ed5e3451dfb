package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fittrack/backend/config"
	httpDelivery "github.com/fittrack/backend/internal/delivery/http"
	"github.com/fittrack/backend/internal/domain"
	"github.com/fittrack/backend/internal/infrastructure/memcache"
	"github.com/fittrack/backend/internal/infrastructure/nutritionix"
	"github.com/fittrack/backend/internal/infrastructure/openfoodfacts"
	"github.com/fittrack/backend/internal/infrastructure/postgres"
	"github.com/fittrack/backend/internal/infrastructure/usda"
	"github.com/fittrack/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg)
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("starting FitTrack backend v1.0.0")

	// Connect to the database and migrate the schema
	db, err := postgres.Open(cfg.Database.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}

	foodStore := postgres.NewFoodStore(db)
	entryStore := postgres.NewEntryStore(db)

	// Provider adapters in source-priority order: earlier adapters win
	// dedup ties and are asked first on barcode lookups.
	adapters := []domain.SourceAdapter{
		nutritionix.NewClient(cfg.Nutritionix.AppID, cfg.Nutritionix.AppKey, cfg.Nutritionix.BaseURL, logger),
		usda.NewClient(cfg.USDA.APIKey, cfg.USDA.BaseURL, logger),
	}
	if cfg.OpenFoodFacts.Enabled {
		adapters = append(adapters, openfoodfacts.NewClient(cfg.OpenFoodFacts.BaseURL, cfg.OpenFoodFacts.UserAgent, logger))
	}
	for _, a := range adapters {
		logger.Info().Str("adapter", a.Name()).Msg("provider adapter registered")
	}
	if cfg.Nutritionix.AppID == "" || cfg.Nutritionix.AppKey == "" {
		logger.Warn().Msg("Nutritionix credentials not configured, adapter will return empty results")
	}
	if cfg.USDA.APIKey == "" {
		logger.Warn().Msg("USDA API key not configured, adapter will return empty results")
	}

	// Initialize usecase layer
	memo := memcache.New(cfg.Aggregator.MemoTTL)
	aggregator := usecase.NewAggregator(foodStore, adapters, memo, usecase.AggregatorConfig{
		PerSourceFloor: cfg.Aggregator.PerSourceFloor,
		AdapterTimeout: cfg.Aggregator.AdapterTimeout,
	}, logger)
	diary := usecase.NewDiary(entryStore, logger)

	// Create HTTP handler and router
	handler := httpDelivery.NewHandler(aggregator, diary)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info().Str("addr", addr).Msg("server listening")

	if err := router.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Server.Environment == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}
