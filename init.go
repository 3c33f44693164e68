package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"

	"github.com/kramstore/delivery/internal/config"
	"github.com/kramstore/delivery/internal/selection"
	"github.com/kramstore/delivery/internal/telemetry"
	"github.com/kramstore/delivery/pkg/carrier"
	"github.com/kramstore/delivery/pkg/carrier/novaposhta"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel, cfg.ServiceName)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

func initCarrierRegistry(cfg *config.Config, logger *otelzap.Logger) *carrier.Registry {
	registry := carrier.NewRegistry()

	var tracer trace.Tracer
	// tracer would be initialized from otel.GetTracerProvider().Tracer(cfg.ServiceName)

	if cfg.NovaPoshtaEnabled {
		np := novaposhta.New(novaposhta.Config{
			BaseURL:   cfg.NovaPoshtaBaseURL,
			AuthToken: cfg.NovaPoshtaAuthToken,
			UseMock:   cfg.NovaPoshtaUseMock,
		}, logger, tracer)
		registry.Register(np)
	}

	return registry
}

// initSelectionStore prefers Redis when configured and falls back to the
// in-process store for single-instance development runs.
func initSelectionStore(cfg *config.Config) selection.Store {
	if cfg.RedisAddr == "" {
		return selection.NewMemoryStore(cfg.SessionTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return selection.NewRedisStore(client, cfg.SessionTTL)
}
