package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Nova Poshta (behind the storefront backend's carrier proxy)
	NovaPoshtaAuthToken string `envconfig:"NOVAPOSHTA_AUTH_TOKEN"`
	NovaPoshtaBaseURL   string `envconfig:"NOVAPOSHTA_BASE_URL" default:"https://api.kramstore.ua/novaposhta"`
	NovaPoshtaEnabled   bool   `envconfig:"NOVAPOSHTA_ENABLED" default:"true"`
	NovaPoshtaUseMock   bool   `envconfig:"NOVAPOSHTA_USE_MOCK" default:"false"`

	// Session store
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	// Delivery flow
	SearchDebounce time.Duration `envconfig:"SEARCH_DEBOUNCE" default:"500ms"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.observability.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"kram-delivery"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("novaposhta.enabled", c.NovaPoshtaEnabled),
		attribute.Bool("novaposhta.mock", c.NovaPoshtaUseMock),
	}
}
