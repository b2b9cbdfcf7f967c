package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"HTTP_SERVER_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`      // e.g., debug, info, warn, error
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	Backend    BackendConfig
	Catalog    CatalogConfig
	Checkout   CheckoutConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port           string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite   time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
	AllowedOrigins []string      `envconfig:"HTTP_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DBNAME" required:"true"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

// BackendConfig holds the base URLs of the remote services. An empty URL is
// allowed; calls to that service then fail as not configured.
type BackendConfig struct {
	CatalogURL  string        `envconfig:"CATALOG_BASE_URL"`
	SearchURL   string        `envconfig:"SEARCH_BASE_URL"`
	CartURL     string        `envconfig:"CART_BASE_URL"`
	ShippingURL string        `envconfig:"SHIPPING_BASE_URL"`
	CartID      int64         `envconfig:"CART_ID" default:"1"`
	Timeout     time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`
}

// CatalogConfig names the attributes that play the variant roles.
type CatalogConfig struct {
	PrimaryAttribute   string        `envconfig:"CATALOG_PRIMARY_ATTRIBUTE" default:"Color"`
	SecondaryAttribute string        `envconfig:"CATALOG_SECONDARY_ATTRIBUTE" default:"Talla"`
	UnitAttribute      string        `envconfig:"CATALOG_UNIT_ATTRIBUTE" default:"Unidad de medida"`
	RetryInterval      time.Duration `envconfig:"CATALOG_RETRY_INTERVAL" default:"30s"`
	RefreshInterval    time.Duration `envconfig:"CATALOG_REFRESH_INTERVAL" default:"15m"`
}

// CheckoutConfig controls how long unconfirmed drafts are kept.
type CheckoutConfig struct {
	DraftTTL        time.Duration `envconfig:"CHECKOUT_DRAFT_TTL" default:"24h"`
	CleanupInterval time.Duration `envconfig:"CHECKOUT_CLEANUP_INTERVAL" default:"1h"`
}

var cfg Config

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	log.Println("Loading service configuration...")
	var loaded Config
	if err := envconfig.Process("", &loaded); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if loaded.Checkout.CleanupInterval <= 0 {
		return nil, fmt.Errorf("invalid CHECKOUT_CLEANUP_INTERVAL: %s", loaded.Checkout.CleanupInterval)
	}
	cfg = loaded

	log.Printf("Configuration loaded successfully for APP_ENV: %s", cfg.AppEnv)
	return &cfg, nil
}

// Get returns the loaded configuration.
// Exits if Load() has not been called successfully.
func Get() *Config {
	if cfg.Postgres.Host == "" { // Simple check to see if cfg is populated
		log.Fatal("Configuration has not been loaded. Call config.Load() first.")
	}
	return &cfg
}
