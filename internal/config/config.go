package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP     HTTPConfig
	Store    StoreConfig
	Graph    GraphConfig
	Events   EventsConfig
	Checkout CheckoutConfig
	Auth     AuthConfig
	Client   ClientConfig
	Logging  LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowedOriginsCSV string
}

// StoreConfig selects the data adapter backing the API.
type StoreConfig struct {
	Driver      string // memory|graph
	FixturePath string
}

// GraphConfig describes connectivity to the graph database (Neo4j).
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// EventsConfig configures the domain event sink. An empty broker list logs events instead.
type EventsConfig struct {
	Brokers    []string
	Topic      string
	BufferSize int
}

// CheckoutConfig holds the order-total constants.
type CheckoutConfig struct {
	ShippingFee  decimal.Decimal
	Currency     string
	KYCThreshold decimal.Decimal
}

// AuthConfig controls password hashing.
type AuthConfig struct {
	BcryptCost int
}

// ClientConfig drives the HTTP data adapter used by marketctl.
type ClientConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	DriverMemory = "memory"
	DriverGraph  = "graph"
)

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultEventsTopic      = "marketplace.events"
	defaultEventsBuffer     = 256
	defaultShippingFee      = 5000
	defaultCurrency         = "NGN"
	defaultKYCThreshold     = 500000
	defaultBcryptCost       = 10
	defaultClientBaseURL    = "http://localhost:8080"
	defaultClientTimeout    = 15 * time.Second
	defaultClientAttempts   = 3
	defaultClientBackoff    = 300 * time.Millisecond
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:              valueOrDefault("SERVER_HOST", defaultHost),
			AllowedOriginsCSV: os.Getenv("SERVER_ALLOWED_ORIGINS"),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(valueOrDefault("STORE_DRIVER", DriverMemory)),
			FixturePath: os.Getenv("STORE_FIXTURE"),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
		Events: EventsConfig{
			Brokers:    SplitCSV(os.Getenv("EVENTS_BROKERS")),
			Topic:      valueOrDefault("EVENTS_TOPIC", defaultEventsTopic),
			BufferSize: parseIntWithDefault("EVENTS_BUFFER", defaultEventsBuffer),
		},
		Checkout: CheckoutConfig{
			Currency: valueOrDefault("CHECKOUT_CURRENCY", defaultCurrency),
		},
		Auth: AuthConfig{
			BcryptCost: parseIntWithDefault("AUTH_BCRYPT_COST", defaultBcryptCost),
		},
		Client: ClientConfig{
			BaseURL:     strings.TrimRight(valueOrDefault("MARKET_API_URL", defaultClientBaseURL), "/"),
			MaxAttempts: parseIntWithDefault("MARKET_API_ATTEMPTS", defaultClientAttempts),
		},
	}

	switch cfg.Store.Driver {
	case DriverMemory, DriverGraph:
	default:
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", cfg.Store.Driver, DriverMemory, DriverGraph)
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key      string
		dst      *time.Duration
		fallback time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout, defaultReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout, defaultWriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout, defaultIdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout, defaultShutdownTimeout},
		{"MARKET_API_TIMEOUT", &cfg.Client.Timeout, defaultClientTimeout},
		{"MARKET_API_BACKOFF", &cfg.Client.BaseBackoff, defaultClientBackoff},
	}
	for _, d := range durations {
		v, err := parseDuration(d.key, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	if cfg.Checkout.ShippingFee, err = parseDecimal("CHECKOUT_SHIPPING_FEE", decimal.NewFromInt(defaultShippingFee)); err != nil {
		return Config{}, err
	}
	if cfg.Checkout.KYCThreshold, err = parseDecimal("CHECKOUT_KYC_THRESHOLD", decimal.NewFromInt(defaultKYCThreshold)); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SplitCSV splits a comma separated list, dropping blanks.
func SplitCSV(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
