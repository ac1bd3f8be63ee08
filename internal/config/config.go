package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/efreitasn/simledger/internal/quote"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Quote providers accepted by QUOTE_PROVIDER.
const (
	ProviderStatic  = "static"
	ProviderAlpaca  = "alpaca"
	ProviderPolygon = "polygon"
)

// Config holds all runtime configuration for the ledger service.
type Config struct {
	Port            int
	LogLevel        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	WebhookTimeout  time.Duration

	QuoteProvider string
	QuoteTimeout  time.Duration
	QuoteCacheTTL time.Duration
	Alpaca        quote.AlpacaConfig
	PolygonAPIKey string
	StaticQuotes  map[string]decimal.Decimal

	StatePath             string
	FlushInterval         time.Duration
	DefaultInitialCapital decimal.Decimal
}

// Load reads configuration from an optional .env file and environment
// variables, applies defaults, and validates values. Variables already set
// in the environment take precedence over the .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	webhookTimeout, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	quoteTimeout, err := getDuration("QUOTE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTE_TIMEOUT: %w", err)
	}

	quoteCacheTTL, err := getDuration("QUOTE_CACHE_TTL", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTE_CACHE_TTL: %w", err)
	}

	flushInterval, err := getDuration("FLUSH_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid FLUSH_INTERVAL: %w", err)
	}
	if flushInterval <= 0 {
		return nil, fmt.Errorf("invalid FLUSH_INTERVAL: must be positive")
	}

	capital, err := domain.ParseAmount(getStr("DEFAULT_INITIAL_CAPITAL", "100000"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_INITIAL_CAPITAL: %w", err)
	}

	cfg := &Config{
		Port:            port,
		LogLevel:        logLevel,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
		WebhookTimeout:  webhookTimeout,
		QuoteProvider:   getStr("QUOTE_PROVIDER", ProviderStatic),
		QuoteTimeout:    quoteTimeout,
		QuoteCacheTTL:   quoteCacheTTL,
		Alpaca: quote.AlpacaConfig{
			APIKey:    os.Getenv("APCA_API_KEY_ID"),
			APISecret: os.Getenv("APCA_API_SECRET_KEY"),
			BaseURL:   os.Getenv("APCA_API_BASE_URL"),
			DataURL:   os.Getenv("APCA_DATA_URL"),
		},
		PolygonAPIKey:         os.Getenv("POLYGON_API_KEY"),
		StatePath:             getStr("STATE_PATH", "simledger.db"),
		FlushInterval:         flushInterval,
		DefaultInitialCapital: capital,
	}

	if err := cfg.validateProvider(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateProvider checks that the credentials of the selected quote
// provider are present. Keys of other providers are ignored.
func (c *Config) validateProvider() error {
	switch c.QuoteProvider {
	case ProviderStatic:
		prices, err := quote.ParseStatic(os.Getenv("STATIC_QUOTES"))
		if err != nil {
			return fmt.Errorf("invalid STATIC_QUOTES: %w", err)
		}
		c.StaticQuotes = prices
	case ProviderAlpaca:
		if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
			return fmt.Errorf("QUOTE_PROVIDER=alpaca requires APCA_API_KEY_ID and APCA_API_SECRET_KEY")
		}
	case ProviderPolygon:
		if c.PolygonAPIKey == "" {
			return fmt.Errorf("QUOTE_PROVIDER=polygon requires POLYGON_API_KEY")
		}
	default:
		return fmt.Errorf("invalid QUOTE_PROVIDER: %q, must be one of: static, alpaca, polygon", c.QuoteProvider)
	}
	return nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
