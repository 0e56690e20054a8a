package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	SearchProviderFMP     = "fmp"
	SearchProviderFinnhub = "finnhub"
)

// Config is read once at startup and passed down explicitly. Nothing else
// in the service reads the environment.
type Config struct {
	// Server
	Port             int
	CORSAllowOrigin  string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	MaxUploadBytes   int64

	// Providers
	FMPAPIKey       string
	FMPBaseURL      string
	FinnhubAPIKey   string
	FinnhubBaseURL  string
	SearchProvider  string
	UpstreamTimeout time.Duration

	// Optional chart audit log
	DatabaseURL string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             envInt("PORT", 3001),
		CORSAllowOrigin:  envStr("CORS_ALLOW_ORIGIN", "*"),
		HTTPReadTimeout:  envDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: envDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		MaxUploadBytes:   int64(envInt("MAX_UPLOAD_BYTES", 10<<20)),

		FMPAPIKey:       envStr("FMP_API_KEY", ""),
		FMPBaseURL:      envStr("FMP_BASE_URL", ""),
		FinnhubAPIKey:   envStr("FINNHUB_API_KEY", ""),
		FinnhubBaseURL:  envStr("FINNHUB_BASE_URL", ""),
		SearchProvider:  strings.ToLower(envStr("SEARCH_PROVIDER", SearchProviderFMP)),
		UpstreamTimeout: envDuration("UPSTREAM_TIMEOUT", 10*time.Second),

		DatabaseURL: envStr("DATABASE_URL", ""),

		LogLevel:  strings.ToLower(envStr("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(envStr("LOG_FORMAT", "console")),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT %d out of range", c.Port))
	}
	if c.FMPAPIKey == "" {
		errs = append(errs, "FMP_API_KEY is required")
	}
	switch c.SearchProvider {
	case SearchProviderFMP:
	case SearchProviderFinnhub:
		if c.FinnhubAPIKey == "" {
			errs = append(errs, "FINNHUB_API_KEY is required when SEARCH_PROVIDER=finnhub")
		}
	default:
		errs = append(errs, fmt.Sprintf("SEARCH_PROVIDER must be %q or %q, got %q",
			SearchProviderFMP, SearchProviderFinnhub, c.SearchProvider))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, "UPSTREAM_TIMEOUT must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, "MAX_UPLOAD_BYTES must be positive")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be console or json, got %q", c.LogFormat))
	}

	if c.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, chart snapshots will not be recorded")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Print logs the effective configuration with secrets masked.
func (c *Config) Print() {
	log.Info().
		Int("port", c.Port).
		Str("cors_origin", c.CORSAllowOrigin).
		Str("search_provider", c.SearchProvider).
		Str("fmp_api_key", mask(c.FMPAPIKey)).
		Str("finnhub_api_key", mask(c.FinnhubAPIKey)).
		Dur("upstream_timeout", c.UpstreamTimeout).
		Str("recorder", boolLabel(c.DatabaseURL != "", "postgres", "disabled")).
		Str("log_level", c.LogLevel).
		Msg("configuration loaded")
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func mask(secret string) string {
	switch {
	case secret == "":
		return "not set"
	case len(secret) <= 4:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
