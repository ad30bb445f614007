package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = ":9090"

	defaultFetchTimeout = 120 * time.Second
)

// Config holds the process-wide settings. ServiceAccountEmail and
// ServiceAccountKey are the fallback credential used when a fetch request
// supplies none of its own; both empty means the public export path.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	ServiceAccountEmail string
	ServiceAccountKey   string

	FetchTimeout time.Duration
}

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		HTTPAddr:            getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:         getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		ServiceAccountEmail: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL")),
		ServiceAccountKey:   strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_KEY")),
		FetchTimeout:        defaultFetchTimeout,
	}

	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.FetchTimeout = d
		}
	}

	// A half-configured credential is a deployment mistake, not something to
	// silently degrade into the public export path.
	if (cfg.ServiceAccountEmail == "") != (cfg.ServiceAccountKey == "") {
		return cfg, errors.New("GOOGLE_SERVICE_ACCOUNT_EMAIL and GOOGLE_SERVICE_ACCOUNT_KEY must be set together")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
