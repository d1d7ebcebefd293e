package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

type Config struct {
	Env              string
	LogLevel         string
	BaseURL          string
	Timeout          time.Duration
	Proxies          map[string]string
	CredentialSource string
	DefaultRegion    string
	ReprovisionCron  string
}

// Load reads an optional .env file followed by the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeoutSecs, err := getInt("TELSTRA_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	if timeoutSecs <= 0 {
		return nil, errors.Newf("TELSTRA_TIMEOUT_SECONDS must be positive, got %d", timeoutSecs)
	}

	cfg := &Config{
		Env:              getString("APP_ENV", "development"),
		LogLevel:         getString("LOG_LEVEL", "info"),
		BaseURL:          getString("TELSTRA_BASE_URL", "https://tapi.telstra.com/v2"),
		Timeout:          time.Duration(timeoutSecs) * time.Second,
		Proxies:          map[string]string{},
		CredentialSource: getString("TELSTRA_CREDENTIAL_SOURCE", "auto"),
		DefaultRegion:    getString("DEFAULT_REGION", "AU"),
		ReprovisionCron:  getString("REPROVISION_SCHEDULE", "0 3 * * *"),
	}

	if proxy := getString("TELSTRA_HTTP_PROXY", ""); proxy != "" {
		cfg.Proxies["http"] = proxy
	}
	if proxy := getString("TELSTRA_HTTPS_PROXY", ""); proxy != "" {
		cfg.Proxies["https"] = proxy
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value := getString(key, "")
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid integer for %s", key)
	}
	return n, nil
}
