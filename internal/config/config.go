// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dukerupert/groceryswap/internal/foodfacts"
	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	FoodFacts foodfacts.Config

	// SearchRateLimit is the number of external-search requests allowed per
	// client per minute.
	SearchRateLimit int
}

// Load reads an optional .env file from the working directory, then the
// GROCERYSWAP_* environment variables. Variables already set in the
// environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset values.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := getenv("GROCERYSWAP_" + key); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:      get("PORT", "8080"),
		DBPath:    get("DB_PATH", "groceryswap.db"),
		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "text"),
		FoodFacts: foodfacts.Config{
			BaseURL:   get("OFF_BASE_URL", foodfacts.DefaultBaseURL),
			UserAgent: get("OFF_USER_AGENT", foodfacts.DefaultUserAgent),
		},
	}

	var err error
	if cfg.FoodFacts.PageSize, err = positiveInt(get("OFF_PAGE_SIZE", strconv.Itoa(foodfacts.DefaultPageSize))); err != nil {
		return Config{}, fmt.Errorf("GROCERYSWAP_OFF_PAGE_SIZE: %w", err)
	}
	if cfg.FoodFacts.Timeout, err = time.ParseDuration(get("OFF_TIMEOUT", foodfacts.DefaultTimeout.String())); err != nil {
		return Config{}, fmt.Errorf("GROCERYSWAP_OFF_TIMEOUT: %w", err)
	}
	if cfg.FoodFacts.Timeout <= 0 {
		return Config{}, fmt.Errorf("GROCERYSWAP_OFF_TIMEOUT: must be positive")
	}
	if cfg.FoodFacts.Format, err = foodfacts.ParseFormat(get("OFF_FORMAT", "json")); err != nil {
		return Config{}, fmt.Errorf("GROCERYSWAP_OFF_FORMAT: %w", err)
	}
	if cfg.SearchRateLimit, err = positiveInt(get("SEARCH_RATE_LIMIT", "30")); err != nil {
		return Config{}, fmt.Errorf("GROCERYSWAP_SEARCH_RATE_LIMIT: %w", err)
	}
	return cfg, nil
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
