package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Data source
	SQLitePath   string
	MinMarketCap float64

	// Backtest parameters
	Strategy   string
	RSIPeriod  int
	SMAPeriods string // comma-separated SMA periods, e.g. "100,200"
	Workers    int

	// Observability
	MetricsAddr string // empty = no metrics listener
	LogLevel    string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		SQLitePath:   getEnv("SQLITE_PATH", "data/sample_stocks.db"),
		MinMarketCap: getEnvFloat("MIN_MARKET_CAP", 10e9),

		Strategy:   getEnv("STRATEGY", "RSI_SMA"),
		RSIPeriod:  getEnvInt("RSI_PERIOD", 10),
		SMAPeriods: getEnv("SMA_PERIODS", "100,200"),
		Workers:    getEnvInt("WORKERS", 4),

		MetricsAddr: getEnv("METRICS_ADDR", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

// ParseSMAPeriods parses the SMAPeriods string into a slice of positive periods.
func (c *Config) ParseSMAPeriods() []int {
	parts := strings.Split(c.SMAPeriods, ",")
	periods := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			log.Printf("[config] skipping invalid SMA period: %q", p)
			continue
		}
		periods = append(periods, n)
	}
	return periods
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}
