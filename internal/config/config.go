package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	ServiceName    = "bloodbank"
	ServiceVersion = "0.1.0"
)

const (
	DefaultDBPath = "bloodbank.sqlite3"
	DefaultAddr   = ":8080"
)

// Environment variables read by Load.
const (
	EnvDBPath       = "BLOODBANK_DB"
	EnvAddr         = "BLOODBANK_ADDR"
	EnvJWTSecret    = "BLOODBANK_JWT_SECRET"
	EnvLogFile      = "BLOODBANK_LOG_FILE"
	EnvOtelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

type Config struct {
	DBPath string
	Addr   string
	// JWTSecret is optional. When empty the secret stored in the database is used.
	JWTSecret string
	LogFile   string
	// OtelEndpoint enables trace export when set.
	OtelEndpoint string
}

// Load reads the given .env files (".env" when none are named) into the
// process environment and builds a Config from it. Missing files are skipped.
// Variables already set in the environment take precedence over the files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return &Config{
		DBPath:       getenv(EnvDBPath, DefaultDBPath),
		Addr:         getenv(EnvAddr, DefaultAddr),
		JWTSecret:    os.Getenv(EnvJWTSecret),
		LogFile:      os.Getenv(EnvLogFile),
		OtelEndpoint: os.Getenv(EnvOtelEndpoint),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
