package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "EXTKEEPER_"

// loadDotenv is a seam for tests; godotenv never overrides variables that are
// already set in the process environment.
var loadDotenv = func() error { return godotenv.Load() }

// parseEnv overlays EXTKEEPER_* environment variables onto config. A missing
// .env file is fine; a malformed value is an error.
func parseEnv(config *Config) error {
	if err := loadDotenv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	envString("BACKEND", &config.Backend)
	envString("REDIS_HOST", &config.RedisHost)
	envString("REDIS_PASSWORD", &config.RedisPassword)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SQLITE_PATH", &config.SQLitePath)
	envString("HASH", &config.HashAlgorithm)
	envString("LOG_LEVEL", &config.LogLevel)

	if err := envInt("REDIS_PORT", &config.RedisPort); err != nil {
		return err
	}
	if err := envInt("REDIS_DB", &config.RedisDB); err != nil {
		return err
	}

	if v, ok := os.LookupEnv(envPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", envPrefix, err)
		}
		config.OperationTimeout = d
	}

	return nil
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) error {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = n
	return nil
}
