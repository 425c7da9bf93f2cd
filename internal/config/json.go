package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/extkeeper/internal/flagx"
	"github.com/dmitrijs2005/extkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. OperationTimeout uses
// timex.Duration so both "5s" and integer nanoseconds are accepted.
type JsonConfig struct {
	Backend          string         `json:"backend"`
	RedisHost        string         `json:"redis_host"`
	RedisPort        int            `json:"redis_port"`
	RedisDB          int            `json:"redis_db"`
	RedisPassword    string         `json:"redis_password"`
	DatabaseDSN      string         `json:"database_dsn"`
	SQLitePath       string         `json:"sqlite_path"`
	HashAlgorithm    string         `json:"hash_algorithm"`
	BcryptCost       int            `json:"bcrypt_cost"`
	Argon2Time       uint32         `json:"argon2_time"`
	Argon2MemoryKiB  uint32         `json:"argon2_memory_kib"`
	Argon2Threads    uint8          `json:"argon2_threads"`
	OperationTimeout timex.Duration `json:"operation_timeout"`
	VerifyRate       float64        `json:"verify_rate"`
	VerifyBurst      int            `json:"verify_burst"`
	UseKeyring       bool           `json:"use_keyring"`
	LogLevel         string         `json:"log_level"`
	LogFormat        string         `json:"log_format"`
}

// parseJson overlays the JSON file named by -c/--config in args onto config.
// Keys missing from the file keep their current values. No path means
// nothing to load.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	fromJson(c, config)

	return nil
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		Backend:          c.Backend,
		RedisHost:        c.RedisHost,
		RedisPort:        c.RedisPort,
		RedisDB:          c.RedisDB,
		RedisPassword:    c.RedisPassword,
		DatabaseDSN:      c.DatabaseDSN,
		SQLitePath:       c.SQLitePath,
		HashAlgorithm:    c.HashAlgorithm,
		BcryptCost:       c.BcryptCost,
		Argon2Time:       c.Argon2Time,
		Argon2MemoryKiB:  c.Argon2MemoryKiB,
		Argon2Threads:    c.Argon2Threads,
		OperationTimeout: timex.Duration{Duration: c.OperationTimeout},
		VerifyRate:       c.VerifyRate,
		VerifyBurst:      c.VerifyBurst,
		UseKeyring:       c.UseKeyring,
		LogLevel:         c.LogLevel,
		LogFormat:        c.LogFormat,
	}
}

func fromJson(j *JsonConfig, c *Config) {
	c.Backend = j.Backend
	c.RedisHost = j.RedisHost
	c.RedisPort = j.RedisPort
	c.RedisDB = j.RedisDB
	c.RedisPassword = j.RedisPassword
	c.DatabaseDSN = j.DatabaseDSN
	c.SQLitePath = j.SQLitePath
	c.HashAlgorithm = j.HashAlgorithm
	c.BcryptCost = j.BcryptCost
	c.Argon2Time = j.Argon2Time
	c.Argon2MemoryKiB = j.Argon2MemoryKiB
	c.Argon2Threads = j.Argon2Threads
	c.OperationTimeout = j.OperationTimeout.Duration
	c.VerifyRate = j.VerifyRate
	c.VerifyBurst = j.VerifyBurst
	c.UseKeyring = j.UseKeyring
	c.LogLevel = j.LogLevel
	c.LogFormat = j.LogFormat
}
