package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the configuration flags on fs, using the values
// already in config as defaults, so a parsed flag overrides every earlier
// layer.
//
// -c/--config is registered here for help output only; the file itself is
// read by Load before flags are bound.
func BindFlags(fs *pflag.FlagSet, config *Config) {
	fs.StringP("config", "c", "", "path to JSON config file")

	fs.StringVar(&config.Backend, "backend", config.Backend, "hash store backend: redis, postgres, sqlite or memory")
	fs.StringVar(&config.RedisHost, "redis-host", config.RedisHost, "Redis host")
	fs.IntVar(&config.RedisPort, "redis-port", config.RedisPort, "Redis port")
	fs.IntVar(&config.RedisDB, "redis-db", config.RedisDB, "Redis database index")
	fs.StringVar(&config.RedisPassword, "redis-password", config.RedisPassword, "Redis password")
	fs.StringVar(&config.DatabaseDSN, "dsn", config.DatabaseDSN, "PostgreSQL DSN")
	fs.StringVar(&config.SQLitePath, "sqlite-path", config.SQLitePath, "SQLite database file")

	fs.StringVar(&config.HashAlgorithm, "hash", config.HashAlgorithm, "hash algorithm for new credentials: argon2id or bcrypt")
	fs.IntVar(&config.BcryptCost, "bcrypt-cost", config.BcryptCost, "bcrypt cost")
	fs.Uint32Var(&config.Argon2Time, "argon2-time", config.Argon2Time, "argon2id passes")
	fs.Uint32Var(&config.Argon2MemoryKiB, "argon2-memory", config.Argon2MemoryKiB, "argon2id memory in KiB")
	fs.Uint8Var(&config.Argon2Threads, "argon2-threads", config.Argon2Threads, "argon2id lanes")

	fs.DurationVar(&config.OperationTimeout, "timeout", config.OperationTimeout, "backend operation timeout")
	fs.Float64Var(&config.VerifyRate, "verify-rate", config.VerifyRate, "verification attempts per second per subject (0 disables)")
	fs.IntVar(&config.VerifyBurst, "verify-burst", config.VerifyBurst, "verification attempt burst per subject")
	fs.BoolVar(&config.UseKeyring, "keyring", config.UseKeyring, "read the backend password from the OS keychain")

	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format: text or json")
}
