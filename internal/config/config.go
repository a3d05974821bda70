package config

import (
	"os"
	"strconv"

	"github.com/Simplici0/laserquote/internal/logging"
	"github.com/Simplici0/laserquote/internal/store"
)

const (
	envDev = "dev"

	defaultDBPath      = "./laserquote.db"
	defaultPort        = "8080"
	defaultRedisAddr   = "localhost:6379"
	defaultRedisPrefix = "laserquote:"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env          string
	Port         string
	DBPath       string
	CatalogPath  string
	KVBackend    string
	RedisAddr    string
	RedisPrefix  string
	HistoryLimit int
	RateLimit    float64
	RateBurst    int
	Logging      logging.Config
}

// IsDev reports whether the process runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == envDev
}

// StoreOptions returns the key/value store options. DB is left for the caller.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.KVBackend,
		RedisAddr:   c.RedisAddr,
		RedisPrefix: c.RedisPrefix,
	}
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Local development convenience; production injects real environment variables.
	_ = loadDotEnv(".env")

	logCfg := logging.DefaultConfig()
	logCfg.Level = getenv("LOG_LEVEL", logCfg.Level)
	logCfg.Format = getenv("LOG_FORMAT", logCfg.Format)
	logCfg.Output = getenv("LOG_OUTPUT", logCfg.Output)

	env := getenv("APP_ENV", envDev)
	logCfg.Development = env == envDev

	return Config{
		Env:          env,
		Port:         getenv("PORT", defaultPort),
		DBPath:       getenv("DB_PATH", defaultDBPath),
		CatalogPath:  os.Getenv("CATALOG_PATH"),
		KVBackend:    getenv("KV_BACKEND", store.BackendSQLite),
		RedisAddr:    getenv("REDIS_ADDR", defaultRedisAddr),
		RedisPrefix:  getenv("REDIS_PREFIX", defaultRedisPrefix),
		HistoryLimit: atoienv("HISTORY_LIMIT", 0),
		RateLimit:    floatenv("API_RATE_LIMIT", 10),
		RateBurst:    atoienv("API_RATE_BURST", 20),
		Logging:      logCfg,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func floatenv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}
