package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageBadger   = "badger"
)

type Config struct {
	StorageType string
	HTTP        HTTPConfig
	Log         LogConfig
	Feed        FeedConfig
	Postgres    PostgresConfig
	Badger      BadgerConfig
}

type HTTPConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type FeedConfig struct {
	DemoUsername   string
	TreeCacheSize  int
	GIFCatalogPath string
}

type PostgresConfig struct {
	User     string
	Password string
	DB       string
	Host     string
	Port     int
	SSLMode  string
}

func (pc PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pc.User,
		pc.Password,
		pc.Host,
		pc.Port,
		pc.DB,
		pc.SSLMode,
	)
}

type BadgerConfig struct {
	Path       string
	GCInterval time.Duration
}

// LoadConfig reads the configuration from the environment. It panics when a
// required variable is missing or malformed.
func LoadConfig() Config {
	storageType := getEnv("STORAGE_TYPE", StorageMemory)

	cfg := Config{
		StorageType: storageType,
		HTTP: HTTPConfig{
			Port:            getEnv("HTTP_PORT", "8080"),
			ShutdownTimeout: time.Duration(getInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Feed: FeedConfig{
			DemoUsername:   getEnv("DEMO_USERNAME", "demo_user"),
			TreeCacheSize:  getInt("TREE_CACHE_SIZE", 256),
			GIFCatalogPath: os.Getenv("GIF_CATALOG_PATH"),
		},
	}

	switch storageType {
	case StorageMemory:
	case StoragePostgres:
		cfg.Postgres = PostgresConfig{
			User:     mustGetEnv("POSTGRES_USER"),
			Password: mustGetEnv("POSTGRES_PASSWORD"),
			DB:       mustGetEnv("POSTGRES_DB"),
			Host:     mustGetEnv("POSTGRES_HOST"),
			Port:     mustGetInt("POSTGRES_PORT"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		}
	case StorageBadger:
		cfg.Badger = BadgerConfig{
			Path:       mustGetEnv("BADGER_PATH"),
			GCInterval: time.Duration(getInt("BADGER_GC_INTERVAL_SECONDS", 300)) * time.Second,
		}
	default:
		panic("unknown STORAGE_TYPE: " + storageType)
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("missing required env var: " + key)
	}
	return val
}

func mustGetInt(key string) int {
	val := mustGetEnv(key)
	i, err := strconv.Atoi(val)
	if err != nil {
		panic("invalid int for env var " + key + ": " + val)
	}
	return i
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	if os.Getenv(key) == "" {
		return def
	}
	return mustGetInt(key)
}
