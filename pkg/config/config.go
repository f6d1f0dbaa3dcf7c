// Package config loads albumdb configuration from a YAML file with
// environment-variable overrides. Every field has a default, so an empty path
// yields a runnable local configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store strategy names accepted by catalog.strategy.
const (
	StrategyCombined  = "combined"
	StrategyNested    = "nested"
	StrategyFlattened = "flattened"
)

// Record source names accepted by catalog.source.
const (
	SourceGenerated = "generated"
	SourceKafka     = "kafka"
	SourcePostgres  = "postgres"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Bench    BenchConfig    `yaml:"bench"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
}

// CatalogConfig selects the store layout and where its records come from.
type CatalogConfig struct {
	Strategy  string `yaml:"strategy"`
	Source    string `yaml:"source"`
	CacheSize int    `yaml:"cacheSize"`
}

// DatasetConfig shapes the generated record set.
type DatasetConfig struct {
	Albums          int `yaml:"albums"`
	TracksPerAlbum  int `yaml:"tracksPerAlbum"`
	ArtistsPerTrack int `yaml:"artistsPerTrack"`
}

// BenchConfig controls the benchmark harness.
type BenchConfig struct {
	LookupIterations int    `yaml:"lookupIterations"`
	ProbeAlbum       string `yaml:"probeAlbum"`
	ProbeTrack       int    `yaml:"probeTrack"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	Table           string        `yaml:"table"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds broker and topic settings for the record stream.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	DrainTimeout time.Duration `yaml:"drainTimeout"`
	BatchSize    int           `yaml:"batchSize"`
}

// RedisConfig holds the optional second-tier lookup cache settings.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  2 * time.Second,
		},
		Catalog: CatalogConfig{
			Strategy:  StrategyFlattened,
			Source:    SourceGenerated,
			CacheSize: 4096,
		},
		Dataset: DatasetConfig{
			Albums:          100,
			TracksPerAlbum:  10,
			ArtistsPerTrack: 1,
		},
		Bench: BenchConfig{
			LookupIterations: 10000,
			ProbeAlbum:       "Album 1",
			ProbeTrack:       5,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "albumdb",
			User:            "albumdb",
			Password:        "localdev",
			SSLMode:         "disable",
			Table:           "album_credits",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:      []string{"localhost:9092"},
			Topic:        "album-credits",
			DrainTimeout: 3 * time.Second,
			BatchSize:    500,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	switch c.Catalog.Strategy {
	case StrategyCombined, StrategyNested, StrategyFlattened:
	default:
		return fmt.Errorf("catalog.strategy %q: must be one of combined, nested, flattened", c.Catalog.Strategy)
	}
	switch c.Catalog.Source {
	case SourceGenerated, SourceKafka, SourcePostgres:
	default:
		return fmt.Errorf("catalog.source %q: must be one of generated, kafka, postgres", c.Catalog.Source)
	}
	if c.Dataset.Albums < 0 || c.Dataset.TracksPerAlbum < 0 || c.Dataset.ArtistsPerTrack < 0 {
		return fmt.Errorf("dataset sizes must not be negative")
	}
	if c.Bench.LookupIterations < 0 {
		return fmt.Errorf("bench.lookupIterations must not be negative")
	}
	return nil
}

// applyEnvOverrides reads ALBUMDB_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALBUMDB_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ALBUMDB_CATALOG_STRATEGY"); v != "" {
		cfg.Catalog.Strategy = strings.ToLower(v)
	}
	if v := os.Getenv("ALBUMDB_CATALOG_SOURCE"); v != "" {
		cfg.Catalog.Source = strings.ToLower(v)
	}
	if v := os.Getenv("ALBUMDB_DATASET_ALBUMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dataset.Albums = n
		}
	}
	if v := os.Getenv("ALBUMDB_DATASET_TRACKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dataset.TracksPerAlbum = n
		}
	}
	if v := os.Getenv("ALBUMDB_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("ALBUMDB_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("ALBUMDB_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("ALBUMDB_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("ALBUMDB_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("ALBUMDB_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("ALBUMDB_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("ALBUMDB_REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = enabled
		}
	}
	if v := os.Getenv("ALBUMDB_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ALBUMDB_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ALBUMDB_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ALBUMDB_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
