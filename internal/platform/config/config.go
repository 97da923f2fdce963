package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"idledger/internal/ledger/models"
)

// EnvPrefix scopes environment overrides, e.g. IDLEDGER_SERVER_ADDR.
const EnvPrefix = "idledger"

// Ledger store backends.
const (
	StoreMemory   = "memory"
	StoreBadger   = "badger"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Audit sinks.
const (
	AuditNone     = "none"
	AuditMemory   = "memory"
	AuditKafka    = "kafka"
	AuditPostgres = "postgres"
)

// DefaultSigningKey is public. Validate accepts it only with the memory store.
const DefaultSigningKey = "dev-secret-key-change-in-production"

// Config is the full process configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Ledger   Ledger   `yaml:"ledger"`
	Badger   Badger   `yaml:"badger"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Audit    Audit    `yaml:"audit"`
	Kafka    Kafka    `yaml:"kafka"`
	Auth     Auth     `yaml:"auth"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout" split_words:"true"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"   split_words:"true"`
}

type Ledger struct {
	Store     string        `yaml:"store"`
	GuardMode string        `yaml:"guardMode" split_words:"true"`
	TxTimeout time.Duration `yaml:"txTimeout" split_words:"true"`
}

// Badger is the embedded store. An empty DataDir keeps it in memory.
type Badger struct {
	DataDir    string        `yaml:"dataDir"    split_words:"true"`
	GCInterval time.Duration `yaml:"gcInterval" split_words:"true"`
}

type Redis struct {
	URL          string        `yaml:"url"`
	KeyPrefix    string        `yaml:"keyPrefix"    split_words:"true"`
	PoolSize     int           `yaml:"poolSize"     split_words:"true"`
	MinIdleConns int           `yaml:"minIdleConns" split_words:"true"`
	DialTimeout  time.Duration `yaml:"dialTimeout"  split_words:"true"`
	ReadTimeout  time.Duration `yaml:"readTimeout"  split_words:"true"`
	WriteTimeout time.Duration `yaml:"writeTimeout" split_words:"true"`
	// TxRetries bounds reruns of an apply that loses a WATCH race.
	TxRetries    int           `yaml:"txRetries"    split_words:"true"`
}

type Postgres struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"maxOpenConns" split_words:"true"`
}

// Audit selects where mutation events go. Buffer > 0 publishes asynchronously.
type Audit struct {
	Sink   string `yaml:"sink"`
	Buffer int    `yaml:"buffer"`
}

type Kafka struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replicationFactor" split_words:"true"`
}

type Auth struct {
	SigningKey string        `yaml:"signingKey" split_words:"true"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	TokenTTL   time.Duration `yaml:"tokenTTL"   envconfig:"TOKEN_TTL"`
	// AdminToken enables the operator audit endpoints when set.
	AdminToken string `yaml:"adminToken" split_words:"true"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Metrics struct {
	Addr string `yaml:"addr"`
}

type ctxKey string

const configContextKey ctxKey = "idledger.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Default returns a configuration that runs a single in-memory node.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Ledger: Ledger{
			Store:     StoreMemory,
			GuardMode: string(models.GuardModeLegacy),
			TxTimeout: 5 * time.Second,
		},
		Badger: Badger{
			GCInterval: 5 * time.Minute,
		},
		Redis: Redis{
			KeyPrefix:    "idledger:",
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			TxRetries:    5,
		},
		Postgres: Postgres{
			MaxOpenConns: 10,
		},
		Audit: Audit{
			Sink:   AuditMemory,
			Buffer: 256,
		},
		Kafka: Kafka{
			Topic:             "idledger.audit",
			Partitions:        1,
			ReplicationFactor: 1,
		},
		Auth: Auth{
			SigningKey: DefaultSigningKey,
			Issuer:     "idledger",
			Audience:   "idledger-ledger",
			TokenTTL:   time.Hour,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Metrics: Metrics{
			Addr: ":9090",
		},
	}
}

// Load layers an optional YAML file and then the environment over Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GuardMode returns the parsed ledger guard mode.
func (c *Config) GuardMode() (models.GuardMode, error) {
	return models.ParseGuardMode(c.Ledger.GuardMode)
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{StoreMemory, StoreBadger, StoreRedis, StorePostgres}, c.Ledger.Store) {
		errs = append(errs, fmt.Errorf("ledger.store %q is not one of memory, badger, redis, postgres", c.Ledger.Store))
	}
	if _, err := c.GuardMode(); err != nil {
		errs = append(errs, fmt.Errorf("ledger.guardMode: %w", err))
	}
	if !slices.Contains([]string{AuditNone, AuditMemory, AuditKafka, AuditPostgres}, c.Audit.Sink) {
		errs = append(errs, fmt.Errorf("audit.sink %q is not one of none, memory, kafka, postgres", c.Audit.Sink))
	}
	if c.Audit.Buffer < 0 {
		errs = append(errs, errors.New("audit.buffer must not be negative"))
	}
	if c.Ledger.Store == StoreRedis && c.Redis.URL == "" {
		errs = append(errs, errors.New("redis.url is required for the redis store"))
	}
	if (c.Ledger.Store == StorePostgres || c.Audit.Sink == AuditPostgres) && c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required for the postgres store or audit sink"))
	}
	if c.Audit.Sink == AuditKafka && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required for the kafka audit sink"))
	}
	switch {
	case c.Auth.SigningKey == "":
		errs = append(errs, errors.New("auth.signingKey is required"))
	case c.Auth.SigningKey == DefaultSigningKey && c.Ledger.Store != StoreMemory:
		errs = append(errs, fmt.Errorf("auth.signingKey must be set for the %s store; the default key is public", c.Ledger.Store))
	}
	return errors.Join(errs...)
}
