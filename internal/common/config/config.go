// filename: internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/novasec/engine/internal/common/ch"
	"github.com/novasec/engine/internal/common/logging"
	"github.com/novasec/engine/internal/common/nats"
	"github.com/novasec/engine/internal/common/pg"
	"github.com/novasec/engine/internal/common/tls"
)

// EnvPrefix префикс переменных окружения: NOVASEC_ROUTER_WORKERS и т.п.
const EnvPrefix = "NOVASEC"

// Config основная конфигурация движка
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	NATS       NATSConfig       `mapstructure:"nats"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	PostgreSQL pg.Config        `mapstructure:"postgresql"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Logging    logging.Config   `mapstructure:"logging"`
	TLS        tls.Config       `mapstructure:"tls"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Router     RouterConfig     `mapstructure:"router"`
	KVDB       KVDBConfig       `mapstructure:"kvdb"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	API        APIConfig        `mapstructure:"api"`
}

// ServerConfig конфигурация HTTP сервера admin API
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"` // запросов в минуту с IP; 0 отключает
	RateLimitBlock time.Duration `mapstructure:"rate_limit_block"`
}

// NATSConfig поток событий; выключен по умолчанию
type NATSConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	nats.Config `mapstructure:",squash"`
}

// ClickHouseConfig хранилище обработанных событий; выключено по умолчанию
type ClickHouseConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	ch.Config     `mapstructure:",squash"`
}

// RedisConfig конфигурация Redis для kvdb
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CatalogConfig источник описаний ассетов
type CatalogConfig struct {
	Backend     string        `mapstructure:"backend"`
	Path        string        `mapstructure:"path"`
	Environment string        `mapstructure:"environment"`
	Watch       bool          `mapstructure:"watch"`
	Debounce    time.Duration `mapstructure:"debounce"`
}

// RouterConfig пул обработчиков и субъекты NATS
type RouterConfig struct {
	Workers       int    `mapstructure:"workers"`
	QueueSize     int    `mapstructure:"queue_size"`
	InputSubject  string `mapstructure:"input_subject"`
	OutputSubject string `mapstructure:"output_subject"`
	QueueGroup    string `mapstructure:"queue_group"`
	OnlyMatched   bool   `mapstructure:"only_matched"`
}

// KVDBConfig хранилище ключ-значение для хелперов kvdb_*
type KVDBConfig struct {
	Backend   string        `mapstructure:"backend"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// MetricsConfig имена метрик Prometheus
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
}

// APIConfig доступ к admin API. Пустой хэш отключает проверку ключа
type APIConfig struct {
	APIKeyHash string `mapstructure:"api_key_hash"`
}

// Бэкенды каталога и kvdb
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// LoadConfig загружает конфигурацию: значения по умолчанию, затем файл
// (если путь не пуст), затем переменные окружения NOVASEC_* // v1.0
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults значения по умолчанию. Каждый ключ должен иметь значение,
// иначе AutomaticEnv не увидит переменную при Unmarshal // v1.0
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_limit_block", "1m")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.urls", []string{"nats://localhost:4222"})
	v.SetDefault("nats.client_id", "novasec-engine")
	v.SetDefault("nats.credentials", "")
	v.SetDefault("nats.jwt", "")
	v.SetDefault("nats.nkey_seed", "")
	v.SetDefault("nats.timeout", "5s")

	v.SetDefault("clickhouse.enabled", false)
	v.SetDefault("clickhouse.hosts", []string{"localhost"})
	v.SetDefault("clickhouse.database", "novasec")
	v.SetDefault("clickhouse.username", "default")
	v.SetDefault("clickhouse.password", "")
	v.SetDefault("clickhouse.port", 9000)
	v.SetDefault("clickhouse.compress", true)
	v.SetDefault("clickhouse.max_open", 10)
	v.SetDefault("clickhouse.max_idle", 5)
	v.SetDefault("clickhouse.timeout", "30s")
	v.SetDefault("clickhouse.table", "processed_events")
	v.SetDefault("clickhouse.batch_size", 500)
	v.SetDefault("clickhouse.flush_interval", "1s")

	v.SetDefault("postgresql.host", "localhost")
	v.SetDefault("postgresql.port", 5432)
	v.SetDefault("postgresql.database", "novasec")
	v.SetDefault("postgresql.username", "novasec")
	v.SetDefault("postgresql.password", "")
	v.SetDefault("postgresql.ssl_mode", "disable")
	v.SetDefault("postgresql.max_open_conns", 10)
	v.SetDefault("postgresql.max_idle_conns", 5)
	v.SetDefault("postgresql.conn_max_lifetime", "1h")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.timeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.service", "novasec-engine")

	v.SetDefault("tls.enabled", false)
	v.SetDefault("tls.ca_file", "")
	v.SetDefault("tls.cert_file", "")
	v.SetDefault("tls.key_file", "")
	v.SetDefault("tls.min_version", "1.2")
	v.SetDefault("tls.client_auth", "")

	v.SetDefault("catalog.backend", BackendFile)
	v.SetDefault("catalog.path", "./catalog")
	v.SetDefault("catalog.environment", "default")
	v.SetDefault("catalog.watch", true)
	v.SetDefault("catalog.debounce", "250ms")

	v.SetDefault("router.workers", 4)
	v.SetDefault("router.queue_size", 1024)
	v.SetDefault("router.input_subject", "events.raw")
	v.SetDefault("router.output_subject", "events.processed")
	v.SetDefault("router.queue_group", "novasec-engine")
	v.SetDefault("router.only_matched", true)

	v.SetDefault("kvdb.backend", BackendMemory)
	v.SetDefault("kvdb.key_prefix", "novasec:kvdb:")
	v.SetDefault("kvdb.timeout", "500ms")

	v.SetDefault("metrics.namespace", "novasec")
	v.SetDefault("metrics.subsystem", "engine")

	v.SetDefault("api.api_key_hash", "")
}

// Validate валидирует конфигурацию // v1.0
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Catalog.Backend {
	case BackendFile:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog path is required for file backend")
		}
	case BackendPostgres:
		if c.PostgreSQL.Database == "" {
			return fmt.Errorf("PostgreSQL database name is required")
		}
	default:
		return fmt.Errorf("unknown catalog backend: %s", c.Catalog.Backend)
	}
	if c.Catalog.Environment == "" {
		return fmt.Errorf("catalog environment is required")
	}

	switch c.KVDB.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown kvdb backend: %s", c.KVDB.Backend)
	}

	if c.Router.Workers < 1 {
		return fmt.Errorf("router workers must be positive: %d", c.Router.Workers)
	}
	if c.Router.QueueSize < 1 {
		return fmt.Errorf("router queue size must be positive: %d", c.Router.QueueSize)
	}

	if c.NATS.Enabled {
		if len(c.NATS.URLs) == 0 {
			return fmt.Errorf("at least one NATS URL is required")
		}
		if c.Router.InputSubject == "" {
			return fmt.Errorf("router input subject is required when NATS is enabled")
		}
	}

	if c.ClickHouse.Enabled {
		if len(c.ClickHouse.Hosts) == 0 {
			return fmt.Errorf("at least one ClickHouse host is required")
		}
		if c.ClickHouse.Database == "" {
			return fmt.Errorf("ClickHouse database name is required")
		}
	}

	return c.TLS.Validate()
}

// GetServerAddr возвращает адрес сервера // v1.0
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetRedisAddr возвращает адрес Redis // v1.0
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
