// filename: internal/common/ch/client.go
package ch

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Client клиент ClickHouse
type Client struct {
	conn   driver.Conn
	config Config
}

// Config конфигурация ClickHouse
type Config struct {
	Hosts    []string      `mapstructure:"hosts"`
	Database string        `mapstructure:"database"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Port     int           `mapstructure:"port"`
	Compress bool          `mapstructure:"compress"`
	MaxOpen  int           `mapstructure:"max_open"`
	MaxIdle  int           `mapstructure:"max_idle"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Table    string        `mapstructure:"table"`
}

// Addrs адреса host:port всех узлов
func (c Config) Addrs() []string {
	addrs := make([]string, 0, len(c.Hosts))
	for _, host := range c.Hosts {
		addrs = append(addrs, fmt.Sprintf("%s:%d", host, c.Port))
	}
	return addrs
}

// Options опции драйвера // v1.0
func (c Config) Options() *clickhouse.Options {
	opts := &clickhouse.Options{
		Addr: c.Addrs(),
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:  c.Timeout,
		MaxOpenConns: c.MaxOpen,
		MaxIdleConns: c.MaxIdle,
	}
	if c.Compress {
		opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	}
	return opts
}

// NewClient подключается к ClickHouse и проверяет соединение // v1.0
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if len(config.Hosts) == 0 {
		return nil, fmt.Errorf("at least one ClickHouse host is required")
	}

	conn, err := clickhouse.Open(config.Options())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{conn: conn, config: config}, nil
}

// Conn возвращает соединение драйвера
func (c *Client) Conn() driver.Conn {
	return c.conn
}

// Exec выполняет команду // v1.0
func (c *Client) Exec(ctx context.Context, query string, args ...interface{}) error {
	return c.conn.Exec(ctx, query, args...)
}

// InsertBatch вставляет строки одним пакетом. Каждая строка передается в
// batch.Append в порядке колонок таблицы // v1.0
func (c *Client) InsertBatch(ctx context.Context, table string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// Close закрывает соединение // v1.0
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping проверяет соединение
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}
