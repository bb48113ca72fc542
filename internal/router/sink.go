// filename: internal/router/sink.go
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/common/logging"
)

// BatchInserter пакетная вставка строк (common/ch.Client)
type BatchInserter interface {
	InsertBatch(ctx context.Context, table string, rows [][]interface{}) error
}

// SinkConfig параметры буферизованной записи
type SinkConfig struct {
	Table         string
	BatchSize     int
	FlushInterval time.Duration
}

// SinkSchema DDL таблицы обработанных событий
func SinkSchema(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id             String,
	environment    String,
	environment_id String,
	received_at    DateTime64(3, 'UTC'),
	success        Bool,
	duration_us    UInt64,
	event          String
) ENGINE = MergeTree
ORDER BY (environment, received_at)`, table)
}

// ClickHouseSink буферизует обработанные события и пишет их пакетами
type ClickHouseSink struct {
	inserter BatchInserter
	config   SinkConfig
	logger   *logging.Logger

	mu   sync.Mutex
	rows [][]interface{}
}

// NewClickHouseSink создает выход в ClickHouse // v1.0
func NewClickHouseSink(inserter BatchInserter, config SinkConfig, logger *logging.Logger) *ClickHouseSink {
	if config.Table == "" {
		config.Table = "processed_events"
	}
	if config.BatchSize < 1 {
		config.BatchSize = 500
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = time.Second
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &ClickHouseSink{inserter: inserter, config: config, logger: logger}
}

// Name имя выхода
func (s *ClickHouseSink) Name() string { return "clickhouse" }

// Write добавляет событие в буфер; полный буфер сбрасывается сразу // v1.0
func (s *ClickHouseSink) Write(ctx context.Context, p *Processed) error {
	row := []interface{}{
		p.ID,
		p.Environment,
		p.EnvironmentID,
		p.ReceivedAt,
		p.Result.Success,
		uint64(p.Duration.Microseconds()),
		p.Event().String(),
	}

	s.mu.Lock()
	s.rows = append(s.rows, row)
	full := len(s.rows) >= s.config.BatchSize
	s.mu.Unlock()

	if full {
		return s.Flush(ctx)
	}
	return nil
}

// Flush записывает накопленные строки // v1.0
func (s *ClickHouseSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	rows := s.rows
	s.rows = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}
	if err := s.inserter.InsertBatch(ctx, s.config.Table, rows); err != nil {
		return errors.Wrap(err, errors.ErrorCodeCHInsert, "failed to insert processed events").
			AddDetail("rows", len(rows))
	}
	s.logger.WithField("rows", len(rows)).Debug("Processed events flushed")
	return nil
}

// Pending количество строк в буфере
func (s *ClickHouseSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Run периодически сбрасывает буфер до отмены контекста, затем сбрасывает остаток
func (s *ClickHouseSink) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.Flush(flushCtx); err != nil {
				s.logger.WithError(err).Error("Final flush failed")
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.WithError(err).Error("Periodic flush failed")
			}
		}
	}
}
