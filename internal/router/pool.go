// filename: internal/router/pool.go
package router

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/common/logging"
	"github.com/novasec/engine/internal/models"
)

// EventIDPath поле идентификатора события
const EventIDPath = "/event/id"

// Output получатель обработанных событий
type Output interface {
	Name() string
	Write(ctx context.Context, processed *Processed) error
}

// PoolConfig параметры пула обработчиков
type PoolConfig struct {
	Workers   int
	QueueSize int
	// OnlyMatched отправлять в выходы только успешно оцененные события
	OnlyMatched bool
}

// Pool пул обработчиков над ограниченной очередью
type Pool struct {
	router  *Router
	config  PoolConfig
	outputs []Output
	logger  *logging.Logger
	metrics *Metrics

	queue chan *models.Event
	wg    sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewPool создает пул. Workers и QueueSize не меньше 1 // v1.0
func NewPool(router *Router, config PoolConfig, metrics *Metrics, logger *logging.Logger, outputs ...Output) *Pool {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.QueueSize < 1 {
		config.QueueSize = 1
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Pool{
		router:  router,
		config:  config,
		outputs: outputs,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan *models.Event, config.QueueSize),
	}
}

// Start запускает обработчиков; они завершаются после Stop // v1.0
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}

	p.logger.WithFields(logrus.Fields{
		"workers":    p.config.Workers,
		"queue_size": p.config.QueueSize,
	}).Info("Worker pool started")
}

// Enqueue ставит событие в очередь без ожидания. Полная очередь
// возвращает QUEUE_FULL // v1.0
func (p *Pool) Enqueue(event *models.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return errors.New(errors.ErrorCodeUnavailable, "worker pool is stopped")
	}

	select {
	case p.queue <- event:
		p.metrics.SetQueueDepth(len(p.queue))
		return nil
	default:
		p.metrics.RecordDropped()
		return errors.New(errors.ErrorCodeQueueFull, "event queue is full")
	}
}

// Depth текущая глубина очереди
func (p *Pool) Depth() int {
	return len(p.queue)
}

// Stop закрывает очередь и ждет обработки оставшихся событий // v1.0
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := p.logger.WithField("worker", id)

	for event := range p.queue {
		p.metrics.SetQueueDepth(len(p.queue))

		processed, err := p.router.Process(event)
		if err != nil {
			logger.WithError(err).Warn("Failed to process event")
			continue
		}
		if p.config.OnlyMatched && !processed.Result.Success {
			continue
		}

		for _, output := range p.outputs {
			if err := output.Write(ctx, processed); err != nil {
				logger.WithError(err).WithField("output", output.Name()).Error("Failed to write event")
			}
		}
	}
}

// eventID идентификатор события из /event/id или новый uuid
func eventID(event *models.Event) string {
	if event != nil {
		if id, ok := event.GetString(EventIDPath); ok && id != "" {
			return id
		}
	}
	return uuid.New().String()
}
