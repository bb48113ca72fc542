// filename: internal/router/feed.go
package router

import (
	"context"

	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/common/logging"
	"github.com/novasec/engine/internal/models"
)

// Subscriber подписка на поток событий (common/nats.Client)
type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func([]byte)) error
	Unsubscribe(subject string) error
}

// Publisher публикация в поток (common/nats.Client)
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Feed подает события из NATS в очередь пула
type Feed struct {
	subscriber Subscriber
	pool       *Pool
	subject    string
	queue      string
	logger     *logging.Logger
}

// NewFeed создает источник событий // v1.0
func NewFeed(subscriber Subscriber, pool *Pool, subject, queue string, logger *logging.Logger) *Feed {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Feed{
		subscriber: subscriber,
		pool:       pool,
		subject:    subject,
		queue:      queue,
		logger:     logger,
	}
}

// Start подписывается на субъект в группе очереди // v1.0
func (f *Feed) Start() error {
	if err := f.subscriber.QueueSubscribe(f.subject, f.queue, f.handle); err != nil {
		return errors.Wrap(err, errors.ErrorCodeNATSConnection, "failed to subscribe to event feed")
	}
	f.logger.WithField("subject", f.subject).WithField("queue", f.queue).Info("Event feed started")
	return nil
}

// Stop отписывается от субъекта
func (f *Feed) Stop() error {
	return f.subscriber.Unsubscribe(f.subject)
}

func (f *Feed) handle(data []byte) {
	event, err := models.NewEvent(data)
	if err != nil {
		f.logger.WithError(err).Debug("Dropping invalid event")
		return
	}
	if err := f.pool.Enqueue(event); err != nil {
		f.logger.WithError(err).Warn("Dropping event")
	}
}

// NATSOutput публикует итоговые события в субъект
type NATSOutput struct {
	publisher Publisher
	subject   string
}

// NewNATSOutput создает выход в NATS // v1.0
func NewNATSOutput(publisher Publisher, subject string) *NATSOutput {
	return &NATSOutput{publisher: publisher, subject: subject}
}

// Name имя выхода
func (o *NATSOutput) Name() string { return "nats" }

// Write публикует событие // v1.0
func (o *NATSOutput) Write(_ context.Context, processed *Processed) error {
	if err := o.publisher.Publish(o.subject, processed.Event().Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorCodeNATSPublish, "failed to publish processed event")
	}
	return nil
}
