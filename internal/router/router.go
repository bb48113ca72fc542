// filename: internal/router/router.go
package router

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/novasec/engine/internal/catalog"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/common/logging"
	"github.com/novasec/engine/internal/environment"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/models"
)

// Router держит активное окружение и оценивает по нему события.
// Перезагрузка собирает новое окружение целиком и подменяет указатель;
// оценки, начатые на старом окружении, завершаются на нем.
type Router struct {
	environment string
	source      catalog.Source
	builder     *environment.Builder
	logger      *logging.Logger
	metrics     *Metrics

	current  atomic.Pointer[environment.Environment]
	reloadMu sync.Mutex
}

// New создает маршрутизатор для окружения из источника каталога // v1.0
func New(envName string, source catalog.Source, builder *environment.Builder, metrics *Metrics, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Router{
		environment: envName,
		source:      source,
		builder:     builder,
		logger:      logger,
		metrics:     metrics,
	}
}

// EnvironmentName имя обслуживаемого окружения
func (r *Router) EnvironmentName() string {
	return r.environment
}

// Current возвращает активное окружение или nil
func (r *Router) Current() *environment.Environment {
	return r.current.Load()
}

// Reload собирает окружение из свежего снимка каталога и делает его активным.
// При ошибке активным остается предыдущее окружение // v1.0
func (r *Router) Reload(ctx context.Context) (*environment.Environment, error) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	snapshot, err := r.source.Snapshot(ctx, r.environment)
	if err != nil {
		r.metrics.RecordBuild(err, 0)
		r.logger.WithError(err).WithField("environment", r.environment).Error("Failed to read catalog snapshot")
		return nil, err
	}

	env, err := r.builder.Build(r.environment, snapshot)
	if err != nil {
		r.metrics.RecordBuild(err, 0)
		entry := r.logger.WithError(err).WithFields(logrus.Fields{
			"environment": r.environment,
			"code":        errors.GetErrorCode(err),
		})
		if previous := r.current.Load(); previous != nil {
			entry = entry.WithField("active_id", previous.ID)
		}
		entry.Error("Environment rebuild failed, keeping active environment")
		return nil, err
	}

	previous := r.current.Swap(env)
	r.metrics.RecordBuild(nil, len(env.Assets))

	fields := logrus.Fields{"assets": len(env.Assets)}
	if previous != nil {
		fields["previous_id"] = previous.ID
	}
	r.logger.WithEnvironment(env.Name, env.ID).WithFields(fields).Info("Environment activated")
	return env, nil
}

// Validate собирает окружение из переданного снимка без активации // v1.0
func (r *Router) Validate(snapshot *catalog.Snapshot) (*environment.Environment, error) {
	name := snapshot.Environment
	if name == "" {
		name = r.environment
	}
	return r.builder.Build(name, snapshot)
}

// Process оценивает событие по активному окружению // v1.0
func (r *Router) Process(event *models.Event) (*Processed, error) {
	env := r.current.Load()
	if env == nil {
		return nil, errors.New(errors.ErrorCodeUnavailable, "no active environment")
	}

	received := time.Now().UTC()
	start := time.Now()
	result := env.Evaluate(event)
	duration := time.Since(start)
	r.metrics.RecordEvaluation(result.Success, duration)

	if !result.Success && r.logger.IsLevelEnabled("debug") {
		r.logger.WithEnvironment(env.Name, env.ID).WithField("trace", result.Trace).Debug("Event did not match environment")
	}

	return &Processed{
		ID:            eventID(result.Event),
		Environment:   env.Name,
		EnvironmentID: env.ID,
		ReceivedAt:    received,
		Duration:      duration,
		Result:        result,
	}, nil
}

// Processed результат обработки одного события
type Processed struct {
	ID            string
	Environment   string
	EnvironmentID string
	ReceivedAt    time.Time
	Duration      time.Duration
	Result        expression.Result
}

// Event итоговое событие после нормализации
func (p *Processed) Event() *models.Event {
	return p.Result.Event
}
