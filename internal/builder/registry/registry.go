// filename: internal/builder/registry/registry.go
package registry

import (
	"sort"

	"github.com/novasec/engine/internal/builder/syntax"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/expression"
)

// Builder строит терм из определения вызова хелпера.
// Внешние зависимости хелпера захватываются при регистрации.
type Builder func(def syntax.Definition) (*expression.Expression, error)

// Registry реестр хелперов. Создается один раз при старте и передается
// компилятору явно; после заполнения используется только на чтение.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry создает пустой реестр // v1.0
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// Register регистрирует хелпер; повторная регистрация имени запрещена // v1.0
func (r *Registry) Register(name string, builder Builder) error {
	if name == "" {
		return errors.New(errors.ErrorCodeValidation, "helper name is required")
	}
	if builder == nil {
		return errors.Newf(errors.ErrorCodeValidation, "builder for helper '%s' is nil", name)
	}
	if _, exists := r.builders[name]; exists {
		return errors.Newf(errors.ErrorCodeConflict, "helper '%s' is already registered", name)
	}
	r.builders[name] = builder
	return nil
}

// Get возвращает билдер по имени // v1.0
func (r *Registry) Get(name string) (Builder, bool) {
	builder, exists := r.builders[name]
	return builder, exists
}

// Build находит билдер и строит терм // v1.0
func (r *Registry) Build(def syntax.Definition) (*expression.Expression, error) {
	builder, exists := r.builders[def.HelperName]
	if !exists {
		return nil, errors.Newf(errors.ErrorCodeHelperUnknown,
			"helper '%s' is not registered", def.HelperName).WithHelper(def.HelperName)
	}

	expr, err := builder(def)
	if err != nil {
		if novaSecErr, ok := errors.As(err); ok {
			if _, named := novaSecErr.Details["helper"]; !named {
				novaSecErr.WithHelper(def.HelperName)
			}
			return nil, novaSecErr
		}
		return nil, errors.Wrap(err, errors.ErrorCodeInternal, "helper build failed").WithHelper(def.HelperName)
	}
	return expr, nil
}

// Names возвращает отсортированный список зарегистрированных хелперов // v1.0
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len возвращает количество хелперов
func (r *Registry) Len() int {
	return len(r.builders)
}
