// filename: internal/builder/helpers/kvdb.go
package helpers

import (
	"context"
	"time"

	"github.com/tidwall/gjson"

	"github.com/novasec/engine/internal/builder/syntax"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/kvdb"
	"github.com/novasec/engine/internal/models"
)

// kvdbHelpers билдеры хелперов kvdb_* поверх внедренного хранилища
type kvdbHelpers struct {
	store   kvdb.Store
	timeout time.Duration
}

func (k *kvdbHelpers) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), k.timeout)
}

// prepare проверяет наличие хранилища и арность // v1.0
func (k *kvdbHelpers) prepare(def syntax.Definition, arity int) (*helper, error) {
	h, err := newHelper(def)
	if err != nil {
		return nil, err
	}
	if k.store == nil {
		return nil, h.errorf(errors.ErrorCodeUnavailable, "KVDB store is not configured")
	}
	if err := h.checkArity(arity); err != nil {
		return nil, err
	}
	return h, nil
}

// storeFailure сообщение трассировки для ошибки хранилища
func (h *helper) storeFailure(event *models.Event, err error) expression.Result {
	if kvdb.IsNotFound(err) {
		return h.failure(event, "%v", err)
	}
	return h.failure(event, "KVDB access error: %v", err)
}

// buildGet строит kvdb_get(db, key) и kvdb_get_merge(db, key) // v1.0
func (k *kvdbHelpers) buildGet(merge bool) func(def syntax.Definition) (*expression.Expression, error) {
	return func(def syntax.Definition) (*expression.Expression, error) {
		h, err := k.prepare(def, 2)
		if err != nil {
			return nil, err
		}
		db, key := h.parameters[0], h.parameters[1]

		return h.term(func(event *models.Event) expression.Result {
			dbName, ok := resolveString(event, db)
			if !ok {
				return h.failure(event, traceReferenceNotFound, db.Value)
			}
			keyName, ok := resolveString(event, key)
			if !ok {
				return h.failure(event, traceReferenceNotFound, key.Value)
			}

			ctx, cancel := k.context()
			defer cancel()
			value, err := k.store.Get(ctx, dbName, keyName)
			if err != nil {
				return h.storeFailure(event, err)
			}
			if !gjson.Valid(value) {
				value = quoteJSON(value)
			}

			if merge {
				target := event.Get(h.target)
				stored := gjson.Parse(value)
				if target.Exists() && (target.IsObject() != stored.IsObject() || target.IsArray() != stored.IsArray() ||
					!(stored.IsObject() || stored.IsArray())) {
					return h.failure(event, "Value of key '%s' and target field '%s' are not of the same mergeable type", keyName, h.target)
				}
				if err := event.Merge(h.target, value); err != nil {
					return h.failure(event, "%v", err)
				}
				return h.success(event)
			}

			if err := event.SetRaw(h.target, value); err != nil {
				return h.failure(event, "%v", err)
			}
			return h.success(event)
		}), nil
	}
}

// buildSet строит kvdb_set(db, key, value); при успехе целевое поле true // v1.0
func (k *kvdbHelpers) buildSet(def syntax.Definition) (*expression.Expression, error) {
	h, err := k.prepare(def, 3)
	if err != nil {
		return nil, err
	}
	db, key, value := h.parameters[0], h.parameters[1], h.parameters[2]

	return h.term(func(event *models.Event) expression.Result {
		dbName, ok := resolveString(event, db)
		if !ok {
			return h.failure(event, traceReferenceNotFound, db.Value)
		}
		keyName, ok := resolveString(event, key)
		if !ok {
			return h.failure(event, traceReferenceNotFound, key.Value)
		}
		raw, ok := resolveRaw(event, value)
		if !ok {
			return h.failure(event, traceReferenceNotFound, value.Value)
		}

		ctx, cancel := k.context()
		defer cancel()
		if err := k.store.Set(ctx, dbName, keyName, raw); err != nil {
			return h.storeFailure(event, err)
		}
		if err := event.Set(h.target, true); err != nil {
			return h.failure(event, "%v", err)
		}
		return h.success(event)
	}), nil
}

// buildMatch строит kvdb_match(db) / kvdb_not_match(db): ключ берется из целевого поля // v1.0
func (k *kvdbHelpers) buildMatch(negate bool) func(def syntax.Definition) (*expression.Expression, error) {
	return func(def syntax.Definition) (*expression.Expression, error) {
		h, err := k.prepare(def, 1)
		if err != nil {
			return nil, err
		}
		db := h.parameters[0]

		return h.term(func(event *models.Event) expression.Result {
			keyName, ok := event.GetString(h.target)
			if !ok {
				return h.failure(event, traceTargetNotFound, h.target)
			}
			dbName, ok := resolveString(event, db)
			if !ok {
				return h.failure(event, traceReferenceNotFound, db.Value)
			}

			ctx, cancel := k.context()
			defer cancel()
			exists, err := k.store.Exists(ctx, dbName, keyName)
			if err != nil {
				return h.storeFailure(event, err)
			}

			switch {
			case exists && negate:
				return h.failure(event, "Key '%s' found in database '%s'", keyName, dbName)
			case !exists && !negate:
				return h.failure(event, "Key '%s' not found in database '%s'", keyName, dbName)
			}
			return h.success(event)
		}), nil
	}
}

// buildDelete строит kvdb_delete(db): удаляет базу целиком, целевое поле true // v1.0
func (k *kvdbHelpers) buildDelete(def syntax.Definition) (*expression.Expression, error) {
	h, err := k.prepare(def, 1)
	if err != nil {
		return nil, err
	}
	db := h.parameters[0]

	return h.term(func(event *models.Event) expression.Result {
		dbName, ok := resolveString(event, db)
		if !ok {
			return h.failure(event, traceReferenceNotFound, db.Value)
		}

		ctx, cancel := k.context()
		defer cancel()
		if err := k.store.DeleteDB(ctx, dbName); err != nil {
			return h.storeFailure(event, err)
		}
		if err := event.Set(h.target, true); err != nil {
			return h.failure(event, "%v", err)
		}
		return h.success(event)
	}), nil
}
