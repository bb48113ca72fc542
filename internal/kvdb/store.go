// filename: internal/kvdb/store.go
package kvdb

import (
	"context"

	"github.com/novasec/engine/internal/common/errors"
)

// Store потокобезопасное хранилище ключ-значение, разделенное на базы.
// Значения хранятся как JSON текст.
type Store interface {
	// Get возвращает значение ключа или ошибку KVDB_NOT_FOUND
	Get(ctx context.Context, db, key string) (string, error)
	// Set записывает значение ключа, создавая базу при необходимости
	Set(ctx context.Context, db, key, value string) error
	// Delete удаляет ключ
	Delete(ctx context.Context, db, key string) error
	// Exists проверяет наличие ключа
	Exists(ctx context.Context, db, key string) (bool, error)
	// DeleteDB удаляет базу целиком или возвращает KVDB_NOT_FOUND
	DeleteDB(ctx context.Context, db string) error
}

// ErrNotFound создает ошибку отсутствующего ключа или базы // v1.0
func ErrNotFound(db, key string) error {
	if key == "" {
		return errors.Newf(errors.ErrorCodeKVDBNotFound, "database '%s' not found", db)
	}
	return errors.Newf(errors.ErrorCodeKVDBNotFound, "key '%s' not found in database '%s'", key, db)
}

// IsNotFound проверяет, что ошибка означает отсутствие ключа или базы
func IsNotFound(err error) bool {
	return errors.IsErrorCode(err, errors.ErrorCodeKVDBNotFound)
}
