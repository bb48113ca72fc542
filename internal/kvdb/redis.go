// filename: internal/kvdb/redis.go
package kvdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/novasec/engine/internal/common/logging"
)

// RedisConfig конфигурация Redis хранилища // v1.0
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	Timeout   time.Duration `yaml:"timeout"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// RedisStore реализует Store через Redis. Каждая база хранится в отдельном
// хеше "<prefix><db>", ключи базы являются полями хеша.
type RedisStore struct {
	client    redis.Cmdable
	keyPrefix string
	logger    *logging.Logger
}

// NewRedisStore подключается к Redis и проверяет соединение // v1.0
func NewRedisStore(config RedisConfig, logger *logging.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.Timeout,
		ReadTimeout: config.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRedisStoreWithClient(client, config.KeyPrefix, logger), nil
}

// NewRedisStoreWithClient создает хранилище поверх готового клиента // v1.0
func NewRedisStoreWithClient(client redis.Cmdable, keyPrefix string, logger *logging.Logger) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "novasec:kvdb:"
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// Get возвращает значение ключа // v1.0
func (r *RedisStore) Get(ctx context.Context, db, key string) (string, error) {
	value, err := r.client.HGet(ctx, r.makeKey(db), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound(db, key)
		}
		return "", fmt.Errorf("redis HGET %s failed: %w", r.makeKey(db), err)
	}
	return value, nil
}

// Set записывает значение ключа // v1.0
func (r *RedisStore) Set(ctx context.Context, db, key, value string) error {
	if err := r.client.HSet(ctx, r.makeKey(db), key, value).Err(); err != nil {
		return fmt.Errorf("redis HSET %s failed: %w", r.makeKey(db), err)
	}
	return nil
}

// Delete удаляет ключ // v1.0
func (r *RedisStore) Delete(ctx context.Context, db, key string) error {
	if err := r.client.HDel(ctx, r.makeKey(db), key).Err(); err != nil {
		return fmt.Errorf("redis HDEL %s failed: %w", r.makeKey(db), err)
	}
	return nil
}

// Exists проверяет наличие ключа // v1.0
func (r *RedisStore) Exists(ctx context.Context, db, key string) (bool, error) {
	exists, err := r.client.HExists(ctx, r.makeKey(db), key).Result()
	if err != nil {
		return false, fmt.Errorf("redis HEXISTS %s failed: %w", r.makeKey(db), err)
	}
	return exists, nil
}

// DeleteDB удаляет базу целиком // v1.0
func (r *RedisStore) DeleteDB(ctx context.Context, db string) error {
	deleted, err := r.client.Del(ctx, r.makeKey(db)).Result()
	if err != nil {
		return fmt.Errorf("redis DEL %s failed: %w", r.makeKey(db), err)
	}
	if deleted == 0 {
		return ErrNotFound(db, "")
	}

	if r.logger != nil {
		r.logger.Logger.WithFields(map[string]interface{}{
			"database":  db,
			"redis_key": r.makeKey(db),
		}).Debug("KVDB database deleted")
	}
	return nil
}

// makeKey создает ключ Redis для базы // v1.0
func (r *RedisStore) makeKey(db string) string {
	return r.keyPrefix + db
}

// Ping проверяет соединение с Redis // v1.0
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
