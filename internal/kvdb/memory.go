// filename: internal/kvdb/memory.go
package kvdb

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore реализует Store в памяти // v1.0
type MemoryStore struct {
	dbs map[string]map[string]string
	mu  sync.RWMutex
}

// NewMemoryStore создает новое хранилище в памяти // v1.0
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		dbs: make(map[string]map[string]string),
	}
}

// Get возвращает значение ключа // v1.0
func (m *MemoryStore) Get(_ context.Context, db, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values, exists := m.dbs[db]
	if !exists {
		return "", ErrNotFound(db, "")
	}
	value, exists := values[key]
	if !exists {
		return "", ErrNotFound(db, key)
	}
	return value, nil
}

// Set записывает значение ключа // v1.0
func (m *MemoryStore) Set(_ context.Context, db, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	values, exists := m.dbs[db]
	if !exists {
		values = make(map[string]string)
		m.dbs[db] = values
	}
	values[key] = value
	return nil
}

// Delete удаляет ключ // v1.0
func (m *MemoryStore) Delete(_ context.Context, db, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	values, exists := m.dbs[db]
	if !exists {
		return ErrNotFound(db, "")
	}
	delete(values, key)
	return nil
}

// Exists проверяет наличие ключа // v1.0
func (m *MemoryStore) Exists(_ context.Context, db, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values, exists := m.dbs[db]
	if !exists {
		return false, nil
	}
	_, exists = values[key]
	return exists, nil
}

// DeleteDB удаляет базу целиком // v1.0
func (m *MemoryStore) DeleteDB(_ context.Context, db string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.dbs[db]; !exists {
		return ErrNotFound(db, "")
	}
	delete(m.dbs, db)
	return nil
}

// CreateDB создает пустую базу, если ее нет // v1.0
func (m *MemoryStore) CreateDB(db string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.dbs[db]; !exists {
		m.dbs[db] = make(map[string]string)
	}
}

// GetStats возвращает статистику хранилища // v1.0
func (m *MemoryStore) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.dbs))
	keys := 0
	for name, values := range m.dbs {
		names = append(names, name)
		keys += len(values)
	}
	sort.Strings(names)

	return map[string]interface{}{
		"databases": names,
		"keys":      keys,
	}
}
