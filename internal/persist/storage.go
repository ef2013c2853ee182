package persist

import (
	"context"
	"sync"
)

// Storage — долговременное хранилище записей по ключу.
// Load возвращает found == false, если ключа нет; это не ошибка.
type Storage interface {
	Load(ctx context.Context, key string) (data []byte, found bool, err error)
	Save(ctx context.Context, key string, data []byte) error
}

// MemoryStorage хранит записи в памяти процесса. Используется по умолчанию и в тестах.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
	saves  int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}

	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStorage) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Saves возвращает число выполненных записей.
func (m *MemoryStorage) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
