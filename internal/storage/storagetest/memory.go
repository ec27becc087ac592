// Package storagetest provides an in-memory ObjectStore for tests.
package storagetest

import (
	"context"
	"sort"
	"sync"
)

// Object is a stored blob
type Object struct {
	Body        []byte
	ContentType string
}

// MemoryStore keeps objects in a map. PutErr and DeleteErr, when set, are
// returned instead of performing the operation.
type MemoryStore struct {
	mu        sync.Mutex
	objects   map[string]Object
	deleted   []string
	PutErr    error
	DeleteErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (m *MemoryStore) Put(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PutErr != nil {
		return m.PutErr
	}
	m.objects[key] = Object{Body: append([]byte(nil), body...), ContentType: contentType}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, key)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.objects, key)
	return nil
}

// Get returns the object stored under key
func (m *MemoryStore) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Keys lists the stored keys in order
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Deleted lists every key passed to Delete, including failed attempts
func (m *MemoryStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
