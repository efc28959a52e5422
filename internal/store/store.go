// Package store is the durable key-value substrate behind bookings and the
// registry: opaque byte blobs addressed by string keys.
package store

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("store: key not found")

// Well-known keys.
const (
	KeyBookings   = "lab_bookings"
	KeyProfessors = "lab_professors"
	KeySubjects   = "lab_subjects"
	KeyLastBackup = "last_backup_date"
)

// Store is a durable key-value store. Set replaces the whole value.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// Memory is an in-process Store, used by tests and one-shot CLI runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
