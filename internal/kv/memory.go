// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package kv

import (
	"context"
	"sync"
)

// MemoryBackend keeps documents in process memory. Data is lost on restart;
// it backs development runs and tests.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
	// writes counts Save calls, used by tests to assert write counts.
	writes map[string]int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs:   make(map[string][]byte),
		writes: make(map[string]int),
	}
}

func memKey(namespace, key string) string {
	return namespace + "\x00" + key
}

func (m *MemoryBackend) Load(_ context.Context, namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.docs[memKey(namespace, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (m *MemoryBackend) Save(_ context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey(namespace, key)
	m.docs[k] = append([]byte(nil), value...)
	m.writes[k]++
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, memKey(namespace, key))
	return nil
}

// Writes returns how many times the document was saved.
func (m *MemoryBackend) Writes(namespace, key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[memKey(namespace, key)]
}

// Raw returns the stored bytes, or nil if absent.
func (m *MemoryBackend) Raw(namespace, key string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docs[memKey(namespace, key)]
}
