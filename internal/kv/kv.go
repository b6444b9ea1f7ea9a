// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package kv is the persistent document store behind every client's data.
// Documents are JSON values addressed by (namespace, key); each client gets
// its own namespace, which plays the role of a browser's local storage.
// Writes always replace the whole document.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Document keys used by the application.
const (
	KeyBrandContext = "brandContext"
	KeySavedPosts   = "savedSocialPosts"
	KeyUsage        = "aiUsageLimit"
	KeyTheme        = "theme"
)

var (
	// ErrNotFound is returned by a Backend when no document exists.
	ErrNotFound = errors.New("kv: document not found")

	// ErrCorrupt wraps decode failures of a stored document.
	ErrCorrupt = errors.New("kv: corrupt document")
)

// Backend stores raw document bytes.
type Backend interface {
	Load(ctx context.Context, namespace, key string) ([]byte, error)
	Save(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
}

// Store reads and writes JSON documents within one namespace.
type Store struct {
	backend   Backend
	namespace string
}

// Scope returns a Store bound to the given namespace.
func Scope(b Backend, namespace string) *Store {
	return &Store{backend: b, namespace: namespace}
}

// Namespace returns the namespace this store writes to.
func (s *Store) Namespace() string {
	return s.namespace
}

// Get decodes the document at key into dst. It returns false when the
// document does not exist. A document that cannot be decoded yields an
// error wrapping ErrCorrupt.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.backend.Load(ctx, s.namespace, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("kv get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// Set encodes v and replaces the document at key.
func (s *Store) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv marshal %s: %w", key, err)
	}
	if err := s.backend.Save(ctx, s.namespace, key, raw); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Remove deletes the document at key. Removing a missing document is not
// an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, s.namespace, key); err != nil {
		return fmt.Errorf("kv remove %s: %w", key, err)
	}
	return nil
}
