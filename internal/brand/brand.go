// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package brand loads and saves the client's brand profile.
package brand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"postcraft/internal/kv"
	"postcraft/internal/models"
)

// Manager owns the brandContext document of one client.
type Manager struct {
	store *kv.Store
}

// NewManager creates a brand Manager over the given document store.
func NewManager(store *kv.Store) *Manager {
	return &Manager{store: store}
}

// Load returns the stored brand profile, or nil when none exists. A profile
// that cannot be decoded or has no brand name is removed and treated as
// absent, so the client goes through first-run setup again.
func (m *Manager) Load(ctx context.Context) (*models.BrandContext, error) {
	var bc models.BrandContext
	found, err := m.store.Get(ctx, kv.KeyBrandContext, &bc)
	if err != nil && !errors.Is(err, kv.ErrCorrupt) {
		return nil, fmt.Errorf("brand load: %w", err)
	}
	if !found {
		return nil, nil
	}

	if err == nil {
		err = bc.Validate()
	}
	if err != nil {
		slog.Warn("discarding stored brand profile", "namespace", m.store.Namespace(), "error", err)
		if rmErr := m.store.Remove(ctx, kv.KeyBrandContext); rmErr != nil {
			return nil, fmt.Errorf("brand discard: %w", rmErr)
		}
		return nil, nil
	}

	return &bc, nil
}

// Save normalizes and validates bc, then replaces the stored profile.
func (m *Manager) Save(ctx context.Context, bc models.BrandContext) (models.BrandContext, error) {
	bc = bc.Normalize()
	if err := bc.Validate(); err != nil {
		return models.BrandContext{}, err
	}
	if err := m.store.Set(ctx, kv.KeyBrandContext, bc); err != nil {
		return models.BrandContext{}, fmt.Errorf("brand save: %w", err)
	}
	return bc, nil
}
