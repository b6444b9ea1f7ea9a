// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresBackend stores documents in the documents table (see the
// database package migrations). Values are kept as JSONB.
type PostgresBackend struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresBackend returns a backend using the given connection pool.
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db, now: time.Now}
}

func (p *PostgresBackend) Load(ctx context.Context, namespace, key string) ([]byte, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM documents WHERE namespace = $1 AND key = $2`,
		namespace, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres load: %w", err)
	}
	return raw, nil
}

// Save upserts the document. The whole value is replaced.
func (p *PostgresBackend) Save(ctx context.Context, namespace, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO documents (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		namespace, key, value, p.now(),
	)
	if err != nil {
		return fmt.Errorf("postgres save: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Delete(ctx context.Context, namespace, key string) error {
	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM documents WHERE namespace = $1 AND key = $2`,
		namespace, key,
	); err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}
