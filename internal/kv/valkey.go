// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// docKeyPrefix namespaces document keys in Valkey.
const docKeyPrefix = "doc:"

// ConnectValkey creates a Valkey client and verifies the connection with a ping.
func ConnectValkey(host, port, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	slog.Info("valkey connected", "addr", fmt.Sprintf("%s:%s", host, port), "db", db)
	return client, nil
}

// ValkeyBackend stores documents as plain Valkey strings without expiry.
type ValkeyBackend struct {
	client *redis.Client
}

// NewValkeyBackend wraps a connected client.
func NewValkeyBackend(client *redis.Client) *ValkeyBackend {
	return &ValkeyBackend{client: client}
}

func valkeyKey(namespace, key string) string {
	return docKeyPrefix + namespace + ":" + key
}

func (v *ValkeyBackend) Load(ctx context.Context, namespace, key string) ([]byte, error) {
	raw, err := v.client.Get(ctx, valkeyKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get: %w", err)
	}
	return raw, nil
}

func (v *ValkeyBackend) Save(ctx context.Context, namespace, key string, value []byte) error {
	if err := v.client.Set(ctx, valkeyKey(namespace, key), value, 0).Err(); err != nil {
		return fmt.Errorf("valkey set: %w", err)
	}
	return nil
}

func (v *ValkeyBackend) Delete(ctx context.Context, namespace, key string) error {
	if err := v.client.Del(ctx, valkeyKey(namespace, key)).Err(); err != nil {
		return fmt.Errorf("valkey del: %w", err)
	}
	return nil
}

// DropNamespace removes every document of a namespace by scanning for its
// prefix.
func (v *ValkeyBackend) DropNamespace(ctx context.Context, namespace string) (int, error) {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := v.client.Scan(ctx, cursor, docKeyPrefix+namespace+":*", 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("valkey scan: %w", err)
		}
		if len(keys) > 0 {
			if err := v.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, fmt.Errorf("valkey bulk delete: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
