// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package quota enforces the daily generation limit. The usage record is a
// single document holding today's date and the number of generations
// started on it; a record from an earlier day is reset before use.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"postcraft/internal/kv"
	"postcraft/internal/models"
)

// DefaultLimit is the number of generations allowed per day.
const DefaultLimit = 10

// ErrLimitReached is returned by Consume when today's allowance is used up.
var ErrLimitReached = errors.New("daily generation limit reached")

// Tracker counts generations for one client.
type Tracker struct {
	mu    sync.Mutex
	store *kv.Store
	limit int
	loc   *time.Location
	now   func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLocation sets the time zone that decides where a day begins.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a Tracker with the given daily limit. A non-positive
// limit falls back to DefaultLimit.
func NewTracker(store *kv.Store, limit int, opts ...Option) *Tracker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	t := &Tracker{store: store, limit: limit, loc: time.Local, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Limit returns the configured daily limit.
func (t *Tracker) Limit() int { return t.limit }

// Remaining returns how many generations rec still allows.
func (t *Tracker) Remaining(rec models.UsageRecord) int {
	if n := t.limit - rec.Count; n > 0 {
		return n
	}
	return 0
}

func (t *Tracker) today() string {
	return t.now().In(t.loc).Format("2006-01-02")
}

// Status returns today's usage, resetting and rewriting a stale record.
func (t *Tracker) Status(ctx context.Context) (models.UsageRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current(ctx)
}

// current must be called with t.mu held.
func (t *Tracker) current(ctx context.Context) (models.UsageRecord, error) {
	today := t.today()

	var rec models.UsageRecord
	found, err := t.store.Get(ctx, kv.KeyUsage, &rec)
	if err != nil && !errors.Is(err, kv.ErrCorrupt) {
		return models.UsageRecord{}, fmt.Errorf("quota load: %w", err)
	}
	if err != nil {
		slog.Warn("resetting corrupt usage record", "namespace", t.store.Namespace(), "error", err)
		found = false
	}

	if found && rec.Date == today && rec.Count >= 0 {
		return rec, nil
	}

	rec = models.UsageRecord{Date: today, Count: 0}
	if err := t.store.Set(ctx, kv.KeyUsage, rec); err != nil {
		return models.UsageRecord{}, fmt.Errorf("quota reset: %w", err)
	}
	return rec, nil
}

// Consume counts one generation. It refuses with ErrLimitReached, without
// counting, once today's limit has been used.
func (t *Tracker) Consume(ctx context.Context) (models.UsageRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.current(ctx)
	if err != nil {
		return models.UsageRecord{}, err
	}
	if rec.Count >= t.limit {
		return rec, ErrLimitReached
	}

	rec.Count++
	if err := t.store.Set(ctx, kv.KeyUsage, rec); err != nil {
		return models.UsageRecord{}, fmt.Errorf("quota save: %w", err)
	}
	return rec, nil
}

// Refund gives back one generation counted today. It never goes below zero
// and does nothing once the day has rolled over.
func (t *Tracker) Refund(ctx context.Context) (models.UsageRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.current(ctx)
	if err != nil {
		return models.UsageRecord{}, err
	}
	if rec.Count == 0 {
		return rec, nil
	}

	rec.Count--
	if err := t.store.Set(ctx, kv.KeyUsage, rec); err != nil {
		return models.UsageRecord{}, fmt.Errorf("quota refund: %w", err)
	}
	return rec, nil
}
