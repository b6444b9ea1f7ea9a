// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package workspace keeps one running workflow Machine per client. Machines
// are opened on first use and closed by a janitor once they sit idle.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"postcraft/internal/kv"
	"postcraft/internal/workflow"
)

const (
	// DefaultIdleTimeout is how long an unused machine stays open.
	DefaultIdleTimeout = 30 * time.Minute

	// DefaultSweepSpec is the janitor schedule.
	DefaultSweepSpec = "@every 10m"
)

// ErrClosed is returned by Acquire after Shutdown.
var ErrClosed = errors.New("workspace: manager is shut down")

// Opener builds and starts the machine of one client.
type Opener func(ctx context.Context, clientID string) (*workflow.Machine, error)

// MachineOpener returns an Opener that scopes backend to the client's
// namespace and starts a machine configured like base.
func MachineOpener(backend kv.Backend, base workflow.Config) Opener {
	return func(ctx context.Context, clientID string) (*workflow.Machine, error) {
		cfg := base
		cfg.Store = kv.Scope(backend, clientID)
		m, err := workflow.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("workspace open %s: %w", clientID, err)
		}
		if err := m.Start(ctx); err != nil {
			if cerr := m.Close(ctx); cerr != nil {
				slog.Error("workspace close", "client", clientID, "error", cerr)
			}
			return nil, fmt.Errorf("workspace start %s: %w", clientID, err)
		}
		return m, nil
	}
}

type entry struct {
	machine  *workflow.Machine
	lastUsed time.Time
	refs     int
}

// Options tune a Manager. Zero values select the defaults.
type Options struct {
	IdleTimeout time.Duration
	SweepSpec   string
	Now         func() time.Time
}

// Manager owns the open machines.
type Manager struct {
	open    Opener
	idle    time.Duration
	spec    string
	now     func() time.Time
	opening singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
	cron    *cron.Cron
}

// NewManager creates a manager. Call Start to run the janitor.
func NewManager(open Opener, opts Options) *Manager {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.SweepSpec == "" {
		opts.SweepSpec = DefaultSweepSpec
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		open:    open,
		idle:    opts.IdleTimeout,
		spec:    opts.SweepSpec,
		now:     opts.Now,
		entries: make(map[string]*entry),
	}
}

// Start schedules the idle sweep.
func (m *Manager) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(m.spec, func() { m.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("workspace janitor: %w", err)
	}
	c.Start()

	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()
	slog.Info("workspace janitor started", "schedule", m.spec, "idle_timeout", m.idle.String())
	return nil
}

// Acquire returns the client's machine, opening it on first use. The
// returned release func must be called when the caller is done; a machine
// is never evicted while held.
func (m *Manager) Acquire(ctx context.Context, clientID string) (*workflow.Machine, func(), error) {
	if e, ok, err := m.hold(clientID); err != nil {
		return nil, nil, err
	} else if ok {
		return e.machine, m.releaser(clientID, e), nil
	}

	_, err, _ := m.opening.Do(clientID, func() (any, error) {
		m.mu.Lock()
		if _, ok := m.entries[clientID]; ok {
			m.mu.Unlock()
			return nil, nil
		}
		m.mu.Unlock()

		machine, err := m.open(ctx, clientID)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			machine.Close(context.Background())
			return nil, ErrClosed
		}
		m.entries[clientID] = &entry{machine: machine, lastUsed: m.now()}
		slog.Debug("workspace opened", "client", clientID)
		return nil, nil
	})
	if err != nil {
		return nil, nil, err
	}

	e, ok, err := m.hold(clientID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		// Evicted between open and hold; extremely short idle timeouts only.
		return m.Acquire(ctx, clientID)
	}
	return e.machine, m.releaser(clientID, e), nil
}

func (m *Manager) hold(clientID string) (*entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	e, ok := m.entries[clientID]
	if !ok {
		return nil, false, nil
	}
	e.refs++
	e.lastUsed = m.now()
	return e, true, nil
}

func (m *Manager) releaser(clientID string, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			e.refs--
			e.lastUsed = m.now()
			m.mu.Unlock()
		})
	}
}

// Len returns the number of open machines.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep closes machines that are unused and idle past the timeout. It
// returns how many were closed.
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := m.now().Add(-m.idle)

	m.mu.Lock()
	var stale []*workflow.Machine
	for id, e := range m.entries {
		if e.refs == 0 && e.lastUsed.Before(cutoff) {
			stale = append(stale, e.machine)
			delete(m.entries, id)
		}
	}
	m.mu.Unlock()

	for _, machine := range stale {
		if err := machine.Close(ctx); err != nil {
			slog.Error("workspace close", "error", err)
		}
	}
	if len(stale) > 0 {
		slog.Info("idle workspaces closed", "count", len(stale))
	}
	return len(stale)
}

// Shutdown stops the janitor and closes every machine, committing pending
// deletions. Acquire fails afterwards.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	c := m.cron
	machines := make([]*workflow.Machine, 0, len(m.entries))
	for _, e := range m.entries {
		machines = append(machines, e.machine)
	}
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}

	var g errgroup.Group
	for _, machine := range machines {
		g.Go(func() error {
			return machine.Close(ctx)
		})
	}
	return g.Wait()
}
