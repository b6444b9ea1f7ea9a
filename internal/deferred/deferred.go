// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package deferred runs functions after a delay, with a handle that can
// cancel them before they fire.
package deferred

import (
	"sort"
	"sync"
	"time"
)

// Handle cancels a scheduled function. Cancel reports whether the call
// stopped the function from running.
type Handle interface {
	Cancel() bool
}

// Scheduler runs fn once after delay unless the returned handle is
// canceled first.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
}

// Timers schedules on runtime timers.
type Timers struct{}

func (Timers) Schedule(delay time.Duration, fn func()) Handle {
	return timerHandle{time.AfterFunc(delay, fn)}
}

type timerHandle struct{ t *time.Timer }

func (h timerHandle) Cancel() bool { return h.t.Stop() }

// Manual is a Scheduler driven by an explicit clock. Nothing fires until
// Advance moves the clock past a task's deadline. Tasks run synchronously
// inside Advance, in deadline order.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	m        *Manual
	at       time.Duration
	seq      int
	fn       func()
	canceled bool
	fired    bool
}

// NewManual returns a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Schedule(delay time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{m: m, at: m.now + delay, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

func (t *manualTask) Cancel() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.fired || t.canceled {
		return false
	}
	t.canceled = true
	return true
}

// Advance moves the clock forward by d and runs every task that became due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	now := m.now
	m.mu.Unlock()

	for {
		t := m.nextDue(now)
		if t == nil {
			return
		}
		t.fn()
	}
}

// nextDue pops the earliest due task that is still live.
func (m *Manual) nextDue(now time.Duration) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].at != m.tasks[j].at {
			return m.tasks[i].at < m.tasks[j].at
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})

	for i, t := range m.tasks {
		if t.canceled {
			continue
		}
		if t.at > now {
			break
		}
		t.fired = true
		m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
		return t
	}
	return nil
}

// Pending reports how many tasks are scheduled and not yet fired or canceled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.canceled && !t.fired {
			n++
		}
	}
	return n
}
