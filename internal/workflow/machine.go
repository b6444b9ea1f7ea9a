// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package workflow drives a client's session through the content steps:
// brand setup, platform choice, topic entry, generation and results, plus
// the saved, calendar and brand-edit side views. A Machine is the single
// owner of that state; every change goes through its methods.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"postcraft/internal/brand"
	"postcraft/internal/deferred"
	"postcraft/internal/kv"
	"postcraft/internal/models"
	"postcraft/internal/posts"
	"postcraft/internal/quota"
)

// User-facing messages shown in the session state.
const (
	MsgLimitReached     = "You have reached your daily limit of %d generations. Please try again tomorrow."
	MsgGenerationFailed = "Sorry, something went wrong while generating content. Please try again."
)

var (
	// ErrInvalidTransition is returned for an action the current step does
	// not allow.
	ErrInvalidTransition = errors.New("action not allowed in the current step")

	// ErrBusy is returned when a generation is already in flight.
	ErrBusy = errors.New("a generation is already in progress")

	// ErrSuperseded is returned when a generation finished after the
	// session moved on; its results were discarded.
	ErrSuperseded = errors.New("generation result discarded")

	// ErrTopicRequired is returned for a blank topic.
	ErrTopicRequired = errors.New("topic is required")

	// ErrPlatformRequired is returned when no platform has been chosen.
	ErrPlatformRequired = errors.New("platform is required")

	// ErrBrandRequired is returned when no brand profile exists.
	ErrBrandRequired = errors.New("brand profile is required")
)

// Gateway produces the generated content.
type Gateway interface {
	GenerateContent(ctx context.Context, req models.GenerationRequest) ([]models.PostSuggestion, error)
	GenerateFollowUpIdeas(ctx context.Context, req models.GenerationRequest) ([]string, error)
}

// Config wires a Machine. Store and Gateway are required.
type Config struct {
	Store   *kv.Store
	Gateway Gateway

	UsageLimit      int
	Location        *time.Location
	UndoWindow      time.Duration
	FollowUpTimeout time.Duration

	// Test hooks.
	Now       func() time.Time
	Scheduler deferred.Scheduler
	NewID     func() (string, error)
}

// Machine is the session state of one client.
type Machine struct {
	mu sync.Mutex

	store    *kv.Store
	gateway  Gateway
	brands   *brand.Manager
	quota    *quota.Tracker
	library  *posts.Library
	timeout  time.Duration
	followUp sync.WaitGroup

	step     models.Step
	previous models.Step // StepUninitialized when nothing is remembered

	brand       *models.BrandContext
	platform    models.Platform
	topic       string
	suggestions []models.PostSuggestion
	followUps   []string
	loadingNext bool
	failedNext  bool
	errMsg      string
	theme       models.Theme

	generation uint64
	closed     bool
}

// New opens the client's saved posts and returns a Machine in the
// uninitialized step. Call Start before anything else.
func New(ctx context.Context, cfg Config) (*Machine, error) {
	if cfg.Store == nil || cfg.Gateway == nil {
		return nil, errors.New("workflow: store and gateway are required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.FollowUpTimeout <= 0 {
		cfg.FollowUpTimeout = 60 * time.Second
	}

	library, err := posts.Open(ctx, cfg.Store, posts.Options{
		Scheduler:  cfg.Scheduler,
		UndoWindow: cfg.UndoWindow,
		NewID:      cfg.NewID,
		Now:        cfg.Now,
	})
	if err != nil {
		return nil, err
	}

	return &Machine{
		store:   cfg.Store,
		gateway: cfg.Gateway,
		brands:  brand.NewManager(cfg.Store),
		quota: quota.NewTracker(cfg.Store, cfg.UsageLimit,
			quota.WithLocation(cfg.Location), quota.WithClock(cfg.Now)),
		library: library,
		timeout: cfg.FollowUpTimeout,
		theme:   models.ThemeLight,
	}, nil
}

// Start loads the brand profile and theme and enters the first step:
// brand setup when no valid profile exists, platform choice otherwise.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != models.StepUninitialized {
		return nil
	}

	bc, err := m.brands.Load(ctx)
	if err != nil {
		return err
	}
	m.theme = m.loadTheme(ctx)
	m.brand = bc

	if bc == nil {
		m.step = models.StepProvideContext
	} else {
		m.step = models.StepSelectPlatform
	}
	slog.Debug("session started", "namespace", m.store.Namespace(), "step", m.step)
	return nil
}

func (m *Machine) loadTheme(ctx context.Context) models.Theme {
	var raw string
	found, err := m.store.Get(ctx, kv.KeyTheme, &raw)
	if err != nil {
		slog.Warn("ignoring stored theme", "namespace", m.store.Namespace(), "error", err)
		return models.ThemeLight
	}
	if !found {
		return models.ThemeLight
	}
	t, err := models.ParseTheme(raw)
	if err != nil {
		return models.ThemeLight
	}
	return t
}

// SaveBrandContext validates and stores the brand profile. From first-run
// setup it moves on to platform choice; from the brand editor it returns
// to the step the editor was opened from.
func (m *Machine) SaveBrandContext(ctx context.Context, bc models.BrandContext) (models.BrandContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != models.StepProvideContext && m.step != models.StepEditBrandContext {
		return models.BrandContext{}, ErrInvalidTransition
	}

	saved, err := m.brands.Save(ctx, bc)
	if err != nil {
		return models.BrandContext{}, err
	}
	m.brand = &saved

	if m.step == models.StepProvideContext {
		m.step = models.StepSelectPlatform
		return saved, nil
	}

	next := m.previous
	if next == models.StepUninitialized || next == models.StepProvideContext {
		next = models.StepSelectPlatform
	}
	m.step = next
	m.previous = models.StepUninitialized
	return saved, nil
}

// SelectPlatform records the platform and moves to topic entry.
func (m *Machine) SelectPlatform(p models.Platform) error {
	if !p.Valid() {
		return models.ErrUnknownPlatform
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != models.StepSelectPlatform {
		return ErrInvalidTransition
	}
	m.platform = p
	m.errMsg = ""
	m.step = models.StepEnterTopic
	return nil
}

// SubmitTopic generates suggestions for topic on the chosen platform. It
// returns once the suggestions are in; follow-up ideas arrive later.
func (m *Machine) SubmitTopic(ctx context.Context, topic string) error {
	m.mu.Lock()

	switch {
	case m.step == models.StepGenerating:
		m.mu.Unlock()
		return ErrBusy
	case m.step != models.StepEnterTopic:
		m.mu.Unlock()
		return ErrInvalidTransition
	}

	topic = strings.TrimSpace(topic)
	var err error
	switch {
	case topic == "":
		err = ErrTopicRequired
	case m.platform == "":
		err = ErrPlatformRequired
	case m.brand == nil:
		err = ErrBrandRequired
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}

	return m.generate(ctx, topic, m.platform)
}

// Regenerate produces new suggestions for the current topic, optionally
// on another platform.
func (m *Machine) Regenerate(ctx context.Context, p models.Platform) error {
	if !p.Valid() {
		return models.ErrUnknownPlatform
	}

	m.mu.Lock()
	switch {
	case m.step == models.StepGenerating:
		m.mu.Unlock()
		return ErrBusy
	case m.step != models.StepShowResults:
		m.mu.Unlock()
		return ErrInvalidTransition
	case m.brand == nil:
		m.mu.Unlock()
		return ErrBrandRequired
	}

	return m.generate(ctx, m.topic, p)
}

// generate runs one generation. It must be called with m.mu held and
// releases it.
func (m *Machine) generate(ctx context.Context, topic string, platform models.Platform) error {
	if _, err := m.quota.Consume(ctx); err != nil {
		if errors.Is(err, quota.ErrLimitReached) {
			m.errMsg = fmt.Sprintf(MsgLimitReached, m.quota.Limit())
		}
		m.mu.Unlock()
		return err
	}

	m.generation++
	token := m.generation
	m.step = models.StepGenerating
	m.topic = topic
	m.platform = platform
	m.suggestions = nil
	m.followUps = nil
	m.loadingNext = false
	m.failedNext = false
	m.errMsg = ""

	req := models.GenerationRequest{
		Platform: platform,
		Handle:   m.brand.BrandName,
		Topic:    topic,
		Brand:    *m.brand,
	}
	m.mu.Unlock()

	suggestions, genErr := m.gateway.GenerateContent(ctx, req)

	// A client gone mid-generation must not cost a quota unit.
	ctx = context.WithoutCancel(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()

	if token != m.generation || m.closed {
		return ErrSuperseded
	}

	if genErr != nil {
		if _, err := m.quota.Refund(ctx); err != nil {
			slog.Error("refund generation", "namespace", m.store.Namespace(), "error", err)
		}
		m.errMsg = MsgGenerationFailed
		m.land(models.StepEnterTopic)
		return genErr
	}

	m.suggestions = suggestions
	m.land(models.StepShowResults)
	m.fetchFollowUps(token, req)
	return nil
}

// land moves to the outcome of a generation. When the user left for a
// side view meanwhile, the outcome becomes the step Back returns to.
func (m *Machine) land(step models.Step) {
	if m.step == models.StepGenerating {
		m.step = step
		return
	}
	m.previous = step
}

// fetchFollowUps loads follow-up ideas in the background. Must be called
// with m.mu held.
func (m *Machine) fetchFollowUps(token uint64, req models.GenerationRequest) {
	m.loadingNext = true
	m.followUp.Add(1)

	go func() {
		defer m.followUp.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		ideas, err := m.gateway.GenerateFollowUpIdeas(ctx, req)

		m.mu.Lock()
		defer m.mu.Unlock()
		if token != m.generation {
			return
		}
		m.loadingNext = false
		if err != nil {
			slog.Warn("follow-up ideas unavailable", "namespace", m.store.Namespace(), "error", err)
			m.followUps = nil
			m.failedNext = true
			return
		}
		m.followUps = ideas
	}()
}

// WaitFollowUps blocks until background follow-up fetches have finished.
func (m *Machine) WaitFollowUps() {
	m.followUp.Wait()
}

// Navigate opens a side view (saved posts, calendar or brand editor) and
// remembers the step being left.
func (m *Machine) Navigate(target models.Step) error {
	if !target.IsAuxiliary() {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.step {
	case target:
		return nil
	case models.StepUninitialized, models.StepProvideContext:
		return ErrInvalidTransition
	}
	m.previous = m.step
	m.step = target
	return nil
}

// Back leaves a side view for the remembered step, or goes from topic
// entry back to platform choice.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.step.IsAuxiliary():
		next := m.previous
		if next == models.StepUninitialized {
			next = models.StepSelectPlatform
		}
		m.step = next
		m.previous = models.StepUninitialized
		return nil
	case m.step == models.StepEnterTopic:
		m.step = models.StepSelectPlatform
		return nil
	}
	return ErrInvalidTransition
}

// Reset discards the current results and starts over at platform choice.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != models.StepShowResults {
		return ErrInvalidTransition
	}
	m.generation++ // drops any follow-up fetch still running
	m.step = models.StepSelectPlatform
	m.platform = ""
	m.topic = ""
	m.suggestions = nil
	m.followUps = nil
	m.loadingNext = false
	m.failedNext = false
	m.errMsg = ""
	return nil
}

// SavePost saves one of the current suggestions with the platform, handle
// and topic it was generated for.
func (m *Machine) SavePost(ctx context.Context, s models.PostSuggestion, when *time.Time) (models.SavedPost, error) {
	m.mu.Lock()
	if m.platform == "" || m.topic == "" || m.brand == nil {
		m.mu.Unlock()
		return models.SavedPost{}, ErrInvalidTransition
	}
	draft := models.NewDraft(s, m.platform, m.brand.BrandName, m.topic)
	m.mu.Unlock()

	return m.library.Save(ctx, draft, when)
}

// Reschedule sets or clears the schedule of a saved post.
func (m *Machine) Reschedule(ctx context.Context, id string, when *time.Time) (models.SavedPost, error) {
	return m.library.Save(ctx, models.ExistingDraft(id), when)
}

// DeletePost hides a saved post; the deletion can be undone until the undo
// window closes.
func (m *Machine) DeletePost(ctx context.Context, id string) (posts.PendingDeletion, error) {
	return m.library.Delete(ctx, id)
}

// UndoDelete restores the post deleted last.
func (m *Machine) UndoDelete(ctx context.Context) (models.SavedPost, error) {
	return m.library.Undo(ctx)
}

// Posts returns the saved-post library.
func (m *Machine) Posts() *posts.Library {
	return m.library
}

// Theme returns the current theme preference.
func (m *Machine) Theme() models.Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme
}

// SetTheme stores the theme preference.
func (m *Machine) SetTheme(ctx context.Context, t models.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setThemeLocked(ctx, t)
}

// ToggleTheme flips between light and dark and returns the new theme.
func (m *Machine) ToggleTheme(ctx context.Context) (models.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.theme.Toggle()
	if err := m.setThemeLocked(ctx, next); err != nil {
		return m.theme, err
	}
	return next, nil
}

func (m *Machine) setThemeLocked(ctx context.Context, t models.Theme) error {
	if _, err := models.ParseTheme(string(t)); err != nil {
		return err
	}
	if err := m.store.Set(ctx, kv.KeyTheme, t); err != nil {
		return fmt.Errorf("theme save: %w", err)
	}
	m.theme = t
	return nil
}

// Close waits for background work and commits a pending deletion. The
// Machine must not be used afterwards.
func (m *Machine) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.followUp.Wait()
	return m.library.Close(ctx)
}
