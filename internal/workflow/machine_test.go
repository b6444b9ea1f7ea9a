// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"postcraft/internal/deferred"
	"postcraft/internal/kv"
	"postcraft/internal/models"
	"postcraft/internal/posts"
	"postcraft/internal/quota"
)

// fakeGateway returns canned content. When block is set, GenerateContent
// waits on it before answering.
type fakeGateway struct {
	mu           sync.Mutex
	contentCalls int
	followCalls  int
	requests     []models.GenerationRequest
	contentErr   error
	followErr    error
	followUps    []string
	block        chan struct{}
	entered      chan struct{}
}

func (g *fakeGateway) GenerateContent(_ context.Context, req models.GenerationRequest) ([]models.PostSuggestion, error) {
	g.mu.Lock()
	g.contentCalls++
	g.requests = append(g.requests, req)
	block, entered, err := g.block, g.entered, g.contentErr
	g.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	out := make([]models.PostSuggestion, 3)
	for i := range out {
		out[i] = models.PostSuggestion{
			Caption:         fmt.Sprintf("%s caption %d for %s", req.Topic, i+1, req.Platform),
			ImageSuggestion: "a rocket",
			Hashtags:        []string{"launch", "space", "acme", "rockets", "liftoff"},
		}
	}
	return out, nil
}

func (g *fakeGateway) GenerateFollowUpIdeas(context.Context, models.GenerationRequest) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.followCalls++
	if g.followErr != nil {
		return nil, g.followErr
	}
	if g.followUps != nil {
		return g.followUps, nil
	}
	return []string{"behind the scenes", "customer story", "launch recap"}, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.contentCalls
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) add(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	m       *Machine
	gw      *fakeGateway
	store   *kv.Store
	backend *kv.MemoryBackend
	sched   *deferred.Manual
	clock   *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := kv.NewMemoryBackend()
	return newFixtureOn(t, backend)
}

func newFixtureOn(t *testing.T, backend *kv.MemoryBackend) *fixture {
	t.Helper()
	f := &fixture{
		gw:      &fakeGateway{},
		backend: backend,
		store:   kv.Scope(backend, "client"),
		sched:   deferred.NewManual(),
		clock:   &clock{t: time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)},
	}
	m, err := New(context.Background(), Config{
		Store:      f.store,
		Gateway:    f.gw,
		UsageLimit: 10,
		Location:   time.UTC,
		Now:        f.clock.now,
		Scheduler:  f.sched,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.m = m
	t.Cleanup(func() { m.Close(context.Background()) })
	return f
}

func (f *fixture) view(t *testing.T) View {
	t.Helper()
	v, err := f.m.View(context.Background())
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	return v
}

func (f *fixture) step() models.Step {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.m.step
}

func (f *fixture) seedBrand(t *testing.T, bc models.BrandContext) {
	t.Helper()
	if err := f.store.Set(context.Background(), kv.KeyBrandContext, bc); err != nil {
		t.Fatalf("seed brand: %v", err)
	}
}

var acme = models.BrandContext{BrandName: "Acme", Bio: "We build rockets.", BrandVoice: "Playful"}

// toResults drives a started machine with a brand to SHOW_RESULTS.
func (f *fixture) toResults(t *testing.T, p models.Platform, topic string) {
	t.Helper()
	if err := f.m.SelectPlatform(p); err != nil {
		t.Fatalf("SelectPlatform: %v", err)
	}
	if err := f.m.SubmitTopic(context.Background(), topic); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	f.m.WaitFollowUps()
}

func TestStartWithoutBrand(t *testing.T) {
	f := newFixture(t)
	if f.step() != models.StepUninitialized {
		t.Fatalf("step before Start = %v", f.step())
	}
	if err := f.m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	v := f.view(t)
	if v.Step != models.StepProvideContext {
		t.Errorf("step = %v, want PROVIDE_CONTEXT", v.Step)
	}
	if v.Brand != nil || v.Usage.Count != 0 || v.Usage.Limit != 10 || v.Usage.Remaining != 10 {
		t.Errorf("view = %+v", v)
	}
	if v.Theme != models.ThemeLight {
		t.Errorf("theme = %s", v.Theme)
	}
}

func TestStartWithBrandAndTheme(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.store.Set(context.Background(), kv.KeyTheme, "dark")

	if err := f.m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	v := f.view(t)
	if v.Step != models.StepSelectPlatform {
		t.Errorf("step = %v", v.Step)
	}
	if v.Brand == nil || v.Brand.BrandName != "Acme" {
		t.Errorf("brand = %+v", v.Brand)
	}
	if v.Theme != models.ThemeDark {
		t.Errorf("theme = %s", v.Theme)
	}
}

func TestStartWithInvalidBrandForcesSetup(t *testing.T) {
	f := newFixture(t)
	f.backend.Save(context.Background(), "client", kv.KeyBrandContext, []byte(`{"brandName":"","bio":"x"}`))

	f.m.Start(context.Background())
	if f.step() != models.StepProvideContext {
		t.Errorf("step = %v", f.step())
	}
}

func TestProvideContextFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.m.Start(ctx)

	_, err := f.m.SaveBrandContext(ctx, models.BrandContext{BrandName: "  "})
	if !errors.Is(err, models.ErrBrandNameRequired) {
		t.Fatalf("error = %v", err)
	}
	if f.step() != models.StepProvideContext {
		t.Error("validation failure must not transition")
	}

	saved, err := f.m.SaveBrandContext(ctx, models.BrandContext{BrandName: " Acme ", PostExamples: []string{"", "hi"}})
	if err != nil {
		t.Fatalf("SaveBrandContext: %v", err)
	}
	if saved.BrandName != "Acme" || len(saved.PostExamples) != 1 {
		t.Errorf("saved = %+v", saved)
	}
	if f.step() != models.StepSelectPlatform {
		t.Errorf("step = %v", f.step())
	}
}

func TestBrandEditReturnsToPreviousView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBrand(t, acme)
	f.m.Start(ctx)

	if err := f.m.Navigate(models.StepShowSaved); err != nil {
		t.Fatalf("Navigate saved: %v", err)
	}
	if err := f.m.Navigate(models.StepEditBrandContext); err != nil {
		t.Fatalf("Navigate edit: %v", err)
	}
	if _, err := f.m.SaveBrandContext(ctx, models.BrandContext{BrandName: "Acme 2"}); err != nil {
		t.Fatalf("SaveBrandContext: %v", err)
	}

	v := f.view(t)
	if v.Step != models.StepShowSaved {
		t.Errorf("step = %v, want SHOW_SAVED", v.Step)
	}
	if v.PreviousStep != nil {
		t.Errorf("previous step should be cleared, got %v", *v.PreviousStep)
	}
	if v.Brand.BrandName != "Acme 2" {
		t.Errorf("brand = %+v", v.Brand)
	}
}

func TestBrandEditWithoutPreviousFallsBack(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())

	f.m.mu.Lock()
	f.m.step = models.StepEditBrandContext
	f.m.previous = models.StepProvideContext
	f.m.mu.Unlock()

	f.m.SaveBrandContext(context.Background(), acme)
	if f.step() != models.StepSelectPlatform {
		t.Errorf("step = %v", f.step())
	}
}

func TestSaveBrandContextWrongStep(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	if _, err := f.m.SaveBrandContext(context.Background(), acme); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("error = %v", err)
	}
}

func TestSubmitTopicSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBrand(t, acme)
	f.m.Start(ctx)
	f.toResults(t, models.PlatformInstagram, "  launch  ")

	v := f.view(t)
	if v.Step != models.StepShowResults {
		t.Fatalf("step = %v", v.Step)
	}
	if v.Topic != "launch" || v.Platform != models.PlatformInstagram {
		t.Errorf("topic/platform = %q/%s", v.Topic, v.Platform)
	}
	if len(v.Suggestions) != 3 {
		t.Fatalf("suggestions = %d", len(v.Suggestions))
	}
	for _, s := range v.Suggestions {
		if n := len(s.Hashtags); n < 5 || n > 7 {
			t.Errorf("hashtag count = %d", n)
		}
	}
	if v.Usage.Count != 1 || v.Usage.Remaining != 9 {
		t.Errorf("usage = %+v", v.Usage)
	}
	if len(v.FollowUps) != 3 || v.FollowUpsLoading || v.FollowUpsFailed {
		t.Errorf("follow-ups = %v loading=%v failed=%v", v.FollowUps, v.FollowUpsLoading, v.FollowUpsFailed)
	}
	if v.Error != "" {
		t.Errorf("error = %q", v.Error)
	}
	if v.PostingTip == "" {
		t.Error("posting tip missing")
	}

	req := f.gw.requests[0]
	if req.Handle != "Acme" || req.Brand.Bio != "We build rockets." {
		t.Errorf("gateway request = %+v", req)
	}

	var rec models.UsageRecord
	f.store.Get(ctx, kv.KeyUsage, &rec)
	if rec.Count != 1 || rec.Date != "2026-10-18" {
		t.Errorf("stored usage = %+v", rec)
	}
}

func TestSubmitTopicValidation(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	f.m.SelectPlatform(models.PlatformTwitter)

	if err := f.m.SubmitTopic(context.Background(), "   "); !errors.Is(err, ErrTopicRequired) {
		t.Errorf("error = %v", err)
	}
	if f.step() != models.StepEnterTopic || f.gw.calls() != 0 {
		t.Error("blank topic must not transition or call the gateway")
	}
}

func TestSubmitTopicWrongStep(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	if err := f.m.SubmitTopic(context.Background(), "launch"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("error = %v", err)
	}
}

func TestQuotaExhaustionSkipsGateway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBrand(t, acme)
	f.store.Set(ctx, kv.KeyUsage, models.UsageRecord{Date: "2026-10-18", Count: 10})
	f.m.Start(ctx)
	f.m.SelectPlatform(models.PlatformInstagram)

	err := f.m.SubmitTopic(ctx, "launch")
	if !errors.Is(err, quota.ErrLimitReached) {
		t.Fatalf("error = %v", err)
	}
	if f.gw.calls() != 0 {
		t.Error("gateway called despite exhausted quota")
	}

	v := f.view(t)
	if v.Step != models.StepEnterTopic {
		t.Errorf("step = %v", v.Step)
	}
	want := "You have reached your daily limit of 10 generations. Please try again tomorrow."
	if v.Error != want {
		t.Errorf("error message = %q", v.Error)
	}
	if v.Usage.Count != 10 {
		t.Errorf("count = %d", v.Usage.Count)
	}
}

func TestNextDayResetsQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBrand(t, acme)
	f.store.Set(ctx, kv.KeyUsage, models.UsageRecord{Date: "2026-10-17", Count: 10})
	f.m.Start(ctx)

	v := f.view(t)
	if v.Usage.Date != "2026-10-18" || v.Usage.Count != 0 {
		t.Fatalf("usage = %+v", v.Usage)
	}

	f.toResults(t, models.PlatformLinkedIn, "launch")
	if got := f.view(t).Usage.Count; got != 1 {
		t.Errorf("count = %d", got)
	}

	f.clock.add(24 * time.Hour)
	if got := f.view(t).Usage; got.Count != 0 || got.Date != "2026-10-19" {
		t.Errorf("usage next day = %+v", got)
	}
}

func TestGenerationFailureRevertsAndRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBrand(t, acme)
	f.m.Start(ctx)
	f.m.SelectPlatform(models.PlatformFacebook)
	f.gw.contentErr = errors.New("upstream 500")

	err := f.m.SubmitTopic(ctx, "launch")
	if err == nil {
		t.Fatal("expected error")
	}

	v := f.view(t)
	if v.Step != models.StepEnterTopic {
		t.Errorf("step = %v", v.Step)
	}
	if v.Topic != "launch" {
		t.Errorf("topic not preserved: %q", v.Topic)
	}
	if v.Error != MsgGenerationFailed {
		t.Errorf("error message = %q", v.Error)
	}
	if len(v.Suggestions) != 0 {
		t.Error("suggestions should be empty")
	}
	if v.Usage.Count != 0 {
		t.Errorf("failed generation should be refunded, count = %d", v.Usage.Count)
	}

	// Retry succeeds and clears the error.
	f.gw.contentErr = nil
	if err := f.m.SubmitTopic(ctx, "launch"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	f.m.WaitFollowUps()
	if v := f.view(t); v.Error != "" || v.Step != models.StepShowResults {
		t.Errorf("after retry: step=%v error=%q", v.Step, v.Error)
	}
}

// ctxBackend refuses writes on a done context, as network backends do.
type ctxBackend struct{ *kv.MemoryBackend }

func (b ctxBackend) Save(ctx context.Context, ns, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.MemoryBackend.Save(ctx, ns, key, value)
}

func TestCanceledGenerationStillRefunds(t *testing.T) {
	backend := ctxBackend{kv.NewMemoryBackend()}
	store := kv.Scope(backend, "client")
	if err := store.Set(context.Background(), kv.KeyBrandContext, acme); err != nil {
		t.Fatalf("seed brand: %v", err)
	}
	gw := &fakeGateway{
		contentErr: context.Canceled,
		block:      make(chan struct{}),
		entered:    make(chan struct{}),
	}
	m, err := New(context.Background(), Config{
		Store:      store,
		Gateway:    gw,
		UsageLimit: 10,
		Location:   time.UTC,
		Now:        func() time.Time { return time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC) },
		Scheduler:  deferred.NewManual(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { m.Close(context.Background()) })
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.SelectPlatform(models.PlatformInstagram)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-gw.entered
		cancel()
		close(gw.block)
	}()
	if err := m.SubmitTopic(ctx, "launch"); !errors.Is(err, context.Canceled) {
		t.Fatalf("SubmitTopic error = %v", err)
	}

	v, err := m.View(context.Background())
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Step != models.StepEnterTopic {
		t.Errorf("step = %v", v.Step)
	}
	if v.Usage.Count != 0 {
		t.Errorf("usage count = %d, want 0 after a canceled generation", v.Usage.Count)
	}
}

func TestFollowUpFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	f.gw.followErr = errors.New("follow-ups down")
	f.toResults(t, models.PlatformTikTok, "launch")

	v := f.view(t)
	if v.Step != models.StepShowResults {
		t.Errorf("step = %v", v.Step)
	}
	if len(v.Suggestions) != 3 {
		t.Errorf("suggestions = %d", len(v.Suggestions))
	}
	if !v.FollowUpsFailed || v.FollowUpsLoading || len(v.FollowUps) != 0 {
		t.Errorf("follow-ups = %v failed=%v loading=%v", v.FollowUps, v.FollowUpsFailed, v.FollowUpsLoading)
	}
	if v.Error != "" {
		t.Errorf("follow-up failure should not set the error message: %q", v.Error)
	}
}

func TestRegenerateSwitchesPlatform(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	f.toResults(t, models.PlatformInstagram, "launch")

	if err := f.m.Regenerate(context.Background(), models.PlatformLinkedIn); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	f.m.WaitFollowUps()

	v := f.view(t)
	if v.Platform != models.PlatformLinkedIn || v.Topic != "launch" || v.Step != models.StepShowResults {
		t.Errorf("view = %+v", v)
	}
	if v.Usage.Count != 2 {
		t.Errorf("count = %d", v.Usage.Count)
	}
	if f.gw.requests[1].Platform != models.PlatformLinkedIn {
		t.Errorf("gateway platform = %s", f.gw.requests[1].Platform)
	}
}

func TestRegenerateFailureGoesToTopicEntry(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	f.toResults(t, models.PlatformInstagram, "launch")

	f.gw.contentErr = errors.New("boom")
	f.m.Regenerate(context.Background(), models.PlatformTwitter)

	v := f.view(t)
	if v.Step != models.StepEnterTopic || v.Topic != "launch" || v.Error != MsgGenerationFailed {
		t.Errorf("view = step %v topic %q error %q", v.Step, v.Topic, v.Error)
	}
}

func TestSingleFlightGeneration(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	f.m.SelectPlatform(models.PlatformInstagram)

	f.gw.block = make(chan struct{})
	f.gw.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- f.m.SubmitTopic(context.Background(), "launch") }()
	<-f.gw.entered

	if f.step() != models.StepGenerating {
		t.Fatalf("step = %v, want GENERATING", f.step())
	}
	if err := f.m.SubmitTopic(context.Background(), "other"); !errors.Is(err, ErrBusy) {
		t.Errorf("second SubmitTopic error = %v", err)
	}
	if err := f.m.Regenerate(context.Background(), models.PlatformTwitter); !errors.Is(err, ErrBusy) {
		t.Errorf("Regenerate error = %v", err)
	}

	close(f.gw.block)
	if err := <-done; err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	f.m.WaitFollowUps()
	if f.gw.calls() != 1 {
		t.Errorf("gateway calls = %d", f.gw.calls())
	}
}

func TestNavigateAwayDuringGeneration(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	f.m.SelectPlatform(models.PlatformInstagram)

	f.gw.block = make(chan struct{})
	f.gw.entered = make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() { done <- f.m.SubmitTopic(context.Background(), "launch") }()
	<-f.gw.entered

	if err := f.m.Navigate(models.StepShowCalendar); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	close(f.gw.block)
	<-done
	f.m.WaitFollowUps()

	v := f.view(t)
	if v.Step != models.StepShowCalendar {
		t.Errorf("generation yanked the view to %v", v.Step)
	}
	if v.PreviousStep == nil || *v.PreviousStep != models.StepShowResults {
		t.Errorf("previous = %v", v.PreviousStep)
	}

	f.m.Back()
	if f.step() != models.StepShowResults {
		t.Errorf("Back went to %v", f.step())
	}
}

func TestNavigateAndBack(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	f.m.SelectPlatform(models.PlatformInstagram)

	if err := f.m.Navigate(models.StepEnterTopic); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("navigating to a main step: %v", err)
	}

	f.m.Navigate(models.StepShowSaved)
	f.m.Navigate(models.StepShowSaved) // no-op
	v := f.view(t)
	if v.Step != models.StepShowSaved || v.PreviousStep == nil || *v.PreviousStep != models.StepEnterTopic {
		t.Fatalf("after navigate: %v / %v", v.Step, v.PreviousStep)
	}

	f.m.Back()
	if f.step() != models.StepEnterTopic {
		t.Errorf("Back = %v", f.step())
	}
	f.m.Back()
	if f.step() != models.StepSelectPlatform {
		t.Errorf("Back from topic entry = %v", f.step())
	}
	if err := f.m.Back(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Back from platform choice: %v", err)
	}
}

func TestBackWithoutPreviousFallsBack(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	f.m.Navigate(models.StepShowCalendar)
	f.m.Back()

	f.m.mu.Lock()
	f.m.step = models.StepShowSaved
	f.m.mu.Unlock()
	f.m.Back()
	if f.step() != models.StepSelectPlatform {
		t.Errorf("step = %v", f.step())
	}
}

func TestNavigateBeforeBrandSetup(t *testing.T) {
	f := newFixture(t)
	f.m.Start(context.Background())
	if err := f.m.Navigate(models.StepShowSaved); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("error = %v", err)
	}
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.seedBrand(t, acme)
	f.m.Start(context.Background())
	f.toResults(t, models.PlatformInstagram, "launch")

	if err := f.m.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	v := f.view(t)
	if v.Step != models.StepSelectPlatform || v.Platform != "" || v.Topic != "" ||
		len(v.Suggestions) != 0 || len(v.FollowUps) != 0 || v.Error != "" {
		t.Errorf("view after reset = %+v", v)
	}
	if err := f.m.Reset(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Reset: %v", err)
	}
}

func TestSaveDeleteUndoThroughMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBrand(t, acme)
	f.m.Start(ctx)

	if _, err := f.m.SavePost(ctx, models.PostSuggestion{Caption: "x"}, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SavePost without results: %v", err)
	}

	f.toResults(t, models.PlatformInstagram, "launch")
	v := f.view(t)
	post, err := f.m.SavePost(ctx, v.Suggestions[0].PostSuggestion, nil)
	if err != nil {
		t.Fatalf("SavePost: %v", err)
	}
	if post.Handle != "Acme" || post.Topic != "launch" || post.Platform != models.PlatformInstagram {
		t.Errorf("post = %+v", post)
	}

	v = f.view(t)
	if !v.Suggestions[0].Saved || v.Suggestions[1].Saved {
		t.Errorf("saved badges = %v, %v", v.Suggestions[0].Saved, v.Suggestions[1].Saved)
	}
	if v.SavedCount != 1 {
		t.Errorf("SavedCount = %d", v.SavedCount)
	}

	when := time.Date(2026, 10, 25, 9, 0, 0, 0, time.UTC)
	if _, err := f.m.Reschedule(ctx, post.ID, &when); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if f.m.Posts().Count() != 1 {
		t.Error("reschedule duplicated the post")
	}

	if _, err := f.m.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	v = f.view(t)
	if v.PendingDeletion == nil || v.SavedCount != 0 {
		t.Errorf("pending = %v count = %d", v.PendingDeletion, v.SavedCount)
	}

	if _, err := f.m.UndoDelete(ctx); err != nil {
		t.Fatalf("UndoDelete: %v", err)
	}
	v = f.view(t)
	if v.PendingDeletion != nil || v.SavedCount != 1 {
		t.Errorf("after undo: pending = %v count = %d", v.PendingDeletion, v.SavedCount)
	}

	f.m.DeletePost(ctx, post.ID)
	f.sched.Advance(posts.DefaultUndoWindow)
	if _, err := f.m.UndoDelete(ctx); !errors.Is(err, posts.ErrNothingToUndo) {
		t.Errorf("undo after window: %v", err)
	}
}

func TestThemeToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.m.Start(ctx)

	th, err := f.m.ToggleTheme(ctx)
	if err != nil || th != models.ThemeDark {
		t.Fatalf("ToggleTheme = %s, %v", th, err)
	}
	var stored string
	f.store.Get(ctx, kv.KeyTheme, &stored)
	if stored != "dark" {
		t.Errorf("stored theme = %q", stored)
	}

	if err := f.m.SetTheme(ctx, "sepia"); err == nil {
		t.Error("unknown theme accepted")
	}
	if err := f.m.SetTheme(ctx, models.ThemeLight); err != nil || f.m.Theme() != models.ThemeLight {
		t.Errorf("SetTheme: %v, theme %s", err, f.m.Theme())
	}
}

func TestCloseCommitsPendingDeletion(t *testing.T) {
	backend := kv.NewMemoryBackend()
	f := newFixtureOn(t, backend)
	ctx := context.Background()
	f.seedBrand(t, acme)
	f.m.Start(ctx)
	f.toResults(t, models.PlatformInstagram, "launch")

	post, _ := f.m.SavePost(ctx, models.PostSuggestion{Caption: "keep?"}, nil)
	f.m.DeletePost(ctx, post.ID)
	if err := f.m.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var stored []models.SavedPost
	f.store.Get(ctx, kv.KeySavedPosts, &stored)
	if len(stored) != 0 {
		t.Errorf("pending deletion not committed on close: %d posts", len(stored))
	}
}

// Acme / launch / Instagram walkthrough from a fresh client.
func TestFullSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.m.Start(ctx)
	if _, err := f.m.SaveBrandContext(ctx, acme); err != nil {
		t.Fatalf("SaveBrandContext: %v", err)
	}
	f.toResults(t, models.PlatformInstagram, "launch")

	v := f.view(t)
	if v.Step != models.StepShowResults || len(v.Suggestions) != 3 || v.Usage.Count != 1 {
		t.Fatalf("view = %+v", v)
	}

	post, err := f.m.SavePost(ctx, v.Suggestions[1].PostSuggestion, nil)
	if err != nil {
		t.Fatalf("SavePost: %v", err)
	}
	f.m.Navigate(models.StepShowSaved)
	if newest := f.m.Posts().Newest(); len(newest) != 1 || newest[0].ID != post.ID {
		t.Errorf("saved view = %+v", newest)
	}
	f.m.Back()
	if f.step() != models.StepShowResults {
		t.Errorf("Back = %v", f.step())
	}

	// A second client session on the same storage sees the same data.
	m2, err := New(ctx, Config{Store: f.store, Gateway: f.gw, Location: time.UTC, Now: f.clock.now, Scheduler: deferred.NewManual()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m2.Close(ctx)
	m2.Start(ctx)
	v2, _ := m2.View(ctx)
	if v2.Step != models.StepSelectPlatform || v2.SavedCount != 1 || v2.Usage.Count != 1 {
		t.Errorf("reopened view = %+v", v2)
	}
}
