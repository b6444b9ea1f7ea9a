// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package posts keeps a client's saved posts. Deleting a post hides it
// immediately and commits the deletion to storage only after an undo
// window; at most one deletion is pending at any time.
package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"postcraft/internal/deferred"
	"postcraft/internal/kv"
	"postcraft/internal/models"
)

// DefaultUndoWindow is how long a deletion can be undone.
const DefaultUndoWindow = 5 * time.Second

var (
	// ErrNotFound is returned for an unknown post id.
	ErrNotFound = errors.New("post not found")

	// ErrNothingToUndo is returned by Undo when no deletion is pending.
	ErrNothingToUndo = errors.New("no deletion to undo")
)

// PendingDeletion describes a deleted post that can still be restored.
type PendingDeletion struct {
	Post      models.SavedPost `json:"post"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

type pendingDeletion struct {
	PendingDeletion
	token  uint64
	handle deferred.Handle
}

// Options configures a Library. Zero values select the defaults.
type Options struct {
	Scheduler  deferred.Scheduler
	UndoWindow time.Duration
	NewID      func() (string, error)
	Now        func() time.Time
}

// Library is the saved-post collection of one client.
type Library struct {
	mu        sync.Mutex
	store     *kv.Store
	scheduler deferred.Scheduler
	window    time.Duration
	newID     func() (string, error)
	now       func() time.Time

	posts   []models.SavedPost
	pending *pendingDeletion
	tokens  uint64
	closed  bool
}

// Open loads the saved posts of the store's client. A corrupt collection is
// logged and replaced by an empty one.
func Open(ctx context.Context, store *kv.Store, opts Options) (*Library, error) {
	l := &Library{
		store:     store,
		scheduler: opts.Scheduler,
		window:    opts.UndoWindow,
		newID:     opts.NewID,
		now:       opts.Now,
	}
	if l.scheduler == nil {
		l.scheduler = deferred.Timers{}
	}
	if l.window <= 0 {
		l.window = DefaultUndoWindow
	}
	if l.newID == nil {
		l.newID = func() (string, error) { return gonanoid.New() }
	}
	if l.now == nil {
		l.now = time.Now
	}

	found, err := store.Get(ctx, kv.KeySavedPosts, &l.posts)
	switch {
	case errors.Is(err, kv.ErrCorrupt):
		slog.Warn("ignoring corrupt saved posts", "namespace", store.Namespace(), "error", err)
		l.posts = nil
	case err != nil:
		return nil, fmt.Errorf("posts load: %w", err)
	case !found:
		l.posts = nil
	}
	return l, nil
}

// persist writes the whole collection. Must be called with l.mu held.
func (l *Library) persist(ctx context.Context) error {
	posts := l.posts
	if posts == nil {
		posts = []models.SavedPost{}
	}
	if err := l.store.Set(ctx, kv.KeySavedPosts, posts); err != nil {
		return fmt.Errorf("posts persist: %w", err)
	}
	return nil
}

func (l *Library) indexOf(id string) int {
	return slices.IndexFunc(l.posts, func(p models.SavedPost) bool { return p.ID == id })
}

func (l *Library) uniqueID() (string, error) {
	for {
		id, err := l.newID()
		if err != nil {
			return "", fmt.Errorf("posts id: %w", err)
		}
		if l.indexOf(id) < 0 && (l.pending == nil || l.pending.Post.ID != id) {
			return id, nil
		}
	}
}

// Save stores a draft. A new draft becomes a post with a fresh id; an
// existing draft only has its schedule replaced (nil unschedules).
func (l *Library) Save(ctx context.Context, d models.Draft, scheduledFor *time.Time) (models.SavedPost, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var post models.SavedPost
	switch d.Kind {
	case models.DraftExisting:
		i := l.indexOf(d.PostID)
		if i < 0 {
			return models.SavedPost{}, ErrNotFound
		}
		l.posts[i].ScheduledFor = copyTime(scheduledFor)
		post = l.posts[i]

	case models.DraftNew:
		id, err := l.uniqueID()
		if err != nil {
			return models.SavedPost{}, err
		}
		post = models.SavedPost{
			PostSuggestion: d.Suggestion,
			ID:             id,
			Platform:       d.Platform,
			Handle:         d.Handle,
			Topic:          d.Topic,
			SavedAt:        l.now(),
			ScheduledFor:   copyTime(scheduledFor),
		}
		l.posts = append(l.posts, post)

	default:
		return models.SavedPost{}, fmt.Errorf("posts save: unknown draft kind %d", d.Kind)
	}

	if err := l.persist(ctx); err != nil {
		return models.SavedPost{}, err
	}
	return post, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Delete hides the post and schedules the deletion to be committed after
// the undo window. A deletion already pending is committed first.
func (l *Library) Delete(ctx context.Context, id string) (PendingDeletion, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return PendingDeletion{}, ErrNotFound
	}

	if l.pending != nil {
		prev := l.pending
		if err := l.commitLocked(ctx, prev.token); err != nil {
			return PendingDeletion{}, err
		}
		prev.handle.Cancel()
	}

	post := l.posts[i]
	l.posts = slices.Delete(l.posts, i, i+1)

	l.tokens++
	token := l.tokens
	p := &pendingDeletion{
		PendingDeletion: PendingDeletion{Post: post, ExpiresAt: l.now().Add(l.window)},
		token:           token,
	}
	l.pending = p
	p.handle = l.scheduler.Schedule(l.window, func() { l.commitExpired(token) })

	return p.PendingDeletion, nil
}

// commitExpired runs when the undo window closes.
func (l *Library) commitExpired(token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := l.commitLocked(ctx, token); err != nil {
		slog.Error("commit post deletion", "namespace", l.store.Namespace(), "error", err)
	}
}

// commitLocked persists the collection without the pending post. It does
// nothing unless token names the deletion still pending, so each deletion
// is committed once. A failed write leaves the deletion pending and
// undoable. Must be called with l.mu held.
func (l *Library) commitLocked(ctx context.Context, token uint64) error {
	if l.pending == nil || l.pending.token != token || l.closed {
		return nil
	}
	id := l.pending.Post.ID
	if err := l.persist(ctx); err != nil {
		return err
	}
	l.pending = nil
	slog.Debug("post deletion committed", "namespace", l.store.Namespace(), "post_id", id)
	return nil
}

// Undo restores the pending post to the end of the collection.
func (l *Library) Undo(ctx context.Context) (models.SavedPost, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending == nil {
		return models.SavedPost{}, ErrNothingToUndo
	}
	l.pending.handle.Cancel()
	post := l.pending.Post
	l.pending = nil

	l.posts = append(l.posts, post)
	if err := l.persist(ctx); err != nil {
		return models.SavedPost{}, err
	}
	return post, nil
}

// Pending returns the deletion that can still be undone, if any.
func (l *Library) Pending() (PendingDeletion, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		return PendingDeletion{}, false
	}
	return l.pending.PendingDeletion, true
}

// List returns the posts in stored order.
func (l *Library) List() []models.SavedPost {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.posts)
}

// Newest returns the posts most recently saved first.
func (l *Library) Newest() []models.SavedPost {
	posts := l.List()
	slices.Reverse(posts)
	return posts
}

// Scheduled returns the posts that have a schedule, earliest first.
func (l *Library) Scheduled() []models.SavedPost {
	var out []models.SavedPost
	for _, p := range l.List() {
		if !p.IsDraft() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledFor.Before(*out[j].ScheduledFor)
	})
	return out
}

// Get returns the post with the given id.
func (l *Library) Get(id string) (models.SavedPost, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		return models.SavedPost{}, ErrNotFound
	}
	return l.posts[i], nil
}

// IsSaved reports whether a post with the same caption, topic and platform
// is in the collection.
func (l *Library) IsSaved(caption, topic string, platform models.Platform) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.ContainsFunc(l.posts, func(p models.SavedPost) bool {
		return p.Caption == caption && p.Topic == topic && p.Platform == platform
	})
}

// Count returns the number of visible posts.
func (l *Library) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posts)
}

// Close commits a pending deletion right away. No write happens after
// Close returns.
func (l *Library) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	if l.pending != nil {
		l.pending.handle.Cancel()
		err = l.commitLocked(ctx, l.pending.token)
	}
	l.closed = true
	return err
}
