// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API. Every request operates on the
// workflow Machine of the client named by the request's client cookie.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"postcraft/internal/ai"
	"postcraft/internal/models"
	"postcraft/internal/posts"
	"postcraft/internal/quota"
	"postcraft/internal/session"
	"postcraft/internal/workflow"
	"postcraft/internal/workspace"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Workspaces hands out the machine of a client. *workspace.Manager
// implements it.
type Workspaces interface {
	Acquire(ctx context.Context, clientID string) (*workflow.Machine, func(), error)
}

// Images draws and optionally archives pictures. *ai.Gateway implements it.
type Images interface {
	GenerateImage(ctx context.Context, concept string) (ai.Image, error)
	Archive(ctx context.Context, owner, concept string, img ai.Image) (ai.Image, error)
}

// Options tune the API. Zero values select the defaults.
type Options struct {
	Location     *time.Location
	SharePageURL string
	Now          func() time.Time
}

// API holds the dependencies of the JSON handlers.
type API struct {
	workspaces Workspaces
	images     Images
	loc        *time.Location
	shareURL   string
	now        func() time.Time
}

// NewAPI creates the handler set.
func NewAPI(ws Workspaces, images Images, opts Options) *API {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &API{
		workspaces: ws,
		images:     images,
		loc:        opts.Location,
		shareURL:   opts.SharePageURL,
		now:        opts.Now,
	}
}

// Routes mounts the API under r. The caller provides the client session
// middleware.
func (a *API) Routes(r chi.Router) {
	r.Get("/state", a.State)
	r.Put("/brand", a.SaveBrand)
	r.Post("/navigate", a.Navigate)
	r.Post("/back", a.Back)
	r.Post("/platform", a.SelectPlatform)
	r.Post("/generate", a.Generate)
	r.Post("/regenerate", a.Regenerate)
	r.Post("/reset", a.Reset)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", a.ListPosts)
		r.Post("/", a.SavePost)
		r.Post("/undo", a.UndoDelete)
		r.Get("/{id}", a.GetPost)
		r.Put("/{id}/schedule", a.Reschedule)
		r.Delete("/{id}", a.DeletePost)
	})
	r.Get("/calendar", a.Calendar)

	r.Post("/images", a.GenerateImage)
	r.Post("/share", a.Share)
	r.Get("/platforms", a.Platforms)

	r.Get("/theme", a.Theme)
	r.Put("/theme", a.SetTheme)
	r.Post("/theme/toggle", a.ToggleTheme)
}

// withMachine runs fn with the client's machine held.
func (a *API) withMachine(w http.ResponseWriter, r *http.Request, fn func(m *workflow.Machine)) {
	id, ok := session.ClientIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing client identity")
		return
	}
	m, release, err := a.workspaces.Acquire(r.Context(), id.String())
	if err != nil {
		writeFailure(w, err)
		return
	}
	defer release()
	fn(m)
}

// writeState answers with the machine's current view.
func writeState(w http.ResponseWriter, r *http.Request, m *workflow.Machine, status int) {
	v, err := m.View(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, status, v)
}

// writeStateError answers a failed workflow action. The machine's own
// message is preferred for quota and generation failures since it is the
// text the user should see.
func writeStateError(w http.ResponseWriter, r *http.Request, m *workflow.Machine, err error) {
	status := statusFor(err)
	if status == http.StatusTooManyRequests || status == http.StatusBadGateway {
		if v, verr := m.View(r.Context()); verr == nil && v.Error != "" {
			writeError(w, status, v.Error)
			return
		}
	}
	writeFailure(w, err)
}

// validationError is a request that is well-formed JSON but unacceptable.
type validationError struct{ msg string }

func (e validationError) Error() string { return e.msg }

func invalid(msg string) error { return validationError{msg: msg} }

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var ve validationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, models.ErrBrandNameRequired),
		errors.Is(err, models.ErrUnknownPlatform),
		errors.Is(err, workflow.ErrTopicRequired),
		errors.Is(err, workflow.ErrPlatformRequired),
		errors.Is(err, workflow.ErrBrandRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, quota.ErrLimitReached):
		return http.StatusTooManyRequests
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrSuperseded),
		errors.Is(err, posts.ErrNothingToUndo):
		return http.StatusConflict
	case errors.Is(err, posts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ai.ErrContentGeneration),
		errors.Is(err, ai.ErrImageGeneration):
		return http.StatusBadGateway
	case errors.Is(err, workspace.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeFailure answers with the status for err. Unexpected errors are
// logged and hidden from the client.
func writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		slog.Error("request failed", "error", err)
		msg = "internal server error"
	case http.StatusBadGateway:
		msg = workflow.MsgGenerationFailed
	}
	writeError(w, status, msg)
}

// decode reads a JSON request body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
