// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"postcraft/internal/calendar"
	"postcraft/internal/models"
	"postcraft/internal/posts"
	"postcraft/internal/workflow"
)

type postsResponse struct {
	Posts           []models.SavedPost     `json:"posts"`
	PendingDeletion *posts.PendingDeletion `json:"pendingDeletion,omitempty"`
}

// ListPosts returns the saved posts, newest first, or with ?view=scheduled
// only the scheduled ones in date order.
func (a *API) ListPosts(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	if view != "" && view != "newest" && view != "scheduled" {
		writeFailure(w, invalid("view must be newest or scheduled"))
		return
	}

	a.withMachine(w, r, func(m *workflow.Machine) {
		lib := m.Posts()
		resp := postsResponse{Posts: lib.Newest()}
		if view == "scheduled" {
			resp.Posts = lib.Scheduled()
		}
		if resp.Posts == nil {
			resp.Posts = []models.SavedPost{}
		}
		if p, ok := lib.Pending(); ok {
			resp.PendingDeletion = &p
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

type savePostRequest struct {
	Suggestion   models.PostSuggestion `json:"suggestion"`
	ScheduledFor *time.Time            `json:"scheduledFor"`
}

// SavePost keeps one of the current suggestions, optionally scheduled.
func (a *API) SavePost(w http.ResponseWriter, r *http.Request) {
	var req savePostRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := validateSuggestion(req.Suggestion); msg != "" {
		writeFailure(w, invalid(msg))
		return
	}

	a.withMachine(w, r, func(m *workflow.Machine) {
		post, err := m.SavePost(r.Context(), req.Suggestion, req.ScheduledFor)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, post)
	})
}

// GetPost returns one saved post. A post pending deletion is not found.
func (a *API) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a.withMachine(w, r, func(m *workflow.Machine) {
		post, err := m.Posts().Get(id)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	})
}

type scheduleRequest struct {
	ScheduledFor *time.Time `json:"scheduledFor"`
}

// Reschedule sets or, with a null date, clears a saved post's schedule.
func (a *API) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")

	a.withMachine(w, r, func(m *workflow.Machine) {
		post, err := m.Reschedule(r.Context(), id, req.ScheduledFor)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	})
}

// DeletePost hides a saved post. The response tells when the deletion
// becomes final; until then POST /posts/undo restores it.
func (a *API) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a.withMachine(w, r, func(m *workflow.Machine) {
		pending, err := m.DeletePost(r.Context(), id)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, pending)
	})
}

// UndoDelete restores the post deleted last.
func (a *API) UndoDelete(w http.ResponseWriter, r *http.Request) {
	a.withMachine(w, r, func(m *workflow.Machine) {
		post, err := m.UndoDelete(r.Context())
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	})
}

// Calendar lays the scheduled posts out on a month grid. ?month=YYYY-MM
// selects the month; the current one is the default.
func (a *API) Calendar(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	month := calendar.MonthOf(now.In(a.loc))
	if s := r.URL.Query().Get("month"); s != "" {
		parsed, err := calendar.ParseMonth(s)
		if err != nil {
			writeFailure(w, invalid(err.Error()))
			return
		}
		month = parsed
	}

	a.withMachine(w, r, func(m *workflow.Machine) {
		writeJSON(w, http.StatusOK, calendar.Build(month, m.Posts().Scheduled(), now, a.loc))
	})
}
