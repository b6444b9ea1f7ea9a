// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"context"
	"slices"

	"postcraft/internal/models"
	"postcraft/internal/posts"
)

// View is a snapshot of the session for rendering.
type View struct {
	Step             models.Step            `json:"step"`
	PreviousStep     *models.Step           `json:"previousStep,omitempty"`
	Platform         models.Platform        `json:"platform,omitempty"`
	PostingTip       string                 `json:"postingTip,omitempty"`
	Topic            string                 `json:"topic,omitempty"`
	Suggestions      []Suggestion           `json:"suggestions"`
	FollowUps        []string               `json:"followUps"`
	FollowUpsLoading bool                   `json:"followUpsLoading"`
	FollowUpsFailed  bool                   `json:"followUpsFailed"`
	Error            string                 `json:"error,omitempty"`
	Brand            *models.BrandContext   `json:"brand"`
	Usage            Usage                  `json:"usage"`
	SavedCount       int                    `json:"savedCount"`
	PendingDeletion  *posts.PendingDeletion `json:"pendingDeletion,omitempty"`
	Theme            models.Theme           `json:"theme"`
}

// Suggestion is a generated post with its saved badge.
type Suggestion struct {
	models.PostSuggestion
	Saved bool `json:"saved"`
}

// Usage reports today's generation count against the limit.
type Usage struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// View returns a snapshot of the session. It reads today's usage, which
// resets a record left over from an earlier day.
func (m *Machine) View(ctx context.Context) (View, error) {
	rec, err := m.quota.Status(ctx)
	if err != nil {
		return View{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		Step:             m.step,
		Platform:         m.platform,
		PostingTip:       m.platform.PostingTip(),
		Topic:            m.topic,
		Suggestions:      make([]Suggestion, 0, len(m.suggestions)),
		FollowUps:        slices.Clone(m.followUps),
		FollowUpsLoading: m.loadingNext,
		FollowUpsFailed:  m.failedNext,
		Error:            m.errMsg,
		Usage: Usage{
			Date:      rec.Date,
			Count:     rec.Count,
			Limit:     m.quota.Limit(),
			Remaining: m.quota.Remaining(rec),
		},
		SavedCount: m.library.Count(),
		Theme:      m.theme,
	}
	if v.FollowUps == nil {
		v.FollowUps = []string{}
	}
	if m.previous != models.StepUninitialized {
		prev := m.previous
		v.PreviousStep = &prev
	}
	if m.brand != nil {
		bc := *m.brand
		v.Brand = &bc
	}
	for _, s := range m.suggestions {
		v.Suggestions = append(v.Suggestions, Suggestion{
			PostSuggestion: s,
			Saved:          m.library.IsSaved(s.Caption, m.topic, m.platform),
		})
	}
	if pd, ok := m.library.Pending(); ok {
		v.PendingDeletion = &pd
	}
	return v, nil
}
