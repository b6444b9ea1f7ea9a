// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// PostSuggestion is one generated post idea. Suggestions live only in
// memory until they are saved.
type PostSuggestion struct {
	Caption         string   `json:"caption"`
	ImageSuggestion string   `json:"imageSuggestion"`
	Hashtags        []string `json:"hashtags"`
}

// SavedPost is a suggestion the user kept, optionally scheduled.
type SavedPost struct {
	PostSuggestion
	ID           string     `json:"id"`
	Platform     Platform   `json:"platform"`
	Handle       string     `json:"handle"`
	Topic        string     `json:"topic"`
	SavedAt      time.Time  `json:"savedAt"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
}

// IsDraft reports whether the post has no schedule.
func (p *SavedPost) IsDraft() bool {
	return p.ScheduledFor == nil
}

// DraftKind discriminates what a Draft refers to.
type DraftKind int

const (
	// DraftNew is a fresh suggestion that has never been saved.
	DraftNew DraftKind = iota
	// DraftExisting refers to a post already in the saved collection.
	DraftExisting
)

// Draft is the input to a save or schedule action. New drafts carry the
// suggestion and the context it was generated in; existing drafts carry
// only the saved post's ID.
type Draft struct {
	Kind       DraftKind
	Suggestion PostSuggestion
	Platform   Platform
	Handle     string
	Topic      string
	PostID     string
}

// NewDraft wraps a generated suggestion for saving.
func NewDraft(s PostSuggestion, platform Platform, handle, topic string) Draft {
	return Draft{
		Kind:       DraftNew,
		Suggestion: s,
		Platform:   platform,
		Handle:     handle,
		Topic:      topic,
	}
}

// ExistingDraft refers to an already saved post.
func ExistingDraft(id string) Draft {
	return Draft{Kind: DraftExisting, PostID: id}
}

// GenerationRequest is everything the generation gateway needs to produce
// content for one topic.
type GenerationRequest struct {
	Platform Platform
	Handle   string
	Topic    string
	Brand    BrandContext
}
