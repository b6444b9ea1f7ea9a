// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ModerationResult contains the outcome of a prompt safety check.
type ModerationResult struct {
	Safe       bool
	Categories []string // flagged categories, empty when safe
}

// Moderator checks user text for policy violations before generation.
type Moderator interface {
	CheckSafety(ctx context.Context, text string) (*ModerationResult, error)
}

// errModerationAuth marks a moderation call rejected for its credentials.
var errModerationAuth = errors.New("moderation: unauthorized")

// httpModerator calls an OpenAI-style POST /moderations endpoint. OpenAI
// and Mistral share the request shape; only OpenAI reports a top-level
// flagged field.
type httpModerator struct {
	name     string
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

func newOpenAIModerator(apiKey, baseURL string) *httpModerator {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &httpModerator{
		name:     "openai",
		apiKey:   apiKey,
		endpoint: baseURL + "/moderations",
		model:    "omni-moderation-latest",
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func newMistralModerator(apiKey, baseURL string) *httpModerator {
	if baseURL == "" {
		baseURL = "https://api.mistral.ai/v1"
	}
	return &httpModerator{
		name:     "mistral",
		apiKey:   apiKey,
		endpoint: baseURL + "/moderations",
		model:    "mistral-moderation-latest",
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *httpModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	payload, err := json.Marshal(moderationRequest{Model: m.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("%s moderation marshal: %w", m.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s moderation request: %w", m.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s moderation http: %w", m.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s moderation read body: %w", m.name, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s: %w (status %d)", m.name, errModerationAuth, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s moderation API error (status %d): %s", m.name, resp.StatusCode, string(body))
	}

	var result moderationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%s moderation unmarshal: %w", m.name, err)
	}
	if len(result.Results) == 0 {
		return &ModerationResult{Safe: true}, nil
	}

	r := result.Results[0]
	var flagged []string
	for cat, on := range r.Categories {
		if on {
			flagged = append(flagged, displayCategory(cat))
		}
	}
	sort.Strings(flagged)

	safe := len(flagged) == 0
	if r.Flagged != nil {
		safe = !*r.Flagged
	}
	return &ModerationResult{Safe: safe, Categories: flagged}, nil
}

// displayCategory turns "hate/threatening" into "hate (threatening)".
func displayCategory(cat string) string {
	if i := strings.IndexByte(cat, '/'); i >= 0 {
		cat = cat[:i] + " (" + cat[i+1:] + ")"
	}
	return strings.ReplaceAll(cat, "_", " ")
}

// fallbackModerator switches to the secondary moderator once the primary
// rejects its credentials, e.g. project-scoped OpenAI keys.
type fallbackModerator struct {
	primary   Moderator
	secondary Moderator
}

func (f fallbackModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	res, err := f.primary.CheckSafety(ctx, text)
	if err == nil || !errors.Is(err, errModerationAuth) {
		return res, err
	}
	slog.Warn("primary moderator rejected credentials, using fallback", "error", err)
	return f.secondary.CheckSafety(ctx, text)
}

type moderationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged    *bool           `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}
