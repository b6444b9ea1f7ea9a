// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"postcraft/internal/models"
	"postcraft/internal/slug"
)

// SuggestionCount is the number of post ideas requested per generation.
const SuggestionCount = 3

// maxFollowUps caps the follow-up ideas kept from one answer.
const maxFollowUps = 5

var (
	// ErrContentGeneration wraps every failure to produce post suggestions.
	ErrContentGeneration = errors.New("failed to generate social media content")

	// ErrFollowUpGeneration wraps every failure to produce follow-up ideas.
	ErrFollowUpGeneration = errors.New("failed to generate next post ideas")

	// ErrImageGeneration wraps every failure to produce an image.
	ErrImageGeneration = errors.New("failed to generate image")

	// ErrUnsafePrompt is joined to ErrContentGeneration when moderation
	// flags the topic.
	ErrUnsafePrompt = errors.New("prompt rejected by moderation")
)

// Generator is the provider surface the Gateway needs. *Registry
// implements it.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
	CheckPrompt(ctx context.Context, text string) (*ModerationResult, error)
}

// Archive stores generated images and returns their public URL.
// *storage.Client implements it.
type Archive interface {
	PutImage(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Image is a generated picture. URL is set only when the image was
// archived.
type Image struct {
	Base64   string `json:"base64"`
	MIMEType string `json:"mimeType"`
	URL      string `json:"url,omitempty"`
}

// DataURL returns the image as a data: URL.
func (img Image) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + img.Base64
}

// Gateway turns generation requests into prompts and decodes the answers.
type Gateway struct {
	gen     Generator
	archive Archive
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithArchive uploads every generated image to a.
func WithArchive(a Archive) GatewayOption {
	return func(g *Gateway) { g.archive = a }
}

// NewGateway creates a Gateway over gen.
func NewGateway(gen Generator, opts ...GatewayOption) *Gateway {
	g := &Gateway{gen: gen}
	for _, o := range opts {
		o(g)
	}
	return g
}

// GenerateContent returns post suggestions for req.
func (g *Gateway) GenerateContent(ctx context.Context, req models.GenerationRequest) ([]models.PostSuggestion, error) {
	if err := g.moderate(ctx, req.Topic); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentGeneration, err)
	}

	text, err := g.gen.Generate(ctx, contentPrompt(req))
	if err != nil {
		slog.Error("content generation failed", "platform", req.Platform, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrContentGeneration, err)
	}

	suggestions, err := parseSuggestions(text)
	if err != nil {
		slog.Error("content generation returned an unusable answer", "platform", req.Platform, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrContentGeneration, err)
	}
	if len(suggestions) != SuggestionCount {
		slog.Warn("unexpected number of suggestions", "got", len(suggestions), "want", SuggestionCount)
	}
	return suggestions, nil
}

// moderate rejects flagged topics. An unreachable moderation API lets the
// prompt through.
func (g *Gateway) moderate(ctx context.Context, text string) error {
	res, err := g.gen.CheckPrompt(ctx, text)
	if err != nil {
		slog.Warn("prompt moderation unavailable", "error", err)
		return nil
	}
	if res != nil && !res.Safe {
		return fmt.Errorf("%w: %s", ErrUnsafePrompt, strings.Join(res.Categories, ", "))
	}
	return nil
}

func parseSuggestions(text string) ([]models.PostSuggestion, error) {
	var raw []models.PostSuggestion
	if err := json.Unmarshal([]byte(unwrapJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}

	out := make([]models.PostSuggestion, 0, len(raw))
	for _, s := range raw {
		s.Caption = strings.TrimSpace(s.Caption)
		if s.Caption == "" {
			continue
		}
		s.ImageSuggestion = strings.TrimSpace(s.ImageSuggestion)
		s.Hashtags = cleanHashtags(s.Hashtags)
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, errors.New("no suggestions in answer")
	}
	if len(out) > SuggestionCount {
		out = out[:SuggestionCount]
	}
	return out, nil
}

// cleanHashtags strips '#' prefixes and drops blanks.
func cleanHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#"))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// GenerateFollowUpIdeas returns up to five ideas for the next posts. An
// answer without a nextSteps list yields no ideas and no error.
func (g *Gateway) GenerateFollowUpIdeas(ctx context.Context, req models.GenerationRequest) ([]string, error) {
	text, err := g.gen.Generate(ctx, followUpPrompt(req))
	if err != nil {
		slog.Error("follow-up generation failed", "platform", req.Platform, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFollowUpGeneration, err)
	}

	var answer map[string]json.RawMessage
	if err := json.Unmarshal([]byte(unwrapJSON(text)), &answer); err != nil {
		slog.Error("follow-up generation returned invalid JSON", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFollowUpGeneration, err)
	}

	var steps []string
	if err := json.Unmarshal(answer["nextSteps"], &steps); err != nil || steps == nil {
		slog.Warn("follow-up answer has no nextSteps list", "answer", text)
		return []string{}, nil
	}

	ideas := make([]string, 0, len(steps))
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			ideas = append(ideas, s)
		}
	}
	if len(ideas) > maxFollowUps {
		ideas = ideas[:maxFollowUps]
	}
	return ideas, nil
}

// GenerateImage draws a picture for an image suggestion.
func (g *Gateway) GenerateImage(ctx context.Context, concept string) (Image, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return Image{}, fmt.Errorf("%w: empty image prompt", ErrImageGeneration)
	}

	data, mime, err := g.gen.GenerateImage(ctx, imagePrompt(concept))
	if err != nil {
		slog.Error("image generation failed", "error", err)
		return Image{}, fmt.Errorf("%w: %w", ErrImageGeneration, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: no image was generated", ErrImageGeneration)
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	return Image{Base64: base64.StdEncoding.EncodeToString(data), MIMEType: mime}, nil
}

// Archive uploads img under images/<owner>/ when an archive is configured
// and returns it with URL set. Without an archive img is returned as is.
func (g *Gateway) Archive(ctx context.Context, owner, concept string, img Image) (Image, error) {
	if g.archive == nil {
		return img, nil
	}

	data, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil {
		return img, fmt.Errorf("archive decode: %w", err)
	}
	id, err := gonanoid.New(10)
	if err != nil {
		return img, fmt.Errorf("archive id: %w", err)
	}

	key := fmt.Sprintf("images/%s/%s-%s%s", owner, slug.Limit(concept, 48, "image"), id, extension(img.MIMEType))
	url, err := g.archive.PutImage(ctx, key, data, img.MIMEType)
	if err != nil {
		return img, fmt.Errorf("archive upload: %w", err)
	}
	img.URL = url
	return img, nil
}

func extension(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
