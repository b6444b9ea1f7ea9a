// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiProvider uses the Gemini API through the genai SDK. JSON prompts
// are sent with a response schema; images come back as inline data.
type geminiProvider struct {
	client     *genai.Client
	model      string
	imageModel string
}

func newGemini(ctx context.Context, cfg ProviderConfig) (*geminiProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	p := &geminiProvider{client: client, model: cfg.Model, imageModel: cfg.ModelImage}
	if p.model == "" {
		p.model = "gemini-2.5-flash"
	}
	if p.imageModel == "" {
		p.imageModel = "gemini-2.5-flash-image"
	}
	return p, nil
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Generate(ctx context.Context, pr Prompt) (string, error) {
	conf := &genai.GenerateContentConfig{}
	if pr.System != "" {
		conf.SystemInstruction = genai.NewContentFromText(pr.System, genai.RoleUser)
	}
	if pr.Temperature > 0 {
		conf.Temperature = genai.Ptr(pr.Temperature)
	}
	if pr.Schema != nil {
		conf.ResponseMIMEType = "application/json"
		conf.ResponseSchema = pr.Schema.genai()
	}

	res, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(pr.User), conf)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: no text in response")
	}
	return text, nil
}

// GenerateImage asks the image model for a picture of prompt and returns
// the first JPEG or PNG part.
func (p *geminiProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	res, err := p.client.Models.GenerateContent(ctx, p.imageModel, genai.Text(prompt), nil)
	if err != nil {
		return nil, "", fmt.Errorf("gemini image: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil, "", fmt.Errorf("gemini image: no candidates returned")
	}

	for _, part := range res.Candidates[0].Content.Parts {
		b := part.InlineData
		if b == nil || len(b.Data) == 0 {
			continue
		}
		if b.MIMEType == "image/jpeg" || b.MIMEType == "image/png" {
			return b.Data, b.MIMEType, nil
		}
	}
	return nil, "", fmt.Errorf("gemini image: no image data in response")
}
