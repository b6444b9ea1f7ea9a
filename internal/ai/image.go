// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"
)

// ImageGenerator is implemented by providers that can draw images.
// Claude, Mistral and OpenAI chat models are text-only here.
type ImageGenerator interface {
	// GenerateImage returns the image bytes and their MIME type.
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
}

// GenerateImage uses the active provider when it can draw, otherwise the
// first configured provider that can.
func (r *Registry) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	ig, err := r.imageGenerator()
	if err != nil {
		return nil, "", err
	}
	return ig.GenerateImage(ctx, prompt)
}

// SupportsImageGeneration reports whether any configured provider can draw.
func (r *Registry) SupportsImageGeneration() bool {
	_, err := r.imageGenerator()
	return err == nil
}

func (r *Registry) imageGenerator() (ImageGenerator, error) {
	if p, err := r.Active(); err == nil {
		if ig, ok := p.(ImageGenerator); ok {
			return ig, nil
		}
	}
	for _, name := range r.Available() {
		r.mu.RLock()
		p := r.providers[name]
		r.mu.RUnlock()
		if ig, ok := p.(ImageGenerator); ok {
			return ig, nil
		}
	}
	return nil, fmt.Errorf("ai: no configured provider supports image generation")
}
