// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"strings"
)

// ErrBrandNameRequired is returned when a brand context has no name.
var ErrBrandNameRequired = errors.New("brand name is required")

// BrandContext is the user's brand identity, used to steer generation.
// It is stored as a single document and replaced wholesale on every edit.
type BrandContext struct {
	BrandName    string   `json:"brandName"`
	Bio          string   `json:"bio"`
	PostExamples []string `json:"postExamples"`
	BrandVoice   string   `json:"brandVoice"`
}

// Normalize trims the name and bio and drops blank post examples.
func (b BrandContext) Normalize() BrandContext {
	examples := make([]string, 0, len(b.PostExamples))
	for _, ex := range b.PostExamples {
		if ex = strings.TrimSpace(ex); ex != "" {
			examples = append(examples, ex)
		}
	}
	return BrandContext{
		BrandName:    strings.TrimSpace(b.BrandName),
		Bio:          strings.TrimSpace(b.Bio),
		PostExamples: examples,
		BrandVoice:   b.BrandVoice,
	}
}

// Validate checks the invariants every stored brand context must satisfy.
func (b BrandContext) Validate() error {
	if strings.TrimSpace(b.BrandName) == "" {
		return ErrBrandNameRequired
	}
	return nil
}

// HasProfile reports whether the user described their brand beyond its name.
func (b BrandContext) HasProfile() bool {
	return b.Bio != "" || len(b.PostExamples) > 0 || b.BrandVoice != ""
}
