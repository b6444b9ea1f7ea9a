// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"postcraft/internal/models"
)

// Validation limits for user-supplied text.
const (
	maxBrandNameLen   = 100
	maxBioLen         = 2_000
	maxPostExamples   = 10
	maxPostExampleLen = 2_000
	maxBrandVoiceLen  = 200
	maxTopicLen       = 500
	maxCaptionLen     = 5_000
	maxHashtags       = 30
	maxConceptLen     = 1_000
)

// validateBrand checks brand form inputs and returns the first error found.
func validateBrand(bc models.BrandContext) string {
	if utf8.RuneCountInString(bc.BrandName) > maxBrandNameLen {
		return fmt.Sprintf("Brand name is too long (max %d characters).", maxBrandNameLen)
	}
	if utf8.RuneCountInString(bc.Bio) > maxBioLen {
		return "Bio is too long (max 2,000 characters)."
	}
	if len(bc.PostExamples) > maxPostExamples {
		return fmt.Sprintf("Too many post examples (max %d).", maxPostExamples)
	}
	for _, ex := range bc.PostExamples {
		if utf8.RuneCountInString(ex) > maxPostExampleLen {
			return "Post example is too long (max 2,000 characters)."
		}
	}
	if utf8.RuneCountInString(bc.BrandVoice) > maxBrandVoiceLen {
		return fmt.Sprintf("Brand voice is too long (max %d characters).", maxBrandVoiceLen)
	}
	return ""
}

// validateTopic limits the topic length. Blank topics are rejected by the
// workflow itself.
func validateTopic(topic string) string {
	if utf8.RuneCountInString(topic) > maxTopicLen {
		return "Topic is too long (max 500 characters)."
	}
	return ""
}

// validateSuggestion checks a suggestion sent back by the client.
func validateSuggestion(s models.PostSuggestion) string {
	if strings.TrimSpace(s.Caption) == "" {
		return "Caption is required."
	}
	if utf8.RuneCountInString(s.Caption) > maxCaptionLen {
		return "Caption is too long (max 5,000 characters)."
	}
	if utf8.RuneCountInString(s.ImageSuggestion) > maxConceptLen {
		return "Image suggestion is too long (max 1,000 characters)."
	}
	if len(s.Hashtags) > maxHashtags {
		return fmt.Sprintf("Too many hashtags (max %d).", maxHashtags)
	}
	return ""
}

// validateConcept checks an image prompt.
func validateConcept(concept string) string {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return "Please describe the image you'd like to generate."
	}
	if utf8.RuneCountInString(concept) > maxConceptLen {
		return "Image description is too long (max 1,000 characters)."
	}
	return ""
}
