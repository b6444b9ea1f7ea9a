// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"fmt"
	"strings"

	"postcraft/internal/models"
)

const (
	contentTemperature  = 0.8
	followUpTemperature = 0.7
)

const contentSystem = "You are a world-class social media strategist and content creator. " +
	"You write posts that match a brand's voice and the conventions of the platform they are published on."

const followUpSystem = "You are a senior social media content strategist who plans what a brand should post next."

// brandSection describes the brand to the model. A brand with no bio,
// examples or voice gets a style simulated from its handle instead.
func brandSection(req models.GenerationRequest, simulated string) string {
	bc := req.Brand
	if !bc.HasProfile() {
		return "Brand context:\n- Tone and style (simulated): " + simulated + "\n"
	}

	var b strings.Builder
	b.WriteString("Brand context (provided by the user):\n")
	fmt.Fprintf(&b, "- Brand bio: %q\n", orNotProvided(bc.Bio))
	b.WriteString("- Recent post examples:\n")
	if len(bc.PostExamples) == 0 {
		b.WriteString("  - None provided\n")
	}
	for i, ex := range bc.PostExamples {
		fmt.Fprintf(&b, "  - Example %d: %q\n", i+1, ex)
	}
	fmt.Fprintf(&b, "- Desired tone: %q\n", orNotProvided(bc.BrandVoice))
	return b.String()
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not provided"
	}
	return s
}

func contentPrompt(req models.GenerationRequest) Prompt {
	simulated := fmt.Sprintf("based on the handle '%s', write content that feels authentic to a user with this identity.", req.Handle)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate 3 engaging post ideas for %s.\n\n", req.Platform)
	fmt.Fprintf(&b, "User and topic:\n- Platform: %s\n- Handle: %s\n- Post topic: %q\n\n", req.Platform, req.Handle, req.Topic)
	b.WriteString(brandSection(req, simulated))
	b.WriteString("\nInstructions:\n")
	b.WriteString("1. Match the tone, style and vocabulary of the brand context. Without one, use a style that fits the handle and platform.\n")
	fmt.Fprintf(&b, "2. Optimize each caption for %s: respect its length limits, tone and conventions.\n", req.Platform)
	b.WriteString("3. For each idea give a caption, an image or video suggestion that complements it, and 5-7 relevant hashtags without the '#' symbol.\n")
	b.WriteString("4. Return a JSON array of objects with \"caption\", \"imageSuggestion\" and \"hashtags\".\n")

	return Prompt{
		System:      contentSystem,
		User:        b.String(),
		Temperature: contentTemperature,
		Schema:      suggestionsSchema,
	}
}

func followUpPrompt(req models.GenerationRequest) Prompt {
	simulated := fmt.Sprintf("assume a style appropriate for the handle '%s' on %s.", req.Handle, req.Platform)

	var b strings.Builder
	b.WriteString("Suggest 3-5 follow-up post ideas based on a recent post and the brand profile.\n\n")
	fmt.Fprintf(&b, "Current post:\n- Platform: %s\n- Handle: %s\n- Original post topic: %q\n\n", req.Platform, req.Handle, req.Topic)
	b.WriteString(brandSection(req, simulated))
	b.WriteString("\nInstructions:\n")
	fmt.Fprintf(&b, "1. Consider the core message of %q and how it fits the brand.\n", req.Topic)
	b.WriteString("2. Propose 3 to 5 distinct ideas for the next posts that build on the topic in the same voice.\n")
	fmt.Fprintf(&b, "3. Keep each idea concise, concrete and suited to %s.\n", req.Platform)
	b.WriteString("4. Return a JSON object with a \"nextSteps\" array of strings.\n")

	return Prompt{
		System:      followUpSystem,
		User:        b.String(),
		Temperature: followUpTemperature,
		Schema:      followUpsSchema,
	}
}

func imagePrompt(concept string) string {
	return fmt.Sprintf("A high-quality, visually appealing, professional social media image representing the following concept: %q. "+
		"Style: vibrant, clean, photographic. Square 1:1 composition.", concept)
}
