// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"encoding/json"
	"strings"

	"google.golang.org/genai"
)

// Schema describes the JSON shape a prompt expects back. Gemini receives it
// as a response schema; chat providers get it as an instruction.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

func (s *Schema) genai() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Items:       s.Items.genai(),
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.genai()
		}
	}
	return out
}

// instruction renders the schema as a system prompt suffix for providers
// without native structured output.
func (s *Schema) instruction() string {
	b, _ := json.Marshal(s)
	return "\n\nRespond with JSON only, no prose and no code fences. The JSON must match this schema: " + string(b)
}

var suggestionsSchema = &Schema{
	Type: "array",
	Items: &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"caption": {
				Type:        "string",
				Description: "The generated social media caption, tailored for the specified platform.",
			},
			"imageSuggestion": {
				Type:        "string",
				Description: "A concise, descriptive suggestion for an accompanying image or video.",
			},
			"hashtags": {
				Type:        "array",
				Description: "5-7 relevant and trending hashtags for the post, without the '#' symbol.",
				Items:       &Schema{Type: "string"},
			},
		},
		Required: []string{"caption", "imageSuggestion", "hashtags"},
	},
}

var followUpsSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"nextSteps": {
			Type:        "array",
			Description: "3-5 distinct, actionable ideas for future posts that follow the current topic.",
			Items:       &Schema{Type: "string"},
		},
	},
	Required: []string{"nextSteps"},
}

// unwrapJSON strips a markdown code fence around a JSON answer.
func unwrapJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
