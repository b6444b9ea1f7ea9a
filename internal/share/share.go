// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package share builds the text and target link used to hand a post off
// to a social network. Networks without a web intent get a copy-only
// instruction.
package share

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"postcraft/internal/models"
)

// DefaultPageURL is the page Facebook's sharer links to.
const DefaultPageURL = "https://lemmaiot.com.ng"

const (
	twitterIntent  = "https://twitter.com/intent/tweet?text="
	facebookSharer = "https://www.facebook.com/sharer/sharer.php"
	linkedInFeed   = "https://www.linkedin.com/feed/?shareActive=true"
)

// Intent tells the client what to do to share a post.
type Intent struct {
	Platform models.Platform `json:"platform"`
	Text     string          `json:"text"`
	URL      string          `json:"url,omitempty"`
	Copy     bool            `json:"copy"`
	Message  string          `json:"message,omitempty"`
}

// Text joins the caption and its hashtags, each prefixed with '#'.
func Text(s models.PostSuggestion) string {
	tags := make([]string, 0, len(s.Hashtags))
	for _, h := range s.Hashtags {
		h = strings.TrimLeft(strings.TrimSpace(h), "#")
		if h != "" {
			tags = append(tags, "#"+h)
		}
	}
	if len(tags) == 0 {
		return s.Caption
	}
	return s.Caption + "\n\n" + strings.Join(tags, " ")
}

// For builds the share intent for p. pageURL overrides DefaultPageURL when set.
func For(p models.Platform, s models.PostSuggestion, pageURL string) (Intent, error) {
	if !p.Valid() {
		return Intent{}, fmt.Errorf("%w: %q", models.ErrUnknownPlatform, p)
	}
	if pageURL == "" {
		pageURL = DefaultPageURL
	}

	text := Text(s)
	in := Intent{Platform: p, Text: text}
	switch p {
	case models.PlatformTwitter:
		in.URL = twitterIntent + escape(text)
	case models.PlatformFacebook:
		in.URL = facebookSharer + "?u=" + escape(pageURL) + "&quote=" + escape(text)
	case models.PlatformLinkedIn:
		in.URL = linkedInFeed
		in.Copy = true
		in.Message = "Post content copied! We'll open LinkedIn for you to create a new post."
	default:
		in.Copy = true
		in.Message = fmt.Sprintf("Content for your %s post has been copied! Open the app to create a new post.", p)
	}
	return in, nil
}

// escape percent-encodes s as a URI component, spaces included.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// ImageFilename derives a download name from an image concept.
func ImageFilename(concept, ext string) string {
	name := nonAlnum.ReplaceAllString(strings.ToLower(concept), "-")
	if len(name) > 50 {
		name = name[:50]
	}
	name = strings.Trim(name, "-")
	if name == "" {
		name = "generated-image"
	}
	if ext == "" {
		ext = "jpeg"
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}
