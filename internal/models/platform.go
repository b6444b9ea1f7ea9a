// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
)

// Platform is the social network a post is written for.
type Platform string

const (
	PlatformInstagram Platform = "Instagram"
	PlatformTwitter   Platform = "Twitter"
	PlatformFacebook  Platform = "Facebook"
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformTikTok    Platform = "TikTok"
)

// ErrUnknownPlatform is returned when a platform name is not one of Platforms.
var ErrUnknownPlatform = errors.New("unknown platform")

// Platforms lists every supported platform in display order.
var Platforms = []Platform{
	PlatformInstagram,
	PlatformTwitter,
	PlatformFacebook,
	PlatformLinkedIn,
	PlatformTikTok,
}

var postingTips = map[Platform]string{
	PlatformInstagram: "For Reels, use trending audio and aim for quick cuts. For feed posts, a high-quality image is crucial. Post Stories for behind-the-scenes content.",
	PlatformTwitter:   "Engage in conversations and use relevant hashtags sparingly. Posting threads can be a great way to share more detailed information.",
	PlatformFacebook:  "Videos (especially Live) get high engagement. Encourage comments by asking questions to your audience.",
	PlatformLinkedIn:  "Tag relevant companies or people. The best times to post are typically during business hours on weekdays.",
	PlatformTikTok:    "Post consistently and hop on trends quickly. The first 3 seconds of your video are the most important to capture attention.",
}

// ParsePlatform converts a name into a Platform. Matching is exact.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
	return p, nil
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	_, ok := postingTips[p]
	return ok
}

// PostingTip returns a short best-practice hint for the platform.
func (p Platform) PostingTip() string {
	return postingTips[p]
}
