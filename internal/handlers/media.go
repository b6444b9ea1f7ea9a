// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"postcraft/internal/ai"
	"postcraft/internal/models"
	"postcraft/internal/session"
	"postcraft/internal/share"
)

type imageRequest struct {
	Concept string `json:"concept"`
}

type imageResponse struct {
	ai.Image
	DataURL  string `json:"dataUrl"`
	Filename string `json:"filename"`
}

// GenerateImage draws a picture for an image suggestion. When an archive
// is configured the picture is also uploaded and its URL returned; an
// upload failure still returns the picture.
func (a *API) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := validateConcept(req.Concept); msg != "" {
		writeFailure(w, invalid(msg))
		return
	}
	if a.images == nil {
		writeError(w, http.StatusServiceUnavailable, "Image generation is not configured.")
		return
	}

	concept := strings.TrimSpace(req.Concept)
	img, err := a.images.GenerateImage(r.Context(), concept)
	if err != nil {
		if errors.Is(err, ai.ErrImageGeneration) {
			writeError(w, http.StatusBadGateway, "Image generation failed.")
			return
		}
		writeFailure(w, err)
		return
	}

	if id, ok := session.ClientIDFromCtx(r.Context()); ok {
		archived, err := a.images.Archive(r.Context(), id.String(), concept, img)
		if err != nil {
			slog.Warn("image archive failed", "client", id, "error", err)
		} else {
			img = archived
		}
	}

	ext := strings.TrimPrefix(img.MIMEType, "image/")
	writeJSON(w, http.StatusOK, imageResponse{
		Image:    img,
		DataURL:  img.DataURL(),
		Filename: share.ImageFilename(concept, ext),
	})
}

type shareRequest struct {
	Platform   string                `json:"platform"`
	Suggestion models.PostSuggestion `json:"suggestion"`
}

// Share returns how to hand a post off to its network.
func (a *API) Share(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := validateSuggestion(req.Suggestion); msg != "" {
		writeFailure(w, invalid(msg))
		return
	}
	p, err := platformRequest{Platform: req.Platform}.parse()
	if err != nil {
		writeFailure(w, err)
		return
	}

	intent, err := share.For(p, req.Suggestion, a.shareURL)
	if err != nil {
		writeFailure(w, invalid(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

type platformInfo struct {
	Name       models.Platform `json:"name"`
	PostingTip string          `json:"postingTip"`
}

// Platforms lists the supported networks with their posting tips.
func (a *API) Platforms(w http.ResponseWriter, r *http.Request) {
	out := make([]platformInfo, 0, len(models.Platforms))
	for _, p := range models.Platforms {
		out = append(out, platformInfo{Name: p, PostingTip: p.PostingTip()})
	}
	writeJSON(w, http.StatusOK, out)
}
