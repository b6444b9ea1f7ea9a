// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"postcraft/internal/models"
	"postcraft/internal/workflow"
)

// State returns the session snapshot.
func (a *API) State(w http.ResponseWriter, r *http.Request) {
	a.withMachine(w, r, func(m *workflow.Machine) {
		writeState(w, r, m, http.StatusOK)
	})
}

// SaveBrand stores the brand profile from first-run setup or the editor.
func (a *API) SaveBrand(w http.ResponseWriter, r *http.Request) {
	var bc models.BrandContext
	if !decode(w, r, &bc) {
		return
	}
	if msg := validateBrand(bc); msg != "" {
		writeFailure(w, invalid(msg))
		return
	}

	a.withMachine(w, r, func(m *workflow.Machine) {
		if _, err := m.SaveBrandContext(r.Context(), bc); err != nil {
			writeFailure(w, err)
			return
		}
		writeState(w, r, m, http.StatusOK)
	})
}

type navigateRequest struct {
	Step models.Step `json:"step"`
}

// Navigate opens the saved posts, calendar or brand editor.
func (a *API) Navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.Step.IsAuxiliary() {
		writeFailure(w, invalid("step must be SHOW_SAVED, SHOW_CALENDAR or EDIT_BRAND_CONTEXT"))
		return
	}

	a.withMachine(w, r, func(m *workflow.Machine) {
		if err := m.Navigate(req.Step); err != nil {
			writeFailure(w, err)
			return
		}
		writeState(w, r, m, http.StatusOK)
	})
}

// Back leaves a side view or topic entry.
func (a *API) Back(w http.ResponseWriter, r *http.Request) {
	a.withMachine(w, r, func(m *workflow.Machine) {
		if err := m.Back(); err != nil {
			writeFailure(w, err)
			return
		}
		writeState(w, r, m, http.StatusOK)
	})
}

type platformRequest struct {
	Platform string `json:"platform"`
}

func (req platformRequest) parse() (models.Platform, error) {
	p, err := models.ParsePlatform(req.Platform)
	if err != nil {
		return "", invalid(err.Error())
	}
	return p, nil
}

// SelectPlatform picks the platform and moves on to topic entry.
func (a *API) SelectPlatform(w http.ResponseWriter, r *http.Request) {
	var req platformRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := req.parse()
	if err != nil {
		writeFailure(w, err)
		return
	}

	a.withMachine(w, r, func(m *workflow.Machine) {
		if err := m.SelectPlatform(p); err != nil {
			writeFailure(w, err)
			return
		}
		writeState(w, r, m, http.StatusOK)
	})
}

type generateRequest struct {
	Topic string `json:"topic"`
}

// Generate produces suggestions for a topic. It answers once the
// suggestions are ready; follow-up ideas show up in later state reads.
func (a *API) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := validateTopic(req.Topic); msg != "" {
		writeFailure(w, invalid(msg))
		return
	}

	a.withMachine(w, r, func(m *workflow.Machine) {
		if err := m.SubmitTopic(r.Context(), req.Topic); err != nil {
			writeStateError(w, r, m, err)
			return
		}
		writeState(w, r, m, http.StatusOK)
	})
}

// Regenerate produces new suggestions for the current topic on the given
// platform.
func (a *API) Regenerate(w http.ResponseWriter, r *http.Request) {
	var req platformRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := req.parse()
	if err != nil {
		writeFailure(w, err)
		return
	}

	a.withMachine(w, r, func(m *workflow.Machine) {
		if err := m.Regenerate(r.Context(), p); err != nil {
			writeStateError(w, r, m, err)
			return
		}
		writeState(w, r, m, http.StatusOK)
	})
}

// Reset discards the results and returns to platform choice.
func (a *API) Reset(w http.ResponseWriter, r *http.Request) {
	a.withMachine(w, r, func(m *workflow.Machine) {
		if err := m.Reset(); err != nil {
			writeFailure(w, err)
			return
		}
		writeState(w, r, m, http.StatusOK)
	})
}

type themeBody struct {
	Theme string `json:"theme"`
}

// Theme returns the colour-scheme preference.
func (a *API) Theme(w http.ResponseWriter, r *http.Request) {
	a.withMachine(w, r, func(m *workflow.Machine) {
		writeJSON(w, http.StatusOK, themeBody{Theme: string(m.Theme())})
	})
}

// SetTheme stores the colour-scheme preference.
func (a *API) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeBody
	if !decode(w, r, &req) {
		return
	}
	t, err := models.ParseTheme(req.Theme)
	if err != nil {
		writeFailure(w, invalid(err.Error()))
		return
	}

	a.withMachine(w, r, func(m *workflow.Machine) {
		if err := m.SetTheme(r.Context(), t); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, themeBody{Theme: string(t)})
	})
}

// ToggleTheme flips between light and dark.
func (a *API) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	a.withMachine(w, r, func(m *workflow.Machine) {
		t, err := m.ToggleTheme(r.Context())
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, themeBody{Theme: string(t)})
	})
}
