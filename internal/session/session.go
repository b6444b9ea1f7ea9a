// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session identifies browsers by a long-lived client cookie. The
// client ID selects the document namespace a browser's workspace lives in.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName is the name of the client cookie sent to the browser.
	CookieName = "pc_client"

	// DefaultMaxAge is how long the browser keeps the client cookie.
	DefaultMaxAge = 365 * 24 * time.Hour
)

type ctxKey struct{}

// Manager issues and reads client cookies.
type Manager struct {
	secure bool
	maxAge time.Duration
}

// NewManager creates a manager. Set secure behind TLS.
func NewManager(secure bool) *Manager {
	return &Manager{secure: secure, maxAge: DefaultMaxAge}
}

// Middleware attaches the request's client ID to its context, issuing a
// fresh one when the cookie is missing or malformed.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.clientID(r)
		if !ok {
			id = uuid.New()
			m.setCookie(w, id)
			slog.Debug("client cookie issued", "client", id)
		}
		next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
	})
}

func (m *Manager) clientID(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func (m *Manager) setCookie(w http.ResponseWriter, id uuid.UUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.maxAge.Seconds()),
	})
}

// WithClientID returns a context carrying id.
func WithClientID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// ClientIDFromCtx returns the client ID stored by Middleware.
func ClientIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}
