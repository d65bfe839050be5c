// Package votersession manages the anonymous session identity used for
// idempotent voting and report attribution.
//
// The identifier rides a signed cookie (gorilla/sessions over securecookie)
// so a browser keeps the same session id across requests without any
// account. One session id means one vote per report.
package votersession

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	sessionName = "pulstrix-session"
	idKey       = "session_id"
)

// Manager issues and reads voter session ids.
type Manager struct {
	store *sessions.CookieStore
	log   *zap.Logger
}

// NewManager builds a session manager with the given signing key. Secure
// marks the cookie HTTPS-only (enabled in production).
func NewManager(signingKey string, secure bool, logger *zap.Logger) *Manager {
	store := sessions.NewCookieStore([]byte(signingKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 365,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store, log: logger}
}

// SessionID returns the request's voter session id, minting and setting a
// new one when the request carries none. The new id is written to the
// response, so this must be called before the handler writes a body.
func (m *Manager) SessionID(w http.ResponseWriter, r *http.Request) string {
	sess, err := m.store.Get(r, sessionName)
	if err != nil {
		// A tampered or stale cookie just means a fresh session; anything
		// else is worth a log line.
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			m.log.Debug("voter session cookie rejected", zap.Error(err))
		} else {
			m.log.Warn("voter session read failed", zap.Error(err))
		}
	}

	if id, ok := sess.Values[idKey].(string); ok && id != "" {
		return id
	}

	id := uuid.NewString()
	sess.Values[idKey] = id
	if err := m.store.Save(r, w, sess); err != nil {
		m.log.Warn("voter session save failed", zap.Error(err))
	}
	return id
}
