package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/nexus/identity"
	"github.com/nasermirzaei89/nexus/random"
)

const viewSessionIDKey = "viewSessionId"

type SessionValueNotFoundError struct {
	Key string
}

func (err SessionValueNotFoundError) Error() string {
	return fmt.Sprintf("session value for key '%s' not found", err.Key)
}

// getSession never fails on a cookie it cannot decode; that cookie is simply replaced by a new session.
func (h *Handler) getSession(r *http.Request) *sessions.Session {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		slog.WarnContext(r.Context(), "discarding unreadable session cookie", "error", err)
	}

	if session == nil {
		session = sessions.NewSession(h.cookieStore, h.sessionName)
	}

	return session
}

func (h *Handler) getSessionValue(r *http.Request, key string) (string, error) {
	value, ok := h.getSession(r).Values[key].(string)
	if !ok || value == "" {
		return "", SessionValueNotFoundError{Key: key}
	}

	return value, nil
}

func (h *Handler) setSessionValue(w http.ResponseWriter, r *http.Request, key, value string) error {
	session := h.getSession(r)

	session.Values[key] = value

	err := session.Save(r, w)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}

// viewSessionMiddleware exposes an existing view session on the request context. It never creates one; see
// ensureViewSession.
func (h *Handler) viewSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := h.getSessionValue(r, viewSessionIDKey)
		if err == nil {
			r = r.WithContext(identity.WithSessionID(r.Context(), sessionID))
		}

		next.ServeHTTP(w, r)
	})
}

// ensureViewSession returns the view session of the request, starting one when the client has none.
func (h *Handler) ensureViewSession(w http.ResponseWriter, r *http.Request) (string, error) {
	if sessionID, ok := identity.SessionIDFromContext(r.Context()); ok {
		return sessionID, nil
	}

	sessionID := random.SessionID()

	err := h.setSessionValue(w, r, viewSessionIDKey, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to start view session: %w", err)
	}

	return sessionID, nil
}
