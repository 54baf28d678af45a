package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/nasermirzaei89/nexus/identity"
)

// Headers set by the authenticating proxy in front of the service.
const (
	headerActorID   = "X-Actor-ID"
	headerActorName = "X-Actor-Name"
)

func (h *Handler) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := strings.TrimSpace(r.Header.Get(headerActorID))
		if actorID == "" || actorID == identity.Anonymous {
			next.ServeHTTP(w, r)

			return
		}

		ctx := identity.WithSubject(r.Context(), actorID)

		if name := strings.TrimSpace(r.Header.Get(headerActorName)); name != "" {
			ctx = identity.WithDisplayName(ctx, name)
		}

		slog.DebugContext(ctx, "identified actor", "actorId", actorID, "actorName", identity.GetDisplayName(ctx))

		if h.authzClient != nil {
			err := h.authzClient.Admit(ctx, actorID)
			if err != nil {
				slog.ErrorContext(ctx, "error on admitting actor", "actorId", actorID, "error", err)
				writeError(w, r.WithContext(ctx), err)

				return
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// viewerID is empty for anonymous requests.
func viewerID(r *http.Request) string {
	return identity.ActorID(r.Context())
}
