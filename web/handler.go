package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/nexus/authorization"
	"github.com/nasermirzaei89/nexus/contents"
	"github.com/nasermirzaei89/nexus/expansion"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether a dependency of the service is usable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	mux          *http.ServeMux
	handler      http.Handler
	contentsSvc  contents.Service
	expansion    expansion.Store
	authzClient  *authorization.Client
	cookieStore  sessions.Store
	sessionName  string
	healthChecks map[string]HealthCheck
	now          func() time.Time
}

var _ http.Handler = (*Handler)(nil)

// NewHandler builds the JSON API. authzClient may be nil, in which case actors are not registered with the
// authorization groups.
func NewHandler(
	contentsSvc contents.Service,
	expansionStore expansion.Store,
	authzClient *authorization.Client,
	cookieStore sessions.Store,
	sessionName string,
	healthChecks map[string]HealthCheck,
) (*Handler, error) {
	if contentsSvc == nil {
		return nil, fmt.Errorf("contents service is required")
	}

	if expansionStore == nil {
		return nil, fmt.Errorf("expansion store is required")
	}

	if cookieStore == nil {
		return nil, fmt.Errorf("cookie store is required")
	}

	h := &Handler{
		mux:          nil,
		handler:      nil,
		contentsSvc:  contentsSvc,
		expansion:    expansionStore,
		authzClient:  authzClient,
		cookieStore:  cookieStore,
		sessionName:  sessionName,
		healthChecks: healthChecks,
		now:          time.Now,
	}

	{
		h.mux = &http.ServeMux{}
		h.handler = h.mux

		h.registerRoutes()
	}

	{
		h.handler = h.viewSessionMiddleware(h.handler)
		h.handler = h.identityMiddleware(h.handler)
		h.handler = recoverMiddleware(h.handler)
	}

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.Handle("GET /healthz", h.HandleHealth())
	h.mux.Handle("GET /metrics", promhttp.Handler())

	h.mux.Handle("GET /posts", h.HandleListPosts())
	h.mux.Handle("POST /posts", h.HandleCreatePost())
	h.mux.Handle("GET /posts/{postId}", h.HandleGetPost())
	h.mux.Handle("PATCH /posts/{postId}", h.HandleEditPost())
	h.mux.Handle("DELETE /posts/{postId}", h.HandleDeletePost())
	h.mux.Handle("POST /posts/{postId}/like", h.HandleToggleLikePost())
	h.mux.Handle("POST /posts/{postId}/views", h.HandleRecordView())
	h.mux.Handle("DELETE /posts/{postId}/view-session", h.HandleCloseView())

	h.mux.Handle("GET /posts/{postId}/comments", h.HandleListComments())
	h.mux.Handle("POST /posts/{postId}/comments", h.HandleAddComment())
	h.mux.Handle("PATCH /posts/{postId}/comments/{commentId}", h.HandleEditComment())
	h.mux.Handle("DELETE /posts/{postId}/comments/{commentId}", h.HandleDeleteComment())
	h.mux.Handle("POST /posts/{postId}/comments/{commentId}/like", h.HandleToggleLikeComment())
	h.mux.Handle("POST /posts/{postId}/comments/{commentId}/pin", h.HandlePinComment())
	h.mux.Handle("POST /posts/{postId}/comments/{commentId}/report", h.HandleReportComment())
	h.mux.Handle("POST /posts/{postId}/comments/{commentId}/expand", h.HandleToggleExpand())

	h.mux.Handle("POST /posts/{postId}/comments/{commentId}/replies", h.HandleAddReply())
	h.mux.Handle("DELETE /posts/{postId}/comments/{commentId}/replies/{replyId}", h.HandleDeleteReply())
	h.mux.Handle("POST /posts/{postId}/comments/{commentId}/replies/{replyId}/like", h.HandleToggleLikeReply())
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				http.Error(w, "internal error occurred", http.StatusInternalServerError)
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) HandleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{}
		healthy := true

		for name, check := range h.healthChecks {
			err := check(r.Context())
			if err != nil {
				slog.WarnContext(r.Context(), "health check failed", "check", name, "error", err)

				status[name] = err.Error()
				healthy = false

				continue
			}

			status[name] = "ok"
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}

		writeJSON(w, r, code, map[string]any{"healthy": healthy, "checks": status})
	})
}
