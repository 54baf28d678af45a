package web

import (
	"net/http"

	"github.com/nasermirzaei89/nexus/contents"
	"github.com/nasermirzaei89/nexus/expansion"
	"github.com/samber/lo"
)

func (h *Handler) HandleListPosts() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, err := contents.ParseScope(r.URL.Query().Get("scope"))
		if err != nil {
			writeError(w, r, err)

			return
		}

		posts, err := h.contentsSvc.ListPosts(r.Context(), viewerID(r), scope)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, map[string]any{
			"posts": lo.Map(posts, func(post *contents.Post, _ int) *postResponse {
				return h.newPostResponse(post)
			}),
		})
	})
}

type createPostRequest struct {
	Text  string   `json:"text"`
	Media []string `json:"media"`
}

func (h *Handler) HandleCreatePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createPostRequest

		err := readJSON(r, &req)
		if err != nil {
			writeError(w, r, err)

			return
		}

		post, err := h.contentsSvc.CreatePost(r.Context(), contents.CreatePostRequest{
			AuthorID: viewerID(r),
			Text:     req.Text,
			Media:    req.Media,
		})
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusCreated, h.newPostResponse(post))
	})
}

func (h *Handler) HandleGetPost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		post, err := h.contentsSvc.GetPost(r.Context(), r.PathValue("postId"), viewerID(r))
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, h.newPostResponse(post))
	})
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *Handler) HandleEditPost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req textRequest

		err := readJSON(r, &req)
		if err != nil {
			writeError(w, r, err)

			return
		}

		post, err := h.contentsSvc.EditPost(r.Context(), r.PathValue("postId"), viewerID(r), req.Text)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, h.newPostResponse(post))
	})
}

func (h *Handler) HandleDeletePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h.contentsSvc.DeletePost(r.Context(), r.PathValue("postId"), viewerID(r))
		if err != nil {
			writeError(w, r, err)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *Handler) HandleToggleLikePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		post, err := h.contentsSvc.ToggleLikePost(r.Context(), r.PathValue("postId"), viewerID(r))
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, h.newPostResponse(post))
	})
}

func (h *Handler) HandleRecordView() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		views, err := h.contentsSvc.RecordView(r.Context(), r.PathValue("postId"))
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, map[string]any{"views": views})
	})
}

// HandleCloseView forgets which comments the caller expanded on the post, so reopening it starts from defaults.
func (h *Handler) HandleCloseView() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := viewSession(r)
		if ok {
			err := h.expansion.Close(r.Context(), expansion.ViewKey(sessionID, r.PathValue("postId")))
			if err != nil {
				writeError(w, r, err)

				return
			}
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
