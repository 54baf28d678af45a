package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/nasermirzaei89/nexus/contents"
	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/nasermirzaei89/nexus/expansion"
	"github.com/nasermirzaei89/nexus/identity"
	"github.com/samber/lo"
)

func viewSession(r *http.Request) (string, bool) {
	return identity.SessionIDFromContext(r.Context())
}

type commentResultResponse struct {
	Comment *commentResponse `json:"comment"`
	Counts  countsResponse   `json:"counts"`
}

type replyResultResponse struct {
	Reply  *replyResponse `json:"reply"`
	Counts countsResponse `json:"counts"`
}

type deleteResultResponse struct {
	Removed int            `json:"removed"`
	Counts  countsResponse `json:"counts"`
}

func (h *Handler) newCommentResult(res *contents.CommentResult) *commentResultResponse {
	return &commentResultResponse{
		Comment: h.newCommentResponse(res.Comment, nil),
		Counts:  newCountsResponse(res.Counts),
	}
}

func (h *Handler) newReplyResult(res *contents.ReplyResult) *replyResultResponse {
	return &replyResultResponse{
		Reply:  h.newReplyResponse(res.Reply),
		Counts: newCountsResponse(res.Counts),
	}
}

func newDeleteResult(res *contents.DeleteResult) *deleteResultResponse {
	return &deleteResultResponse{
		Removed: res.Removed,
		Counts:  newCountsResponse(res.Counts),
	}
}

// HandleListComments returns the sorted discussion with the caller's expansion state. Comments with replies shown
// for the first time in this view start expanded.
func (h *Handler) HandleListComments() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order, err := discuss.ParseSortOrder(r.URL.Query().Get("order"))
		if err != nil {
			writeError(w, r, err)

			return
		}

		postID := r.PathValue("postId")

		listing, err := h.contentsSvc.ListComments(r.Context(), postID, viewerID(r), order)
		if err != nil {
			writeError(w, r, err)

			return
		}

		sessionID, err := h.ensureViewSession(w, r)
		if err != nil {
			writeError(w, r, err)

			return
		}

		view := expansion.ViewKey(sessionID, postID)

		err = h.expansion.Show(r.Context(), view, listing.Comments)
		if err != nil {
			writeError(w, r, err)

			return
		}

		state, err := h.expansion.Snapshot(r.Context(), view)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, map[string]any{
			"postId": listing.PostID,
			"order":  order,
			"comments": lo.Map(listing.Comments, func(comment *discuss.Comment, _ int) *commentResponse {
				return h.newCommentResponse(comment, state)
			}),
			"counts": newCountsResponse(listing.Counts),
		})
	})
}

func (h *Handler) HandleAddComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req textRequest

		err := readJSON(r, &req)
		if err != nil {
			writeError(w, r, err)

			return
		}

		res, err := h.contentsSvc.AddComment(r.Context(), r.PathValue("postId"), viewerID(r), req.Text)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusCreated, h.newCommentResult(res))
	})
}

func (h *Handler) HandleEditComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req textRequest

		err := readJSON(r, &req)
		if err != nil {
			writeError(w, r, err)

			return
		}

		res, err := h.contentsSvc.EditComment(
			r.Context(),
			r.PathValue("postId"),
			r.PathValue("commentId"),
			viewerID(r),
			req.Text,
		)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, h.newCommentResult(res))
	})
}

func (h *Handler) HandleDeleteComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.contentsSvc.DeleteComment(r.Context(), r.PathValue("postId"), r.PathValue("commentId"), viewerID(r))
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, newDeleteResult(res))
	})
}

func (h *Handler) HandleToggleLikeComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.contentsSvc.ToggleLikeComment(
			r.Context(),
			r.PathValue("postId"),
			r.PathValue("commentId"),
			viewerID(r),
		)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, h.newCommentResult(res))
	})
}

func (h *Handler) HandlePinComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.contentsSvc.PinComment(r.Context(), r.PathValue("postId"), r.PathValue("commentId"), viewerID(r))
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, h.newCommentResult(res))
	})
}

type reportRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) HandleReportComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req reportRequest

		// The reason is optional, so an empty body is an empty request.
		err := readJSON(r, &req)
		if err != nil && !errors.Is(err, io.EOF) {
			writeError(w, r, err)

			return
		}

		report, err := h.contentsSvc.ReportComment(
			r.Context(),
			r.PathValue("postId"),
			r.PathValue("commentId"),
			viewerID(r),
			req.Reason,
		)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusAccepted, report)
	})
}

// HandleToggleExpand flips whether the comment's replies are shown in the caller's view of the post.
func (h *Handler) HandleToggleExpand() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")
		commentID := r.PathValue("commentId")

		_, err := h.contentsSvc.GetPost(r.Context(), postID, viewerID(r))
		if err != nil {
			writeError(w, r, err)

			return
		}

		sessionID, err := h.ensureViewSession(w, r)
		if err != nil {
			writeError(w, r, err)

			return
		}

		expanded, err := h.expansion.Toggle(r.Context(), expansion.ViewKey(sessionID, postID), commentID)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, map[string]any{"commentId": commentID, "expanded": expanded})
	})
}

type addReplyRequest struct {
	ParentID string `json:"parentId"`
	Text     string `json:"text"`
}

func (h *Handler) HandleAddReply() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req addReplyRequest

		err := readJSON(r, &req)
		if err != nil {
			writeError(w, r, err)

			return
		}

		res, err := h.contentsSvc.AddReply(
			r.Context(),
			r.PathValue("postId"),
			r.PathValue("commentId"),
			req.ParentID,
			viewerID(r),
			req.Text,
		)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusCreated, h.newReplyResult(res))
	})
}

func (h *Handler) HandleDeleteReply() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.contentsSvc.DeleteReply(
			r.Context(),
			r.PathValue("postId"),
			r.PathValue("commentId"),
			r.PathValue("replyId"),
			viewerID(r),
		)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, newDeleteResult(res))
	})
}

func (h *Handler) HandleToggleLikeReply() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.contentsSvc.ToggleLikeReply(
			r.Context(),
			r.PathValue("postId"),
			r.PathValue("commentId"),
			r.PathValue("replyId"),
			viewerID(r),
		)
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, r, http.StatusOK, h.newReplyResult(res))
	})
}
