package web

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nasermirzaei89/nexus/contents"
	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/samber/lo"
)

type countsResponse struct {
	Comments int `json:"comments"`
	Total    int `json:"total"`
}

func newCountsResponse(counts discuss.Counts) countsResponse {
	return countsResponse{Comments: counts.Comments, Total: counts.Total}
}

type postResponse struct {
	ID            string         `json:"id"`
	AuthorID      string         `json:"authorId"`
	Text          string         `json:"text"`
	Media         []string       `json:"media"`
	CreatedAt     time.Time      `json:"createdAt"`
	CreatedAgo    string         `json:"createdAgo"`
	LikeCount     int            `json:"likeCount"`
	LikedByViewer bool           `json:"likedByViewer"`
	Views         int64          `json:"views"`
	Counts        countsResponse `json:"counts"`
}

type replyResponse struct {
	ID            string           `json:"id"`
	CommentID     string           `json:"commentId"`
	ParentID      string           `json:"parentId"`
	AuthorID      string           `json:"authorId"`
	Text          string           `json:"text"`
	CreatedAt     time.Time        `json:"createdAt"`
	CreatedAgo    string           `json:"createdAgo"`
	LikeCount     int              `json:"likeCount"`
	LikedByViewer bool             `json:"likedByViewer"`
	ReplyCount    int              `json:"replyCount"`
	Replies       []*replyResponse `json:"replies"`
}

type commentResponse struct {
	ID              string           `json:"id"`
	PostID          string           `json:"postId"`
	AuthorID        string           `json:"authorId"`
	Text            string           `json:"text"`
	CreatedAt       time.Time        `json:"createdAt"`
	CreatedAgo      string           `json:"createdAgo"`
	LikeCount       int              `json:"likeCount"`
	LikedByViewer   bool             `json:"likedByViewer"`
	Pinned          bool             `json:"pinned"`
	ReplyCount      int              `json:"replyCount"`
	TotalReplyCount int              `json:"totalReplyCount"`
	Expanded        *bool            `json:"expanded,omitempty"`
	Replies         []*replyResponse `json:"replies"`
}

func (h *Handler) createdAgo(createdAt time.Time) string {
	return humanize.RelTime(createdAt, h.now(), "ago", "from now")
}

func (h *Handler) newPostResponse(post *contents.Post) *postResponse {
	media := post.Media
	if media == nil {
		media = []string{}
	}

	return &postResponse{
		ID:            post.ID,
		AuthorID:      post.AuthorID,
		Text:          post.Text,
		Media:         media,
		CreatedAt:     post.CreatedAt,
		CreatedAgo:    h.createdAgo(post.CreatedAt),
		LikeCount:     post.LikeCount,
		LikedByViewer: post.LikedByViewer,
		Views:         post.Views,
		Counts:        newCountsResponse(post.Counts),
	}
}

func (h *Handler) newReplyResponses(replies []*discuss.Reply) []*replyResponse {
	return lo.Map(replies, func(reply *discuss.Reply, _ int) *replyResponse {
		return h.newReplyResponse(reply)
	})
}

func (h *Handler) newReplyResponse(reply *discuss.Reply) *replyResponse {
	return &replyResponse{
		ID:            reply.ID,
		CommentID:     reply.CommentID,
		ParentID:      reply.ParentID,
		AuthorID:      reply.AuthorID,
		Text:          reply.Text,
		CreatedAt:     reply.CreatedAt,
		CreatedAgo:    h.createdAgo(reply.CreatedAt),
		LikeCount:     reply.LikeCount,
		LikedByViewer: reply.LikedByViewer,
		ReplyCount:    discuss.DirectReplyCount(reply),
		Replies:       h.newReplyResponses(reply.Replies),
	}
}

// newCommentResponse includes the expansion state only when state is not nil.
func (h *Handler) newCommentResponse(comment *discuss.Comment, state map[string]bool) *commentResponse {
	res := &commentResponse{
		ID:              comment.ID,
		PostID:          comment.PostID,
		AuthorID:        comment.AuthorID,
		Text:            comment.Text,
		CreatedAt:       comment.CreatedAt,
		CreatedAgo:      h.createdAgo(comment.CreatedAt),
		LikeCount:       comment.LikeCount,
		LikedByViewer:   comment.LikedByViewer,
		Pinned:          comment.Pinned,
		ReplyCount:      discuss.DirectReplyCount(comment),
		TotalReplyCount: discuss.TotalReplyCount(comment),
		Expanded:        nil,
		Replies:         h.newReplyResponses(comment.Replies),
	}

	if state != nil {
		expanded := state[comment.ID]
		res.Expanded = &expanded
	}

	return res
}
