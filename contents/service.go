// Package contents is the post store of the discussion engine: posts, their likes and views, and the discussion of
// each post delegated to a discuss.Thread under a per-post lock.
package contents

import (
	"context"

	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/nasermirzaei89/nexus/moderation"
)

const ServiceName = "github.com/nasermirzaei89/nexus/contents"

type Service interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (post *Post, err error)
	GetPost(ctx context.Context, postID, viewerID string) (post *Post, err error)
	EditPost(ctx context.Context, postID, actorID, text string) (post *Post, err error)
	DeletePost(ctx context.Context, postID, actorID string) (err error)
	ToggleLikePost(ctx context.Context, postID, actorID string) (post *Post, err error)
	RecordView(ctx context.Context, postID string) (views int64, err error)
	ListPosts(ctx context.Context, viewerID string, scope Scope) (posts []*Post, err error)

	AddComment(ctx context.Context, postID, actorID, text string) (res *CommentResult, err error)
	EditComment(ctx context.Context, postID, commentID, actorID, text string) (res *CommentResult, err error)
	DeleteComment(ctx context.Context, postID, commentID, actorID string) (res *DeleteResult, err error)
	ToggleLikeComment(ctx context.Context, postID, commentID, actorID string) (res *CommentResult, err error)
	PinComment(ctx context.Context, postID, commentID, actorID string) (res *CommentResult, err error)
	ReportComment(
		ctx context.Context,
		postID, commentID, actorID, reason string,
	) (report *moderation.Report, err error)

	AddReply(ctx context.Context, postID, commentID, parentID, actorID, text string) (res *ReplyResult, err error)
	DeleteReply(ctx context.Context, postID, commentID, replyID, actorID string) (res *DeleteResult, err error)
	ToggleLikeReply(ctx context.Context, postID, commentID, replyID, actorID string) (res *ReplyResult, err error)

	ListComments(
		ctx context.Context,
		postID, viewerID string,
		order discuss.SortOrder,
	) (listing *CommentListing, err error)
}

const (
	ActionCreatePost    = "createPost"
	ActionGetPost       = "getPost"
	ActionEditPost      = "editPost"
	ActionDeletePost    = "deletePost"
	ActionLikePost      = "likePost"
	ActionViewPost      = "viewPost"
	ActionListPosts     = "listPosts"
	ActionCreateComment = "createComment"
	ActionEditComment   = "editComment"
	ActionDeleteComment = "deleteComment"
	ActionLikeComment   = "likeComment"
	ActionPinComment    = "pinComment"
	ActionReportComment = "reportComment"
	ActionCreateReply   = "createReply"
	ActionDeleteReply   = "deleteReply"
	ActionLikeReply     = "likeReply"
	ActionListComments  = "listComments"
)
