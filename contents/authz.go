package contents

import (
	"context"
	"fmt"

	"github.com/nasermirzaei89/nexus/authorization"
	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/nasermirzaei89/nexus/moderation"
)

// AuthorizationMiddleware decides whether the subject may call an operation at all. Authorship and post ownership
// are still checked by the store against the stored author ids.
type AuthorizationMiddleware struct {
	authzClient *authorization.Client
	next        Service
}

var _ Service = (*AuthorizationMiddleware)(nil)

func NewAuthorizationMiddleware(authzClient *authorization.Client, next Service) *AuthorizationMiddleware {
	return &AuthorizationMiddleware{
		authzClient: authzClient,
		next:        next,
	}
}

func (mw *AuthorizationMiddleware) check(ctx context.Context, object, action string) error {
	err := mw.authzClient.CheckAccess(ctx, ServiceName, object, action)
	if err != nil {
		return fmt.Errorf("failed to check authorization: %w", err)
	}

	return nil
}

func (mw *AuthorizationMiddleware) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	err := mw.check(ctx, "", ActionCreatePost)
	if err != nil {
		return nil, err
	}

	post, err := mw.next.CreatePost(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return post, nil
}

func (mw *AuthorizationMiddleware) GetPost(ctx context.Context, postID, viewerID string) (*Post, error) {
	err := mw.check(ctx, postID, ActionGetPost)
	if err != nil {
		return nil, err
	}

	post, err := mw.next.GetPost(ctx, postID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return post, nil
}

func (mw *AuthorizationMiddleware) EditPost(ctx context.Context, postID, actorID, text string) (*Post, error) {
	err := mw.check(ctx, postID, ActionEditPost)
	if err != nil {
		return nil, err
	}

	post, err := mw.next.EditPost(ctx, postID, actorID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return post, nil
}

func (mw *AuthorizationMiddleware) DeletePost(ctx context.Context, postID, actorID string) error {
	err := mw.check(ctx, postID, ActionDeletePost)
	if err != nil {
		return err
	}

	err = mw.next.DeletePost(ctx, postID, actorID)
	if err != nil {
		return fmt.Errorf("failed to call next method: %w", err)
	}

	return nil
}

func (mw *AuthorizationMiddleware) ToggleLikePost(ctx context.Context, postID, actorID string) (*Post, error) {
	err := mw.check(ctx, postID, ActionLikePost)
	if err != nil {
		return nil, err
	}

	post, err := mw.next.ToggleLikePost(ctx, postID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return post, nil
}

func (mw *AuthorizationMiddleware) RecordView(ctx context.Context, postID string) (int64, error) {
	err := mw.check(ctx, postID, ActionViewPost)
	if err != nil {
		return 0, err
	}

	views, err := mw.next.RecordView(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to call next method: %w", err)
	}

	return views, nil
}

func (mw *AuthorizationMiddleware) ListPosts(ctx context.Context, viewerID string, scope Scope) ([]*Post, error) {
	err := mw.check(ctx, "", ActionListPosts)
	if err != nil {
		return nil, err
	}

	posts, err := mw.next.ListPosts(ctx, viewerID, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return posts, nil
}

func (mw *AuthorizationMiddleware) AddComment(ctx context.Context, postID, actorID, text string) (*CommentResult, error) {
	err := mw.check(ctx, postID, ActionCreateComment)
	if err != nil {
		return nil, err
	}

	res, err := mw.next.AddComment(ctx, postID, actorID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return res, nil
}

func (mw *AuthorizationMiddleware) EditComment(
	ctx context.Context,
	postID, commentID, actorID, text string,
) (*CommentResult, error) {
	err := mw.check(ctx, postID, ActionEditComment)
	if err != nil {
		return nil, err
	}

	res, err := mw.next.EditComment(ctx, postID, commentID, actorID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return res, nil
}

func (mw *AuthorizationMiddleware) DeleteComment(
	ctx context.Context,
	postID, commentID, actorID string,
) (*DeleteResult, error) {
	err := mw.check(ctx, postID, ActionDeleteComment)
	if err != nil {
		return nil, err
	}

	res, err := mw.next.DeleteComment(ctx, postID, commentID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return res, nil
}

func (mw *AuthorizationMiddleware) ToggleLikeComment(
	ctx context.Context,
	postID, commentID, actorID string,
) (*CommentResult, error) {
	err := mw.check(ctx, postID, ActionLikeComment)
	if err != nil {
		return nil, err
	}

	res, err := mw.next.ToggleLikeComment(ctx, postID, commentID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return res, nil
}

func (mw *AuthorizationMiddleware) PinComment(
	ctx context.Context,
	postID, commentID, actorID string,
) (*CommentResult, error) {
	err := mw.check(ctx, postID, ActionPinComment)
	if err != nil {
		return nil, err
	}

	res, err := mw.next.PinComment(ctx, postID, commentID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return res, nil
}

func (mw *AuthorizationMiddleware) ReportComment(
	ctx context.Context,
	postID, commentID, actorID, reason string,
) (*moderation.Report, error) {
	err := mw.check(ctx, postID, ActionReportComment)
	if err != nil {
		return nil, err
	}

	report, err := mw.next.ReportComment(ctx, postID, commentID, actorID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return report, nil
}

func (mw *AuthorizationMiddleware) AddReply(
	ctx context.Context,
	postID, commentID, parentID, actorID, text string,
) (*ReplyResult, error) {
	err := mw.check(ctx, postID, ActionCreateReply)
	if err != nil {
		return nil, err
	}

	res, err := mw.next.AddReply(ctx, postID, commentID, parentID, actorID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return res, nil
}

func (mw *AuthorizationMiddleware) DeleteReply(
	ctx context.Context,
	postID, commentID, replyID, actorID string,
) (*DeleteResult, error) {
	err := mw.check(ctx, postID, ActionDeleteReply)
	if err != nil {
		return nil, err
	}

	res, err := mw.next.DeleteReply(ctx, postID, commentID, replyID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return res, nil
}

func (mw *AuthorizationMiddleware) ToggleLikeReply(
	ctx context.Context,
	postID, commentID, replyID, actorID string,
) (*ReplyResult, error) {
	err := mw.check(ctx, postID, ActionLikeReply)
	if err != nil {
		return nil, err
	}

	res, err := mw.next.ToggleLikeReply(ctx, postID, commentID, replyID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return res, nil
}

func (mw *AuthorizationMiddleware) ListComments(
	ctx context.Context,
	postID, viewerID string,
	order discuss.SortOrder,
) (*CommentListing, error) {
	err := mw.check(ctx, postID, ActionListComments)
	if err != nil {
		return nil, err
	}

	listing, err := mw.next.ListComments(ctx, postID, viewerID, order)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return listing, nil
}
