package contents

import (
	"context"
	"fmt"
	"strings"

	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/nasermirzaei89/nexus/moderation"
)

func (store *Store) AddComment(ctx context.Context, postID, actorID, text string) (res *CommentResult, err error) {
	defer func() { observe(ActionCreateComment, err) }()

	err = store.mutate(ctx, postID, func(_ *entry, st *postState) error {
		comment, err := st.thread.AddComment(actorID, text)
		if err != nil {
			return err
		}

		res = &CommentResult{Comment: comment, Counts: st.thread.Counts()}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return res, nil
}

func (store *Store) EditComment(
	ctx context.Context,
	postID, commentID, actorID, text string,
) (res *CommentResult, err error) {
	defer func() { observe(ActionEditComment, err) }()

	err = store.mutate(ctx, postID, func(_ *entry, st *postState) error {
		comment, err := st.thread.EditComment(commentID, actorID, text)
		if err != nil {
			return err
		}

		res = &CommentResult{Comment: comment, Counts: st.thread.Counts()}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to edit comment: %w", err)
	}

	return res, nil
}

func (store *Store) DeleteComment(ctx context.Context, postID, commentID, actorID string) (res *DeleteResult, err error) {
	defer func() { observe(ActionDeleteComment, err) }()

	err = store.mutate(ctx, postID, func(_ *entry, st *postState) error {
		removed, err := st.thread.DeleteComment(commentID, actorID)
		if err != nil {
			return err
		}

		res = &DeleteResult{Removed: removed, Counts: st.thread.Counts()}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete comment: %w", err)
	}

	return res, nil
}

func (store *Store) ToggleLikeComment(
	ctx context.Context,
	postID, commentID, actorID string,
) (res *CommentResult, err error) {
	defer func() { observe(ActionLikeComment, err) }()

	err = store.mutate(ctx, postID, func(_ *entry, st *postState) error {
		comment, err := st.thread.ToggleCommentLike(commentID, actorID)
		if err != nil {
			return err
		}

		res = &CommentResult{Comment: comment, Counts: st.thread.Counts()}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle comment like: %w", err)
	}

	return res, nil
}

// PinComment toggles the pin of a comment; pinning one unpins every other comment of the post. Only the post
// author may pin.
func (store *Store) PinComment(ctx context.Context, postID, commentID, actorID string) (res *CommentResult, err error) {
	defer func() { observe(ActionPinComment, err) }()

	err = store.mutate(ctx, postID, func(_ *entry, st *postState) error {
		comment, err := st.thread.PinComment(commentID, actorID)
		if err != nil {
			return err
		}

		res = &CommentResult{Comment: comment, Counts: st.thread.Counts()}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pin comment: %w", err)
	}

	return res, nil
}

// ReportComment hands a report to the moderation queue. The comment itself is never changed.
func (store *Store) ReportComment(
	ctx context.Context,
	postID, commentID, actorID, reason string,
) (report *moderation.Report, err error) {
	defer func() { observe(ActionReportComment, err) }()

	err = store.read(postID, func(_ *entry, st *postState) error {
		_, err := st.thread.Comment(commentID, actorID)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to report comment: %w", err)
	}

	if actorID == "" {
		return nil, discuss.ValidationError{Field: "actor", Message: "must not be empty"}
	}

	report = &moderation.Report{
		ID:         store.newID(),
		PostID:     postID,
		CommentID:  commentID,
		ReporterID: actorID,
		Reason:     strings.TrimSpace(reason),
		ReportedAt: store.now(),
	}

	err = store.queue.Enqueue(ctx, *report)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue report: %w", err)
	}

	return report, nil
}

// AddReply adds a reply under parentID, or directly under the comment when parentID is empty.
func (store *Store) AddReply(
	ctx context.Context,
	postID, commentID, parentID, actorID, text string,
) (res *ReplyResult, err error) {
	defer func() { observe(ActionCreateReply, err) }()

	err = store.mutate(ctx, postID, func(_ *entry, st *postState) error {
		reply, err := st.thread.AddReply(commentID, parentID, actorID, text)
		if err != nil {
			return err
		}

		res = &ReplyResult{Reply: reply, Counts: st.thread.Counts()}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add reply: %w", err)
	}

	return res, nil
}

func (store *Store) DeleteReply(
	ctx context.Context,
	postID, commentID, replyID, actorID string,
) (res *DeleteResult, err error) {
	defer func() { observe(ActionDeleteReply, err) }()

	err = store.mutate(ctx, postID, func(_ *entry, st *postState) error {
		removed, err := st.thread.DeleteReply(commentID, replyID, actorID)
		if err != nil {
			return err
		}

		res = &DeleteResult{Removed: removed, Counts: st.thread.Counts()}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete reply: %w", err)
	}

	return res, nil
}

func (store *Store) ToggleLikeReply(
	ctx context.Context,
	postID, commentID, replyID, actorID string,
) (res *ReplyResult, err error) {
	defer func() { observe(ActionLikeReply, err) }()

	err = store.mutate(ctx, postID, func(_ *entry, st *postState) error {
		reply, err := st.thread.ToggleReplyLike(commentID, replyID, actorID)
		if err != nil {
			return err
		}

		res = &ReplyResult{Reply: reply, Counts: st.thread.Counts()}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle reply like: %w", err)
	}

	return res, nil
}

// ListComments materializes the discussion of a post for one viewer. An empty order means newest first. An unknown
// post is NotFound, so an empty discussion is distinguishable from a missing post.
func (store *Store) ListComments(
	_ context.Context,
	postID, viewerID string,
	order discuss.SortOrder,
) (*CommentListing, error) {
	order, err := discuss.ParseSortOrder(string(order))
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	var listing *CommentListing

	err = store.read(postID, func(_ *entry, st *postState) error {
		listing = &CommentListing{
			PostID:   postID,
			Comments: discuss.SortComments(st.thread.Comments(viewerID), order),
			Counts:   st.thread.Counts(),
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return listing, nil
}
