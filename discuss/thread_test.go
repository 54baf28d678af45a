package discuss_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestThread(t *testing.T, ownerID string) *discuss.Thread {
	t.Helper()

	seq := 0
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	return discuss.NewThread(
		"p1",
		ownerID,
		discuss.WithIDGenerator(func() string {
			seq++

			return fmt.Sprintf("n%d", seq)
		}),
		discuss.WithClock(func() time.Time {
			now = now.Add(time.Minute)

			return now
		}),
	)
}

func TestThread_ReplyScenario(t *testing.T) {
	t.Parallel()

	thread := newTestThread(t, "owner")

	c1, err := thread.AddComment("Bob", "Great post")
	require.NoError(t, err)

	r1, err := thread.AddReply(c1.ID, "", "Alice", "Thanks!")
	require.NoError(t, err)
	assert.Equal(t, c1.ID, r1.CommentID)
	assert.Empty(t, r1.ParentID)

	r2, err := thread.AddReply(c1.ID, r1.ID, "Bob", "You're welcome")
	require.NoError(t, err)
	assert.Equal(t, r1.ID, r2.ParentID)

	comment, err := thread.Comment(c1.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, discuss.TotalReplyCount(comment))
	assert.Equal(t, 1, discuss.DirectReplyCount(comment))

	removed, err := thread.DeleteReply(c1.ID, r1.ID, "Alice")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	comment, err = thread.Comment(c1.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 0, discuss.TotalReplyCount(comment))

	_, err = thread.Reply(c1.ID, r2.ID, "")
	require.ErrorAs(t, err, &discuss.NotFoundError{})
}

func TestThread_DeleteReplyRemovesWholeSubtree(t *testing.T) {
	t.Parallel()

	for _, depth := range []int{1, 2, 5, 50} {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			t.Parallel()

			thread := newTestThread(t, "owner")

			comment, err := thread.AddComment("alice", "root")
			require.NoError(t, err)

			parentID := ""
			var target *discuss.Reply

			for range depth {
				reply, err := thread.AddReply(comment.ID, parentID, "alice", "deeper")
				require.NoError(t, err)

				parentID = reply.ID
			}

			target, err = thread.AddReply(comment.ID, parentID, "bob", "target")
			require.NoError(t, err)

			// three children under target, one of them with two more below
			c1, err := thread.AddReply(comment.ID, target.ID, "carol", "a")
			require.NoError(t, err)
			_, err = thread.AddReply(comment.ID, target.ID, "carol", "b")
			require.NoError(t, err)
			_, err = thread.AddReply(comment.ID, target.ID, "carol", "c")
			require.NoError(t, err)
			g1, err := thread.AddReply(comment.ID, c1.ID, "dave", "d")
			require.NoError(t, err)
			_, err = thread.AddReply(comment.ID, g1.ID, "dave", "e")
			require.NoError(t, err)

			before := thread.Counts().Total

			removed, err := thread.DeleteReply(comment.ID, target.ID, "bob")
			require.NoError(t, err)
			assert.Equal(t, 1+5, removed)
			assert.Equal(t, before-removed, thread.Counts().Total)
			assert.Len(t, thread.IDs(), thread.Counts().Total)
		})
	}
}

func TestThread_AddReplyNotFound(t *testing.T) {
	t.Parallel()

	thread := newTestThread(t, "owner")

	c1, err := thread.AddComment("alice", "first")
	require.NoError(t, err)

	c2, err := thread.AddComment("alice", "second")
	require.NoError(t, err)

	r1, err := thread.AddReply(c2.ID, "", "bob", "under second")
	require.NoError(t, err)

	t.Run("unknown comment", func(t *testing.T) {
		_, err := thread.AddReply("missing", "", "bob", "hi")

		var notFoundErr discuss.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, discuss.KindComment, notFoundErr.Kind)
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := thread.AddReply(c1.ID, "missing", "bob", "hi")

		var notFoundErr discuss.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, discuss.KindReply, notFoundErr.Kind)
	})

	t.Run("parent in another comment's forest", func(t *testing.T) {
		_, err := thread.AddReply(c1.ID, r1.ID, "bob", "hi")

		var notFoundErr discuss.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, r1.ID, notFoundErr.ID)
	})

	t.Run("comment id used as reply parent", func(t *testing.T) {
		_, err := thread.AddReply(c1.ID, c1.ID, "bob", "hi")
		require.ErrorAs(t, err, &discuss.NotFoundError{})
	})

	assert.Equal(t, 3, thread.Counts().Total)
}

func TestThread_Validation(t *testing.T) {
	t.Parallel()

	thread := newTestThread(t, "owner")

	_, err := thread.AddComment("alice", "   ")
	require.ErrorAs(t, err, &discuss.ValidationError{})

	_, err = thread.AddComment("", "text")
	require.ErrorAs(t, err, &discuss.ValidationError{})

	comment, err := thread.AddComment("alice", "text")
	require.NoError(t, err)

	_, err = thread.AddReply(comment.ID, "", "bob", "\n\t")
	require.ErrorAs(t, err, &discuss.ValidationError{})

	_, err = thread.EditComment(comment.ID, "alice", "")
	require.ErrorAs(t, err, &discuss.ValidationError{})

	got, err := thread.Comment(comment.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "text", got.Text)
	assert.Equal(t, 1, thread.Counts().Total)
}

func TestThread_ToggleLikes(t *testing.T) {
	t.Parallel()

	thread := newTestThread(t, "owner")

	comment, err := thread.AddComment("alice", "text")
	require.NoError(t, err)

	reply, err := thread.AddReply(comment.ID, "", "bob", "reply")
	require.NoError(t, err)

	nested, err := thread.AddReply(comment.ID, reply.ID, "carol", "nested")
	require.NoError(t, err)

	t.Run("reply like is idempotent over two toggles", func(t *testing.T) {
		liked, err := thread.ToggleReplyLike(comment.ID, nested.ID, "dave")
		require.NoError(t, err)
		assert.True(t, liked.LikedByViewer)
		assert.Equal(t, 1, liked.LikeCount)

		unliked, err := thread.ToggleReplyLike(comment.ID, nested.ID, "dave")
		require.NoError(t, err)
		assert.False(t, unliked.LikedByViewer)
		assert.Equal(t, nested.LikeCount, unliked.LikeCount)
	})

	t.Run("viewer flag follows the viewer", func(t *testing.T) {
		_, err := thread.ToggleCommentLike(comment.ID, "dave")
		require.NoError(t, err)

		forDave, err := thread.Comment(comment.ID, "dave")
		require.NoError(t, err)
		assert.True(t, forDave.LikedByViewer)

		forErin, err := thread.Comment(comment.ID, "erin")
		require.NoError(t, err)
		assert.False(t, forErin.LikedByViewer)
		assert.Equal(t, 1, forErin.LikeCount)
	})

	t.Run("unknown reply", func(t *testing.T) {
		_, err := thread.ToggleReplyLike(comment.ID, "missing", "dave")
		require.ErrorAs(t, err, &discuss.NotFoundError{})
	})
}

func TestThread_PinComment(t *testing.T) {
	t.Parallel()

	thread := newTestThread(t, "owner")

	a, err := thread.AddComment("alice", "a")
	require.NoError(t, err)

	b, err := thread.AddComment("bob", "b")
	require.NoError(t, err)

	pinned := func() []string {
		ids := make([]string, 0)

		for _, comment := range thread.Comments("") {
			if comment.Pinned {
				ids = append(ids, comment.ID)
			}
		}

		return ids
	}

	_, err = thread.PinComment(a.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, pinned())

	_, err = thread.PinComment(b.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, pinned())

	_, err = thread.PinComment(a.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, pinned())

	got, err := thread.PinComment(a.ID, "owner")
	require.NoError(t, err)
	assert.False(t, got.Pinned)
	assert.Empty(t, pinned())
}

func TestThread_UnauthorizedLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	thread := newTestThread(t, "owner")

	comment, err := thread.AddComment("alice", "text")
	require.NoError(t, err)

	reply, err := thread.AddReply(comment.ID, "", "bob", "reply")
	require.NoError(t, err)

	_, err = thread.AddReply(comment.ID, reply.ID, "carol", "nested")
	require.NoError(t, err)

	snapshot := thread.Records()

	tests := []struct {
		name string
		call func() error
	}{
		{
			name: "delete reply by non author",
			call: func() error {
				_, err := thread.DeleteReply(comment.ID, reply.ID, "mallory")

				return err
			},
		},
		{
			name: "edit comment by non author",
			call: func() error {
				_, err := thread.EditComment(comment.ID, "mallory", "hijacked")

				return err
			},
		},
		{
			name: "delete comment by non author",
			call: func() error {
				_, err := thread.DeleteComment(comment.ID, "mallory")

				return err
			},
		},
		{
			name: "pin by non owner",
			call: func() error {
				_, err := thread.PinComment(comment.ID, "alice")

				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.ErrorAs(t, err, &discuss.UnauthorizedError{})
			assert.Equal(t, snapshot, thread.Records())
		})
	}
}

func TestThread_DeleteCommentCascades(t *testing.T) {
	t.Parallel()

	thread := newTestThread(t, "owner")

	keep, err := thread.AddComment("bob", "keep")
	require.NoError(t, err)

	doomed, err := thread.AddComment("alice", "doomed")
	require.NoError(t, err)

	parentID := ""
	forest := make([]string, 0)

	for i := range 6 {
		if i == 3 {
			parentID = ""
		}

		reply, err := thread.AddReply(doomed.ID, parentID, "carol", "r")
		require.NoError(t, err)

		forest = append(forest, reply.ID)
		parentID = reply.ID
	}

	removed, err := thread.DeleteComment(doomed.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 7, removed)

	comments := thread.Comments("")
	require.Len(t, comments, 1)
	assert.Equal(t, keep.ID, comments[0].ID)

	for _, id := range append(forest, doomed.ID) {
		assert.NotContains(t, thread.IDs(), id)
	}

	assert.Equal(t, discuss.Counts{Comments: 1, Total: 1}, thread.Counts())
}

func TestThread_CountsMatchRecursiveCounts(t *testing.T) {
	t.Parallel()

	thread := newTestThread(t, "owner")

	c, err := thread.AddComment("alice", "C")
	require.NoError(t, err)

	first, err := thread.AddReply(c.ID, "", "bob", "1")
	require.NoError(t, err)

	_, err = thread.AddReply(c.ID, "", "bob", "2")
	require.NoError(t, err)

	for range 3 {
		_, err = thread.AddReply(c.ID, first.ID, "carol", "nested")
		require.NoError(t, err)
	}

	_, err = thread.AddComment("dave", "other")
	require.NoError(t, err)

	comments := thread.Comments("")

	assert.Equal(t, 5, discuss.TotalReplyCount(comments[0]))
	assert.Equal(t, 2, discuss.DirectReplyCount(comments[0]))
	assert.Equal(t, 7, discuss.TotalCommentCount(comments))
	assert.Equal(t, discuss.Counts{Comments: 2, Total: 7}, thread.Counts())
}

func TestThread_Clone(t *testing.T) {
	t.Parallel()

	thread := newTestThread(t, "owner")

	comment, err := thread.AddComment("alice", "text")
	require.NoError(t, err)

	clone := thread.Clone()

	_, err = clone.AddReply(comment.ID, "", "bob", "only in clone")
	require.NoError(t, err)

	_, err = clone.ToggleCommentLike(comment.ID, "bob")
	require.NoError(t, err)

	original, err := thread.Comment(comment.ID, "bob")
	require.NoError(t, err)
	assert.Empty(t, original.Replies)
	assert.False(t, original.LikedByViewer)
	assert.Equal(t, 1, thread.Counts().Total)
	assert.Equal(t, 2, clone.Counts().Total)
}
