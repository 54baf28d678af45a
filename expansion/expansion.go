// Package expansion holds which comments are expanded in an open discussion view. The state is transient UI state:
// it is keyed by view, dropped when the view closes and never stored with the discussion itself.
package expansion

import (
	"context"

	"github.com/nasermirzaei89/nexus/discuss"
)

// Store keeps one expanded/collapsed map per view. A view is one open discussion of one post in one session; see
// ViewKey.
type Store interface {
	// Show applies defaults for comments displayed for the first time in the view: a comment with at least one
	// reply starts expanded. Comments already in the map keep their state.
	Show(ctx context.Context, view string, comments []*discuss.Comment) (err error)
	Toggle(ctx context.Context, view, commentID string) (expanded bool, err error)
	Expanded(ctx context.Context, view, commentID string) (expanded bool, err error)
	Snapshot(ctx context.Context, view string) (state map[string]bool, err error)
	// Close forgets the whole map of the view; reopening starts again from defaults.
	Close(ctx context.Context, view string) (err error)
}

func ViewKey(sessionID, postID string) string {
	return sessionID + ":" + postID
}

func expandedByDefault(comment *discuss.Comment) bool {
	return discuss.DirectReplyCount(comment) > 0
}
