package contents

import (
	"time"

	"github.com/nasermirzaei89/nexus/discuss"
)

// Post is a post as seen by one viewer.
type Post struct {
	ID            string
	AuthorID      string
	CreatedAt     time.Time
	Text          string
	Media         []string
	LikeCount     int
	LikedByViewer bool
	Views         int64
	Counts        discuss.Counts
}

type CreatePostRequest struct {
	AuthorID string
	Text     string
	// Media holds opaque references stored and returned unchanged.
	Media []string
}

// Scope filters ListPosts by authorship relative to the viewer.
type Scope string

const (
	ScopeOwn    Scope = "own"
	ScopeOthers Scope = "others"
	ScopeAll    Scope = "all"
)

func ParseScope(value string) (Scope, error) {
	switch Scope(value) {
	case "":
		return ScopeAll, nil
	case ScopeOwn, ScopeOthers, ScopeAll:
		return Scope(value), nil
	default:
		return "", discuss.ValidationError{Field: "scope", Message: "must be one of own, others, all"}
	}
}

func (scope Scope) includes(authorID, viewerID string) bool {
	switch scope {
	case ScopeOwn:
		return viewerID != "" && authorID == viewerID
	case ScopeOthers:
		return authorID != viewerID
	default:
		return true
	}
}

// CommentResult is a mutated comment with the recomputed counts of its post.
type CommentResult struct {
	Comment *discuss.Comment
	Counts  discuss.Counts
}

type ReplyResult struct {
	Reply  *discuss.Reply
	Counts discuss.Counts
}

type DeleteResult struct {
	// Removed counts the deleted node and all of its descendants.
	Removed int
	Counts  discuss.Counts
}

// CommentListing is the sorted discussion of a post.
type CommentListing struct {
	PostID   string
	Comments []*discuss.Comment
	Counts   discuss.Counts
}
