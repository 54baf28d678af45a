package discuss

import (
	"time"
)

// ThreadedNode is the read side shared by comments and replies.
type ThreadedNode interface {
	NodeID() string
	NodeKind() Kind
	Children() []*Reply
}

// Comment is a top-level comment on a post as seen by one viewer.
type Comment struct {
	ID            string
	PostID        string
	AuthorID      string
	Text          string
	CreatedAt     time.Time
	LikeCount     int
	LikedByViewer bool
	Pinned        bool
	Replies       []*Reply
}

var _ ThreadedNode = (*Comment)(nil)

func (comment *Comment) NodeID() string {
	return comment.ID
}

func (comment *Comment) NodeKind() Kind {
	return KindComment
}

func (comment *Comment) Children() []*Reply {
	if comment == nil {
		return nil
	}

	return comment.Replies
}

// Reply is a node nested anywhere below a comment as seen by one viewer.
type Reply struct {
	ID            string
	CommentID     string
	ParentID      string
	AuthorID      string
	Text          string
	CreatedAt     time.Time
	LikeCount     int
	LikedByViewer bool
	Replies       []*Reply
}

var _ ThreadedNode = (*Reply)(nil)

func (reply *Reply) NodeID() string {
	return reply.ID
}

func (reply *Reply) NodeKind() Kind {
	return KindReply
}

func (reply *Reply) Children() []*Reply {
	if reply == nil {
		return nil
	}

	return reply.Replies
}

// Counts are the aggregates of a post's discussion.
type Counts struct {
	// Comments is the number of top-level comments.
	Comments int
	// Total is the number of comments plus every reply below them.
	Total int
}

// Record is the flat form of a node used to persist and rebuild a thread. Records of a thread are listed in
// pre-order, so a parent always precedes its children.
type Record struct {
	ID        string
	Kind      Kind
	ParentID  string
	AuthorID  string
	Text      string
	CreatedAt time.Time
	Pinned    bool
	LikedBy   []string
}
