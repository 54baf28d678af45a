package discuss

import (
	"slices"
	"time"

	"github.com/nasermirzaei89/nexus/reactions"
)

// node is the arena entry behind both comments and replies. Parents own the ids of their children; content lives
// only here.
type node struct {
	id        string
	kind      Kind
	parentID  string
	commentID string
	authorID  string
	text      string
	createdAt time.Time
	likes     reactions.Likes
	pinned    bool
	children  []string
}

func (n *node) clone() *node {
	c := *n
	c.likes = n.likes.Clone()
	c.children = slices.Clone(n.children)

	return &c
}

