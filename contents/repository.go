package contents

import (
	"context"
	"time"

	"github.com/nasermirzaei89/nexus/discuss"
)

// Snapshot is the persisted form of one post with its whole discussion.
type Snapshot struct {
	ID        string
	AuthorID  string
	Text      string
	Media     []string
	CreatedAt time.Time
	// Sequence orders posts by insertion.
	Sequence int64
	Views    int64
	LikedBy  []string
	Records  []discuss.Record
}

// Repository persists posts. Save replaces everything stored for the post except its view counter, in a single
// transaction.
type Repository interface {
	Save(ctx context.Context, snapshot *Snapshot) (err error)
	Delete(ctx context.Context, postID string) (err error)
	IncrementViews(ctx context.Context, postID string) (err error)
	// List returns every stored post ordered by Sequence.
	List(ctx context.Context) (snapshots []*Snapshot, err error)
}
