// Package moderation records report signals raised against discussion content. It never decides anything about
// the reported content.
package moderation

import (
	"context"
	"time"
)

type Report struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	CommentID  string    `json:"commentId"`
	ReporterID string    `json:"reporterId"`
	Reason     string    `json:"reason,omitempty"`
	ReportedAt time.Time `json:"reportedAt"`
}

// Queue receives reports for later review.
type Queue interface {
	Enqueue(ctx context.Context, report Report) (err error)
}
