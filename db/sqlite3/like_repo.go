package sqlite3

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/nexus/contents"
	"github.com/nasermirzaei89/nexus/reactions"
)

const tableLikes = "likes"

const (
	likeFieldTargetType = "target_type"
	likeFieldTargetID   = "target_id"
	likeFieldUserID     = "user_id"
	likeFieldPostID     = "post_id"
)

const likeTargetPost = string(reactions.TargetTypePost)

func likeColumns() []string {
	return []string{
		likeFieldTargetType,
		likeFieldTargetID,
		likeFieldUserID,
		likeFieldPostID,
	}
}

type likeKey struct {
	targetType string
	targetID   string
}

// insertLikes stores the likes of the post and of every node in its discussion.
func insertLikes(ctx context.Context, tx *sql.Tx, snapshot *contents.Snapshot) error {
	likes := make([]reactions.Like, 0, len(snapshot.LikedBy))

	for _, userID := range snapshot.LikedBy {
		likes = append(likes, reactions.Like{TargetType: reactions.TargetTypePost, TargetID: snapshot.ID, UserID: userID})
	}

	for _, record := range snapshot.Records {
		for _, userID := range record.LikedBy {
			likes = append(likes, reactions.Like{TargetType: record.TargetType(), TargetID: record.ID, UserID: userID})
		}
	}

	for start := 0; start < len(likes); start += nodeBatchSize {
		end := min(start+nodeBatchSize, len(likes))

		q := sq.Insert(tableLikes).Columns(likeColumns()...)
		for _, like := range likes[start:end] {
			q = q.Values(string(like.TargetType), like.TargetID, like.UserID, snapshot.ID)
		}

		_, err := q.RunWith(tx).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to exec insert likes: %w", err)
		}
	}

	return nil
}

func listLikes(ctx context.Context, db *sql.DB) (map[likeKey][]string, error) {
	q := sq.Select(likeFieldTargetType, likeFieldTargetID, likeFieldUserID).
		From(tableLikes).
		OrderBy(likeFieldTargetType, likeFieldTargetID, likeFieldUserID)

	rows, err := q.RunWith(db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	likes := make(map[likeKey][]string)

	for rows.Next() {
		var like reactions.Like

		err := rows.Scan(&like.TargetType, &like.TargetID, &like.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan like row: %w", err)
		}

		if !like.TargetType.IsValid() {
			return nil, reactions.InvalidTargetTypeError{TargetType: like.TargetType}
		}

		key := likeKey{targetType: string(like.TargetType), targetID: like.TargetID}
		likes[key] = append(likes[key], like.UserID)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return likes, nil
}
