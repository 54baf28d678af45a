package sqlite3

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/nexus/contents"
)

const (
	tablePosts     = "posts"
	tablePostMedia = "post_media"
)

// PostRepository stores each post with its whole discussion. Save rewrites the discussion rows of the post in one
// transaction, so a reader never sees half of a mutation.
type PostRepository struct {
	db *sql.DB
}

var _ contents.Repository = (*PostRepository)(nil)

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

const (
	postFieldID        = "id"
	postFieldAuthorID  = "author_id"
	postFieldText      = "text"
	postFieldCreatedAt = "created_at"
	postFieldSequence  = "sequence"
	postFieldViews     = "views"
)

func postColumns() []string {
	return []string{
		postFieldID,
		postFieldAuthorID,
		postFieldText,
		postFieldCreatedAt,
		postFieldSequence,
		postFieldViews,
	}
}

func scanPost(row sq.RowScanner) (*contents.Snapshot, error) {
	var snapshot contents.Snapshot

	err := row.Scan(
		&snapshot.ID,
		&snapshot.AuthorID,
		&snapshot.Text,
		&snapshot.CreatedAt,
		&snapshot.Sequence,
		&snapshot.Views,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &snapshot, nil
}

const (
	mediaFieldPostID   = "post_id"
	mediaFieldPosition = "position"
	mediaFieldRef      = "ref"
)

func (repo *PostRepository) Save(ctx context.Context, snapshot *contents.Snapshot) error {
	err := inTx(ctx, repo.db, func(tx *sql.Tx) error {
		q := sq.Insert(tablePosts).
			Columns(postColumns()...).
			Values(
				snapshot.ID,
				snapshot.AuthorID,
				snapshot.Text,
				snapshot.CreatedAt,
				snapshot.Sequence,
				snapshot.Views,
			).
			Suffix("ON CONFLICT (" + postFieldID + ") DO UPDATE SET " + postFieldText + " = excluded." + postFieldText)

		_, err := q.RunWith(tx).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to exec upsert post: %w", err)
		}

		err = deletePostChildren(ctx, tx, snapshot.ID)
		if err != nil {
			return err
		}

		err = insertMedia(ctx, tx, snapshot.ID, snapshot.Media)
		if err != nil {
			return err
		}

		err = insertNodes(ctx, tx, snapshot.ID, snapshot.Records)
		if err != nil {
			return err
		}

		err = insertLikes(ctx, tx, snapshot)
		if err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save post %q: %w", snapshot.ID, err)
	}

	return nil
}

func (repo *PostRepository) Delete(ctx context.Context, postID string) error {
	err := inTx(ctx, repo.db, func(tx *sql.Tx) error {
		err := deletePostChildren(ctx, tx, postID)
		if err != nil {
			return err
		}

		_, err = sq.Delete(tablePosts).
			Where(sq.Eq{postFieldID: postID}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to exec delete post: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete post %q: %w", postID, err)
	}

	return nil
}

func (repo *PostRepository) IncrementViews(ctx context.Context, postID string) error {
	q := sq.Update(tablePosts).
		Set(postFieldViews, sq.Expr(postFieldViews+" + 1")).
		Where(sq.Eq{postFieldID: postID})

	_, err := q.RunWith(repo.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec increment views: %w", err)
	}

	return nil
}

// List reads every post with its discussion, oldest first.
func (repo *PostRepository) List(ctx context.Context) ([]*contents.Snapshot, error) {
	snapshots, err := repo.listPosts(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*contents.Snapshot, len(snapshots))
	for _, snapshot := range snapshots {
		byID[snapshot.ID] = snapshot
	}

	media, err := repo.listMedia(ctx)
	if err != nil {
		return nil, err
	}

	for postID, refs := range media {
		if snapshot, ok := byID[postID]; ok {
			snapshot.Media = refs
		}
	}

	records, err := listNodes(ctx, repo.db)
	if err != nil {
		return nil, err
	}

	likes, err := listLikes(ctx, repo.db)
	if err != nil {
		return nil, err
	}

	for postID, postRecords := range records {
		snapshot, ok := byID[postID]
		if !ok {
			slog.WarnContext(ctx, "skipping discussion of unknown post", "postId", postID)

			continue
		}

		for i := range postRecords {
			postRecords[i].LikedBy = likes[likeKey{targetType: string(postRecords[i].TargetType()), targetID: postRecords[i].ID}]
		}

		snapshot.Records = postRecords
	}

	for _, snapshot := range snapshots {
		snapshot.LikedBy = likes[likeKey{targetType: likeTargetPost, targetID: snapshot.ID}]
	}

	return snapshots, nil
}

func (repo *PostRepository) listPosts(ctx context.Context) ([]*contents.Snapshot, error) {
	q := sq.Select(postColumns()...).
		From(tablePosts).
		OrderBy(postFieldSequence)

	rows, err := q.RunWith(repo.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	snapshots := make([]*contents.Snapshot, 0)

	for rows.Next() {
		snapshot, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		snapshots = append(snapshots, snapshot)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return snapshots, nil
}

func (repo *PostRepository) listMedia(ctx context.Context) (map[string][]string, error) {
	q := sq.Select(mediaFieldPostID, mediaFieldRef).
		From(tablePostMedia).
		OrderBy(mediaFieldPostID, mediaFieldPosition)

	rows, err := q.RunWith(repo.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	media := make(map[string][]string)

	for rows.Next() {
		var postID, ref string

		err := rows.Scan(&postID, &ref)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}

		media[postID] = append(media[postID], ref)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return media, nil
}

func insertMedia(ctx context.Context, tx *sql.Tx, postID string, refs []string) error {
	if len(refs) == 0 {
		return nil
	}

	q := sq.Insert(tablePostMedia).Columns(mediaFieldPostID, mediaFieldPosition, mediaFieldRef)
	for i, ref := range refs {
		q = q.Values(postID, i, ref)
	}

	_, err := q.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert media: %w", err)
	}

	return nil
}

func deletePostChildren(ctx context.Context, tx *sql.Tx, postID string) error {
	for _, table := range []string{tablePostMedia, tableNodes, tableLikes} {
		_, err := sq.Delete(table).
			Where(sq.Eq{"post_id": postID}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to exec delete from %s: %w", table, err)
		}
	}

	return nil
}
