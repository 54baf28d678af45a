package sqlite3

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/nexus/discuss"
)

const tableNodes = "nodes"

const (
	nodeFieldID        = "id"
	nodeFieldPostID    = "post_id"
	nodeFieldPosition  = "position"
	nodeFieldKind      = "kind"
	nodeFieldParentID  = "parent_id"
	nodeFieldAuthorID  = "author_id"
	nodeFieldText      = "text"
	nodeFieldCreatedAt = "created_at"
	nodeFieldPinned    = "pinned"
)

func nodeColumns() []string {
	return []string{
		nodeFieldID,
		nodeFieldPostID,
		nodeFieldPosition,
		nodeFieldKind,
		nodeFieldParentID,
		nodeFieldAuthorID,
		nodeFieldText,
		nodeFieldCreatedAt,
		nodeFieldPinned,
	}
}

// nodeBatchSize keeps multi-row inserts below SQLite's bound parameter limit.
const nodeBatchSize = 100

// insertNodes stores records keeping their pre-order position, which is the order discuss.BuildThread needs.
func insertNodes(ctx context.Context, tx *sql.Tx, postID string, records []discuss.Record) error {
	for start := 0; start < len(records); start += nodeBatchSize {
		end := min(start+nodeBatchSize, len(records))

		q := sq.Insert(tableNodes).Columns(nodeColumns()...)
		for i, record := range records[start:end] {
			q = q.Values(
				record.ID,
				postID,
				start+i,
				string(record.Kind),
				record.ParentID,
				record.AuthorID,
				record.Text,
				record.CreatedAt,
				record.Pinned,
			)
		}

		_, err := q.RunWith(tx).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to exec insert nodes: %w", err)
		}
	}

	return nil
}

func scanNode(row sq.RowScanner) (string, discuss.Record, error) {
	var (
		postID   string
		position int
		kind     string
		record   discuss.Record
	)

	err := row.Scan(
		&record.ID,
		&postID,
		&position,
		&kind,
		&record.ParentID,
		&record.AuthorID,
		&record.Text,
		&record.CreatedAt,
		&record.Pinned,
	)
	if err != nil {
		return "", discuss.Record{}, fmt.Errorf("failed to scan node row: %w", err)
	}

	record.Kind = discuss.Kind(kind)

	return postID, record, nil
}

// listNodes returns the records of every post in pre-order, grouped by post id.
func listNodes(ctx context.Context, db *sql.DB) (map[string][]discuss.Record, error) {
	q := sq.Select(nodeColumns()...).
		From(tableNodes).
		OrderBy(nodeFieldPostID, nodeFieldPosition)

	rows, err := q.RunWith(db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make(map[string][]discuss.Record)

	for rows.Next() {
		postID, record, err := scanNode(rows)
		if err != nil {
			return nil, err
		}

		records[postID] = append(records[postID], record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return records, nil
}
