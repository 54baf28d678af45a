package discuss

import (
	"fmt"
	"slices"

	"github.com/nasermirzaei89/nexus/reactions"
)

type CorruptRecordError struct {
	ID     string
	Reason string
}

func (err CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt thread record %q: %s", err.ID, err.Reason)
}

func (record Record) TargetType() reactions.TargetType {
	if record.Kind == KindComment {
		return reactions.TargetTypeComment
	}

	return reactions.TargetTypeReply
}

// Records flattens the thread in pre-order: each comment, then its forest depth first, children in order.
func (thread *Thread) Records() []Record {
	records := make([]Record, 0, len(thread.nodes))

	stack := make([]string, 0, len(thread.comments))
	for i := len(thread.comments) - 1; i >= 0; i-- {
		stack = append(stack, thread.comments[i])
	}

	for len(stack) > 0 {
		n := thread.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		records = append(records, Record{
			ID:        n.id,
			Kind:      n.kind,
			ParentID:  n.parentID,
			AuthorID:  n.authorID,
			Text:      n.text,
			CreatedAt: n.createdAt,
			Pinned:    n.pinned,
			LikedBy:   n.likes.Users(),
		})

		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}

	return records
}

// BuildThread rebuilds a thread from records listed in pre-order. A reply must follow its parent, so a record
// can never become its own ancestor; duplicate ids, dangling parents and a second pinned comment are rejected.
func BuildThread(postID, ownerID string, records []Record, opts ...Option) (*Thread, error) {
	thread := NewThread(postID, ownerID, opts...)
	pinned := ""

	for _, record := range records {
		if record.ID == "" {
			return nil, CorruptRecordError{ID: record.ID, Reason: "empty id"}
		}

		if _, exists := thread.nodes[record.ID]; exists {
			return nil, CorruptRecordError{ID: record.ID, Reason: "duplicate id"}
		}

		n := &node{
			id:        record.ID,
			kind:      record.Kind,
			authorID:  record.AuthorID,
			text:      record.Text,
			createdAt: record.CreatedAt,
			likes:     reactions.NewLikes(record.LikedBy...),
		}

		switch record.Kind {
		case KindComment:
			if record.ParentID != "" {
				return nil, CorruptRecordError{ID: record.ID, Reason: "comment with a parent"}
			}

			if record.Pinned {
				if pinned != "" {
					return nil, CorruptRecordError{ID: record.ID, Reason: "second pinned comment, " + pinned + " is pinned"}
				}

				pinned = record.ID
			}

			n.commentID = record.ID
			n.pinned = record.Pinned
			thread.comments = append(thread.comments, record.ID)
		case KindReply:
			parent, ok := thread.nodes[record.ParentID]
			if !ok {
				return nil, CorruptRecordError{ID: record.ID, Reason: "parent " + record.ParentID + " not seen before"}
			}

			n.parentID = parent.id
			n.commentID = parent.commentID
			parent.children = append(parent.children, record.ID)
		default:
			return nil, CorruptRecordError{ID: record.ID, Reason: fmt.Sprintf("unknown kind %q", record.Kind)}
		}

		thread.nodes[record.ID] = n
	}

	return thread, nil
}

// IDs returns every node id of the thread in lexical order.
func (thread *Thread) IDs() []string {
	ids := make([]string, 0, len(thread.nodes))
	for id := range thread.nodes {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}
