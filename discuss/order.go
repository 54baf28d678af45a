package discuss

import (
	"slices"
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// ParseSortOrder parses a display order; an empty value means newest first.
func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(value) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	default:
		return "", ValidationError{Field: "order", Message: "must be one of newest, oldest"}
	}
}

// SortComments returns the comments in display order: pinned comments first whatever the order, then by creation
// time. The sort is stable, so comments created at the same instant keep their insertion order.
func SortComments(comments []*Comment, order SortOrder) []*Comment {
	sorted := slices.Clone(comments)

	slices.SortStableFunc(sorted, func(a, b *Comment) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}

			return 1
		}

		if order == SortOldest {
			return a.CreatedAt.Compare(b.CreatedAt)
		}

		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return sorted
}
