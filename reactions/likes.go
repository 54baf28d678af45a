package reactions

import (
	"maps"
	"slices"
)

// Likes is the set of users who like a target. The count is always the size of the set, so a user toggling twice
// returns the target to where it started and can never be counted more than once.
type Likes struct {
	users map[string]struct{}
}

func NewLikes(userIDs ...string) Likes {
	likes := Likes{users: make(map[string]struct{}, len(userIDs))}

	for _, userID := range userIDs {
		likes.users[userID] = struct{}{}
	}

	return likes
}

// Toggle flips the like of userID and reports whether the user likes the target afterwards.
func (likes *Likes) Toggle(userID string) bool {
	if likes.users == nil {
		likes.users = make(map[string]struct{})
	}

	if _, ok := likes.users[userID]; ok {
		delete(likes.users, userID)

		return false
	}

	likes.users[userID] = struct{}{}

	return true
}

func (likes Likes) Has(userID string) bool {
	if userID == "" {
		return false
	}

	_, ok := likes.users[userID]

	return ok
}

func (likes Likes) Count() int {
	return len(likes.users)
}

// Users returns the liking user ids in lexical order.
func (likes Likes) Users() []string {
	return slices.Sorted(maps.Keys(likes.users))
}

func (likes Likes) Clone() Likes {
	return Likes{users: maps.Clone(likes.users)}
}
