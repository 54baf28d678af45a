package discuss

import "fmt"

// Kind names the resource an error refers to.
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
	KindReply   Kind = "reply"
)

type ValidationError struct {
	Field   string
	Message string
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", err.Field, err.Message)
}

type NotFoundError struct {
	Kind Kind
	ID   string
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %q not found", err.Kind, err.ID)
}

// UnauthorizedError is returned when the actor is not the author of a resource, or not the owner of the post it
// tries to pin a comment on.
type UnauthorizedError struct {
	ActorID string
	Action  string
	Kind    Kind
	ID      string
}

func (err UnauthorizedError) Error() string {
	return fmt.Sprintf("subject %q is not allowed to %s %s %q", err.ActorID, err.Action, err.Kind, err.ID)
}
