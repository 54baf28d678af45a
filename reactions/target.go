package reactions

import (
	"fmt"
)

type TargetType string

const (
	TargetTypePost    TargetType = "post"
	TargetTypeComment TargetType = "comment"
	TargetTypeReply   TargetType = "reply"
)

func (targetType TargetType) IsValid() bool {
	switch targetType {
	case TargetTypePost, TargetTypeComment, TargetTypeReply:
		return true
	default:
		return false
	}
}

// Like is a single user's like on a target, the unit stored by repositories.
type Like struct {
	TargetType TargetType
	TargetID   string
	UserID     string
}

type InvalidTargetTypeError struct {
	TargetType TargetType
}

func (err InvalidTargetTypeError) Error() string {
	return fmt.Sprintf("invalid target type: %q", err.TargetType)
}
