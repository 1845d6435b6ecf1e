package mutate

import (
	"errors"
	"fmt"
)

var (
	ErrNoChange        = errors.New("no change")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidAssignee = errors.New("tickets can only be assigned to agents or admins")
	ErrAlreadyUpvoted  = errors.New("You have already upvoted this feature request")
)

// ForbiddenError is a local refusal: the server would reject the action for this user.
type ForbiddenError struct {
	Action string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

// FieldError is a form validation failure shown next to the field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}
