// Package mutate validates user edits before they are sent, and pairs each
// request body with the optimistic local change it implies.
package mutate

import (
	"errors"
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/perm"
)

type TicketChange struct {
	Patch api.TicketPatch
	Apply func(*model.Ticket)
}

func TicketStatus(actor *model.User, t model.Ticket, raw string) (TicketChange, error) {
	if !perm.CanEditTicket(actor, t) {
		return TicketChange{}, ForbiddenError{Action: "change this ticket"}
	}
	st, err := model.ParseTicketStatus(raw)
	if err != nil {
		return TicketChange{}, ErrInvalidStatus
	}
	if st == t.Status {
		return TicketChange{}, ErrNoChange
	}
	return TicketChange{
		Patch: api.TicketPatch{Status: &st},
		Apply: func(t *model.Ticket) { t.Status = st },
	}, nil
}

func TicketPriority(actor *model.User, t model.Ticket, raw string) (TicketChange, error) {
	if !perm.CanEditTicket(actor, t) {
		return TicketChange{}, ForbiddenError{Action: "change this ticket"}
	}
	p, err := model.ParseTicketPriority(raw)
	if err != nil {
		return TicketChange{}, ErrInvalidPriority
	}
	if p == t.Priority {
		return TicketChange{}, ErrNoChange
	}
	return TicketChange{
		Patch: api.TicketPatch{Priority: &p},
		Apply: func(t *model.Ticket) { t.Priority = p },
	}, nil
}

// TicketAssign assigns t to assignee, who must be an agent or admin.
func TicketAssign(actor *model.User, t model.Ticket, assignee model.User) (TicketChange, error) {
	if !perm.CanAssign(actor) {
		return TicketChange{}, ForbiddenError{Action: "assign tickets"}
	}
	// An empty role means the caller could not look the assignee up; the
	// server checks it instead.
	if assignee.Role != "" && !assignee.Role.IsAgent() {
		return TicketChange{}, ErrInvalidAssignee
	}
	if t.AssignedTo != nil && *t.AssignedTo == assignee.ID {
		return TicketChange{}, ErrNoChange
	}
	id := assignee.ID
	u := assignee
	return TicketChange{
		Patch: api.TicketPatch{AssignedTo: &id},
		Apply: func(t *model.Ticket) {
			t.AssignedTo = &id
			t.AssignedUser = &u
		},
	}, nil
}

// TicketEdit holds the optional fields of a multi-field edit.
type TicketEdit struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
}

// EditTicket validates every set field and merges them into one change.
// It returns ErrNoChange only when no field would change.
func EditTicket(actor *model.User, t model.Ticket, e TicketEdit) (TicketChange, error) {
	if !perm.CanEditTicket(actor, t) {
		return TicketChange{}, ForbiddenError{Action: "change this ticket"}
	}
	var out TicketChange
	var applies []func(*model.Ticket)
	if e.Title != nil {
		title := strings.TrimSpace(*e.Title)
		if title == "" {
			return TicketChange{}, FieldError{Field: "title", Message: "Title is required"}
		}
		if title != t.Title {
			out.Patch.Title = &title
			applies = append(applies, func(t *model.Ticket) { t.Title = title })
		}
	}
	if e.Description != nil {
		desc := strings.TrimSpace(*e.Description)
		if desc != t.Description {
			out.Patch.Description = &desc
			applies = append(applies, func(t *model.Ticket) { t.Description = desc })
		}
	}
	if e.Status != nil {
		ch, err := TicketStatus(actor, t, *e.Status)
		if err != nil && !errors.Is(err, ErrNoChange) {
			return TicketChange{}, err
		}
		if err == nil {
			out.Patch.Status = ch.Patch.Status
			applies = append(applies, ch.Apply)
		}
	}
	if e.Priority != nil {
		ch, err := TicketPriority(actor, t, *e.Priority)
		if err != nil && !errors.Is(err, ErrNoChange) {
			return TicketChange{}, err
		}
		if err == nil {
			out.Patch.Priority = ch.Patch.Priority
			applies = append(applies, ch.Apply)
		}
	}
	if len(applies) == 0 {
		return TicketChange{}, ErrNoChange
	}
	out.Apply = func(t *model.Ticket) {
		for _, fn := range applies {
			fn(t)
		}
	}
	return out, nil
}

// NewTicket validates a create form. Priority defaults to medium.
func NewTicket(title, description, priority string) (api.TicketInput, error) {
	in := api.TicketInput{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Priority:    model.TicketMedium,
	}
	if in.Title == "" {
		return api.TicketInput{}, FieldError{Field: "title", Message: "Title is required"}
	}
	if in.Description == "" {
		return api.TicketInput{}, FieldError{Field: "description", Message: "Description is required"}
	}
	if strings.TrimSpace(priority) != "" {
		p, err := model.ParseTicketPriority(priority)
		if err != nil {
			return api.TicketInput{}, FieldError{Field: "priority", Message: "Priority must be one of low, medium, high"}
		}
		in.Priority = p
	}
	return in, nil
}

// Comment trims content and rejects empty comments.
func Comment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", FieldError{Field: "content", Message: "Comment cannot be empty"}
	}
	return content, nil
}
