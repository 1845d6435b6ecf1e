package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

type TicketInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Priority    model.TicketPriority `json:"priority,omitempty"`
	Status      model.TicketStatus   `json:"status,omitempty"`
}

// TicketPatch is a partial update; nil fields are left untouched by the server.
type TicketPatch struct {
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	Priority    *model.TicketPriority `json:"priority,omitempty"`
	Status      *model.TicketStatus   `json:"status,omitempty"`
	AssignedTo  *int                  `json:"assigned_to,omitempty"`
}

func ticketPath(id int) string { return "/api/tickets/" + strconv.Itoa(id) }

// ListTickets hits GET /api/tickets (all tickets for admins, own tickets otherwise).
func (c *Client) ListTickets(ctx context.Context, q ListQuery) ([]model.Ticket, error) {
	var out []model.Ticket
	err := c.get(ctx, "/api/tickets", q.Values(), &out)
	return nonNil(out), err
}

// MyTickets hits GET /api/tickets/me.
func (c *Client) MyTickets(ctx context.Context, q ListQuery) ([]model.Ticket, error) {
	q.AssignedTo = 0
	var out []model.Ticket
	err := c.get(ctx, "/api/tickets/me", q.Values(), &out)
	return nonNil(out), err
}

func (c *Client) GetTicket(ctx context.Context, id int) (model.Ticket, error) {
	var t model.Ticket
	err := c.get(ctx, ticketPath(id), nil, &t)
	return t, err
}

func (c *Client) CreateTicket(ctx context.Context, in TicketInput) (model.Ticket, error) {
	var t model.Ticket
	err := c.send(ctx, http.MethodPost, "/api/tickets", in, &t)
	return t, err
}

func (c *Client) UpdateTicket(ctx context.Context, id int, p TicketPatch) (model.Ticket, error) {
	var t model.Ticket
	err := c.send(ctx, http.MethodPut, ticketPath(id), p, &t)
	return t, err
}

func (c *Client) DeleteTicket(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, ticketPath(id), nil, nil)
}

func (c *Client) AddTicketComment(ctx context.Context, id int, content string) (model.Comment, error) {
	var cm model.Comment
	err := c.send(ctx, http.MethodPost, ticketPath(id)+"/comments", map[string]string{"content": content}, &cm)
	return cm, err
}

func (c *Client) TicketComments(ctx context.Context, id int) ([]model.Comment, error) {
	var out []model.Comment
	err := c.get(ctx, ticketPath(id)+"/comments", nil, &out)
	return nonNil(out), err
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
