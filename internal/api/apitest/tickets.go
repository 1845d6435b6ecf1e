package apitest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

type listParams struct {
	skip, limit      int
	status, priority string
	search           string
	assignedTo       int
}

func parseList(w http.ResponseWriter, r *http.Request) (listParams, bool) {
	q := r.URL.Query()
	p := listParams{limit: 10}
	var bad []fieldError
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			bad = append(bad, fieldError{"skip", "ensure this value is greater than or equal to 0"})
		}
		p.skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			bad = append(bad, fieldError{"limit", "ensure this value is between 1 and 100"})
		}
		p.limit = n
	}
	if v := q.Get("assigned_to"); v != "" {
		n, _ := strconv.Atoi(v)
		p.assignedTo = n
	}
	p.status = q.Get("status")
	p.priority = q.Get("priority")
	p.search = strings.ToLower(strings.TrimSpace(q.Get("search")))
	if len(bad) > 0 {
		respondValidation(w, bad...)
		return p, false
	}
	return p, true
}

func page[T any](xs []T, skip, limit int) []T {
	if skip >= len(xs) {
		return []T{}
	}
	xs = xs[skip:]
	if limit < len(xs) {
		xs = xs[:limit]
	}
	return xs
}

func matches(search, title, desc string) bool {
	return search == "" || strings.Contains(strings.ToLower(title), search) ||
		strings.Contains(strings.ToLower(desc), search)
}

// listTickets serves /api/tickets and /api/tickets/me. Non-admins only see their own tickets.
func (s *Server) listTickets(mine bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := parseList(w, r)
		if !ok {
			return
		}
		if p.status != "" {
			if !validTicketStatus(p.status) {
				respondValidation(w, fieldError{"status", "value is not a valid enumeration member"})
				return
			}
		}
		me := currentUser(r)
		s.mu.Lock()
		out := []model.Ticket{}
		for _, id := range sortedIDs(s.tickets) {
			t := s.tickets[id]
			if !me.Role.IsAdmin() && t.UserID != me.ID {
				continue
			}
			if p.status != "" && string(t.Status) != p.status {
				continue
			}
			if p.priority != "" && string(t.Priority) != p.priority {
				continue
			}
			if !mine && p.assignedTo > 0 && (t.AssignedTo == nil || *t.AssignedTo != p.assignedTo) {
				continue
			}
			if !matches(p.search, t.Title, t.Description) {
				continue
			}
			out = append(out, s.ticketView(t))
		}
		s.mu.Unlock()
		respondJSON(w, http.StatusOK, page(out, p.skip, p.limit))
	}
}

// lookupTicket resolves {id} and checks the caller may see it. It writes the
// error response itself when it returns nil.
func (s *Server) lookupTicket(w http.ResponseWriter, r *http.Request) *model.Ticket {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, fieldError{"ticket_id", "value is not a valid integer"})
		return nil
	}
	t := s.tickets[id]
	if t == nil {
		respondError(w, http.StatusNotFound, "Ticket not found")
		return nil
	}
	me := currentUser(r)
	assigned := t.AssignedTo != nil && *t.AssignedTo == me.ID
	if t.UserID != me.ID && !assigned && !me.Role.IsAgent() {
		respondError(w, http.StatusForbidden, "Not enough permissions")
		return nil
	}
	return t
}

func (s *Server) getTicket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookupTicket(w, r)
	if t == nil {
		return
	}
	out := s.ticketView(t)
	out.Comments = append([]model.Comment{}, s.tcomm[t.ID]...)
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createTicket(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	var bad []fieldError
	if strings.TrimSpace(in.Title) == "" {
		bad = append(bad, fieldError{"title", "field required"})
	}
	if strings.TrimSpace(in.Description) == "" {
		bad = append(bad, fieldError{"description", "field required"})
	}
	if in.Priority == "" {
		in.Priority = string(model.TicketMedium)
	}
	if in.Status == "" {
		in.Status = string(model.TicketNew)
	}
	if !validTicketPriority(in.Priority) {
		bad = append(bad, fieldError{"priority", "value is not a valid enumeration member"})
	}
	if !validTicketStatus(in.Status) {
		bad = append(bad, fieldError{"status", "value is not a valid enumeration member"})
	}
	if len(bad) > 0 {
		respondValidation(w, bad...)
		return
	}
	me := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	t := &model.Ticket{ID: s.id(), Title: in.Title, Description: in.Description,
		Status: model.TicketStatus(in.Status), Priority: model.TicketPriority(in.Priority),
		UserID: me.ID, CreatedAt: now, UpdatedAt: now}
	s.tickets[t.ID] = t
	respondJSON(w, http.StatusOK, s.ticketView(t))
}

func validTicketStatus(v string) bool {
	for _, s := range model.TicketStatuses {
		if string(s) == v {
			return true
		}
	}
	return false
}

func validTicketPriority(v string) bool {
	for _, p := range model.TicketPriorities {
		if string(p) == v {
			return true
		}
	}
	return false
}

func (s *Server) updateTicket(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Priority    *string `json:"priority"`
		Status      *string `json:"status"`
		AssignedTo  *int    `json:"assigned_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if in.Status != nil && !validTicketStatus(*in.Status) {
		respondValidation(w, fieldError{"status", "value is not a valid enumeration member"})
		return
	}
	if in.Priority != nil && !validTicketPriority(*in.Priority) {
		respondValidation(w, fieldError{"priority", "value is not a valid enumeration member"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookupTicket(w, r)
	if t == nil {
		return
	}
	me := currentUser(r)
	if in.AssignedTo != nil {
		if !me.Role.IsAgent() {
			respondError(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		if s.accounts[*in.AssignedTo] == nil {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		id := *in.AssignedTo
		t.AssignedTo = &id
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		t.Status = model.TicketStatus(*in.Status)
	}
	if in.Priority != nil {
		t.Priority = model.TicketPriority(*in.Priority)
	}
	t.UpdatedAt = s.now().UTC()
	respondJSON(w, http.StatusOK, s.ticketView(t))
}

func (s *Server) deleteTicket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookupTicket(w, r)
	if t == nil {
		return
	}
	me := currentUser(r)
	if t.UserID != me.ID && !me.Role.IsAdmin() {
		respondError(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	delete(s.tickets, t.ID)
	delete(s.tcomm, t.ID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Ticket deleted successfully"})
}

func (s *Server) ticketComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookupTicket(w, r)
	if t == nil {
		return
	}
	respondJSON(w, http.StatusOK, append([]model.Comment{}, s.tcomm[t.ID]...))
}

func (s *Server) addTicketComment(w http.ResponseWriter, r *http.Request) {
	content, ok := decodeComment(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookupTicket(w, r)
	if t == nil {
		return
	}
	c := s.newComment(currentUser(r), content)
	c.TicketID = t.ID
	s.tcomm[t.ID] = append(s.tcomm[t.ID], c)
	respondJSON(w, http.StatusOK, c)
}

func decodeComment(w http.ResponseWriter, r *http.Request) (string, bool) {
	var in struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid body")
		return "", false
	}
	if strings.TrimSpace(in.Content) == "" {
		respondValidation(w, fieldError{"content", "field required"})
		return "", false
	}
	return in.Content, true
}

func (s *Server) newComment(me model.User, content string) model.Comment {
	u := me
	return model.Comment{ID: s.id(), Content: content, CreatedAt: s.now().UTC(), UserID: me.ID, User: &u}
}
