package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

const maxUpload = 10 << 20

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.User{}
	for _, id := range sortedIDs(s.accounts) {
		out = append(out, s.accounts[id].user)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) lookupUser(w http.ResponseWriter, r *http.Request) *account {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, fieldError{"user_id", "value is not a valid integer"})
		return nil
	}
	a := s.accounts[id]
	if a == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return nil
	}
	return a
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.lookupUser(w, r); a != nil {
		respondJSON(w, http.StatusOK, a.user)
	}
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	var role model.Role
	if in.Role != nil {
		var err error
		if role, err = model.ParseRole(*in.Role); err != nil || string(role) != *in.Role {
			respondValidation(w, fieldError{"role", "value is not a valid enumeration member"})
			return
		}
	}
	var hash []byte
	if in.Password != nil {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.MinCost); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.lookupUser(w, r)
	if a == nil {
		return
	}
	for _, other := range s.accounts {
		if other == a {
			continue
		}
		if in.Email != nil && strings.EqualFold(other.user.Email, *in.Email) {
			respondError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		if in.Username != nil && other.user.Username == *in.Username {
			respondError(w, http.StatusBadRequest, "Username already taken")
			return
		}
	}
	if in.Username != nil {
		a.user.Username = *in.Username
	}
	if in.Email != nil {
		a.user.Email = *in.Email
	}
	if in.Role != nil {
		a.user.Role = role
	}
	if hash != nil {
		a.hash = hash
	}
	a.user.UpdatedAt = s.now().UTC()
	respondJSON(w, http.StatusOK, a.user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.lookupUser(w, r)
	if a == nil {
		return
	}
	delete(s.accounts, a.user.ID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out model.DashboardSummary
	out.TicketStatus = map[string]int{}
	out.FeatureRequestStatus = map[string]int{}
	out.UserRoles = map[string]int{}
	out.TotalCounts.Tickets = len(s.tickets)
	out.TotalCounts.FeatureRequests = len(s.features)
	out.TotalCounts.Users = len(s.accounts)
	out.TotalCounts.Attachments = len(s.attach)
	for _, t := range s.tickets {
		out.TicketStatus[string(t.Status)]++
	}
	for _, fr := range s.features {
		out.FeatureRequestStatus[string(fr.Status)]++
	}
	for _, a := range s.accounts {
		out.UserRoles[string(a.user.Role)]++
	}
	for _, cs := range s.tcomm {
		out.TotalCounts.Comments += len(cs)
	}
	for _, cs := range s.fcomm {
		out.TotalCounts.Comments += len(cs)
	}
	out.RecentActivity.Tickets = out.TotalCounts.Tickets
	out.RecentActivity.FeatureRequests = out.TotalCounts.FeatureRequests
	out.RecentActivity.Comments = out.TotalCounts.Comments
	out.RecentActivity.Attachments = out.TotalCounts.Attachments
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		respondValidation(w, fieldError{"file", "field required"})
		return
	}
	defer f.Close()
	n, err := io.Copy(io.Discard, f)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if n > maxUpload {
		respondError(w, http.StatusBadRequest, "File too large. Maximum size is 10MB.")
		return
	}

	me := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &model.Attachment{Filename: hdr.Filename, FileType: hdr.Header.Get("Content-Type"),
		FileSize: n, UserID: me.ID, CreatedAt: s.now().UTC()}
	if v := r.FormValue("ticket_id"); v != "" {
		tid, err := strconv.Atoi(v)
		if err != nil {
			respondValidation(w, fieldError{"ticket_id", "value is not a valid integer"})
			return
		}
		t := s.tickets[tid]
		if t == nil {
			respondError(w, http.StatusNotFound, "Ticket not found")
			return
		}
		if t.UserID != me.ID && !me.Role.IsAgent() {
			respondError(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		a.TicketID = &tid
	}
	a.ID = s.id()
	a.FilePath = "uploads/" + strconv.Itoa(a.ID) + "_" + hdr.Filename
	s.attach[a.ID] = a
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, fieldError{"attachment_id", "value is not a valid integer"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.attach[id]
	if a == nil {
		respondError(w, http.StatusNotFound, "Attachment not found")
		return
	}
	me := currentUser(r)
	if a.UserID != me.ID && !me.Role.IsAdmin() {
		respondError(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	delete(s.attach, id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Attachment deleted successfully"})
}
