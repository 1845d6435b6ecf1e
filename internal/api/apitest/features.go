package apitest

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

func validFeatureStatus(v string) bool {
	return slices.Contains(model.FeatureStatuses, model.FeatureStatus(v))
}

func validFeaturePriority(v string) bool {
	return slices.Contains(model.FeaturePriorities, model.FeaturePriority(v))
}

func (s *Server) listFeatures(w http.ResponseWriter, r *http.Request) {
	p, ok := parseList(w, r)
	if !ok {
		return
	}
	if p.status != "" && !validFeatureStatus(p.status) {
		respondValidation(w, fieldError{"status", "value is not a valid enumeration member"})
		return
	}
	s.mu.Lock()
	out := []model.FeatureRequest{}
	for _, id := range sortedIDs(s.features) {
		fr := s.features[id]
		if p.status != "" && string(fr.Status) != p.status {
			continue
		}
		if p.priority != "" && string(fr.Priority) != p.priority {
			continue
		}
		if !matches(p.search, fr.Title, fr.Description) {
			continue
		}
		out = append(out, s.featureView(fr))
	}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, page(out, p.skip, p.limit))
}

func (s *Server) lookupFeature(w http.ResponseWriter, r *http.Request) *model.FeatureRequest {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, fieldError{"request_id", "value is not a valid integer"})
		return nil
	}
	fr := s.features[id]
	if fr == nil {
		respondError(w, http.StatusNotFound, "Feature request not found")
		return nil
	}
	return fr
}

// ownsFeature reports whether the caller may edit or delete fr, writing 403 otherwise.
func ownsFeature(w http.ResponseWriter, r *http.Request, fr *model.FeatureRequest) bool {
	me := currentUser(r)
	if fr.RequesterID != me.ID && !me.Role.IsAdmin() {
		respondError(w, http.StatusForbidden, "Not enough permissions")
		return false
	}
	return true
}

func (s *Server) getFeature(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr := s.lookupFeature(w, r)
	if fr == nil {
		return
	}
	out := s.featureView(fr)
	out.Comments = append([]model.Comment{}, s.fcomm[fr.ID]...)
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createFeature(w http.ResponseWriter, r *http.Request) {
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
		in.Priority = string(model.FeatureMedium)
	}
	if in.Status == "" {
		in.Status = string(model.FeatureProposed)
	}
	if !validFeaturePriority(in.Priority) {
		bad = append(bad, fieldError{"priority", "value is not a valid enumeration member"})
	}
	if !validFeatureStatus(in.Status) {
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
	fr := &model.FeatureRequest{ID: s.id(), Title: in.Title, Description: in.Description,
		Status: model.FeatureStatus(in.Status), Priority: model.FeaturePriority(in.Priority),
		RequesterID: me.ID, CreatedAt: now, UpdatedAt: now}
	s.features[fr.ID] = fr
	respondJSON(w, http.StatusOK, s.featureView(fr))
}

func (s *Server) updateFeature(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Priority    *string `json:"priority"`
		Status      *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if in.Status != nil && !validFeatureStatus(*in.Status) {
		respondValidation(w, fieldError{"status", "value is not a valid enumeration member"})
		return
	}
	if in.Priority != nil && !validFeaturePriority(*in.Priority) {
		respondValidation(w, fieldError{"priority", "value is not a valid enumeration member"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fr := s.lookupFeature(w, r)
	if fr == nil || !ownsFeature(w, r, fr) {
		return
	}
	if in.Title != nil {
		fr.Title = *in.Title
	}
	if in.Description != nil {
		fr.Description = *in.Description
	}
	if in.Status != nil {
		fr.Status = model.FeatureStatus(*in.Status)
	}
	if in.Priority != nil {
		fr.Priority = model.FeaturePriority(*in.Priority)
	}
	fr.UpdatedAt = s.now().UTC()
	respondJSON(w, http.StatusOK, s.featureView(fr))
}

func (s *Server) deleteFeature(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr := s.lookupFeature(w, r)
	if fr == nil || !ownsFeature(w, r, fr) {
		return
	}
	delete(s.features, fr.ID)
	delete(s.fcomm, fr.ID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Feature request deleted successfully"})
}

func (s *Server) upvote(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr := s.lookupFeature(w, r)
	if fr == nil {
		return
	}
	me := currentUser(r)
	if slices.Contains(fr.UpvotedBy, me.ID) {
		respondError(w, http.StatusBadRequest, "You have already upvoted this feature request")
		return
	}
	fr.UpvotedBy = append(fr.UpvotedBy, me.ID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Feature request upvoted successfully",
		"upvotes_count": len(fr.UpvotedBy),
	})
}

func (s *Server) featureComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr := s.lookupFeature(w, r)
	if fr == nil {
		return
	}
	respondJSON(w, http.StatusOK, append([]model.Comment{}, s.fcomm[fr.ID]...))
}

func (s *Server) addFeatureComment(w http.ResponseWriter, r *http.Request) {
	content, ok := decodeComment(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fr := s.lookupFeature(w, r)
	if fr == nil {
		return
	}
	c := s.newComment(currentUser(r), content)
	s.fcomm[fr.ID] = append(s.fcomm[fr.ID], c)
	respondJSON(w, http.StatusOK, c)
}
