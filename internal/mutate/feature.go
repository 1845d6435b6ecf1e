package mutate

import (
	"errors"
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/perm"
)

type FeatureChange struct {
	Patch api.FeaturePatch
	Apply func(*model.FeatureRequest)
}

func FeatureStatus(actor *model.User, fr model.FeatureRequest, raw string) (FeatureChange, error) {
	if !perm.CanEditFeature(actor, fr) {
		return FeatureChange{}, ForbiddenError{Action: "change this feature request"}
	}
	st, err := model.ParseFeatureStatus(raw)
	if err != nil {
		return FeatureChange{}, ErrInvalidStatus
	}
	if st == fr.Status {
		return FeatureChange{}, ErrNoChange
	}
	return FeatureChange{
		Patch: api.FeaturePatch{Status: &st},
		Apply: func(fr *model.FeatureRequest) { fr.Status = st },
	}, nil
}

func FeaturePriority(actor *model.User, fr model.FeatureRequest, raw string) (FeatureChange, error) {
	if !perm.CanEditFeature(actor, fr) {
		return FeatureChange{}, ForbiddenError{Action: "change this feature request"}
	}
	p, err := model.ParseFeaturePriority(raw)
	if err != nil {
		return FeatureChange{}, ErrInvalidPriority
	}
	if p == fr.Priority {
		return FeatureChange{}, ErrNoChange
	}
	return FeatureChange{
		Patch: api.FeaturePatch{Priority: &p},
		Apply: func(fr *model.FeatureRequest) { fr.Priority = p },
	}, nil
}

type FeatureEdit struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
}

// EditFeature validates every set field and merges them into one change.
func EditFeature(actor *model.User, fr model.FeatureRequest, e FeatureEdit) (FeatureChange, error) {
	if !perm.CanEditFeature(actor, fr) {
		return FeatureChange{}, ForbiddenError{Action: "change this feature request"}
	}
	var out FeatureChange
	var applies []func(*model.FeatureRequest)
	if e.Title != nil {
		title := strings.TrimSpace(*e.Title)
		if title == "" {
			return FeatureChange{}, FieldError{Field: "title", Message: "Title is required"}
		}
		if title != fr.Title {
			out.Patch.Title = &title
			applies = append(applies, func(fr *model.FeatureRequest) { fr.Title = title })
		}
	}
	if e.Description != nil {
		desc := strings.TrimSpace(*e.Description)
		if desc != fr.Description {
			out.Patch.Description = &desc
			applies = append(applies, func(fr *model.FeatureRequest) { fr.Description = desc })
		}
	}
	if e.Status != nil {
		ch, err := FeatureStatus(actor, fr, *e.Status)
		if err != nil && !errors.Is(err, ErrNoChange) {
			return FeatureChange{}, err
		}
		if err == nil {
			out.Patch.Status = ch.Patch.Status
			applies = append(applies, ch.Apply)
		}
	}
	if e.Priority != nil {
		ch, err := FeaturePriority(actor, fr, *e.Priority)
		if err != nil && !errors.Is(err, ErrNoChange) {
			return FeatureChange{}, err
		}
		if err == nil {
			out.Patch.Priority = ch.Patch.Priority
			applies = append(applies, ch.Apply)
		}
	}
	if len(applies) == 0 {
		return FeatureChange{}, ErrNoChange
	}
	out.Apply = func(fr *model.FeatureRequest) {
		for _, fn := range applies {
			fn(fr)
		}
	}
	return out, nil
}

// CanUpvote refuses a second upvote from the same user. The count itself is
// never adjusted locally; it comes from the server's answer.
func CanUpvote(fr model.FeatureRequest, userID int) error {
	if fr.HasUpvoted(userID) {
		return ErrAlreadyUpvoted
	}
	return nil
}

// ApplyUpvote records the server-reported count and the caller's vote.
func ApplyUpvote(fr *model.FeatureRequest, userID, count int) {
	fr.UpvotesCount = count
	if !fr.HasUpvoted(userID) {
		fr.UpvotedBy = append(fr.UpvotedBy, userID)
	}
}

func NewFeature(title, description, priority string) (api.FeatureInput, error) {
	in := api.FeatureInput{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Priority:    model.FeatureMedium,
	}
	if in.Title == "" {
		return api.FeatureInput{}, FieldError{Field: "title", Message: "Title is required"}
	}
	if in.Description == "" {
		return api.FeatureInput{}, FieldError{Field: "description", Message: "Description is required"}
	}
	if strings.TrimSpace(priority) != "" {
		p, err := model.ParseFeaturePriority(priority)
		if err != nil {
			return api.FeatureInput{}, FieldError{Field: "priority", Message: "Priority must be one of Low, Medium, High"}
		}
		in.Priority = p
	}
	return in, nil
}
