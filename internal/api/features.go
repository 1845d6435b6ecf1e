package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

type FeatureInput struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    model.FeaturePriority `json:"priority,omitempty"`
	Status      model.FeatureStatus   `json:"status,omitempty"`
}

type FeaturePatch struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Priority    *model.FeaturePriority `json:"priority,omitempty"`
	Status      *model.FeatureStatus   `json:"status,omitempty"`
}

// UpvoteResult carries the server's authoritative count after an upvote.
type UpvoteResult struct {
	Message      string `json:"message"`
	UpvotesCount int    `json:"upvotes_count"`
}

func featurePath(id int) string { return "/api/feature-requests/" + strconv.Itoa(id) }

func (c *Client) ListFeatureRequests(ctx context.Context, q ListQuery) ([]model.FeatureRequest, error) {
	q.AssignedTo = 0
	var out []model.FeatureRequest
	err := c.get(ctx, "/api/feature-requests", q.Values(), &out)
	return nonNil(out), err
}

func (c *Client) GetFeatureRequest(ctx context.Context, id int) (model.FeatureRequest, error) {
	var fr model.FeatureRequest
	err := c.get(ctx, featurePath(id), nil, &fr)
	return fr, err
}

func (c *Client) CreateFeatureRequest(ctx context.Context, in FeatureInput) (model.FeatureRequest, error) {
	var fr model.FeatureRequest
	err := c.send(ctx, http.MethodPost, "/api/feature-requests", in, &fr)
	return fr, err
}

func (c *Client) UpdateFeatureRequest(ctx context.Context, id int, p FeaturePatch) (model.FeatureRequest, error) {
	var fr model.FeatureRequest
	err := c.send(ctx, http.MethodPut, featurePath(id), p, &fr)
	return fr, err
}

func (c *Client) DeleteFeatureRequest(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, featurePath(id), nil, nil)
}

func (c *Client) Upvote(ctx context.Context, id int) (UpvoteResult, error) {
	var res UpvoteResult
	err := c.send(ctx, http.MethodPost, featurePath(id)+"/upvote", nil, &res)
	return res, err
}

func (c *Client) AddFeatureRequestComment(ctx context.Context, id int, content string) (model.Comment, error) {
	var cm model.Comment
	err := c.send(ctx, http.MethodPost, featurePath(id)+"/comments", map[string]string{"content": content}, &cm)
	return cm, err
}

func (c *Client) FeatureRequestComments(ctx context.Context, id int) ([]model.Comment, error) {
	var out []model.Comment
	err := c.get(ctx, featurePath(id)+"/comments", nil, &out)
	return nonNil(out), err
}
