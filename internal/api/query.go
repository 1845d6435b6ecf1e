package api

import (
	"net/url"
	"strconv"
	"strings"
)

// ListQuery is the shared pagination/filter shape of list endpoints.
// Zero values are omitted from the query string.
type ListQuery struct {
	Skip       int
	Limit      int
	Status     string
	Priority   string
	Search     string
	AssignedTo int
}

func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		v.Set("status", s)
	}
	if s := strings.TrimSpace(q.Priority); s != "" {
		v.Set("priority", s)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.AssignedTo > 0 {
		v.Set("assigned_to", strconv.Itoa(q.AssignedTo))
	}
	return v
}

// Key is a stable cache key for the query.
func (q ListQuery) Key() string {
	enc := q.Values().Encode()
	if enc == "" {
		return "-"
	}
	return enc
}
