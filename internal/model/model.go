package model

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidEnum = errors.New("invalid value")

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// IsAgent reports whether the role can work tickets (agents and admins).
func (r Role) IsAgent() bool { return r == RoleAgent || r == RoleAdmin }

func (r Role) IsAdmin() bool { return r == RoleAdmin }

var Roles = []Role{RoleUser, RoleAgent, RoleAdmin}

func ParseRole(s string) (Role, error) {
	return parseEnum(s, Roles)
}

type TicketStatus string

const (
	TicketNew        TicketStatus = "new"
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

var TicketStatuses = []TicketStatus{TicketNew, TicketOpen, TicketInProgress, TicketResolved, TicketClosed}

func ParseTicketStatus(s string) (TicketStatus, error) {
	return parseEnum(s, TicketStatuses)
}

func (s TicketStatus) Label() string { return enumLabel(string(s)) }

type TicketPriority string

const (
	TicketLow    TicketPriority = "low"
	TicketMedium TicketPriority = "medium"
	TicketHigh   TicketPriority = "high"
)

var TicketPriorities = []TicketPriority{TicketLow, TicketMedium, TicketHigh}

func ParseTicketPriority(s string) (TicketPriority, error) {
	return parseEnum(s, TicketPriorities)
}

func (p TicketPriority) Label() string { return enumLabel(string(p)) }

type FeatureStatus string

const (
	FeatureProposed    FeatureStatus = "Proposed"
	FeatureUnderReview FeatureStatus = "Under Review"
	FeatureApproved    FeatureStatus = "Approved"
	FeatureRejected    FeatureStatus = "Rejected"
)

var FeatureStatuses = []FeatureStatus{FeatureProposed, FeatureUnderReview, FeatureApproved, FeatureRejected}

func ParseFeatureStatus(s string) (FeatureStatus, error) {
	return parseEnum(s, FeatureStatuses)
}

type FeaturePriority string

const (
	FeatureLow    FeaturePriority = "Low"
	FeatureMedium FeaturePriority = "Medium"
	FeatureHigh   FeaturePriority = "High"
)

var FeaturePriorities = []FeaturePriority{FeatureLow, FeatureMedium, FeatureHigh}

func ParseFeaturePriority(s string) (FeaturePriority, error) {
	return parseEnum(s, FeaturePriorities)
}

// Next returns the value after cur in vals, wrapping around. Unknown values yield the first.
func Next[T ~string](vals []T, cur T) T {
	i := slices.Index(vals, cur)
	return vals[(i+1)%len(vals)]
}

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

func (u User) RecordID() int { return u.ID }

// DisplayName prefers the username, falling back to email and then the numeric id.
func (u *User) DisplayName() string {
	if u == nil {
		return "-"
	}
	if n := strings.TrimSpace(u.Username); n != "" {
		return n
	}
	if e := strings.TrimSpace(u.Email); e != "" {
		return e
	}
	return "user #" + strconv.Itoa(u.ID)
}

type Comment struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
	UserID    int       `json:"user_id"`
	TicketID  int       `json:"ticket_id,omitempty"`
	User      *User     `json:"user,omitempty"`
}

type Ticket struct {
	ID           int            `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Status       TicketStatus   `json:"status"`
	Priority     TicketPriority `json:"priority"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	UserID       int            `json:"user_id"`
	AssignedTo   *int           `json:"assigned_to,omitempty"`
	AssignedUser *User          `json:"assigned_user,omitempty"`
	User         *User          `json:"user,omitempty"`
	Comments     []Comment      `json:"comments,omitempty"`
}

func (t Ticket) RecordID() int { return t.ID }

type FeatureRequest struct {
	ID           int             `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Status       FeatureStatus   `json:"status"`
	Priority     FeaturePriority `json:"priority"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at,omitzero"`
	RequesterID  int             `json:"requester_id"`
	Requester    *User           `json:"requester,omitempty"`
	UpvotesCount int             `json:"upvotes_count"`
	UpvotedBy    []int           `json:"upvoted_by,omitempty"`
	Comments     []Comment       `json:"comments,omitempty"`
}

func (f FeatureRequest) RecordID() int { return f.ID }

func (f FeatureRequest) HasUpvoted(userID int) bool {
	return slices.Contains(f.UpvotedBy, userID)
}

type Attachment struct {
	ID               int       `json:"id"`
	Filename         string    `json:"filename"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	FilePath         string    `json:"file_path"`
	TicketID         *int      `json:"ticket_id,omitempty"`
	FeatureRequestID *int      `json:"feature_request_id,omitempty"`
	UserID           int       `json:"user_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// DashboardSummary mirrors GET /api/dashboard/summary (admin only).
type DashboardSummary struct {
	TotalCounts struct {
		Tickets         int `json:"tickets"`
		FeatureRequests int `json:"feature_requests"`
		Users           int `json:"users"`
		Comments        int `json:"comments"`
		Attachments     int `json:"attachments"`
	} `json:"total_counts"`
	TicketStatus         map[string]int `json:"ticket_status"`
	FeatureRequestStatus map[string]int `json:"feature_request_status"`
	UserRoles            map[string]int `json:"user_roles"`
	RecentActivity       struct {
		Tickets         int `json:"tickets"`
		FeatureRequests int `json:"feature_requests"`
		Comments        int `json:"comments"`
		Attachments     int `json:"attachments"`
	} `json:"recent_activity"`
}

func parseEnum[T ~string](s string, vals []T) (T, error) {
	want := normalizeEnum(s)
	if want == "" {
		return "", ErrInvalidEnum
	}
	for _, v := range vals {
		if normalizeEnum(string(v)) == want {
			return v, nil
		}
	}
	return "", ErrInvalidEnum
}

// normalizeEnum folds case and treats '-', '_' and ' ' alike, so "in-progress",
// "In Progress" and "in_progress" all match.
func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

func enumLabel(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
