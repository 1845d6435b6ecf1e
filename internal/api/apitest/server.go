// Package apitest is an in-memory helpdesk API used by tests. It speaks the same
// routes and JSON shapes as the real backend, with bcrypt-hashed passwords and
// HS256 bearer tokens, plus hooks for injecting failures and counting calls.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

type account struct {
	user model.User
	hash []byte
}

type failure struct {
	status int
	detail string
}

type Server struct {
	URL string

	mu       sync.Mutex
	srv      *httptest.Server
	secret   []byte
	now      func() time.Time
	ttl      time.Duration
	nextID   int
	accounts map[int]*account
	tickets  map[int]*model.Ticket
	features map[int]*model.FeatureRequest
	tcomm    map[int][]model.Comment
	fcomm    map[int][]model.Comment
	attach   map[int]*model.Attachment
	revoked  map[string]bool
	calls    map[string]int
	fail     map[string][]failure
}

// New starts a server and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := NewUnstarted()
	s.Start()
	t.Cleanup(s.Close)
	return s
}

func NewUnstarted() *Server {
	return &Server{
		secret:   []byte("apitest-secret"),
		now:      time.Now,
		ttl:      time.Hour,
		accounts: map[int]*account{},
		tickets:  map[int]*model.Ticket{},
		features: map[int]*model.FeatureRequest{},
		tcomm:    map[int][]model.Comment{},
		fcomm:    map[int][]model.Comment{},
		attach:   map[int]*model.Attachment{},
		revoked:  map[string]bool{},
		calls:    map[string]int{},
		fail:     map[string][]failure{},
	}
}

func (s *Server) Start() {
	s.srv = httptest.NewServer(s.Handler())
	s.URL = s.srv.URL
}

func (s *Server) Close() {
	if s.srv != nil {
		s.srv.Close()
	}
}

// SetClock replaces the server's notion of now (token issue/expiry, timestamps).
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Server) SetTokenTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = d
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, s.record)

	r.Post("/api/auth/login", s.login)
	r.Post("/api/auth/register", s.register)

	r.Group(func(p chi.Router) {
		p.Use(s.authenticate)
		p.Get("/api/auth/profile", s.profile)
		p.Post("/api/auth/logout", s.logout)

		p.Get("/api/tickets", s.listTickets(false))
		p.Post("/api/tickets", s.createTicket)
		p.Get("/api/tickets/me", s.listTickets(true))
		p.Get("/api/tickets/{id}", s.getTicket)
		p.Put("/api/tickets/{id}", s.updateTicket)
		p.Delete("/api/tickets/{id}", s.deleteTicket)
		p.Get("/api/tickets/{id}/comments", s.ticketComments)
		p.Post("/api/tickets/{id}/comments", s.addTicketComment)

		p.Get("/api/feature-requests", s.listFeatures)
		p.Post("/api/feature-requests", s.createFeature)
		p.Get("/api/feature-requests/{id}", s.getFeature)
		p.Put("/api/feature-requests/{id}", s.updateFeature)
		p.Delete("/api/feature-requests/{id}", s.deleteFeature)
		p.Post("/api/feature-requests/{id}/upvote", s.upvote)
		p.Get("/api/feature-requests/{id}/comments", s.featureComments)
		p.Post("/api/feature-requests/{id}/comments", s.addFeatureComment)

		p.Post("/api/upload/attachments", s.upload)
		p.Delete("/api/upload/attachments/{id}", s.deleteAttachment)

		p.Group(func(a chi.Router) {
			a.Use(s.requireAdmin)
			a.Get("/users", s.listUsers)
			a.Get("/users/{id}", s.getUser)
			a.Put("/users/{id}", s.updateUser)
			a.Delete("/users/{id}", s.deleteUser)
			a.Get("/api/dashboard/summary", s.summary)
		})
	})
	return r
}

// record counts calls and serves any failure queued for the route.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		var f *failure
		if q := s.fail[key]; len(q) > 0 {
			f = &q[0]
			s.fail[key] = q[1:]
		}
		s.mu.Unlock()
		if f != nil {
			respondError(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail makes the next call to method+path answer status with detail instead of
// reaching the handler. Calls queue up.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.fail[key] = append(s.fail[key], failure{status: status, detail: detail})
}

// Calls reports how many requests reached method+path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func (s *Server) id() int {
	s.nextID++
	return s.nextID
}

// AddUser creates an account directly. Passwords are hashed at bcrypt.MinCost.
func (s *Server) AddUser(username, email, password string, role model.Role) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	u := model.User{ID: s.id(), Username: username, Email: email, Role: role, CreatedAt: now}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	return u
}

func (s *Server) AddTicket(ownerID int, title string, status model.TicketStatus, priority model.TicketPriority) model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	t := &model.Ticket{ID: s.id(), Title: title, Description: title, Status: status, Priority: priority,
		UserID: ownerID, CreatedAt: now, UpdatedAt: now}
	s.tickets[t.ID] = t
	return s.ticketView(t)
}

func (s *Server) AddFeature(requesterID int, title string) model.FeatureRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	fr := &model.FeatureRequest{ID: s.id(), Title: title, Description: title, Status: model.FeatureProposed,
		Priority: model.FeatureMedium, RequesterID: requesterID, CreatedAt: now, UpdatedAt: now}
	s.features[fr.ID] = fr
	return s.featureView(fr)
}

// Ticket returns the stored ticket and whether it exists.
func (s *Server) Ticket(id int) (model.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return model.Ticket{}, false
	}
	return s.ticketView(t), true
}

func (s *Server) Feature(id int) (model.FeatureRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr, ok := s.features[id]
	if !ok {
		return model.FeatureRequest{}, false
	}
	return s.featureView(fr), true
}

func (s *Server) ticketView(t *model.Ticket) model.Ticket {
	out := *t
	if a := s.accounts[t.UserID]; a != nil {
		u := a.user
		out.User = &u
	}
	if t.AssignedTo != nil {
		if a := s.accounts[*t.AssignedTo]; a != nil {
			u := a.user
			out.AssignedUser = &u
		}
	}
	return out
}

func (s *Server) featureView(fr *model.FeatureRequest) model.FeatureRequest {
	out := *fr
	out.UpvotedBy = append([]int(nil), fr.UpvotedBy...)
	out.UpvotesCount = len(fr.UpvotedBy)
	if a := s.accounts[fr.RequesterID]; a != nil {
		u := a.user
		out.Requester = &u
	}
	return out
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}
