// Package state is the application-state container shared by the CLI and the
// TUI: one session, one store per resource, one navigator.
package state

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/resource"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/session"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

// Cache kinds in the client store's resource cache.
const (
	CacheTickets   = "tickets"
	CacheMyTickets = "tickets.me"
	CacheFeatures  = "features"
	CacheUsers     = "users"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Store      store.Store
	PageSize   int
	Now        func() time.Time
	Logger     *zap.SugaredLogger
}

type State struct {
	Store    store.Store
	API      *api.Client
	Session  *session.Manager
	Tickets  *resource.Store[model.Ticket]
	Features *resource.Store[model.FeatureRequest]
	Users    *resource.Store[model.User]
	Nav      *route.Navigator
	Log      *zap.SugaredLogger

	pageSize int
	// restoreFailed is set when the last Restore could not reach the server.
	// The token is kept, but routing treats the client as logged out.
	restoreFailed bool
	deleted       map[string]bool
}

func New(opts Options) *State {
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	size := opts.PageSize
	if size <= 0 {
		size = store.DefaultPageSize
	}

	m := session.New(session.Options{Store: opts.Store, Now: opts.Now, Logger: lg.Named("session")})
	c := api.New(api.Options{BaseURL: opts.BaseURL, HTTPClient: hc, Tokens: m, Logger: lg.Named("api")})
	m.SetAPI(c)

	return &State{
		Store:    opts.Store,
		API:      c,
		Session:  m,
		Tickets:  resource.New[model.Ticket](size),
		Features: resource.New[model.FeatureRequest](size),
		Users:    resource.New[model.User](size),
		Nav:      &route.Navigator{},
		Log:      lg,
		pageSize: size,
	}
}

// Restore resumes the persisted session. A transient failure is returned and
// remembered so that navigation does not discard the kept token.
func (s *State) Restore(ctx context.Context) (session.State, error) {
	st, err := s.Session.Restore(ctx)
	s.Restored(err)
	return st, err
}

// Restored records the outcome of a Session.Restore run elsewhere, e.g. in a
// tea.Cmd.
func (s *State) Restored(err error) {
	s.restoreFailed = err != nil
}

// RestoreFailed reports whether the last Restore could not reach the server.
func (s *State) RestoreFailed() bool { return s.restoreFailed }

// Login authenticates and moves the navigator to the post-login destination.
func (s *State) Login(ctx context.Context, email, password string, remember bool) (route.Result, error) {
	res, err := s.Session.Login(ctx, email, password, remember)
	if err != nil {
		return route.Result{}, err
	}
	return s.AfterLogin(res.Landing), nil
}

// AfterLogin moves the navigator once a login has succeeded.
func (s *State) AfterLogin(landing string) route.Result {
	s.restoreFailed = false
	return s.Nav.AfterLogin(s.Session.State(), landing)
}

// Logout ends the session and forgets every loaded record and all history.
func (s *State) Logout(ctx context.Context) {
	s.Session.Logout(ctx)
	s.Reset()
}

// Teardown is the local-only variant used when the server rejects the token.
func (s *State) Teardown(ctx context.Context) {
	s.Session.Teardown(ctx)
	s.Reset()
}

// Reset forgets every loaded record and all navigation history.
func (s *State) Reset() {
	s.restoreFailed = false
	s.deleted = nil
	s.Tickets = resource.New[model.Ticket](s.pageSize)
	s.Features = resource.New[model.FeatureRequest](s.pageSize)
	s.Users = resource.New[model.User](s.pageSize)
	s.Nav.Reset()
}

func (s *State) hasToken(ctx context.Context) bool {
	if s.restoreFailed {
		return false
	}
	return s.Session.HasToken(ctx)
}

// Check runs the guard for path without navigating.
func (s *State) Check(ctx context.Context, path string) route.Decision {
	return route.Guard(s.Session.State(), path, s.hasToken(ctx))
}

// Go navigates to path, tearing the session down when the guard says so.
func (s *State) Go(ctx context.Context, path string) route.Result {
	return s.settle(ctx, s.Nav.Go(s.Session.State(), path, s.hasToken(ctx)))
}

func (s *State) Replace(ctx context.Context, path string) route.Result {
	return s.settle(ctx, s.Nav.Replace(s.Session.State(), path, s.hasToken(ctx)))
}

// Back returns to the previous location, skipping records that were deleted.
func (s *State) Back(ctx context.Context, fallback string) route.Result {
	return s.settle(ctx, s.Nav.Back(s.Session.State(), fallback, s.hasToken(ctx), s.gone))
}

func (s *State) settle(ctx context.Context, res route.Result) route.Result {
	if res.Teardown {
		s.Session.Teardown(ctx)
	}
	return res
}

// gone reports whether path names a record deleted in this session.
func (s *State) gone(path string) bool {
	return s.deleted[route.Clean(path)]
}

// Deleted records that the record at path no longer exists, so Back skips it.
func (s *State) Deleted(path string) {
	if s.deleted == nil {
		s.deleted = map[string]bool{}
	}
	s.deleted[route.Clean(path)] = true
}

// HandleErr tears the session down when err is a 401. It reports whether it did.
func (s *State) HandleErr(ctx context.Context, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	s.Log.Infow("session rejected by server", "error", err)
	s.Teardown(ctx)
	return true
}

// CacheList stores a successful list response for offline reads.
func (s *State) CacheList(ctx context.Context, kind string, q api.ListQuery, items any) {
	if err := s.Store.PutCache(ctx, kind, q.Key(), items); err != nil {
		s.Log.Warnw("cache write", "kind", kind, "error", err)
	}
}
