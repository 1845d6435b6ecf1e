// Package session owns the client's authentication state: the in-memory user,
// the persisted bearer token, and the failed-login lockout.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

type Status int

const (
	Unauthenticated Status = iota
	Authenticating
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// State is a snapshot of the session. User is nil unless Status is Authenticated.
type State struct {
	User   *model.User
	Status Status
}

func (s State) IsAuthenticated() bool { return s.Status == Authenticated && s.User != nil }

func (s State) Role() model.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s State) IsAgent() bool { return s.IsAuthenticated() && s.User.Role.IsAgent() }

func (s State) IsAdmin() bool { return s.IsAuthenticated() && s.User.Role.IsAdmin() }

// AuthAPI is the slice of the REST client the session needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (api.Token, error)
	Profile(ctx context.Context) (model.User, error)
	Logout(ctx context.Context) error
}

// Persistence is where the token, remembered email and lockout survive restarts.
type Persistence interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, tok string) error
	ClearToken(ctx context.Context) error
	RememberedEmail(ctx context.Context) (string, error)
	SetRememberedEmail(ctx context.Context, email string) error
	ClearRememberedEmail(ctx context.Context) error
	LoadLockout(ctx context.Context) (store.Lockout, error)
	SaveLockout(ctx context.Context, l store.Lockout) error
	ClearCache(ctx context.Context) error
	PutCache(ctx context.Context, kind, key string, v any) error
	GetCache(ctx context.Context, kind, key string, out any) (time.Time, bool, error)
}

type Options struct {
	Store  Persistence
	Now    func() time.Time
	Logger *zap.SugaredLogger
}

// Manager is the only mutator of session state. Its methods are safe to call
// from concurrent tea.Cmd goroutines.
type Manager struct {
	mu    sync.Mutex
	api   AuthAPI
	store Persistence
	now   func() time.Time
	log   *zap.SugaredLogger
	token string
	state State
}

func New(opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Manager{store: opts.Store, now: now, log: lg}
}

// SetAPI attaches the REST client. The client usually takes the Manager as its
// api.TokenSource, so the two are wired after construction.
func (m *Manager) SetAPI(a AuthAPI) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.api = a
}

// Token implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// HasToken reports whether a token is held in memory or persisted.
func (m *Manager) HasToken(ctx context.Context) bool {
	if m.Token() != "" {
		return true
	}
	tok, err := m.store.Token(ctx)
	return err == nil && tok != ""
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

func (m *Manager) setState(st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st
}

func (m *Manager) setToken(tok string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = tok
}

// Restore tries to resume a persisted session. A token the server rejects (or whose
// exp has passed) is discarded; any other failure keeps the token and is returned
// for display without forcing a logout.
func (m *Manager) Restore(ctx context.Context) (State, error) {
	tok, err := m.store.Token(ctx)
	if err != nil {
		return m.State(), err
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		m.setToken("")
		m.setState(State{Status: Unauthenticated})
		return m.State(), nil
	}
	if c, err := ParseClaims(tok); err == nil && c.Expired(m.now()) {
		m.log.Infow("stored token expired", "subject", c.Subject, "expires_at", c.ExpiresAt)
		m.Teardown(ctx)
		return m.State(), nil
	}

	m.setToken(tok)
	m.setState(State{Status: Authenticating})
	u, err := m.api.Profile(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			m.log.Infow("stored token rejected", "error", err)
			m.Teardown(ctx)
			return m.State(), nil
		}
		m.setState(State{Status: Unauthenticated})
		return m.State(), err
	}
	m.setState(State{User: &u, Status: Authenticated})
	m.cacheProfile(ctx, u)
	return m.State(), nil
}

// RememberedEmail returns the email saved by a "remember me" login, if any.
func (m *Manager) RememberedEmail(ctx context.Context) string {
	email, err := m.store.RememberedEmail(ctx)
	if err != nil {
		m.log.Warnw("read remembered email", "error", err)
		return ""
	}
	return email
}

// Logout always leaves the client unauthenticated with no stored token. The
// server is told on a best-effort basis.
func (m *Manager) Logout(ctx context.Context) {
	hadToken := m.Token() != ""
	if hadToken && m.api != nil {
		if err := m.api.Logout(ctx); err != nil {
			m.log.Warnw("server logout failed", "error", err)
		}
	}
	m.Teardown(ctx)
}

// Teardown clears the session locally without contacting the server.
func (m *Manager) Teardown(ctx context.Context) {
	m.setToken("")
	m.setState(State{Status: Unauthenticated})
	// Detach from the caller's context so a cancelled command still clears state.
	ctx = context.WithoutCancel(ctx)
	if err := m.store.ClearToken(ctx); err != nil {
		m.log.Warnw("clear token", "error", err)
	}
	if err := m.store.ClearCache(ctx); err != nil {
		m.log.Warnw("clear cache", "error", err)
	}
}

var errNoRole = errors.New("user role not found in profile")
