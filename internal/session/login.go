package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

const (
	MaxLoginAttempts = 3
	LockoutDuration  = 5 * time.Minute

	LandingAdmin     = "/admin"
	LandingDashboard = "/dashboard"
)

// ErrTooManyAttempts is returned by the failure that triggers a lockout.
var ErrTooManyAttempts = errors.New("Too many failed login attempts. Please try again in 5 minutes.")

// LockedOutError rejects a login locally while a lockout is active.
type LockedOutError struct {
	Remaining time.Duration
}

func (e *LockedOutError) Error() string {
	secs := int(math.Ceil(e.Remaining.Seconds()))
	return fmt.Sprintf("Too many login attempts. Please try again in %d seconds.", secs)
}

// LoginError is a failed attempt below the lockout threshold.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

type LoginResult struct {
	User    model.User
	Landing string
}

// Landing is the default route after login for role.
func Landing(role model.Role) string {
	if role.IsAdmin() {
		return LandingAdmin
	}
	return LandingDashboard
}

// Lockout reports the remaining lockout, zero when logins are allowed.
func (m *Manager) Lockout(ctx context.Context) (time.Duration, error) {
	l, err := m.store.LoadLockout(ctx)
	if err != nil {
		return 0, err
	}
	if l.Until.IsZero() {
		return 0, nil
	}
	if d := l.Until.Sub(m.now()); d > 0 {
		return d, nil
	}
	return 0, nil
}

// Login authenticates against the server. While locked out it fails locally
// without any network call.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) (LoginResult, error) {
	l, err := m.store.LoadLockout(ctx)
	if err != nil {
		return LoginResult{}, err
	}
	now := m.now()
	if !l.Until.IsZero() {
		if now.Before(l.Until) {
			return LoginResult{}, &LockedOutError{Remaining: l.Until.Sub(now)}
		}
		// Lockout elapsed: start counting again.
		l = store.Lockout{}
	}

	email = strings.TrimSpace(email)
	m.setState(State{Status: Authenticating})
	u, err := m.authenticate(ctx, email, password)
	if err != nil {
		m.setToken("")
		m.setState(State{Status: Unauthenticated})
		return LoginResult{}, m.recordFailure(ctx, l, err)
	}

	if remember {
		err = m.store.SetRememberedEmail(ctx, email)
	} else {
		err = m.store.ClearRememberedEmail(ctx)
	}
	if err != nil {
		m.log.Warnw("update remembered email", "error", err)
	}
	if err := m.store.SaveLockout(ctx, store.Lockout{}); err != nil {
		m.log.Warnw("reset lockout", "error", err)
	}
	m.setState(State{User: &u, Status: Authenticated})
	m.cacheProfile(ctx, u)
	m.log.Infow("logged in", "user_id", u.ID, "role", u.Role)
	return LoginResult{User: u, Landing: Landing(u.Role)}, nil
}

func (m *Manager) authenticate(ctx context.Context, email, password string) (model.User, error) {
	tok, err := m.api.Login(ctx, email, password)
	if err != nil {
		return model.User{}, err
	}
	m.setToken(tok.AccessToken)
	u, err := m.api.Profile(ctx)
	if err != nil {
		return model.User{}, err
	}
	if u.Role == "" {
		return model.User{}, errNoRole
	}
	if err := m.store.SetToken(ctx, tok.AccessToken); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (m *Manager) recordFailure(ctx context.Context, l store.Lockout, cause error) error {
	l.Failures++
	var out error
	if l.Failures >= MaxLoginAttempts {
		l.Until = m.now().Add(LockoutDuration)
		out = ErrTooManyAttempts
	} else {
		out = &LoginError{Message: loginMessage(cause), Err: cause}
	}
	if err := m.store.SaveLockout(ctx, l); err != nil {
		m.log.Warnw("save lockout", "error", err)
	}
	m.log.Infow("login failed", "failures", l.Failures, "error", cause)
	return out
}

// loginMessage prefers the server's detail string over a generic message.
func loginMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if apiErr.Kind == api.KindNetwork || apiErr.Kind == api.KindServer {
			return api.Message(err, "")
		}
	}
	return "Invalid email or password"
}
