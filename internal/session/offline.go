package session

import (
	"context"
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

// CacheProfile is the resource-cache kind holding the signed-in user's profile.
const CacheProfile = "profile"

const profileKey = "me"

func (m *Manager) cacheProfile(ctx context.Context, u model.User) {
	if err := m.store.PutCache(ctx, CacheProfile, profileKey, u); err != nil {
		m.log.Warnw("cache profile", "error", err)
	}
}

// ResumeCached resumes the persisted session from the profile cached at the
// last successful login or restore, without contacting the server. The client
// stays unauthenticated when there is no token, the token has expired, or the
// cached profile belongs to someone else.
func (m *Manager) ResumeCached(ctx context.Context) (State, error) {
	tok, err := m.store.Token(ctx)
	if err != nil {
		return m.State(), err
	}
	tok = strings.TrimSpace(tok)
	m.setState(State{Status: Unauthenticated})
	if tok == "" {
		m.setToken("")
		return m.State(), nil
	}
	c, err := ParseClaims(tok)
	if err != nil || c.Expired(m.now()) {
		m.log.Infow("stored token unusable offline", "error", err)
		m.Teardown(ctx)
		return m.State(), nil
	}
	var u model.User
	_, ok, err := m.store.GetCache(ctx, CacheProfile, profileKey, &u)
	if err != nil {
		return m.State(), err
	}
	if !ok || !strings.EqualFold(u.Email, c.Subject) {
		return m.State(), nil
	}
	m.setToken(tok)
	m.setState(State{User: &u, Status: Authenticated})
	return m.State(), nil
}
