package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

const (
	kvToken           = "auth.token"
	kvRememberedEmail = "auth.remembered_email"
	kvLockout         = "auth.lockout"
)

func (s Store) Token(ctx context.Context) (string, error) {
	return s.getKV(ctx, kvToken)
}

func (s Store) SetToken(ctx context.Context, tok string) error {
	return s.setKV(ctx, kvToken, strings.TrimSpace(tok))
}

func (s Store) ClearToken(ctx context.Context) error {
	return s.deleteKV(ctx, kvToken)
}

func (s Store) RememberedEmail(ctx context.Context) (string, error) {
	return s.getKV(ctx, kvRememberedEmail)
}

func (s Store) SetRememberedEmail(ctx context.Context, email string) error {
	return s.setKV(ctx, kvRememberedEmail, strings.TrimSpace(email))
}

func (s Store) ClearRememberedEmail(ctx context.Context) error {
	return s.deleteKV(ctx, kvRememberedEmail)
}

// Lockout is the failed-login counter. Until is zero unless a lockout is active
// or has expired without a successful login since.
type Lockout struct {
	Failures int       `json:"failures"`
	Until    time.Time `json:"until,omitzero"`
}

func (s Store) LoadLockout(ctx context.Context) (Lockout, error) {
	raw, err := s.getKV(ctx, kvLockout)
	if err != nil || raw == "" {
		return Lockout{}, err
	}
	var l Lockout
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		// A corrupt record resets the counter.
		return Lockout{}, nil
	}
	return l, nil
}

func (s Store) SaveLockout(ctx context.Context, l Lockout) error {
	if l.Failures == 0 && l.Until.IsZero() {
		return s.deleteKV(ctx, kvLockout)
	}
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return s.setKV(ctx, kvLockout, string(b))
}
