package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the client can read from its bearer token without the
// server's signing key.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes tok without verifying its signature. The server remains
// the authority; this only lets the client skip a request it knows will fail.
func ParseClaims(tok string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, mc); err != nil {
		return Claims{}, err
	}
	sub, err := mc.GetSubject()
	if err != nil {
		return Claims{}, err
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return Claims{}, err
	}
	c := Claims{Subject: sub}
	if exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Claims inspects the current token.
func (m *Manager) Claims() (Claims, error) {
	tok := m.Token()
	if tok == "" {
		return Claims{}, errors.New("not logged in")
	}
	return ParseClaims(tok)
}
