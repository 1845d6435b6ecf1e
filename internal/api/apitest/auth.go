package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

type ctxKey struct{}

func currentUser(r *http.Request) model.User {
	u, _ := r.Context().Value(ctxKey{}).(model.User)
	return u
}

// TokenFor signs a token for the user the way the login route does.
func (s *Server) TokenFor(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sign(userID, s.now().Add(s.ttl))
}

// ExpiredTokenFor signs a token whose exp is already in the past.
func (s *Server) ExpiredTokenFor(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sign(userID, s.now().Add(-time.Minute))
}

// Revoke makes the server reject tok from now on, as if it had been logged out.
func (s *Server) Revoke(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tok] = true
}

func (s *Server) sign(userID int, exp time.Time) string {
	a := s.accounts[userID]
	if a == nil {
		return ""
	}
	claims := jwt.MapClaims{
		"sub": a.user.Email,
		"uid": a.user.ID,
		"exp": exp.Unix(),
		"iat": s.now().Unix(),
		"jti": uuid.NewString(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return tok
}

func (s *Server) verify(raw string) (model.User, error) {
	s.mu.Lock()
	now := s.now
	s.mu.Unlock()
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(now))
	if err != nil || !tok.Valid {
		return model.User{}, errors.New("invalid token")
	}
	mapc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return model.User{}, errors.New("invalid claims")
	}
	email, _ := mapc["sub"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[raw] {
		return model.User{}, errors.New("token revoked")
	}
	for _, id := range sortedIDs(s.accounts) {
		if a := s.accounts[id]; a.user.Email == email {
			return a.user, nil
		}
	}
	return model.User{}, errors.New("user not found")
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		u, err := s.verify(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).Role.IsAdmin() {
			respondError(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if email == "" || password == "" {
		respondValidation(w, fieldError{"username", "field required"})
		return
	}

	s.mu.Lock()
	var found *account
	for _, id := range sortedIDs(s.accounts) {
		if a := s.accounts[id]; strings.EqualFold(a.user.Email, email) {
			found = a
			break
		}
	}
	s.mu.Unlock()
	if found == nil || bcrypt.CompareHashAndPassword(found.hash, []byte(password)) != nil {
		respondError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"access_token": s.TokenFor(found.user.ID),
		"token_type":   "bearer",
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	var missing []fieldError
	if strings.TrimSpace(in.Username) == "" {
		missing = append(missing, fieldError{"username", "field required"})
	}
	if !strings.Contains(in.Email, "@") {
		missing = append(missing, fieldError{"email", "value is not a valid email address"})
	}
	if len(in.Password) < 6 {
		missing = append(missing, fieldError{"password", "ensure this value has at least 6 characters"})
	}
	if len(missing) > 0 {
		respondValidation(w, missing...)
		return
	}
	s.mu.Lock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Email, in.Email) {
			s.mu.Unlock()
			respondError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		if a.user.Username == in.Username {
			s.mu.Unlock()
			respondError(w, http.StatusBadRequest, "Username already taken")
			return
		}
	}
	s.mu.Unlock()
	u := s.AddUser(in.Username, in.Email, in.Password, model.RoleUser)
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.Revoke(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}
