package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindOther Kind = iota
	KindNetwork
	KindAuth
	KindForbidden
	KindValidation
	KindNotFound
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	default:
		return "other"
	}
}

// Error is a failed API call. Status is 0 when no response was received.
type Error struct {
	Status int
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return "network error: " + e.Err.Error()
	case e.Detail != "":
		return fmt.Sprintf("%d: %s", e.Status, e.Detail)
	default:
		return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	}
}

func (e *Error) Unwrap() error { return e.Err }

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindOther
	}
}

// errorFromResponse decodes FastAPI-style bodies: {"detail": "..."} or
// {"detail": [{"loc": [...], "msg": "..."}]} for validation failures.
func errorFromResponse(status int, body []byte) *Error {
	e := &Error{Status: status, Kind: kindForStatus(status)}
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return e
	}
	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		e.Detail = strings.TrimSpace(s)
		return e
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &items); err == nil {
		lines := make([]string, 0, len(items))
		for _, it := range items {
			field := ""
			if n := len(it.Loc); n > 0 {
				field = fmt.Sprint(it.Loc[n-1])
			}
			if field != "" {
				lines = append(lines, field+": "+it.Msg)
			} else {
				lines = append(lines, it.Msg)
			}
		}
		e.Detail = strings.Join(lines, "\n")
	}
	return e
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool { return KindOf(err) == KindAuth }

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// Message turns err into a user-displayable string: the server-supplied detail when
// present, otherwise a generic message for the error kind, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		if fallback != "" {
			return fallback
		}
		return err.Error()
	}
	if e.Detail != "" {
		return e.Detail
	}
	switch e.Kind {
	case KindNetwork:
		return "Network error. Please check your connection."
	case KindAuth:
		return "Authentication required. Please log in."
	case KindForbidden:
		return "You do not have permission to do that."
	case KindValidation:
		return "Invalid data. Please check your input."
	case KindNotFound:
		return "Not found."
	case KindServer:
		return "Server error. Please try again later."
	}
	if fallback != "" {
		return fallback
	}
	return e.Error()
}
