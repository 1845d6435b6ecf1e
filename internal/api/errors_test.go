package api

import (
	"errors"
	"net/http"
	"testing"
)

func TestErrorFromResponse_StringDetail(t *testing.T) {
	e := errorFromResponse(http.StatusNotFound, []byte(`{"detail":"Ticket not found"}`))
	if e.Kind != KindNotFound || e.Detail != "Ticket not found" {
		t.Fatalf("unexpected: %#v", e)
	}
}

func TestErrorFromResponse_ValidationList(t *testing.T) {
	body := `{"detail":[{"loc":["body","title"],"msg":"field required"},{"loc":[],"msg":"bad"}]}`
	e := errorFromResponse(http.StatusUnprocessableEntity, []byte(body))
	if e.Kind != KindValidation {
		t.Fatalf("kind = %v", e.Kind)
	}
	if e.Detail != "title: field required\nbad" {
		t.Fatalf("detail = %q", e.Detail)
	}
}

func TestErrorFromResponse_NonJSONBody(t *testing.T) {
	e := errorFromResponse(http.StatusBadGateway, []byte("<html>"))
	if e.Kind != KindServer || e.Detail != "" {
		t.Fatalf("unexpected: %#v", e)
	}
	if got := Message(e, "x"); got != "Server error. Please try again later." {
		t.Fatalf("Message = %q", got)
	}
}

func TestMessage_Fallbacks(t *testing.T) {
	if Message(nil, "x") != "" {
		t.Fatalf("nil error should be empty")
	}
	if got := Message(errors.New("boom"), "Something failed"); got != "Something failed" {
		t.Fatalf("got %q", got)
	}
	if got := Message(errors.New("boom"), ""); got != "boom" {
		t.Fatalf("got %q", got)
	}
	if got := Message(&Error{Status: 418, Kind: KindOther}, "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
	wrapped := errors.Join(errors.New("ctx"), &Error{Status: 401, Kind: KindAuth})
	if !IsUnauthorized(wrapped) {
		t.Fatalf("IsUnauthorized should see through wrapping")
	}
}
