package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHTTPClientSendsSystemAndUserMessages(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "key", "primary", "", time.Second, zap.NewNop())
	out, err := c.Generate(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected content %q", out)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "user" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format")
	}
}

func TestHTTPClientFallsBackOnRateLimit(t *testing.T) {
	var (
		mu     sync.Mutex
		models []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		models = append(models, req.Model)
		mu.Unlock()
		if req.Model == "primary" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"fallback"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "primary", "secondary", time.Second, zap.NewNop())
	out, err := c.Generate(context.Background(), "", "hola")
	if err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if out != "fallback" {
		t.Fatalf("expected fallback content, got %q", out)
	}
	if len(models) != 2 || models[0] != "primary" || models[1] != "secondary" {
		t.Fatalf("expected primary then secondary, got %v", models)
	}
}

func TestHTTPClientReturnsStatusErrorWithoutFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "primary", "", time.Second, zap.NewNop())
	_, err := c.Generate(context.Background(), "", "hola")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status error 500, got %v", err)
	}
}

func TestHTTPClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "primary", "", time.Second, zap.NewNop())
	if _, err := c.Generate(context.Background(), "", "hola"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestMockClientRecordsPrompts(t *testing.T) {
	m := &MockClient{Response: "ok"}
	if _, err := m.Generate(context.Background(), "s", "u"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	sys, user := m.LastPrompts()
	if m.Calls() != 1 || sys != "s" || user != "u" {
		t.Fatalf("unexpected mock state: calls=%d sys=%q user=%q", m.Calls(), sys, user)
	}
}
