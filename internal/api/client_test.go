package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/exotrack/exotrack-console/internal/api"
	"github.com/exotrack/exotrack-console/internal/domain"
	"github.com/exotrack/exotrack-console/internal/infra/observability"
	"github.com/exotrack/exotrack-console/internal/infra/resilience"

	"go.uber.org/zap"
)

type memTokens struct {
	token   string
	cleared bool
}

func (m *memTokens) Token() string           { return m.token }
func (m *memTokens) SetToken(t string) error { m.token = t; return nil }
func (m *memTokens) Clear() error            { m.token = ""; m.cleared = true; return nil }

func newTestClient(t *testing.T, baseURL string, tokens api.TokenStore) *api.Client {
	t.Helper()
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	cb := resilience.NewCircuitBreaker("test-" + t.Name())
	httpClient := &http.Client{Timeout: 2 * time.Second}
	return api.NewClient(httpClient, baseURL, tokens, cb, cfg, observability.NewMetrics(), zap.NewNop())
}

func TestClient_AttachesBearerTokenAndDecodes(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","fullName":"Carlos Mendoza","role":"user"}`))
	}))
	defer server.Close()

	tokens := &memTokens{token: "tok-123"}
	client := newTestClient(t, server.URL, tokens)

	var user domain.User
	if err := client.Get(context.Background(), "/users/u1", &user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected an X-Request-ID header")
	}
	if user.FullName != "Carlos Mendoza" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestClient_NoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &memTokens{})
	if err := client.Get(context.Background(), "/users", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestClient_UnauthorizedTearsDownSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer server.Close()

	tokens := &memTokens{token: "stale"}
	client := newTestClient(t, server.URL, tokens)

	hookFired := false
	client.OnUnauthorized(func() { hookFired = true })

	err := client.Get(context.Background(), "/declarations", nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 401 {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if apiErr.Message != "token expired" {
		t.Errorf("expected decoded message, got %q", apiErr.Message)
	}
	if !tokens.cleared || tokens.token != "" {
		t.Error("expected stored token to be cleared")
	}
	if !hookFired {
		t.Error("expected the unauthorized hook to fire")
	}
}

func TestClient_LoginFailureKeepsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer server.Close()

	// An existing session's token must survive a failed login attempt.
	tokens := &memTokens{token: "existing-session"}
	client := newTestClient(t, server.URL, tokens)

	hookFired := false
	client.OnUnauthorized(func() { hookFired = true })

	err := client.Post(context.Background(), "/auth/login", map[string]string{"documentNumber": "1", "password": "x"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if tokens.cleared || tokens.token != "existing-session" {
		t.Error("login failure must not clear the stored token")
	}
	if hookFired {
		t.Error("login failure must not fire the unauthorized hook")
	}
}

func TestClient_NormalizesMessageArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":["concept must not be empty","amount must not be negative"]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &memTokens{})
	err := client.Post(context.Background(), "/assets", map[string]string{}, nil)

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "concept must not be empty" {
		t.Errorf("expected first validation message, got %q", apiErr.Message)
	}
	if apiErr.Status != 400 {
		t.Errorf("expected status 400, got %d", apiErr.Status)
	}
}

func TestClient_NetworkFailureIsStatusZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := newTestClient(t, server.URL, &memTokens{})
	err := client.Get(context.Background(), "/users", nil)

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != 0 {
		t.Errorf("expected status 0 for transport failure, got %d", apiErr.Status)
	}
	if !domain.IsNetwork(err) {
		t.Error("expected IsNetwork to report true")
	}
}

func TestClient_TimeoutIsStatusZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	cb := resilience.NewCircuitBreaker("test-timeout")
	httpClient := &http.Client{Timeout: 50 * time.Millisecond}
	client := api.NewClient(httpClient, server.URL, &memTokens{}, cb, cfg, observability.NewMetrics(), zap.NewNop())

	err := client.Get(context.Background(), "/users", nil)

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != 0 {
		t.Errorf("expected status 0 for timeout, got %d", apiErr.Status)
	}
}

func TestClient_NonJSONSuccessLeavesOutZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &memTokens{})

	var out domain.User
	if err := client.Get(context.Background(), "/health-text", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ID != "" {
		t.Errorf("expected untouched output, got %+v", out)
	}
}

func TestClient_ServerErrorCarriesDecodedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"database unavailable"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &memTokens{})
	err := client.Get(context.Background(), "/users", nil)

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != 500 || apiErr.Message != "database unavailable" {
		t.Errorf("expected decoded 500 error, got %+v", apiErr)
	}
}
