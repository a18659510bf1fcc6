package service_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/exotrack/exotrack-console/internal/api"
	"github.com/exotrack/exotrack-console/internal/domain"
	"github.com/exotrack/exotrack-console/internal/infra/cache"
	"github.com/exotrack/exotrack-console/internal/infra/observability"
	"github.com/exotrack/exotrack-console/internal/infra/resilience"
	"github.com/exotrack/exotrack-console/internal/service"

	"go.uber.org/zap"
)

func newSummaryCache() *cache.InMemory[*domain.DashboardSummary] {
	return cache.New[*domain.DashboardSummary](time.Minute)
}

type memTokens struct{ token string }

func (m *memTokens) Token() string           { return m.token }
func (m *memTokens) SetToken(t string) error { m.token = t; return nil }
func (m *memTokens) Clear() error            { m.token = ""; return nil }

func newClient(t *testing.T, baseURL string, tokens api.TokenStore) *api.Client {
	t.Helper()
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	cb := resilience.NewCircuitBreaker("svc-test-" + t.Name())
	return api.NewClient(&http.Client{Timeout: 2 * time.Second}, baseURL, tokens, cb, cfg, observability.NewMetrics(), zap.NewNop())
}

func TestLineItemService_CoercesStringAmounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id":"a1","declarationId":"d1","concept":"Apartamento","amount":"350000000","source":"MANUAL"},
				{"id":"a2","declarationId":"d1","concept":"Vehiculo","amount":78000000,"source":"EXOGENO"}
			],
			"total": 2, "limit": 10, "offset": 0
		}`))
	}))
	defer server.Close()

	svc := service.NewAssetService(newClient(t, server.URL, &memTokens{}), zap.NewNop())
	page, err := svc.FindAllWithPagination(context.Background(), domain.PageQuery{Limit: 10}, "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Data) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Data))
	}
	if page.Data[0].Amount.Float64() != 350000000 {
		t.Errorf("string amount not coerced: %v", page.Data[0].Amount)
	}
	if got := domain.SumAmounts(page.Data); got != 428000000 {
		t.Errorf("expected sum 428000000, got %v", got)
	}
}

func TestLineItemService_UpdateSendsOnlyConceptAndAmount(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"a1","declarationId":"d1","concept":"Apartamento Chapinero","amount":"360000000","source":"MANUAL"}`))
	}))
	defer server.Close()

	svc := service.NewAssetService(newClient(t, server.URL, &memTokens{}), zap.NewNop())
	item := domain.LineItem{
		ID:            "a1",
		DeclarationID: "d1",
		Concept:       "Apartamento Chapinero",
		Amount:        360000000,
		Source:        domain.SourceManual,
		CreatedAt:     time.Now(),
	}
	if _, err := svc.Update(context.Background(), "a1", item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(body) != 2 {
		t.Errorf("expected exactly concept and amount in payload, got %v", body)
	}
	if _, ok := body["declarationId"]; ok {
		t.Error("update payload must not carry declarationId")
	}
	if _, ok := body["source"]; ok {
		t.Error("update payload must not carry source")
	}
}

func TestUserService_UpdateOmitsRoleAndDocument(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","fullName":"Carlos Mendoza","role":"user","isActive":true}`))
	}))
	defer server.Close()

	svc := service.NewUserService(newClient(t, server.URL, &memTokens{}), zap.NewNop())
	user := domain.User{
		ID:             "u1",
		DocumentNumber: "79845123",
		FullName:       "Carlos Mendoza",
		Email:          "carlos@example.com",
		Role:           domain.RoleUser,
		IsActive:       true,
	}
	if _, err := svc.Update(context.Background(), "u1", user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := body["role"]; ok {
		t.Error("update payload must not carry role")
	}
	if _, ok := body["documentNumber"]; ok {
		t.Error("update payload must not carry documentNumber")
	}
	if body["fullName"] != "Carlos Mendoza" {
		t.Errorf("expected fullName in payload, got %v", body)
	}
}

func TestDeclarationService_UpdateSendsStatusAndDescription(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"d1","userId":"u1","taxableYear":2024,"status":"COMPLETED"}`))
	}))
	defer server.Close()

	svc := service.NewDeclarationService(newClient(t, server.URL, &memTokens{}), zap.NewNop())
	decl := domain.Declaration{
		ID:          "d1",
		UserID:      "u1",
		TaxableYear: 2024,
		Status:      domain.StatusCompleted,
		Description: "done",
	}
	if _, err := svc.Update(context.Background(), "d1", decl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(body) != 2 {
		t.Errorf("expected exactly status and description, got %v", body)
	}
	if _, ok := body["taxableYear"]; ok {
		t.Error("update payload must not carry taxableYear")
	}
}

func TestAuthService_LoginStoresTokenBeforeCurrentUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","fullName":"Carlos Mendoza","role":"user","token":"fresh-token"}`))
	})
	mux.HandleFunc("/auth/check-auth-status", func(w http.ResponseWriter, r *http.Request) {
		// The current-user call must already carry the token from login.
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"missing token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","documentNumber":"79845123","fullName":"Carlos Mendoza","role":"user","isActive":true}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tokens := &memTokens{}
	svc := service.NewAuthService(newClient(t, server.URL, tokens), zap.NewNop())

	result, err := svc.Login(context.Background(), domain.Credentials{DocumentNumber: "79845123", Password: "cliente123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token != "fresh-token" {
		t.Errorf("unexpected token %q", result.Token)
	}
	if result.User == nil || result.User.DocumentNumber != "79845123" {
		t.Errorf("expected full user record, got %+v", result.User)
	}
	if tokens.token != "fresh-token" {
		t.Errorf("expected token persisted, got %q", tokens.token)
	}
}

func TestDeclarationService_UsedYears(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userId") != "u1" {
			t.Errorf("expected userId filter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id":"d1","userId":"u1","taxableYear":2024,"status":"PENDING"},
				{"id":"d2","userId":"u1","taxableYear":2022,"status":"COMPLETED"},
				{"id":"d3","userId":"u1","taxableYear":2023,"status":"COMPLETED"}
			],
			"total": 3, "limit": 100, "offset": 0
		}`))
	}))
	defer server.Close()

	svc := service.NewDeclarationService(newClient(t, server.URL, &memTokens{}), zap.NewNop())
	years, err := svc.UsedYears(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{2022, 2023, 2024}
	if len(years) != len(want) {
		t.Fatalf("expected %v, got %v", want, years)
	}
	for i := range want {
		if years[i] != want[i] {
			t.Fatalf("expected sorted years %v, got %v", want, years)
		}
	}
}

func TestOverviewService_CustomerFetchesConcurrently(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/u1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","fullName":"Carlos Mendoza","role":"user","isActive":true}`))
	})
	mux.HandleFunc("/declarations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"d1","userId":"u1","taxableYear":2024,"status":"PENDING"}],"total":1,"limit":100,"offset":0}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newClient(t, server.URL, &memTokens{})
	users := service.NewUserService(client, zap.NewNop())
	decls := service.NewDeclarationService(client, zap.NewNop())
	ov := service.NewOverviewService(users, decls, newSummaryCache(), observability.NewMetrics(), zap.NewNop())

	result, err := ov.Customer(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.User == nil || result.User.FullName != "Carlos Mendoza" {
		t.Errorf("unexpected user: %+v", result.User)
	}
	if len(result.Declarations) != 1 {
		t.Errorf("expected 1 declaration, got %d", len(result.Declarations))
	}
}

func TestOverviewService_DashboardServesFromCache(t *testing.T) {
	var statsCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/users/stats", func(w http.ResponseWriter, r *http.Request) {
		statsCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"totalUsers":3,"activeUsers":3,"inactiveUsers":0,"admins":1,"customers":2}`))
	})
	mux.HandleFunc("/declarations/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"totalDeclarations":3,"pending":2,"completed":1,"currentYear":0}`))
	})
	mux.HandleFunc("/declarations/recent-activity", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newClient(t, server.URL, &memTokens{})
	users := service.NewUserService(client, zap.NewNop())
	decls := service.NewDeclarationService(client, zap.NewNop())
	ov := service.NewOverviewService(users, decls, newSummaryCache(), observability.NewMetrics(), zap.NewNop())

	for i := 0; i < 3; i++ {
		summary, err := ov.Dashboard(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Users.TotalUsers != 3 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	}
	if statsCalls != 1 {
		t.Errorf("expected one upstream stats fetch, got %d", statsCalls)
	}
}
