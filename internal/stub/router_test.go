package stub_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/exotrack/exotrack-console/internal/domain"
	"github.com/exotrack/exotrack-console/internal/infra/observability"
	"github.com/exotrack/exotrack-console/internal/stub"

	"go.uber.org/zap"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := stub.NewStore()
	if err := stub.Seed(store, zap.NewNop()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	issuer := stub.NewTokenIssuer("test-secret", time.Hour)
	server := httptest.NewServer(stub.NewRouter(store, issuer, observability.NewMetrics(), zap.NewNop()))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func login(t *testing.T, server *httptest.Server, document, password string) string {
	t.Helper()
	resp := do(t, http.MethodPost, server.URL+"/auth/login", "", map[string]string{
		"documentNumber": document,
		"password":       password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login for %s returned %d", document, resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login response carried no token")
	}
	return token
}

func TestRouter_LoginIssuesToken(t *testing.T) {
	server := newServer(t)

	resp := do(t, http.MethodPost, server.URL+"/auth/login", "", map[string]string{
		"documentNumber": "1000000001",
		"password":       "admin123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["fullName"] != "Gloria Ramirez" || body["role"] != "admin" {
		t.Errorf("unexpected login body: %+v", body)
	}
	if token, _ := body["token"].(string); token == "" {
		t.Error("expected a token in the login response")
	}
}

func TestRouter_LoginEmptyCredentialsIsValidationArray(t *testing.T) {
	server := newServer(t)

	resp := do(t, http.MethodPost, server.URL+"/auth/login", "", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[struct {
		Message []string `json:"message"`
	}](t, resp)
	if len(body.Message) != 2 {
		t.Errorf("expected two validation messages, got %v", body.Message)
	}
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	server := newServer(t)

	resp := do(t, http.MethodPost, server.URL+"/auth/login", "", map[string]string{
		"documentNumber": "79845123",
		"password":       "wrong",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	server := newServer(t)

	for _, path := range []string{"/declarations", "/assets", "/users", "/auth/check-auth-status"} {
		resp := do(t, http.MethodGet, server.URL+path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token: expected 401, got %d", path, resp.StatusCode)
		}
	}
}

func TestRouter_CheckAuthStatusReturnsSessionUser(t *testing.T) {
	server := newServer(t)
	token := login(t, server, "79845123", "cliente123")

	resp := do(t, http.MethodGet, server.URL+"/auth/check-auth-status", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	user := decode[domain.User](t, resp)
	if user.FullName != "Carlos Mendoza" || user.Role != domain.RoleUser {
		t.Errorf("unexpected session user: %+v", user)
	}
}

func TestRouter_UsersAreAdminOnly(t *testing.T) {
	server := newServer(t)
	customer := login(t, server, "79845123", "cliente123")

	resp := do(t, http.MethodGet, server.URL+"/users", customer, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", resp.StatusCode)
	}

	admin := login(t, server, "1000000001", "admin123")
	resp = do(t, http.MethodGet, server.URL+"/users", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRouter_UsersPaginationEnvelope(t *testing.T) {
	server := newServer(t)
	admin := login(t, server, "1000000001", "admin123")

	resp := do(t, http.MethodGet, server.URL+"/users?limit=2&offset=1", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	page := decode[struct {
		Data   []domain.User `json:"data"`
		Total  int           `json:"total"`
		Limit  int           `json:"limit"`
		Offset int           `json:"offset"`
	}](t, resp)

	if page.Total != 3 {
		t.Errorf("expected total 3, got %d", page.Total)
	}
	if len(page.Data) != 2 || page.Limit != 2 || page.Offset != 1 {
		t.Errorf("unexpected page window: %d items, limit %d, offset %d", len(page.Data), page.Limit, page.Offset)
	}
}

func TestRouter_ItemAmountsSerializeAsStrings(t *testing.T) {
	server := newServer(t)
	admin := login(t, server, "1000000001", "admin123")

	resp := do(t, http.MethodGet, server.URL+"/assets", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	page := decode[struct {
		Data []struct {
			Concept string          `json:"concept"`
			Amount  json.RawMessage `json:"amount"`
		} `json:"data"`
	}](t, resp)

	if len(page.Data) == 0 {
		t.Fatal("expected seeded assets")
	}
	for _, item := range page.Data {
		if len(item.Amount) == 0 || item.Amount[0] != '"' {
			t.Errorf("item %q: expected string-typed amount, got %s", item.Concept, item.Amount)
		}
	}
}

func TestRouter_DuplicateDeclarationYearConflicts(t *testing.T) {
	server := newServer(t)
	admin := login(t, server, "1000000001", "admin123")

	// Carlos already has a 2024 declaration in the seed data.
	resp := do(t, http.MethodGet, server.URL+"/declarations?userId=", admin, nil)
	page := decode[struct {
		Data []domain.Declaration `json:"data"`
	}](t, resp)
	var carlosID string
	for _, d := range page.Data {
		if d.TaxableYear == 2024 && d.Description == "Declaracion renta 2024" {
			carlosID = d.UserID
		}
	}
	if carlosID == "" {
		t.Fatal("seeded 2024 declaration not found")
	}

	resp = do(t, http.MethodPost, server.URL+"/declarations", admin, map[string]any{
		"userId":      carlosID,
		"taxableYear": 2024,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestRouter_DeleteDeclarationCascadesToItems(t *testing.T) {
	server := newServer(t)
	admin := login(t, server, "1000000001", "admin123")

	resp := do(t, http.MethodGet, server.URL+"/declarations", admin, nil)
	page := decode[struct {
		Data []domain.Declaration `json:"data"`
	}](t, resp)
	var target string
	for _, d := range page.Data {
		if d.Description == "Declaracion renta 2024" {
			target = d.ID
		}
	}
	if target == "" {
		t.Fatal("seeded 2024 declaration not found")
	}

	assetURL := fmt.Sprintf("%s/assets?declarationId=%s", server.URL, target)
	resp = do(t, http.MethodGet, assetURL, admin, nil)
	before := decode[struct {
		Total int `json:"total"`
	}](t, resp)
	if before.Total == 0 {
		t.Fatal("expected seeded assets on the declaration")
	}

	resp = do(t, http.MethodDelete, server.URL+"/declarations/"+target, admin, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, assetURL, admin, nil)
	after := decode[struct {
		Total int `json:"total"`
	}](t, resp)
	if after.Total != 0 {
		t.Errorf("expected items cascade-deleted, got %d left", after.Total)
	}
}

func TestRouter_CustomersOnlySeeOwnDeclarations(t *testing.T) {
	server := newServer(t)
	customer := login(t, server, "79845123", "cliente123")

	// The userId filter is ignored for customers; they get their own rows.
	resp := do(t, http.MethodGet, server.URL+"/declarations?userId=someone-else", customer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	page := decode[struct {
		Data  []domain.Declaration `json:"data"`
		Total int                  `json:"total"`
	}](t, resp)

	if page.Total != 2 {
		t.Fatalf("expected the customer's 2 declarations, got %d", page.Total)
	}
	var owner string
	for _, d := range page.Data {
		if owner == "" {
			owner = d.UserID
		}
		if d.UserID != owner {
			t.Errorf("declaration %s belongs to a different user", d.ID)
		}
	}
}

func TestRouter_CreateItemValidation(t *testing.T) {
	server := newServer(t)
	admin := login(t, server, "1000000001", "admin123")

	resp := do(t, http.MethodPost, server.URL+"/incomes", admin, map[string]any{
		"declarationId": "missing",
		"concept":       "",
		"amount":        100,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[struct {
		Message []string `json:"message"`
	}](t, resp)
	if len(body.Message) == 0 {
		t.Error("expected a validation message array")
	}
}

func TestRouter_UpdateItemAcceptsStringAmount(t *testing.T) {
	server := newServer(t)
	admin := login(t, server, "1000000001", "admin123")

	resp := do(t, http.MethodGet, server.URL+"/liabilities", admin, nil)
	page := decode[struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, resp)
	if len(page.Data) == 0 {
		t.Fatal("expected seeded liabilities")
	}
	id := page.Data[0].ID

	resp = do(t, http.MethodPut, server.URL+"/liabilities/"+id, admin, map[string]any{
		"concept": "Credito renegociado",
		"amount":  "150000000",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	updated := decode[struct {
		Concept string `json:"concept"`
		Amount  string `json:"amount"`
	}](t, resp)
	if updated.Concept != "Credito renegociado" || updated.Amount != "150000000.00" {
		t.Errorf("unexpected update result: %+v", updated)
	}
}

func TestRouter_ListingsAreNewestFirst(t *testing.T) {
	server := newServer(t)
	admin := login(t, server, "1000000001", "admin123")

	resp := do(t, http.MethodPost, server.URL+"/auth/register", "", map[string]string{
		"fullName":       "Mario Prueba",
		"documentNumber": "11223344",
		"password":       "cliente123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}
	customer := decode[domain.User](t, resp)

	resp = do(t, http.MethodPost, server.URL+"/declarations", admin, map[string]any{
		"userId":      customer.ID,
		"taxableYear": 2021,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating declaration returned %d", resp.StatusCode)
	}
	decl := decode[domain.Declaration](t, resp)

	for i := 1; i <= 12; i++ {
		resp = do(t, http.MethodPost, server.URL+"/incomes", admin, map[string]any{
			"declarationId": decl.ID,
			"concept":       fmt.Sprintf("Ingreso %02d", i),
			"amount":        1000 * i,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("creating income %d returned %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	// A fresh row must land on page 1, not fall off the end of the list.
	resp = do(t, http.MethodGet, fmt.Sprintf("%s/incomes?declarationId=%s&limit=10", server.URL, decl.ID), admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	page := decode[struct {
		Data []struct {
			Concept string `json:"concept"`
		} `json:"data"`
		Total int `json:"total"`
	}](t, resp)

	if page.Total != 12 || len(page.Data) != 10 {
		t.Fatalf("expected 10 of 12 items, got %d of %d", len(page.Data), page.Total)
	}
	if page.Data[0].Concept != "Ingreso 12" {
		t.Errorf("expected the newest item first, got %q", page.Data[0].Concept)
	}
	for _, item := range page.Data {
		if item.Concept == "Ingreso 01" || item.Concept == "Ingreso 02" {
			t.Errorf("expected the oldest items pushed off page 1, found %q", item.Concept)
		}
	}
}

func TestRouter_Healthz(t *testing.T) {
	server := newServer(t)
	resp := do(t, http.MethodGet, server.URL+"/healthz", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
