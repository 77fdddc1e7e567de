package quickbooks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) GetValidAccessToken(ctx context.Context) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func newTestClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestClient_QueryCustomers(t *testing.T) {
	var gotAuth, gotMinorVersion, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMinorVersion = r.URL.Query().Get("minorversion")
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"QueryResponse":{"Customer":[{"Id":"42","DisplayName":"Ada's Frames","SyncToken":"3"}]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, &staticTokens{token: "token-abc"})

	customers, err := client.QueryCustomers(context.Background(), "realm-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotAuth != "Bearer token-abc" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotMinorVersion != minorVersion {
		t.Errorf("expected minorversion %s, got %q", minorVersion, gotMinorVersion)
	}
	if gotQuery != "select * from Customer" {
		t.Errorf("unexpected query statement %q", gotQuery)
	}
	if len(customers) != 1 || customers[0].ID != "42" {
		t.Fatalf("expected one customer with Id 42, got %+v", customers)
	}
}

func TestClient_NonOKStatusReturnsAPIError(t *testing.T) {
	body := `{"Fault":{"Error":[{"Message":"Stale Object Error","code":"5010"}]}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := newTestClient(server.URL, &staticTokens{token: "token-abc"})

	_, err := client.GetCustomer(context.Background(), "realm-1", "42")
	if err == nil {
		t.Fatal("expected error for 400 response, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.StatusCode)
	}
	if apiErr.Body != body {
		t.Errorf("expected verbatim body %q, got %q", body, apiErr.Body)
	}
}

func TestClient_NotConnectedShortCircuits(t *testing.T) {
	serverHit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHit = true
	}))
	defer server.Close()

	client := newTestClient(server.URL, &staticTokens{err: ErrNotConnected})

	_, err := client.QueryCustomers(context.Background(), "realm-1")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if serverHit {
		t.Error("expected no HTTP call without a valid token")
	}
}

func TestClient_UpdateCustomerSendsSparseAndSyncToken(t *testing.T) {
	var gotBody Customer
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Customer":{"Id":"42","SyncToken":"4","DisplayName":"Ada's Frames"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, &staticTokens{token: "token-abc"})

	updated, err := client.UpdateCustomer(context.Background(), "realm-1", Customer{
		ID:          "42",
		SyncToken:   "3",
		DisplayName: "Ada's Frames",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !gotBody.Sparse {
		t.Error("expected sparse update")
	}
	if gotBody.SyncToken != "3" {
		t.Errorf("expected SyncToken 3 in request, got %q", gotBody.SyncToken)
	}
	if updated.SyncToken != "4" {
		t.Errorf("expected SyncToken 4 in response, got %q", updated.SyncToken)
	}
}
