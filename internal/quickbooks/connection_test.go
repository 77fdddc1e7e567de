package quickbooks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/craftyard/shopsync-worker/internal/models"
)

type fakeConnectionStore struct {
	conn        *models.OAuthConnection
	deleteCalls int
	updateCalls int
}

func (s *fakeConnectionStore) GetActive(ctx context.Context, provider string) (*models.OAuthConnection, error) {
	if s.conn == nil {
		return nil, errors.New("oauth connection not found")
	}
	copied := *s.conn
	return &copied, nil
}

func (s *fakeConnectionStore) Create(ctx context.Context, conn models.OAuthConnection) error {
	s.conn = &conn
	return nil
}

func (s *fakeConnectionStore) UpdateTokens(ctx context.Context, id string, accessToken, refreshToken string, expiresAt time.Time) error {
	s.updateCalls++
	s.conn.AccessToken = accessToken
	s.conn.RefreshToken = refreshToken
	s.conn.ExpiresAt = expiresAt
	return nil
}

func (s *fakeConnectionStore) DeleteByProvider(ctx context.Context, provider string) error {
	s.deleteCalls++
	s.conn = nil
	return nil
}

func storedConnection(expiresAt time.Time) *models.OAuthConnection {
	return &models.OAuthConnection{
		ID:           "conn-1",
		Provider:     models.ProviderQuickBooks,
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    expiresAt,
		RealmID:      "realm-1",
	}
}

func tokenServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","token_type":"bearer","expires_in":3600}`))
	}))
}

func newTestManager(store ConnectionStore, tokenURL string) *ConnectionManager {
	return NewConnectionManager(OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://shop.example.com/qb/callback",
		TokenURL:     tokenURL,
	}, store)
}

func TestGetValidAccessToken_FreshTokenNoRefresh(t *testing.T) {
	hits := 0
	server := tokenServer(t, &hits)
	defer server.Close()

	store := &fakeConnectionStore{conn: storedConnection(time.Now().Add(1 * time.Hour))}
	manager := newTestManager(store, server.URL)

	token, err := manager.GetValidAccessToken(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "old-access" {
		t.Errorf("expected stored token, got %q", token)
	}
	if hits != 0 {
		t.Errorf("expected zero refresh calls, got %d", hits)
	}
}

func TestGetValidAccessToken_RefreshWithinLookahead(t *testing.T) {
	hits := 0
	server := tokenServer(t, &hits)
	defer server.Close()

	// Expires in one minute, inside the 5-minute lookahead window
	store := &fakeConnectionStore{conn: storedConnection(time.Now().Add(1 * time.Minute))}
	manager := newTestManager(store, server.URL)

	token, err := manager.GetValidAccessToken(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hits != 1 {
		t.Errorf("expected exactly one refresh call, got %d", hits)
	}
	// The token must come from the re-read persisted row, not memory
	if token != "new-access" {
		t.Errorf("expected refreshed token, got %q", token)
	}
	if store.conn.RefreshToken != "new-refresh" {
		t.Errorf("expected rotated refresh token persisted, got %q", store.conn.RefreshToken)
	}
}

func TestGetValidAccessToken_NoConnection(t *testing.T) {
	manager := newTestManager(&fakeConnectionStore{}, "http://127.0.0.1:0")

	_, err := manager.GetValidAccessToken(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestRefreshAccessToken_FailureReturnsFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	store := &fakeConnectionStore{conn: storedConnection(time.Now().Add(1 * time.Minute))}
	manager := newTestManager(store, server.URL)

	if manager.RefreshAccessToken(context.Background()) {
		t.Error("expected refresh to report failure")
	}

	// A failed refresh surfaces as not connected, so callers can treat it
	// as needs-reauthorization
	if _, err := manager.GetValidAccessToken(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected after failed refresh, got %v", err)
	}
	if store.updateCalls != 0 {
		t.Errorf("expected no token update after failed refresh, got %d", store.updateCalls)
	}
}

func TestAuthorizationURL_NotConfigured(t *testing.T) {
	manager := NewConnectionManager(OAuthConfig{}, &fakeConnectionStore{})

	_, _, err := manager.AuthorizationURL()
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestAuthorizationURL_CarriesState(t *testing.T) {
	manager := newTestManager(&fakeConnectionStore{}, "")

	authURL, state, err := manager.AuthorizationURL()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if state == "" {
		t.Fatal("expected a non-empty state token")
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("failed to parse auth URL: %v", err)
	}
	if got := parsed.Query().Get("state"); got != state {
		t.Errorf("expected state %q in URL, got %q", state, got)
	}
	if got := parsed.Query().Get("client_id"); got != "client-id" {
		t.Errorf("expected client_id in URL, got %q", got)
	}
}

func TestExchangeCode_ReplacesExistingConnection(t *testing.T) {
	hits := 0
	server := tokenServer(t, &hits)
	defer server.Close()

	store := &fakeConnectionStore{conn: storedConnection(time.Now().Add(1 * time.Hour))}
	manager := newTestManager(store, server.URL)

	conn, err := manager.ExchangeCode(context.Background(), "auth-code", "realm-2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if store.deleteCalls != 1 {
		t.Errorf("expected prior connection deleted once, got %d deletes", store.deleteCalls)
	}
	if conn.RealmID != "realm-2" {
		t.Errorf("expected realm-2, got %q", conn.RealmID)
	}
	if store.conn == nil || store.conn.AccessToken != "new-access" {
		t.Errorf("expected new connection persisted, got %+v", store.conn)
	}
}

func TestDisconnect_RevokeFailureIsNonFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := &fakeConnectionStore{conn: storedConnection(time.Now().Add(1 * time.Hour))}
	manager := NewConnectionManager(OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RevokeURL:    server.URL,
	}, store)

	if err := manager.Disconnect(context.Background()); err != nil {
		t.Fatalf("expected disconnect to succeed despite revoke failure, got %v", err)
	}
	if store.conn != nil {
		t.Error("expected local connection deleted")
	}
}
