package quickbooks

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/craftyard/shopsync-worker/internal/models"
)

const (
	defaultAuthURL   = "https://appcenter.intuit.com/connect/oauth2"
	defaultTokenURL  = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	defaultRevokeURL = "https://developer.api.intuit.com/v2/oauth2/tokens/revoke"

	accountingScope = "com.intuit.quickbooks.accounting"

	// Tokens expiring within this window are refreshed before use, so a
	// request never goes out with a token about to die mid-flight.
	refreshLookahead = 5 * time.Minute
)

// ConnectionStore is the persistence surface the manager needs.
type ConnectionStore interface {
	GetActive(ctx context.Context, provider string) (*models.OAuthConnection, error)
	Create(ctx context.Context, conn models.OAuthConnection) error
	UpdateTokens(ctx context.Context, id string, accessToken, refreshToken string, expiresAt time.Time) error
	DeleteByProvider(ctx context.Context, provider string) error
}

// OAuthConfig holds the QuickBooks OAuth 2.0 settings. Endpoint URLs default
// to Intuit production and are only overridden in tests.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	RevokeURL    string
}

// ConnectionManager owns the single QuickBooks connection: authorization,
// code exchange, refresh, and disconnect. Tokens are never cached in memory;
// every read goes back to the store so concurrent processors cannot reuse a
// stale token after a refresh.
type ConnectionManager struct {
	cfg        OAuthConfig
	store      ConnectionStore
	httpClient *http.Client
}

func NewConnectionManager(cfg OAuthConfig, store ConnectionStore) *ConnectionManager {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = defaultRevokeURL
	}
	return &ConnectionManager{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *ConnectionManager) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		RedirectURL:  m.cfg.RedirectURI,
		Scopes:       []string{accountingScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   m.cfg.AuthURL,
			TokenURL:  m.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// GetActiveConnection retrieves the most recently created connection, or
// ErrNotConnected when none exists.
func (m *ConnectionManager) GetActiveConnection(ctx context.Context) (*models.OAuthConnection, error) {
	conn, err := m.store.GetActive(ctx, models.ProviderQuickBooks)
	if err != nil {
		return nil, ErrNotConnected
	}
	return conn, nil
}

// AuthorizationURL builds the Intuit consent URL with a fresh CSRF state
// token. The state is returned so the caller can verify the callback.
func (m *ConnectionManager) AuthorizationURL() (authURL string, state string, err error) {
	if m.cfg.ClientID == "" || m.cfg.ClientSecret == "" {
		return "", "", ErrNotConfigured
	}
	state = uuid.New().String()
	return m.oauthConfig().AuthCodeURL(state), state, nil
}

// ExchangeCode swaps the authorization code for a token pair and persists a
// new connection, replacing any existing one for the provider.
func (m *ConnectionManager) ExchangeCode(ctx context.Context, code, realmID string) (*models.OAuthConnection, error) {
	if m.cfg.ClientID == "" || m.cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}

	token, err := m.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	// One connection per provider: drop any previous row first.
	if err := m.store.DeleteByProvider(ctx, models.ProviderQuickBooks); err != nil {
		return nil, fmt.Errorf("failed to replace existing connection: %w", err)
	}

	now := time.Now()
	conn := models.OAuthConnection{
		ID:           uuid.New().String(),
		Provider:     models.ProviderQuickBooks,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		RealmID:      realmID,
		Metadata: models.JSONB{
			"token_type": token.TokenType,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Create(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	log.Printf("QuickBooks connected for realm %s, token expires at %s", realmID, token.Expiry)
	return &conn, nil
}

// RefreshAccessToken obtains a new token pair using the stored refresh
// token. It returns false instead of an error so batch callers can treat a
// failure as "needs re-authorization" without aborting the whole tick.
func (m *ConnectionManager) RefreshAccessToken(ctx context.Context) bool {
	conn, err := m.store.GetActive(ctx, models.ProviderQuickBooks)
	if err != nil {
		log.Printf("Token refresh skipped: %v", err)
		return false
	}

	src := m.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: conn.RefreshToken})
	token, err := src.Token()
	if err != nil {
		log.Printf("Token refresh failed: %v", err)
		return false
	}

	// Intuit rotates refresh tokens; keep the old one if none came back.
	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = conn.RefreshToken
	}

	if err := m.store.UpdateTokens(ctx, conn.ID, token.AccessToken, refreshToken, token.Expiry); err != nil {
		log.Printf("Failed to persist refreshed tokens: %v", err)
		return false
	}

	log.Printf("QuickBooks token refreshed, expires at %s", token.Expiry)
	return true
}

// GetValidAccessToken returns an access token guaranteed to outlive the
// refresh lookahead window. After a refresh the persisted row is re-read
// rather than trusting anything held in memory.
func (m *ConnectionManager) GetValidAccessToken(ctx context.Context) (string, error) {
	conn, err := m.store.GetActive(ctx, models.ProviderQuickBooks)
	if err != nil {
		return "", ErrNotConnected
	}

	if time.Until(conn.ExpiresAt) < refreshLookahead {
		if !m.RefreshAccessToken(ctx) {
			return "", ErrNotConnected
		}
		conn, err = m.store.GetActive(ctx, models.ProviderQuickBooks)
		if err != nil {
			return "", ErrNotConnected
		}
	}

	return conn.AccessToken, nil
}

// Disconnect revokes the refresh token with Intuit (best effort) and deletes
// the local connection. Revocation failure is logged, not fatal: the local
// row is removed either way so the shop sees a disconnected state.
func (m *ConnectionManager) Disconnect(ctx context.Context) error {
	conn, err := m.store.GetActive(ctx, models.ProviderQuickBooks)
	if err != nil {
		return ErrNotConnected
	}

	if err := m.revokeToken(ctx, conn.RefreshToken); err != nil {
		log.Printf("Warning: token revocation failed: %v", err)
	}

	if err := m.store.DeleteByProvider(ctx, models.ProviderQuickBooks); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	log.Printf("QuickBooks disconnected for realm %s", conn.RealmID)
	return nil
}

// revokeToken revokes a token with Intuit
func (m *ConnectionManager) revokeToken(ctx context.Context, token string) error {
	data := url.Values{}
	data.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, "POST", m.cfg.RevokeURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(m.cfg.ClientID, m.cfg.ClientSecret)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke request failed with status %d", resp.StatusCode)
	}
	return nil
}
