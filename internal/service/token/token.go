package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stravagram/stravagram/internal/apperrors"
	"github.com/stravagram/stravagram/internal/logger"
	"github.com/stravagram/stravagram/internal/models"
	"github.com/stravagram/stravagram/internal/repository"
)

const defaultTimeout = 10 * time.Second

// Token manager config with sensible defaults
type Config struct {
	// Strava application credentials
	// Required to be set
	ClientID     string
	ClientSecret string

	// OAuth token endpoint, e.g. https://www.strava.com/oauth/token
	// Required to be set
	TokenURL string

	// Timeout for token endpoint calls
	// If not set default is used
	Timeout time.Duration
}

// Manager decides whether the stored access token is still usable and
// performs refresh / authorization-code exchanges against the provider.
// It never caches tokens: every call re-reads the credential store, so
// writes from other processes (the OAuth callback) are observed at once.
type Manager struct {
	clientID     string
	clientSecret string
	tokenURL     string

	storage repository.Storage
	client  *http.Client
	logger  logger.Logger
}

func NewManager(cfg Config, storage repository.Storage, l logger.Logger) (*Manager, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("client id and client secret must not be empty")
	}
	if cfg.TokenURL == "" {
		return nil, errors.New("token url must not be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Manager{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		storage:      storage,
		client:       &http.Client{Timeout: cfg.Timeout},
		logger:       l,
	}, nil
}

// Authorize returns the stored credential with a guaranteed-usable access
// token. Expired tokens are refreshed and the new token fields persisted
// before returning; on refresh failure the store is left untouched and
// apperrors.ErrTokenRefreshFailed is returned.
func (m *Manager) Authorize(ctx context.Context, telegramID int64) (models.UserCredential, error) {
	cred, err := m.storage.Credentials().Get(ctx, telegramID)
	if err != nil {
		return cred, err
	}

	if !cred.Expired(time.Now()) {
		return cred, nil
	}

	resp, err := m.exchange(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {cred.RefreshToken},
	})
	if err != nil {
		m.logger.Error("token refresh rejected by provider", "telegram_id", telegramID, "error", err)
		return cred, fmt.Errorf("refresh exchange: %w", apperrors.ErrTokenRefreshFailed)
	}

	err = m.storage.Credentials().UpdateTokens(ctx,
		telegramID, resp.TokenType, resp.AccessToken, resp.ExpiresAt, resp.RefreshToken)
	if err != nil {
		return cred, fmt.Errorf("persisting refreshed tokens: %w", err)
	}

	cred.TokenType = resp.TokenType
	cred.AccessToken = resp.AccessToken
	cred.RefreshToken = resp.RefreshToken
	cred.ExpiresAt = resp.ExpiresAt

	m.logger.Info("access token refreshed", "telegram_id", telegramID, "expires_at", resp.ExpiresAt)
	return cred, nil
}

// ExchangeCode performs the first-time authorization-code exchange and
// stores the resulting credential, replacing any previous row for the user.
func (m *Manager) ExchangeCode(ctx context.Context, telegramID int64, code string) (models.UserCredential, error) {
	var cred models.UserCredential

	resp, err := m.exchange(ctx, url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	})
	if err != nil {
		m.logger.Error("authorization code rejected by provider", "telegram_id", telegramID, "error", err)
		return cred, fmt.Errorf("code exchange: %w", apperrors.ErrExchangeFailed)
	}
	if resp.Athlete == nil {
		return cred, fmt.Errorf("no athlete in token response: %w", apperrors.ErrExchangeFailed)
	}

	cred, err = m.storage.Credentials().Upsert(ctx, models.UserCredential{
		TelegramID:   telegramID,
		StravaID:     resp.Athlete.ID,
		TokenType:    resp.TokenType,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	})
	if err != nil {
		return cred, fmt.Errorf("persisting credential: %w", err)
	}

	m.logger.Info("user authorized", "telegram_id", telegramID, "strava_id", cred.StravaID)
	return cred, nil
}

type tokenResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	Athlete      *struct {
		ID int64 `json:"id"`
	} `json:"athlete,omitempty"`
}

// exchange posts one grant to the token endpoint. Not retried: any
// transport error, non-2xx status or undecodable body fails the exchange.
func (m *Manager) exchange(ctx context.Context, form url.Values) (tokenResponse, error) {
	var resp tokenResponse

	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return resp, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := m.client.Do(req)
	if err != nil {
		return resp, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close() // nolint:errcheck

	if res.StatusCode != http.StatusOK {
		return resp, fmt.Errorf("unexpected status %d from token endpoint", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return resp, fmt.Errorf("failed to decode token response: %w", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return resp, errors.New("token response missing token fields")
	}

	return resp, nil
}
