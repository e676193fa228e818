package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stravagram/stravagram/internal/apperrors"
	"github.com/stravagram/stravagram/internal/logger"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	// Strava application credentials
	// Required to be set
	ClientID     string
	ClientSecret string

	// Push subscription endpoint, e.g. https://www.strava.com/api/v3/push_subscriptions
	// Required to be set
	SubscriptionURL string

	// Public URL Strava will call back with the verification handshake
	CallbackURL string

	// Shared secret echoed during the verification handshake
	VerifyToken string

	// Timeout for subscription calls
	// If not set default is used
	Timeout time.Duration
}

// Subscription as reported by the provider.
type Subscription struct {
	ID          int64  `json:"id"`
	CallbackURL string `json:"callback_url"`
}

// Manager drives the provider-side push subscription: one subscription per
// application, managed manually through admin commands.
type Manager struct {
	clientID        string
	clientSecret    string
	subscriptionURL string
	callbackURL     string
	verifyToken     string

	client *http.Client
	logger logger.Logger
}

func NewManager(cfg Config, l logger.Logger) (*Manager, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("client id and client secret must not be empty")
	}
	if cfg.SubscriptionURL == "" {
		return nil, errors.New("subscription url must not be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Manager{
		clientID:        cfg.ClientID,
		clientSecret:    cfg.ClientSecret,
		subscriptionURL: cfg.SubscriptionURL,
		callbackURL:     cfg.CallbackURL,
		verifyToken:     cfg.VerifyToken,
		client:          &http.Client{Timeout: cfg.Timeout},
		logger:          l,
	}, nil
}

// Subscribe registers the callback URL with the provider and returns the
// created subscription.
func (m *Manager) Subscribe(ctx context.Context) (Subscription, error) {
	var sub Subscription

	form := url.Values{
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"callback_url":  {m.callbackURL},
		"verify_token":  {m.verifyToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.subscriptionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return sub, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := m.client.Do(req)
	if err != nil {
		return sub, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close() // nolint:errcheck

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return sub, fmt.Errorf("status %d creating subscription: %w", res.StatusCode, apperrors.ErrUpstreamRequest)
	}

	if err := json.NewDecoder(res.Body).Decode(&sub); err != nil {
		return sub, fmt.Errorf("failed to decode subscription: %w", apperrors.ErrMalformedData)
	}

	m.logger.Info("webhook subscription created", "subscription_id", sub.ID)
	return sub, nil
}

// View lists the application's current subscriptions (the provider allows
// at most one).
func (m *Manager) View(ctx context.Context) ([]Subscription, error) {
	query := url.Values{
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.subscriptionURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close() // nolint:errcheck

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d listing subscriptions: %w", res.StatusCode, apperrors.ErrUpstreamRequest)
	}

	var subs []Subscription
	if err := json.NewDecoder(res.Body).Decode(&subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", apperrors.ErrMalformedData)
	}

	return subs, nil
}

// Delete removes one subscription; the provider answers 204 on success.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	query := url.Values{
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
	}

	u := m.subscriptionURL + "/" + strconv.FormatInt(id, 10) + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	res, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close() // nolint:errcheck

	if res.StatusCode != http.StatusNoContent {
		return fmt.Errorf("status %d deleting subscription %d: %w", res.StatusCode, id, apperrors.ErrUpstreamRequest)
	}

	m.logger.Info("webhook subscription deleted", "subscription_id", id)
	return nil
}
