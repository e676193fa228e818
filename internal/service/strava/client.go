package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/stravagram/stravagram/internal/apperrors"
	"github.com/stravagram/stravagram/internal/logger"
	"github.com/stravagram/stravagram/internal/models"
)

const (
	defaultTimeout = 10 * time.Second

	// Window and page size used when no period is given: one page of up
	// to 180 activities from the trailing 60 days. No multi-page follow.
	defaultWindow  = 60 * 24 * time.Hour
	activitiesPage = "1"
	perPage        = "180"
)

type tokenProvider interface {
	Authorize(ctx context.Context, telegramID int64) (models.UserCredential, error)
}

type Config struct {
	// REST API base, e.g. https://www.strava.com/api/v3
	// Required to be set
	BaseURL string

	// Timeout for resource calls
	// If not set default is used
	Timeout time.Duration
}

// Service issues authorized calls against the Strava REST API. Per-user
// clients are created with ForUser; the service itself holds no user state.
type Service struct {
	baseURL string
	tokens  tokenProvider
	client  *http.Client
	logger  logger.Logger
}

func NewService(cfg Config, tokens tokenProvider, l logger.Logger) (*Service, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url must not be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Service{
		baseURL: cfg.BaseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  l,
	}, nil
}

// Client calls the API on behalf of one user. A client built for a user
// with no stored credential, or whose refresh failed, carries no token:
// every accessor then reports apperrors.ErrNoToken without going upstream.
type Client struct {
	svc      *Service
	stravaID int64
	token    string
}

// ForUser resolves a usable access token for the Telegram user. Token
// resolution failure is not fatal here: the returned client is token-less
// and refuses all calls, the caller decides how to report that.
func (s *Service) ForUser(ctx context.Context, telegramID int64) *Client {
	cred, err := s.tokens.Authorize(ctx, telegramID)
	if err != nil {
		s.logger.Error("no usable token for user", "telegram_id", telegramID, "error", err)
		return &Client{svc: s}
	}

	return &Client{svc: s, stravaID: cred.StravaID, token: cred.AccessToken}
}

// Stats returns lifetime and year-to-date totals per activity category.
func (c *Client) Stats(ctx context.Context) (AthleteStats, error) {
	var stats AthleteStats
	err := c.get(ctx, fmt.Sprintf("/athletes/%d/stats", c.stravaID), nil, &stats)
	return stats, err
}

// Activities lists activity summaries within the half-open window
// (after, before], oldest first. Zero bounds select the default window.
func (c *Client) Activities(ctx context.Context, after, before int64) ([]ActivitySummary, error) {
	if after == 0 && before == 0 {
		now := time.Now()
		before = now.Unix()
		after = now.Add(-defaultWindow).Unix()
	}

	query := url.Values{
		"after":    {strconv.FormatInt(after, 10)},
		"before":   {strconv.FormatInt(before, 10)},
		"page":     {activitiesPage},
		"per_page": {perPage},
	}

	var activities []ActivitySummary
	if err := c.get(ctx, "/athlete/activities", query, &activities); err != nil {
		return nil, err
	}

	// Upstream returns newest first; hand them off chronologically.
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].StartDateLocal < activities[j].StartDateLocal
	})

	return activities, nil
}

func (c *Client) Activity(ctx context.Context, id int64) (Activity, error) {
	var activity Activity
	err := c.get(ctx, fmt.Sprintf("/activities/%d", id), nil, &activity)
	return activity, err
}

func (c *Client) Segment(ctx context.Context, id int64) (Segment, error) {
	var segment Segment
	err := c.get(ctx, fmt.Sprintf("/segments/%d", id), nil, &segment)
	return segment, err
}

func (c *Client) StarredSegments(ctx context.Context) ([]Segment, error) {
	var segments []Segment
	err := c.get(ctx, "/segments/starred", nil, &segments)
	return segments, err
}

func (c *Client) Gear(ctx context.Context, id string) (Gear, error) {
	var gear Gear
	err := c.get(ctx, "/gear/"+url.PathEscape(id), nil, &gear)
	return gear, err
}

// stream is one element of the /activities/{id}/streams response; Data
// stays raw because its shape depends on the stream type.
type stream struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// streamData fetches a single stream of an activity, selected by key.
func (c *Client) streamData(ctx context.Context, activityID int64, key string) (json.RawMessage, error) {
	var streams []stream
	err := c.get(ctx, fmt.Sprintf("/activities/%d/streams", activityID), url.Values{"keys": {key}}, &streams)
	if err != nil {
		return nil, err
	}

	for _, s := range streams {
		if s.Type == key {
			return s.Data, nil
		}
	}

	return nil, fmt.Errorf("stream %q absent from response: %w", key, apperrors.ErrMalformedData)
}

// get performs one authorized GET. 200 is the only success status; nothing
// is retried, a failed call fails the whole user command.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.token == "" {
		return apperrors.ErrNoToken
	}

	u := c.svc.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.svc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close() // nolint:errcheck

	if res.StatusCode != http.StatusOK {
		c.svc.logger.Warn("upstream call failed", "path", path, "status_code", res.StatusCode)
		return fmt.Errorf("status %d for %s: %w", res.StatusCode, path, apperrors.ErrUpstreamRequest)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, apperrors.ErrMalformedData)
	}

	return nil
}
