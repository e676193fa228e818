package models

import (
	"time"
)

// Safety margin before the real expiry: a token that expires within the
// next hour is treated as expired so it can't die mid-request.
const ExpiryMargin = 3600

// UserCredential is the OAuth grant stored for one Telegram user.
// ExpiresAt always belongs to the current AccessToken: both fields are
// replaced together on every refresh.
type UserCredential struct {
	ID           int64
	TelegramID   int64
	StravaID     int64
	TokenType    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // unix seconds
}

// Expired reports whether the access token must be refreshed before use.
func (c UserCredential) Expired(now time.Time) bool {
	return now.Unix() > c.ExpiresAt-ExpiryMargin
}
