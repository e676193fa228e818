package repository

import (
	"context"

	"github.com/stravagram/stravagram/internal/models"
)

// Credential repository interface
type CredentialRepo interface {
	// Get credential stored for the Telegram user
	// If no row exists must return apperrors.ErrCredentialNotFound
	Get(ctx context.Context, telegramID int64) (models.UserCredential, error)

	// Insert credential or fully replace the row with the same telegram id
	// Replacement must be atomic from the caller's point of view
	Upsert(ctx context.Context, cred models.UserCredential) (models.UserCredential, error)

	// Replace token fields only, used after a refresh exchange
	// ExpiresAt belongs to the new access token and must be written with it
	UpdateTokens(ctx context.Context, telegramID int64, tokenType string, accessToken string, expiresAt int64, refreshToken string) error

	// Strava ids of every stored user, insertion order
	ListStravaIDs(ctx context.Context) ([]int64, error)
}

type Storage interface {
	Credentials() CredentialRepo

	// Run fn within a single db transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
