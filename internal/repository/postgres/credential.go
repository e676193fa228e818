package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stravagram/stravagram/internal/apperrors"
	"github.com/stravagram/stravagram/internal/models"
)

type CredentialRepo struct {
	db DBTX
}

const getCredential = `-- name: GetCredential by telegram id
SELECT id, telegram_id, strava_id, token_type, access_token, refresh_token, expires_at
FROM credentials
WHERE telegram_id = $1
`

func (r *CredentialRepo) Get(ctx context.Context, telegramID int64) (models.UserCredential, error) {
	rows, _ := r.db.Query(ctx, getCredential, telegramID)
	cred, err := pgx.CollectOneRow(rows, rowToCredential)

	switch {
	case err == nil:
		return cred, nil
	case errors.Is(err, pgx.ErrNoRows):
		return cred, fmt.Errorf("repo error: %w", apperrors.ErrCredentialNotFound)
	default:
		return cred, fmt.Errorf("db error: %w", err)
	}
}

const upsertCredential = `-- name: UpsertCredential, full row replace on conflict
INSERT INTO credentials (telegram_id, strava_id, token_type, access_token, refresh_token, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (telegram_id) DO UPDATE SET
    strava_id = EXCLUDED.strava_id,
    token_type = EXCLUDED.token_type,
    access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    expires_at = EXCLUDED.expires_at
RETURNING id, telegram_id, strava_id, token_type, access_token, refresh_token, expires_at
`

func (r *CredentialRepo) Upsert(ctx context.Context, cred models.UserCredential) (models.UserCredential, error) {
	rows, _ := r.db.Query(ctx, upsertCredential,
		cred.TelegramID, cred.StravaID, cred.TokenType, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt)
	saved, err := pgx.CollectOneRow(rows, rowToCredential)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

const updateTokens = `-- name: UpdateTokens after a refresh exchange
UPDATE credentials
SET token_type = $2, access_token = $3, expires_at = $4, refresh_token = $5
WHERE telegram_id = $1
RETURNING id
`

func (r *CredentialRepo) UpdateTokens(ctx context.Context, telegramID int64, tokenType string, accessToken string, expiresAt int64, refreshToken string) error {
	rows, _ := r.db.Query(ctx, updateTokens, telegramID, tokenType, accessToken, expiresAt, refreshToken)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("repo error: %w", apperrors.ErrCredentialNotFound)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

const listStravaIDs = `-- name: ListStravaIDs in insertion order
SELECT strava_id FROM credentials
ORDER BY id
`

func (r *CredentialRepo) ListStravaIDs(ctx context.Context) ([]int64, error) {
	rows, _ := r.db.Query(ctx, listStravaIDs)
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}

func rowToCredential(row pgx.CollectableRow) (models.UserCredential, error) {
	var c models.UserCredential
	err := row.Scan(&c.ID, &c.TelegramID, &c.StravaID, &c.TokenType, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt)
	return c, err
}
