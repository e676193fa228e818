package postgres

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stravagram/stravagram/internal/apperrors"
	"github.com/stravagram/stravagram/internal/models"
	"github.com/stravagram/stravagram/internal/repository"
	"github.com/stravagram/stravagram/internal/testutil"
)

func TestStorageInTx(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	cred := models.UserCredential{
		TelegramID:   200600,
		StravaID:     7_000_200,
		TokenType:    "Bearer",
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresAt:    1,
	}

	t.Run("commit on success", func(t *testing.T) {
		storage := NewStorage(pg.Pool)

		err := storage.InTx(t.Context(), func(s repository.Storage) error {
			_, err := s.Credentials().Upsert(t.Context(), cred)
			return err
		})
		require.NoError(t, err)

		got, err := storage.Credentials().Get(t.Context(), cred.TelegramID)
		require.NoError(t, err)
		require.Equal(t, cred.StravaID, got.StravaID)

		// cleanup
		_, err = pg.Pool.Exec(t.Context(), "DELETE FROM credentials WHERE telegram_id = $1", cred.TelegramID)
		require.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		storage := NewStorage(pg.Pool)
		boom := errors.New("boom")

		err := storage.InTx(t.Context(), func(s repository.Storage) error {
			if _, err := s.Credentials().Upsert(t.Context(), cred); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = storage.Credentials().Get(t.Context(), cred.TelegramID)
		require.ErrorIs(t, err, apperrors.ErrCredentialNotFound, "failed tx must leave no row behind")
	})
}
