package oauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/stravagram/stravagram/internal/apperrors"
	"github.com/stravagram/stravagram/internal/testutil"
	"github.com/stravagram/stravagram/tests/e2e"
)

// Whole authorization round trip: the browser lands on our callback with a
// code, the code is exchanged against the provider, the credential ends up
// in the store and is immediately usable by the token manager.
func TestOAuthFlow(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Fake provider token endpoint: accepts the well-known code only
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(map[string]any{
			"token_type":    "Bearer",
			"access_token":  "access-e2e",
			"refresh_token": "refresh-e2e",
			"expires_at":    time.Now().Unix() + 21600,
			"athlete":       map[string]any{"id": 7_000_042},
		})
		require.NoError(t, err)
	}))
	t.Cleanup(provider.Close)

	callback := func(t *testing.T, srvURL string, query url.Values) *http.Response {
		t.Helper()

		res, err := http.Get(srvURL + "/oauth?" + query.Encode())
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Body.Close() })
		return res
	}

	t.Run("code exchanged and credential stored", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, provider.URL, t, func(_ pgx.Tx, srvURL string, services e2e.Services) {
			res := callback(t, srvURL, url.Values{
				"telegram_id": {"100500"},
				"code":        {"good-code"},
				"scope":       {"read,activity:read_all"},
			})

			require.Equal(t, http.StatusOK, res.StatusCode)

			cred, err := services.Storage.Credentials().Get(t.Context(), 100500)
			require.NoError(t, err)
			require.Equal(t, int64(7_000_042), cred.StravaID)
			require.Equal(t, "access-e2e", cred.AccessToken)

			// Fresh credential is served as is, no extra provider call
			authorized, err := services.TokenManager.Authorize(t.Context(), 100500)
			require.NoError(t, err)
			require.Equal(t, cred, authorized)
		})
	})

	t.Run("insufficient scope leaves store empty", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, provider.URL, t, func(_ pgx.Tx, srvURL string, services e2e.Services) {
			res := callback(t, srvURL, url.Values{
				"telegram_id": {"100500"},
				"code":        {"good-code"},
				"scope":       {"read"},
			})

			require.Equal(t, http.StatusBadRequest, res.StatusCode)

			_, err := services.Storage.Credentials().Get(t.Context(), 100500)
			require.ErrorIs(t, err, apperrors.ErrCredentialNotFound)
		})
	})

	t.Run("rejected code leaves store empty", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, provider.URL, t, func(_ pgx.Tx, srvURL string, services e2e.Services) {
			res := callback(t, srvURL, url.Values{
				"telegram_id": {"100500"},
				"code":        {"stolen-code"},
				"scope":       {"read,activity:read_all"},
			})

			require.Equal(t, http.StatusBadGateway, res.StatusCode)

			_, err := services.Storage.Credentials().Get(t.Context(), 100500)
			require.ErrorIs(t, err, apperrors.ErrCredentialNotFound)
		})
	})
}
