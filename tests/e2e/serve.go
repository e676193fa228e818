package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/stravagram/stravagram/internal/handlers"
	"github.com/stravagram/stravagram/internal/logger"
	"github.com/stravagram/stravagram/internal/repository"
	"github.com/stravagram/stravagram/internal/repository/postgres"
	"github.com/stravagram/stravagram/internal/service/token"
	"github.com/stravagram/stravagram/internal/testutil"
)

const (
	ClientID      = "10001"
	ClientSecret  = "shhh"
	RequiredScope = "read_all"
	VerifyToken   = "verify-me"
)

type Services struct {
	TokenManager *token.Manager
	Storage      repository.Storage
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.InTx with it
func ServeWithTx(dbpool *pgxpool.Pool, tokenURL string, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		storage := postgres.NewStorage(tx)

		// Initialize services
		tokenManager, err := token.NewManager(token.Config{
			ClientID:     ClientID,
			ClientSecret: ClientSecret,
			TokenURL:     tokenURL,
		}, storage, logger.NewNoOpLogger())
		require.NoError(t, err, "token manager should be created without errors")

		// Complete all together as router
		router := handlers.NewRouter(handlers.Config{
			RequiredScope: RequiredScope,
			VerifyToken:   VerifyToken,
		}, tokenManager, logger.NewNoOpLogger())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			TokenManager: tokenManager,
			Storage:      storage,
		})
	})
}
