package handlers

import (
	"context"
	"net/http"

	"github.com/stravagram/stravagram/internal/handlers/middleware"
	"github.com/stravagram/stravagram/internal/logger"
	"github.com/stravagram/stravagram/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Config struct {
	// Scope substring the OAuth grant must carry, e.g. "read_all"
	RequiredScope string

	// Shared secret for the webhook verification handshake
	VerifyToken string
}

type exchanger interface {
	// Exchange the authorization code and persist the credential
	// Has to return apperrors.ErrExchangeFailed if the provider rejects it
	ExchangeCode(ctx context.Context, telegramID int64, code string) (models.UserCredential, error)
}

// NewRouter serves the two outward-facing endpoints: the OAuth redirect
// target and the Strava webhook (verification handshake + change events).
func NewRouter(cfg Config, tokens exchanger, logger logger.Logger) http.Handler {
	root := http.NewServeMux()

	root.Handle("GET /oauth", handleOAuthCallback(cfg.RequiredScope, tokens, logger))
	root.Handle("GET /webhook", handleWebhookVerify(cfg.VerifyToken, logger))
	root.Handle("POST /webhook", handleWebhookEvent(logger))

	return chain(root,
		middleware.LoggerMiddleware(logger),
	)
}
