package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/stravagram/stravagram/internal/logger"
)

const oauthPage = `<!DOCTYPE html>
<html>
<head><title>Stravagram</title></head>
<body>
<h1>%s</h1>
<p>%s</p>
</body>
</html>
`

// handleOAuthCallback is the browser-facing redirect target of the Strava
// authorization screen. It accepts telegram_id, code and scope, requires
// the configured scope to be granted and runs the code exchange.
func handleOAuthCallback(requiredScope string, tokens exchanger, logger logger.Logger) http.Handler {
	htmlPage := func(w http.ResponseWriter, status int, title, message string) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, oauthPage, title, message)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		telegramID, err := strconv.ParseInt(query.Get("telegram_id"), 10, 64)
		if err != nil {
			htmlPage(w, http.StatusBadRequest, "Authentication failed", "Missing or malformed telegram_id.")
			return
		}

		code := query.Get("code")
		if code == "" {
			htmlPage(w, http.StatusBadRequest, "Authentication failed", "Missing authorization code.")
			return
		}

		if !strings.Contains(query.Get("scope"), requiredScope) {
			logger.Warn("authorization without required scope", "telegram_id", telegramID, "scope", query.Get("scope"))
			htmlPage(w, http.StatusBadRequest, "Authentication failed",
				"The bot needs read access to your activities. Please authorize again with all permissions granted.")
			return
		}

		if _, err := tokens.ExchangeCode(r.Context(), telegramID, code); err != nil {
			logger.Error("code exchange failed", "telegram_id", telegramID, "error", err)
			htmlPage(w, http.StatusBadGateway, "Authentication failed", "Strava rejected the authorization. Please try again.")
			return
		}

		htmlPage(w, http.StatusOK, "Authentication successful",
			"Your Strava account is connected. You can return to the Telegram chat now.")
	})
}
