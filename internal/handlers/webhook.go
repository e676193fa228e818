package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/stravagram/stravagram/internal/handlers/render"
	"github.com/stravagram/stravagram/internal/logger"
)

// ChangeEvent is one Strava push notification.
type ChangeEvent struct {
	AspectType     string         `json:"aspect_type" validate:"required,oneof=create update delete"`
	EventTime      int64          `json:"event_time"`
	ObjectType     string         `json:"object_type" validate:"required,oneof=activity athlete"`
	ObjectID       int64          `json:"object_id" validate:"required"`
	OwnerID        int64          `json:"owner_id" validate:"required"`
	SubscriptionID int64          `json:"subscription_id"`
	Updates        map[string]any `json:"updates"`
}

// handleWebhookVerify answers the provider's subscription handshake: echo
// hub.challenge back, but only to a caller that knows the shared secret.
func handleWebhookVerify(verifyToken string, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if query.Get("hub.verify_token") != verifyToken {
			logger.Warn("webhook verification with wrong token", "remote_addr", r.RemoteAddr)
			render.ServiceError(w, "Verification token mismatch", http.StatusForbidden)
			return
		}

		render.JSON(w, map[string]string{"hub.challenge": query.Get("hub.challenge")})
	})
}

// handleWebhookEvent accepts change notifications. They are validated and
// logged with a correlation id; per-user delivery is not wired up.
func handleWebhookEvent(logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		event, err := render.BindAndValidate[ChangeEvent](w, r)
		if err != nil {
			logger.Warn("undecodable webhook event", "error", err)
			return
		}

		logger.Info("webhook event received",
			"event_id", uuid.NewString(),
			"aspect_type", event.AspectType,
			"object_type", event.ObjectType,
			"object_id", event.ObjectID,
			"owner_id", event.OwnerID,
			"subscription_id", event.SubscriptionID,
		)

		render.JSON(w, map[string]string{"status": "ok"})
	})
}
