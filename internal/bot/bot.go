package bot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stravagram/stravagram/internal/format"
	"github.com/stravagram/stravagram/internal/logger"
	"github.com/stravagram/stravagram/internal/repository"
	"github.com/stravagram/stravagram/internal/service/strava"
	"github.com/stravagram/stravagram/internal/service/webhook"
)

const updateTimeoutSec = 30

// Scope requested on the authorization screen. The callback later
// verifies "read_all" was actually granted.
const authScope = "read,activity:read_all"

type Config struct {
	// Telegram id allowed to run admin commands
	AdminID int64

	// Strava application id, part of the authorize link
	ClientID string

	// Strava authorization screen, e.g. https://www.strava.com/oauth/authorize
	AuthorizeURL string

	// Our OAuth callback; the telegram id rides along as a query param
	RedirectURL string
}

// Bot is the delivery surface: it receives commands over long polling,
// pulls data through the API client and sends rendered messages back.
// Every update is handled as an independent unit of work; the only shared
// state is the credential store and the find-form registry.
type Bot struct {
	api          *tgbotapi.BotAPI
	adminID      int64
	clientID     string
	authorizeURL string
	redirectURL  string

	strava    *strava.Service
	webhooks  *webhook.Manager
	storage   repository.Storage
	formatter *format.Formatter
	logger    logger.Logger

	// Chats that were shown the find form and owe us a period reply.
	mu             sync.Mutex
	awaitingPeriod map[int64]bool
}

func New(cfg Config, api *tgbotapi.BotAPI, stravaSvc *strava.Service, webhooks *webhook.Manager, storage repository.Storage, formatter *format.Formatter, l logger.Logger) (*Bot, error) {
	if api == nil {
		return nil, errors.New("telegram api must not be nil")
	}
	if cfg.ClientID == "" || cfg.AuthorizeURL == "" || cfg.RedirectURL == "" {
		return nil, errors.New("client id, authorize url and redirect url must not be empty")
	}

	return &Bot{
		api:            api,
		adminID:        cfg.AdminID,
		clientID:       cfg.ClientID,
		authorizeURL:   cfg.AuthorizeURL,
		redirectURL:    cfg.RedirectURL,
		strava:         stravaSvc,
		webhooks:       webhooks,
		storage:        storage,
		formatter:      formatter,
		logger:         l,
		awaitingPeriod: make(map[int64]bool),
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.setCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeoutSec
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) setCommands() {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "auth", Description: "connect your Strava account"},
		tgbotapi.BotCommand{Command: "recent", Description: "activities for the last 60 days"},
		tgbotapi.BotCommand{Command: "statsall", Description: "overall statistics"},
		tgbotapi.BotCommand{Command: "statsyear", Description: "this year statistics"},
		tgbotapi.BotCommand{Command: "find", Description: "activities for a period"},
		tgbotapi.BotCommand{Command: "starredsegments", Description: "your starred segments"},
		tgbotapi.BotCommand{Command: "cancel", Description: "abort the current dialog"},
	)

	if _, err := b.api.Request(commands); err != nil {
		b.logger.Warn("failed to register bot commands", "error", err)
	}
}

// reply sends a MarkdownV2 message to the chat.
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// replyPlain sends text without markup, used for admin reports.
func (b *Bot) replyPlain(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// sendDocument uploads an in-memory file to the chat.
func (b *Bot) sendDocument(chatID int64, name string, payload []byte) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: payload})
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("failed to send document", "chat_id", chatID, "name", name, "error", err)
	}
}

func (b *Bot) awaitPeriod(chatID int64, awaiting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if awaiting {
		b.awaitingPeriod[chatID] = true
	} else {
		delete(b.awaitingPeriod, chatID)
	}
}

func (b *Bot) isAwaitingPeriod(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingPeriod[chatID]
}

// authLink builds the per-user authorization URL: the redirect URI carries
// the telegram id so the callback knows whose credential to store.
func (b *Bot) authLink(telegramID int64) string {
	q := url.Values{
		"client_id":       {b.clientID},
		"response_type":   {"code"},
		"approval_prompt": {"auto"},
		"scope":           {authScope},
		"redirect_uri":    {fmt.Sprintf("%s?telegram_id=%d", b.redirectURL, telegramID)},
	}
	return b.authorizeURL + "?" + q.Encode()
}
