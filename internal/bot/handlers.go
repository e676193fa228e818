package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stravagram/stravagram/internal/apperrors"
	"github.com/stravagram/stravagram/internal/format"
)

// The find form accepts windows of at most 120 days.
const maxFindWindow = 120 * 24 * time.Hour

const dateLayout = "2006-01-02"

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	chatID := msg.Chat.ID
	telegramID := msg.From.ID
	lang := langOf(msg)

	b.logger.Debug("incoming message", "telegram_id", telegramID, "text", msg.Text)

	command := msg.Command()
	if command == "" {
		// Plain text only matters as the answer to the find form.
		if b.isAwaitingPeriod(chatID) {
			b.handleFindReply(ctx, msg, lang)
		}
		return
	}

	switch command {
	case "start":
		b.reply(chatID, b.formatter.Message(lang, "start", format.Escape(msg.From.FirstName)))
		b.reply(chatID, b.formatter.Message(lang, "tour"))
	case "auth":
		b.reply(chatID, b.formatter.Message(lang, "auth", b.authLink(telegramID)))
	case "recent":
		b.handleActivities(ctx, telegramID, chatID, 0, 0, lang)
	case "statsall":
		b.handleStats(ctx, telegramID, chatID, format.ScopeAll, lang)
	case "statsyear":
		b.handleStats(ctx, telegramID, chatID, format.ScopeYear, lang)
	case "find":
		b.awaitPeriod(chatID, true)
		b.reply(chatID, b.formatter.Message(lang, "find_init"))
	case "cancel":
		if b.isAwaitingPeriod(chatID) {
			b.awaitPeriod(chatID, false)
			b.reply(chatID, b.formatter.Message(lang, "cancelled"))
		}
	case "starredsegments":
		b.handleStarredSegments(ctx, telegramID, chatID, lang)
	case "users", "webhooksubscribe", "webhookview", "webhookdelete":
		b.handleAdmin(ctx, command, telegramID, chatID)
	default:
		b.handleResource(ctx, command, telegramID, chatID, lang)
	}
}

// handleResource dispatches commands carrying the resource id in the name,
// like /activity123, /download123, /segment123 or /gearb123.
func (b *Bot) handleResource(ctx context.Context, command string, telegramID, chatID int64, lang string) {
	if arg, ok := commandSuffix(command, "activity"); ok {
		if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
			b.handleActivity(ctx, telegramID, chatID, id, lang)
		}
		return
	}
	if arg, ok := commandSuffix(command, "download"); ok {
		if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
			b.handleDownload(ctx, telegramID, chatID, id, lang)
		}
		return
	}
	if arg, ok := commandSuffix(command, "segment"); ok {
		if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
			b.handleSegment(ctx, telegramID, chatID, id, lang)
		}
		return
	}
	if arg, ok := commandSuffix(command, "gear"); ok {
		b.handleGear(ctx, telegramID, chatID, arg, lang)
		return
	}
}

func (b *Bot) handleActivities(ctx context.Context, telegramID, chatID, after, before int64, lang string) {
	client := b.strava.ForUser(ctx, telegramID)
	activities, err := client.Activities(ctx, after, before)
	if err != nil || len(activities) == 0 {
		b.reply(chatID, b.formatter.Message(lang, "no_activities"))
		return
	}

	b.reply(chatID, b.formatter.Activities(activities, lang))
}

func (b *Bot) handleStats(ctx context.Context, telegramID, chatID int64, scope format.Scope, lang string) {
	client := b.strava.ForUser(ctx, telegramID)
	stats, err := client.Stats(ctx)
	if err != nil {
		b.reply(chatID, b.formatter.Message(lang, "no_stats"))
		return
	}

	b.reply(chatID, b.formatter.Stats(stats, scope, lang))
}

func (b *Bot) handleActivity(ctx context.Context, telegramID, chatID, activityID int64, lang string) {
	client := b.strava.ForUser(ctx, telegramID)
	activity, err := client.Activity(ctx, activityID)
	if err != nil {
		b.reply(chatID, b.formatter.Message(lang, "no_activity"))
		return
	}

	b.reply(chatID, b.formatter.Activity(activity, lang))
}

func (b *Bot) handleDownload(ctx context.Context, telegramID, chatID, activityID int64, lang string) {
	client := b.strava.ForUser(ctx, telegramID)
	payload, err := client.CreateGPX(ctx, activityID)
	if err != nil {
		b.reply(chatID, b.formatter.Message(lang, "bad_gpx"))
		return
	}

	b.sendDocument(chatID, fmt.Sprintf("%d.gpx", activityID), payload)
}

func (b *Bot) handleSegment(ctx context.Context, telegramID, chatID, segmentID int64, lang string) {
	client := b.strava.ForUser(ctx, telegramID)
	segment, err := client.Segment(ctx, segmentID)
	if err != nil {
		b.reply(chatID, b.formatter.Message(lang, "no_segment"))
		return
	}

	b.reply(chatID, b.formatter.Segment(segment, lang))
}

func (b *Bot) handleGear(ctx context.Context, telegramID, chatID int64, gearID string, lang string) {
	client := b.strava.ForUser(ctx, telegramID)
	gear, err := client.Gear(ctx, gearID)
	if err != nil {
		b.reply(chatID, b.formatter.Message(lang, "no_gear"))
		return
	}

	b.reply(chatID, b.formatter.Gear(gear, lang))
}

func (b *Bot) handleStarredSegments(ctx context.Context, telegramID, chatID int64, lang string) {
	client := b.strava.ForUser(ctx, telegramID)
	segments, err := client.StarredSegments(ctx)
	if err != nil || len(segments) == 0 {
		b.reply(chatID, b.formatter.Message(lang, "no_starred"))
		return
	}

	b.reply(chatID, b.formatter.StarredSegments(segments, lang))
}

func (b *Bot) handleFindReply(ctx context.Context, msg *tgbotapi.Message, lang string) {
	chatID := msg.Chat.ID

	after, before, err := parsePeriod(msg.Text)
	if err != nil {
		b.reply(chatID, b.formatter.Message(lang, "wrong_period"))
		return
	}

	b.awaitPeriod(chatID, false)
	b.handleActivities(ctx, msg.From.ID, chatID, after, before, lang)
}

// handleAdmin serves reporting and subscription commands. Non-admin
// senders are ignored, same as unknown commands.
func (b *Bot) handleAdmin(ctx context.Context, command string, telegramID, chatID int64) {
	if telegramID != b.adminID {
		return
	}

	switch command {
	case "users":
		ids, err := b.storage.Credentials().ListStravaIDs(ctx)
		if err != nil {
			b.replyPlain(chatID, fmt.Sprintf("failed to list users: %v", err))
			return
		}
		b.reply(chatID, b.formatter.Users(ids, format.DefaultLang))
	case "webhooksubscribe":
		sub, err := b.webhooks.Subscribe(ctx)
		if err != nil {
			b.replyPlain(chatID, fmt.Sprintf("subscription failed: %v", err))
			return
		}
		b.replyPlain(chatID, fmt.Sprintf("subscription created, id %d", sub.ID))
	case "webhookview":
		subs, err := b.webhooks.View(ctx)
		if err != nil {
			b.replyPlain(chatID, fmt.Sprintf("subscription lookup failed: %v", err))
			return
		}
		if len(subs) == 0 {
			b.replyPlain(chatID, "no active subscriptions")
			return
		}
		for _, sub := range subs {
			b.replyPlain(chatID, fmt.Sprintf("subscription %d -> %s", sub.ID, sub.CallbackURL))
		}
	case "webhookdelete":
		subs, err := b.webhooks.View(ctx)
		if err != nil || len(subs) == 0 {
			b.replyPlain(chatID, "no subscription to delete")
			return
		}
		if err := b.webhooks.Delete(ctx, subs[0].ID); err != nil {
			b.replyPlain(chatID, fmt.Sprintf("delete failed: %v", err))
			return
		}
		b.replyPlain(chatID, fmt.Sprintf("subscription %d deleted", subs[0].ID))
	}
}

// parsePeriod reads two YYYY-MM-DD dates, oldest first, and returns the
// window as unix timestamps. Windows longer than 120 days are rejected.
func parsePeriod(text string) (after int64, before int64, err error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, 0, apperrors.ErrBadPeriod
	}

	from, err := time.Parse(dateLayout, fields[0])
	if err != nil {
		return 0, 0, apperrors.ErrBadPeriod
	}
	to, err := time.Parse(dateLayout, fields[1])
	if err != nil {
		return 0, 0, apperrors.ErrBadPeriod
	}

	window := to.Sub(from)
	if window <= 0 || window > maxFindWindow {
		return 0, 0, apperrors.ErrBadPeriod
	}

	return from.Unix(), to.Unix(), nil
}

// commandSuffix splits commands like "activity123456" into known prefix
// and the trailing resource id.
func commandSuffix(command, prefix string) (string, bool) {
	if !strings.HasPrefix(command, prefix) || len(command) == len(prefix) {
		return "", false
	}
	return command[len(prefix):], true
}

func langOf(msg *tgbotapi.Message) string {
	if msg.From != nil && msg.From.LanguageCode == "ru" {
		return "ru"
	}
	return format.DefaultLang
}
