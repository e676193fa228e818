package format

import (
	"fmt"
	"math"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

const startDateLayout = "2006-01-02T15:04:05Z"

// Escape makes a value safe for MarkdownV2. Applied to every interpolated
// field, numbers included: a decimal point is markup too.
func Escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func esc(s string) string { return Escape(s) }

// distanceKm converts meters to kilometers rounded to 2 decimals.
func distanceKm(meters float64) string {
	return esc(decimal.NewFromFloat(meters).Div(decimal.NewFromInt(1000)).Round(2).String())
}

// speedKmh converts m/s to km/h rounded to 2 decimals.
func speedKmh(ms float64) string {
	return esc(decimal.NewFromFloat(ms).Mul(decimal.NewFromFloat(3.6)).Round(2).String())
}

// pace renders m/s as "MM:SS" per kilometer.
func pace(ms float64) string {
	if ms <= 0 {
		return ""
	}
	secs := int64(math.Round(1000 / ms))
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// duration renders seconds as H:MM:SS.
func duration(seconds int64) string {
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// percent is the 2-decimal share of part in whole (e.g. idle time).
func percent(part, whole int64) string {
	if whole == 0 {
		return ""
	}
	return esc(decimal.NewFromInt(part).
		Div(decimal.NewFromInt(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(2).String())
}

// localDate reformats the provider's start_date_local for humans. The raw
// string is passed through escaped when it doesn't parse.
func localDate(s string) string {
	t, err := time.Parse(startDateLayout, s)
	if err != nil {
		return esc(s)
	}
	return esc(t.Format("2006-01-02 15:04"))
}
