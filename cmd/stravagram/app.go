package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stravagram/stravagram/internal/bot"
	"github.com/stravagram/stravagram/internal/db"
	"github.com/stravagram/stravagram/internal/format"
	"github.com/stravagram/stravagram/internal/handlers"
	"github.com/stravagram/stravagram/internal/logger"
	"github.com/stravagram/stravagram/internal/repository/postgres"
	"github.com/stravagram/stravagram/internal/service/strava"
	"github.com/stravagram/stravagram/internal/service/token"
	"github.com/stravagram/stravagram/internal/service/webhook"
)

// Scope substring the OAuth callback requires before storing a credential
const requiredScope = "read_all"

type App struct {
	ListenAddr string
	Handler    http.Handler
	Bot        *bot.Bot

	logger logger.Logger
}

func NewApp(ctx context.Context, c *Config) (*App, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := token.NewManager(token.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.OAuthURL + "/token",
	}, storage, logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	stravaService, err := strava.NewService(strava.Config{BaseURL: c.APIURL}, tokenManager, logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating strava service. Err: %w", err)
	}
	webhookManager, err := webhook.NewManager(webhook.Config{
		ClientID:        c.ClientID,
		ClientSecret:    c.ClientSecret,
		SubscriptionURL: c.APIURL + "/push_subscriptions",
		CallbackURL:     c.CallbackURL + "/webhook",
		VerifyToken:     c.VerifyToken,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating webhook manager. Err: %w", err)
	}
	formatter, err := format.New()
	if err != nil {
		return nil, fmt.Errorf("error while loading message templates. Err: %w", err)
	}

	mux := handlers.NewRouter(handlers.Config{
		RequiredScope: requiredScope,
		VerifyToken:   c.VerifyToken,
	}, tokenManager, logger)

	// The bot is optional: without a token only the HTTP callbacks run
	var tgBot *bot.Bot
	if c.BotToken != "" {
		api, err := tgbotapi.NewBotAPI(c.BotToken)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to telegram. Err: %w", err)
		}

		tgBot, err = bot.New(bot.Config{
			AdminID:      c.AdminID,
			ClientID:     c.ClientID,
			AuthorizeURL: c.OAuthURL + "/authorize",
			RedirectURL:  c.CallbackURL + "/oauth",
		}, api, stravaService, webhookManager, storage, formatter, logger)
		if err != nil {
			return nil, fmt.Errorf("error while creating bot. Err: %w", err)
		}
	} else {
		logger.Warn("Bot token not set, serving HTTP callbacks only")
	}

	return &App{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Bot:        tgBot,
		logger:     logger,
	}, nil
}

// Run serves HTTP callbacks and polls telegram until the context is cancelled
// or either component fails. The first terminal event stops the other one.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	go func() { errCh <- a.runServer(ctx) }()

	if a.Bot != nil {
		go func() { errCh <- a.Bot.Run(ctx) }()
	}

	err := <-errCh
	cancel()

	switch err {
	case nil, http.ErrServerClosed, context.Canceled:
		return nil
	default:
		return err
	}
}

// runServer starts http server and closes gracefully on context cancellation
func (a *App) runServer(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    a.ListenAddr,
		Handler: a.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", a.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
