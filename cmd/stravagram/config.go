package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/stravagram/stravagram/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultAPIURL       = "https://www.strava.com/api/v3"
	defaultOAuthURL     = "https://www.strava.com/oauth"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the HTTP callbacks (OAuth, webhook) will be served
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Telegram bot token. May be left empty to serve HTTP callbacks only
	BotToken string

	// Telegram id allowed to run admin commands
	AdminID int64

	// Strava application credentials
	ClientID     string
	ClientSecret string

	// Strava endpoints. Overridable so tests can point at local fakes
	APIURL   string
	OAuthURL string

	// Public base URL of this service, e.g. https://bot.example.com
	// OAuth redirects and webhook events arrive relative to it
	CallbackURL string

	// Token Strava echoes back on webhook subscription validation
	VerifyToken string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		APIURL:      defaultAPIURL,
		OAuthURL:    defaultOAuthURL,
		Environment: defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setInt64 := func(o *int64) func(value string) {
		return func(value string) {
			if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"BOT_TOKEN":            setString(&c.BotToken),
		"ADMIN_ID":             setInt64(&c.AdminID),
		"STRAVA_CLIENT_ID":     setString(&c.ClientID),
		"STRAVA_CLIENT_SECRET": setString(&c.ClientSecret),
		"STRAVA_API_URL":       setString(&c.APIURL),
		"STRAVA_OAUTH_URL":     setString(&c.OAuthURL),
		"CALLBACK_URL":         setString(&c.CallbackURL),
		"VERIFY_TOKEN":         setString(&c.VerifyToken),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("stravagram", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.BotToken, "bot-token", "t", c.BotToken, "Telegram bot token")
	fs.Int64Var(&c.AdminID, "admin", c.AdminID, "Telegram id of the bot admin")
	fs.StringVar(&c.ClientID, "client-id", c.ClientID, "Strava application client id")
	fs.StringVar(&c.ClientSecret, "client-secret", c.ClientSecret, "Strava application client secret")
	fs.StringVar(&c.APIURL, "api-url", c.APIURL, "Strava API base URL")
	fs.StringVar(&c.OAuthURL, "oauth-url", c.OAuthURL, "Strava OAuth base URL")
	fs.StringVarP(&c.CallbackURL, "callback-url", "c", c.CallbackURL, "Public base URL of this service")
	fs.StringVar(&c.VerifyToken, "verify-token", c.VerifyToken, "Webhook subscription verify token")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
