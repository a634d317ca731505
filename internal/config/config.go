package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	BotToken    string
	JWTSecret   string
	JWTTTL      time.Duration

	LogLevel string
	LogJSON  bool

	// Init data transport. The header name differs between Mini App clients;
	// Authorization: tma <init data> is always accepted as well.
	InitDataHeader string
	InitDataMaxAge time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	APIRateLimit   int
	APIRateWindow  time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration
	TapRateLimit   int
	TapRateWindow  time.Duration

	MaxTapsPerRequest int
	LeaderboardTTL    time.Duration

	BotEnabled bool
	// MiniAppURL must be a direct link (https://t.me/<bot>/<app>). The /start
	// button is a plain URL button, and only t.me links make Telegram open
	// the Mini App with init data attached.
	MiniAppURL string
	// AllowedOrigin pins CORS to one origin. Empty reflects any origin
	// without credentials.
	AllowedOrigin string
}

// Load reads configuration from the environment, with .env applied first when
// present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL: getenv("DATABASE_URL"),
		BotToken:    getenv("BOT_TOKEN"),
		JWTSecret:   getenv("JWT_SECRET"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	cfg.AppPort = stringOr(getenv("APP_PORT"), "8080")
	cfg.LogLevel = stringOr(getenv("LOG_LEVEL"), "info")
	cfg.LogJSON = getenv("LOG_JSON") == "true"
	cfg.JWTTTL = time.Duration(intOr(getenv("JWT_TTL_HOURS"), 24)) * time.Hour

	cfg.InitDataHeader = stringOr(getenv("INIT_DATA_HEADER"), "X-Telegram-Init-Data")
	// 0 disables the auth_date check
	if v := getenv("INIT_DATA_MAX_AGE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.InitDataMaxAge = time.Duration(n) * time.Second
		}
	}

	cfg.RedisAddr = getenv("REDIS_ADDR")
	cfg.RedisPassword = getenv("REDIS_PASSWORD")
	if v := getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}

	cfg.APIRateLimit = intOr(getenv("API_RATE_LIMIT"), 120)
	cfg.APIRateWindow = seconds(getenv("API_RATE_WINDOW_SECONDS"), 60)
	cfg.AuthRateLimit = intOr(getenv("AUTH_RATE_LIMIT"), 10)
	cfg.AuthRateWindow = seconds(getenv("AUTH_RATE_WINDOW_SECONDS"), 60)
	cfg.TapRateLimit = intOr(getenv("TAP_RATE_LIMIT"), 600)
	cfg.TapRateWindow = seconds(getenv("TAP_RATE_WINDOW_SECONDS"), 60)

	cfg.MaxTapsPerRequest = intOr(getenv("MAX_TAPS_PER_REQUEST"), 100)
	cfg.LeaderboardTTL = seconds(getenv("LEADERBOARD_CACHE_SECONDS"), 30)

	cfg.BotEnabled = getenv("BOT_ENABLED") == "true"
	cfg.MiniAppURL = getenv("MINI_APP_URL")
	if cfg.MiniAppURL != "" && !strings.HasPrefix(cfg.MiniAppURL, "https://t.me/") {
		return nil, errors.New("MINI_APP_URL must be a https://t.me/<bot>/<app> direct link")
	}
	cfg.AllowedOrigin = getenv("ALLOWED_ORIGIN")

	return cfg, nil
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// intOr parses a positive integer, falling back to def.
func intOr(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func seconds(v string, def int) time.Duration {
	return time.Duration(intOr(v, def)) * time.Second
}
