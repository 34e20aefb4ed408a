package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level  string
		Format string
		Source bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Telegram struct {
		BotToken string
		APIBase  string
	}

	Admin struct {
		JWTSecret string
		Password  string
	}

	// SealingKey is the hex-encoded 32-byte key used to seal moderation
	// copies of relayed messages.
	SealingKey string

	Match struct {
		RadiusKm float64
		MinAge   int
		MaxAge   int
	}

	Credits struct {
		InitialFree int
	}

	Moderation struct {
		ReportBanThreshold int
	}

	// The single purchasable package: PackSearches credits for PackStars
	// Telegram Stars.
	Billing struct {
		PackSearches int
		PackStars    int
		Currency     string
	}
}

func New() *Config {
	// Best effort: a missing .env just means plain env vars.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "bunamatch")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Telegram
	cfg.Telegram.BotToken = os.Getenv("BOT_TOKEN")
	cfg.Telegram.APIBase = getEnvDefault("TELEGRAM_API_BASE", "https://api.telegram.org")

	// Admin API
	cfg.Admin.JWTSecret = getEnvDefault("ADMIN_JWT_SECRET", "")
	cfg.Admin.Password = getEnvDefault("ADMIN_PASSWORD", "")

	cfg.SealingKey = getEnvDefault("SEALING_KEY", "")

	// Matching
	cfg.Match.RadiusKm = getEnvFloat("MATCH_RADIUS_KM", 48)
	cfg.Match.MinAge = getEnvInt("MIN_AGE", 18)
	cfg.Match.MaxAge = getEnvInt("MAX_AGE", 100)

	cfg.Credits.InitialFree = getEnvInt("INITIAL_FREE_SEARCHES", 3)
	cfg.Moderation.ReportBanThreshold = getEnvInt("REPORT_BAN_THRESHOLD", 3)

	cfg.Billing.PackSearches = getEnvInt("PACK_SEARCHES", 100)
	cfg.Billing.PackStars = getEnvInt("PACK_STARS", 100)
	cfg.Billing.Currency = getEnvDefault("PAYMENT_CURRENCY", "XTR")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
