package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr         string
	DBPath           string
	ReportsDir       string
	JWTSecret        string
	JWTIssuer        string
	CatalogPath      string
	InviteCodeLength int
	InviteDefaultTTL time.Duration
	ShutdownTimeout  time.Duration
	BotToken         string
	AdminChatID      int64
}

func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		DBPath:           getenv("DB_PATH", "workshop.db"),
		ReportsDir:       getenv("REPORTS_DIR", "reports"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTIssuer:        getenv("JWT_ISSUER", "workshop-identity"),
		CatalogPath:      os.Getenv("CATALOG_PATH"),
		InviteCodeLength: getenvInt("INVITE_CODE_LENGTH", 12),
		InviteDefaultTTL: getenvDuration("INVITE_DEFAULT_TTL", 0),
		ShutdownTimeout:  getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		BotToken:         os.Getenv("BOT_TOKEN"),
		AdminChatID:      getenvInt64("ADMIN_CHAT_ID", 0),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.InviteCodeLength < 8 || c.InviteCodeLength > 16 {
		errs = append(errs, errors.New("INVITE_CODE_LENGTH must be between 8 and 16"))
	}
	if c.InviteDefaultTTL < 0 {
		errs = append(errs, errors.New("INVITE_DEFAULT_TTL must not be negative"))
	}
	if c.BotToken != "" && c.AdminChatID == 0 {
		errs = append(errs, errors.New("ADMIN_CHAT_ID is required when BOT_TOKEN is set"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
