package config

import (
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":18080")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("REPORTS_DIR", "/tmp/reports")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_ISSUER", "test-issuer")
	t.Setenv("INVITE_CODE_LENGTH", "16")
	t.Setenv("INVITE_DEFAULT_TTL", "72h")
	t.Setenv("BOT_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":18080" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Fatalf("expected DB_PATH override, got %s", cfg.DBPath)
	}
	if cfg.ReportsDir != "/tmp/reports" {
		t.Fatalf("expected REPORTS_DIR override, got %s", cfg.ReportsDir)
	}
	if cfg.JWTIssuer != "test-issuer" {
		t.Fatalf("expected JWT_ISSUER override, got %s", cfg.JWTIssuer)
	}
	if cfg.InviteCodeLength != 16 {
		t.Fatalf("expected INVITE_CODE_LENGTH 16, got %d", cfg.InviteCodeLength)
	}
	if cfg.InviteDefaultTTL != 72*time.Hour {
		t.Fatalf("expected INVITE_DEFAULT_TTL 72h, got %s", cfg.InviteDefaultTTL)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DB_PATH", "REPORTS_DIR", "JWT_ISSUER", "INVITE_CODE_LENGTH",
		"INVITE_DEFAULT_TTL", "INVITE_DEFAULT_TTL_SECONDS", "BOT_TOKEN", "ADMIN_CHAT_ID", "CATALOG_PATH"} {
		t.Setenv(key, "")
	}
	t.Setenv("JWT_SECRET", "s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DBPath != "workshop.db" || cfg.InviteCodeLength != 12 || cfg.InviteDefaultTTL != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("INVITE_CODE_LENGTH", "20")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_CHAT_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error")
	}
}
