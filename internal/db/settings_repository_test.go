package db

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func TestNewSettingsInitialization(t *testing.T) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(1)

	if err := InitSchema(sqlDB); err != nil {
		t.Fatal(err)
	}

	var value string
	err = sqlDB.QueryRow("SELECT value FROM settings WHERE key = 'workshop_locked_message'").Scan(&value)
	if err != nil {
		t.Fatalf("Failed to get workshop_locked_message: %v", err)
	}
	if value == "" {
		t.Error("Expected workshop_locked_message to have a default")
	}

	// InitSchema must not clobber edited values.
	if _, err := sqlDB.Exec("UPDATE settings SET value = 'closed' WHERE key = 'workshop_locked_message'"); err != nil {
		t.Fatal(err)
	}
	if err := InitSchema(sqlDB); err != nil {
		t.Fatal(err)
	}
	sqlDB.QueryRow("SELECT value FROM settings WHERE key = 'workshop_locked_message'").Scan(&value)
	if value != "closed" {
		t.Errorf("Expected edited value to survive re-init, got '%s'", value)
	}
}

func TestSettingsRepositoryGetAll(t *testing.T) {
	queue := setupTestQueue(t)
	repo := NewSettingsRepository(queue)
	ctx := context.Background()

	if err := repo.SetWorkshopLockedMessage(ctx, "Workshop finished"); err != nil {
		t.Fatal(err)
	}

	settings, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if settings.WorkshopLockedMessage != "Workshop finished" {
		t.Errorf("WorkshopLockedMessage = %q", settings.WorkshopLockedMessage)
	}
	if settings.InviteNotFoundMessage == "" || settings.InviteExpiredMessage == "" || settings.InviteUsedMessage == "" {
		t.Errorf("Expected default invite messages, got %+v", settings)
	}

	if _, err := repo.Get(ctx, "missing_key"); err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows for missing key, got %v", err)
	}
}
