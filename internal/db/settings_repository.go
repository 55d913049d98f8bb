package db

import (
	"context"
	"database/sql"

	"github.com/ad/go-workshop-core/internal/models"
)

const (
	SettingWorkshopLockedMessage = "workshop_locked_message"
	SettingInviteNotFoundMessage = "invite_not_found_message"
	SettingInviteExpiredMessage  = "invite_expired_message"
	SettingInviteUsedMessage     = "invite_used_message"
)

type SettingsRepository struct {
	queue *DBQueue
}

func NewSettingsRepository(queue *DBQueue) *SettingsRepository {
	return &SettingsRepository{queue: queue}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		var value string
		err := db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		return value, err
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		return nil, err
	})
	return err
}

func (r *SettingsRepository) GetAll(ctx context.Context) (*models.Settings, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`SELECT key, value FROM settings`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		settings := &models.Settings{}
		for rows.Next() {
			var key, value string
			if err := rows.Scan(&key, &value); err != nil {
				return nil, err
			}
			switch key {
			case SettingWorkshopLockedMessage:
				settings.WorkshopLockedMessage = value
			case SettingInviteNotFoundMessage:
				settings.InviteNotFoundMessage = value
			case SettingInviteExpiredMessage:
				settings.InviteExpiredMessage = value
			case SettingInviteUsedMessage:
				settings.InviteUsedMessage = value
			}
		}
		return settings, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Settings), nil
}

func (r *SettingsRepository) SetWorkshopLockedMessage(ctx context.Context, value string) error {
	return r.Set(ctx, SettingWorkshopLockedMessage, value)
}
