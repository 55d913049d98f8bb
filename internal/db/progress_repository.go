package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ad/go-workshop-core/internal/models"
)

// ProgressRepository is the single store of navigation progress. All
// mutations run read-modify-write inside one transaction on the queue.
type ProgressRepository struct {
	queue *DBQueue
}

func NewProgressRepository(queue *DBQueue) *ProgressRepository {
	return &ProgressRepository{queue: queue}
}

type queryer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Get returns the live record or sql.ErrNoRows.
func (r *ProgressRepository) Get(ctx context.Context, userID int64, app models.AppType) (*models.ProgressRecord, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		_, rec, err := loadProgress(db, userID, app)
		return rec, err
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.ProgressRecord), nil
}

// Mutate loads the user's flags and live record, hands them to fn and
// persists whatever fn decided. Returns the resulting record, which is nil
// only when no record exists and fn created none.
func (r *ProgressRepository) Mutate(ctx context.Context, userID int64, app models.AppType, fn models.ProgressMutateFunc) (*models.ProgressRecord, error) {
	flagCol, atCol, err := completionColumns(app)
	if err != nil {
		return nil, err
	}

	result, err := r.queue.WithTx(ctx, func(tx *sql.Tx) (interface{}, error) {
		flags, err := loadCompletionFlags(tx.QueryRow(`
			SELECT ast_workshop_completed, ast_completed_at, ia_workshop_completed, ia_completed_at
			FROM users WHERE id = ?
		`, userID))
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, fmt.Errorf("user %d: %w", userID, sql.ErrNoRows)
			}
			return nil, err
		}

		rowID, current, err := loadProgress(tx, userID, app)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}

		mutation, err := fn(current, flags)
		if err != nil {
			return nil, err
		}
		if mutation.Record == nil {
			return current, nil
		}

		rec := mutation.Record
		if mutation.Created || current == nil {
			if err := insertProgress(tx, rec); err != nil {
				return nil, err
			}
			if _, err := tx.Exec(`
				INSERT INTO workshop_participation (user_id, app_type, started_at) VALUES (?, ?, ?)
			`, userID, app, rec.LastVisitedAt); err != nil {
				return nil, err
			}
		} else if err := updateProgress(tx, rowID, rec); err != nil {
			return nil, err
		}

		if err := writeEmbeddedSnapshot(tx, userID, rec); err != nil {
			return nil, err
		}

		if mutation.MarkCompleted {
			_, err := tx.Exec(fmt.Sprintf(`
				UPDATE users SET %s = TRUE, %s = ? WHERE id = ? AND %s = FALSE
			`, flagCol, atCol, flagCol), rec.LastVisitedAt, userID)
			if err != nil {
				return nil, err
			}
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.ProgressRecord), nil
}

func loadProgress(q queryer, userID int64, app models.AppType) (int64, *models.ProgressRecord, error) {
	var id int64
	var completed, unlocked, video string
	rec := &models.ProgressRecord{UserID: userID, AppType: app}
	err := q.QueryRow(`
		SELECT id, completed_steps, current_step_id, unlocked_steps, video_progress, last_visited_at
		FROM navigation_progress
		WHERE user_id = ? AND app_type = ? AND deleted_at IS NULL
	`, userID, app).Scan(&id, &completed, &rec.CurrentStepID, &unlocked, &video, &rec.LastVisitedAt)
	if err != nil {
		return 0, nil, err
	}
	rec.LastVisitedAt = rec.LastVisitedAt.UTC()
	if err := json.Unmarshal([]byte(completed), &rec.CompletedSteps); err != nil {
		return 0, nil, fmt.Errorf("decode completed_steps: %w", err)
	}
	if err := json.Unmarshal([]byte(unlocked), &rec.UnlockedSteps); err != nil {
		return 0, nil, fmt.Errorf("decode unlocked_steps: %w", err)
	}
	if err := json.Unmarshal([]byte(video), &rec.VideoProgress); err != nil {
		return 0, nil, fmt.Errorf("decode video_progress: %w", err)
	}
	if rec.CompletedSteps == nil {
		rec.CompletedSteps = []string{}
	}
	if rec.VideoProgress == nil {
		rec.VideoProgress = map[string]float64{}
	}
	return id, rec, nil
}

func encodeProgress(rec *models.ProgressRecord) (completed, unlocked, video string, err error) {
	c, err := json.Marshal(rec.CompletedSteps)
	if err != nil {
		return "", "", "", err
	}
	u, err := json.Marshal(rec.UnlockedSteps)
	if err != nil {
		return "", "", "", err
	}
	v, err := json.Marshal(rec.VideoProgress)
	if err != nil {
		return "", "", "", err
	}
	return string(c), string(u), string(v), nil
}

func insertProgress(tx *sql.Tx, rec *models.ProgressRecord) error {
	completed, unlocked, video, err := encodeProgress(rec)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO navigation_progress
			(user_id, app_type, completed_steps, current_step_id, unlocked_steps, video_progress, last_visited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.UserID, rec.AppType, completed, rec.CurrentStepID, unlocked, video, rec.LastVisitedAt)
	return err
}

func updateProgress(tx *sql.Tx, id int64, rec *models.ProgressRecord) error {
	completed, unlocked, video, err := encodeProgress(rec)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		UPDATE navigation_progress
		SET completed_steps = ?, current_step_id = ?, unlocked_steps = ?, video_progress = ?, last_visited_at = ?
		WHERE id = ?
	`, completed, rec.CurrentStepID, unlocked, video, rec.LastVisitedAt, id)
	return err
}

// writeEmbeddedSnapshot mirrors the record into users.navigation_progress,
// a JSON object keyed by app type.
func writeEmbeddedSnapshot(tx *sql.Tx, userID int64, rec *models.ProgressRecord) error {
	var raw sql.NullString
	if err := tx.QueryRow(`SELECT navigation_progress FROM users WHERE id = ?`, userID).Scan(&raw); err != nil {
		return err
	}
	snapshot := map[models.AppType]*models.ProgressRecord{}
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &snapshot); err != nil {
			// A corrupt snapshot is replaced; the dedicated table is authoritative.
			snapshot = map[models.AppType]*models.ProgressRecord{}
		}
	}
	snapshot[rec.AppType] = rec
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`UPDATE users SET navigation_progress = ? WHERE id = ?`, string(data), userID)
	return err
}

// CountLive returns the number of non-deleted progress rows of a user.
func (r *ProgressRepository) CountLive(ctx context.Context, userID int64) (int, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		var count int
		err := db.QueryRow(`
			SELECT COUNT(*) FROM navigation_progress WHERE user_id = ? AND deleted_at IS NULL
		`, userID).Scan(&count)
		return count, err
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}
