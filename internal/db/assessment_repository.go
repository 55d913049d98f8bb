package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ad/go-workshop-core/internal/models"
)

type AssessmentRepository struct {
	queue *DBQueue
}

func NewAssessmentRepository(queue *DBQueue) *AssessmentRepository {
	return &AssessmentRepository{queue: queue}
}

// Create inserts rec after check accepts the user's completion flags. The
// flags are read in the same transaction as the insert, so a workshop that
// locks concurrently either rejects this write or sees it land first.
func (r *AssessmentRepository) Create(ctx context.Context, rec *models.AssessmentRecord, check func(models.CompletionFlags) error) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	result, err := r.queue.WithTx(ctx, func(tx *sql.Tx) (interface{}, error) {
		flags, err := loadCompletionFlags(tx.QueryRow(`
			SELECT ast_workshop_completed, ast_completed_at, ia_workshop_completed, ia_completed_at
			FROM users WHERE id = ?
		`, rec.UserID))
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, fmt.Errorf("user %d: %w", rec.UserID, sql.ErrNoRows)
			}
			return nil, err
		}
		if check != nil {
			if err := check(flags); err != nil {
				return nil, err
			}
		}

		res, err := tx.Exec(`
			INSERT INTO user_assessments (user_id, app_type, kind, assessment_type, results, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.UserID, rec.AppType, rec.Kind, rec.AssessmentType, string(rec.Results), rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		return res.LastInsertId()
	})
	if err != nil {
		return 0, err
	}
	rec.ID = result.(int64)
	return rec.ID, nil
}

// ListByUser returns the user's live records for an app, oldest first.
func (r *AssessmentRepository) ListByUser(ctx context.Context, userID int64, app models.AppType) ([]*models.AssessmentRecord, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT id, user_id, app_type, kind, assessment_type, results, created_at
			FROM user_assessments
			WHERE user_id = ? AND app_type = ? AND deleted_at IS NULL
			ORDER BY id
		`, userID, app)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		records := []*models.AssessmentRecord{}
		for rows.Next() {
			var rec models.AssessmentRecord
			var results string
			if err := rows.Scan(&rec.ID, &rec.UserID, &rec.AppType, &rec.Kind, &rec.AssessmentType, &results, &rec.CreatedAt); err != nil {
				return nil, err
			}
			rec.Results = []byte(results)
			records = append(records, &rec)
		}
		return records, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.AssessmentRecord), nil
}
