package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ad/go-workshop-core/internal/models"
)

type ledgerTable struct {
	name       string
	softDelete bool
}

var ledgerTables = map[models.ResetCategory]ledgerTable{
	models.CategoryAssessments:   {name: "user_assessments", softDelete: true},
	models.CategoryNavigation:    {name: "navigation_progress", softDelete: true},
	models.CategoryParticipation: {name: "workshop_participation", softDelete: true},
	models.CategoryGrowthPlans:   {name: "growth_plans", softDelete: true},
	models.CategoryDiscernment:   {name: "discernment_progress"},
	models.CategoryPhotos:        {name: "user_photos"},
	models.CategoryReportRows:    {name: "holistic_reports"},
}

// ResetRepository removes a user's rows category by category. Every
// operation is idempotent: rows already gone count as zero affected.
type ResetRepository struct {
	queue *DBQueue
	now   func() time.Time
}

func NewResetRepository(queue *DBQueue) *ResetRepository {
	return &ResetRepository{queue: queue, now: time.Now}
}

func (r *ResetRepository) SupportsSoftDelete(category models.ResetCategory) bool {
	return ledgerTables[category].softDelete
}

// DeleteRows hard- or soft-deletes the user's rows of a table-backed category.
func (r *ResetRepository) DeleteRows(ctx context.Context, category models.ResetCategory, userID int64, mode models.DeleteMode) (int64, error) {
	table, ok := ledgerTables[category]
	if !ok {
		return 0, fmt.Errorf("category %s has no table", category)
	}

	var query string
	var args []interface{}
	switch mode {
	case models.ModeHard:
		query = fmt.Sprintf(`DELETE FROM %s WHERE user_id = ?`, table.name)
		args = []interface{}{userID}
	case models.ModeSoft:
		if !table.softDelete {
			return 0, fmt.Errorf("category %s does not support soft delete", category)
		}
		query = fmt.Sprintf(`UPDATE %s SET deleted_at = ? WHERE user_id = ? AND deleted_at IS NULL`, table.name)
		args = []interface{}{r.now().UTC(), userID}
	default:
		return 0, fmt.Errorf("delete mode %q not valid for %s", mode, category)
	}
	return r.exec(ctx, query, args...)
}

// ClearEmbeddedProgress nulls the progress snapshot stored on the user row.
func (r *ResetRepository) ClearEmbeddedProgress(ctx context.Context, userID int64) (int64, error) {
	return r.exec(ctx, `
		UPDATE users SET navigation_progress = NULL
		WHERE id = ? AND navigation_progress IS NOT NULL
	`, userID)
}

// ClearCompletionFlags reopens both workshops for the user.
func (r *ResetRepository) ClearCompletionFlags(ctx context.Context, userID int64) (int64, error) {
	return r.exec(ctx, `
		UPDATE users
		SET ast_workshop_completed = FALSE, ast_completed_at = NULL,
		    ia_workshop_completed = FALSE, ia_completed_at = NULL
		WHERE id = ? AND (ast_workshop_completed OR ia_workshop_completed
		    OR ast_completed_at IS NOT NULL OR ia_completed_at IS NOT NULL)
	`, userID)
}

func (r *ResetRepository) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(query, args...)
		if err != nil {
			return nil, err
		}
		return res.RowsAffected()
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}
