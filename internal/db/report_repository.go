package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/ad/go-workshop-core/internal/models"
)

type ReportRepository struct {
	queue *DBQueue
}

func NewReportRepository(queue *DBQueue) *ReportRepository {
	return &ReportRepository{queue: queue}
}

func (r *ReportRepository) Create(ctx context.Context, report *models.HolisticReport) (int64, error) {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			INSERT INTO holistic_reports (user_id, report_type, file_name, created_at)
			VALUES (?, ?, ?, ?)
		`, report.UserID, report.ReportType, report.FileName, report.CreatedAt)
		if err != nil {
			return nil, err
		}
		return res.LastInsertId()
	})
	if err != nil {
		return 0, err
	}
	report.ID = result.(int64)
	return report.ID, nil
}

func (r *ReportRepository) ListByUser(ctx context.Context, userID int64) ([]*models.HolisticReport, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT id, user_id, report_type, file_name, created_at
			FROM holistic_reports WHERE user_id = ? ORDER BY id
		`, userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		reports := []*models.HolisticReport{}
		for rows.Next() {
			var rep models.HolisticReport
			if err := rows.Scan(&rep.ID, &rep.UserID, &rep.ReportType, &rep.FileName, &rep.CreatedAt); err != nil {
				return nil, err
			}
			reports = append(reports, &rep)
		}
		return reports, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.HolisticReport), nil
}
