package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/ad/go-workshop-core/internal/models"
	"github.com/ad/go-workshop-core/internal/storage"
)

var reportTypePattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

type ReportStore interface {
	Create(ctx context.Context, report *models.HolisticReport) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.HolisticReport, error)
}

// ReportService records generated holistic reports. The file is written
// before the row so a row never points at a missing file.
type ReportService struct {
	store ReportStore
	files storage.FileStore
	users UserLookup
	now   func() time.Time
}

func NewReportService(store ReportStore, files storage.FileStore, users UserLookup) *ReportService {
	return &ReportService{store: store, files: files, users: users, now: time.Now}
}

// ReportFileName builds <userId>-<reportType>-<unix>.pdf.
func ReportFileName(userID int64, reportType string, at time.Time) string {
	return fmt.Sprintf("%d-%s-%d.pdf", userID, reportType, at.Unix())
}

func (s *ReportService) Store(ctx context.Context, userID int64, reportType string, pdf []byte) (*models.HolisticReport, error) {
	if !reportTypePattern.MatchString(reportType) {
		return nil, invalidInput("report type %q", reportType)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return nil, invalidInput("body is not a PDF document")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		}
		return nil, unavailable(err)
	}

	now := s.now().UTC()
	name := ReportFileName(userID, reportType, now)
	if _, err := s.files.WriteFile(ctx, name, pdf); err != nil {
		return nil, unavailable(err)
	}

	report := &models.HolisticReport{UserID: userID, ReportType: reportType, FileName: name, CreatedAt: now}
	if _, err := s.store.Create(ctx, report); err != nil {
		return nil, unavailable(err)
	}
	log.Printf("[REPORT] Stored %s report for user %d as %s", reportType, userID, name)
	return report, nil
}

func (s *ReportService) List(ctx context.Context, userID int64) ([]*models.HolisticReport, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		}
		return nil, unavailable(err)
	}
	reports, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, unavailable(err)
	}
	return reports, nil
}
