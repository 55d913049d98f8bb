package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ad/go-workshop-core/internal/models"
)

type AssessmentStore interface {
	Create(ctx context.Context, rec *models.AssessmentRecord, check func(models.CompletionFlags) error) (int64, error)
	ListByUser(ctx context.Context, userID int64, app models.AppType) ([]*models.AssessmentRecord, error)
}

// AssessmentService stores assessment and reflection results behind the
// workshop lock. Scoring is the client's business; results are opaque JSON.
type AssessmentService struct {
	store AssessmentStore
	guard *WorkshopLockGuard
}

func NewAssessmentService(store AssessmentStore, guard *WorkshopLockGuard) *AssessmentService {
	return &AssessmentService{store: store, guard: guard}
}

func (s *AssessmentService) Save(ctx context.Context, userID int64, app models.AppType, kind models.AssessmentKind, assessmentType string, results json.RawMessage) (*models.AssessmentRecord, error) {
	if kind == "" {
		kind = models.KindAssessment
	}
	if !kind.Valid() {
		return nil, invalidInput("unknown kind %q", kind)
	}
	assessmentType = strings.TrimSpace(assessmentType)
	if assessmentType == "" {
		return nil, invalidInput("assessment type is required")
	}
	if len(results) == 0 || !json.Valid(results) {
		return nil, invalidInput("results must be valid JSON")
	}

	rec := &models.AssessmentRecord{
		UserID:         userID,
		AppType:        app,
		Kind:           kind,
		AssessmentType: assessmentType,
		Results:        results,
	}
	_, err := s.store.Create(ctx, rec, func(flags models.CompletionFlags) error {
		return s.guard.Evaluate(userID, flags, app)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	log.Printf("[ASSESSMENT] Saved %s %s for user %d on %s", kind, assessmentType, userID, app)
	return rec, nil
}

func (s *AssessmentService) List(ctx context.Context, userID int64, app models.AppType) ([]*models.AssessmentRecord, error) {
	records, err := s.store.ListByUser(ctx, userID, app)
	if err != nil {
		return nil, unavailable(err)
	}
	return records, nil
}
