package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/ad/go-workshop-core/internal/catalog"
	"github.com/ad/go-workshop-core/internal/metrics"
	"github.com/ad/go-workshop-core/internal/models"
)

// ProgressStore is the single persistence boundary of navigation progress.
// Mutate must serialize calls per (user, app) and run fn against the
// current record and completion flags read in the same transaction.
type ProgressStore interface {
	Get(ctx context.Context, userID int64, app models.AppType) (*models.ProgressRecord, error)
	Mutate(ctx context.Context, userID int64, app models.AppType, fn models.ProgressMutateFunc) (*models.ProgressRecord, error)
}

type EventKind string

const (
	EventVisit    EventKind = "visit"
	EventVideo    EventKind = "video"
	EventComplete EventKind = "complete"
)

type StepEvent struct {
	Kind     EventKind
	StepID   string
	Percent  float64
	Evidence models.Evidence
}

func VisitStep(stepID string) StepEvent {
	return StepEvent{Kind: EventVisit, StepID: stepID}
}

func UpdateVideoProgress(stepID string, percent float64) StepEvent {
	return StepEvent{Kind: EventVideo, StepID: stepID, Percent: percent}
}

func CompleteStep(stepID string, evidence models.Evidence) StepEvent {
	return StepEvent{Kind: EventComplete, StepID: stepID, Evidence: evidence}
}

type ProgressionEngine struct {
	catalog *catalog.Catalog
	store   ProgressStore
	guard   *WorkshopLockGuard
	now     func() time.Time
}

func NewProgressionEngine(cat *catalog.Catalog, store ProgressStore, guard *WorkshopLockGuard) *ProgressionEngine {
	return &ProgressionEngine{
		catalog: cat,
		store:   store,
		guard:   guard,
		now:     time.Now,
	}
}

// Get returns the stored record, or a fresh unsaved one with only the first
// step unlocked when the user has not entered the workshop yet.
func (e *ProgressionEngine) Get(ctx context.Context, userID int64, app models.AppType) (*models.ProgressRecord, error) {
	first, err := e.catalog.First(app)
	if err != nil {
		return nil, err
	}
	rec, err := e.store.Get(ctx, userID, app)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewProgressRecord(userID, app, first, e.now().UTC()), nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return rec, nil
}

func (e *ProgressionEngine) ApplyEvent(ctx context.Context, userID int64, app models.AppType, event StepEvent) (*models.ProgressRecord, error) {
	rec, err := e.applyEvent(ctx, userID, app, event)
	metrics.RecordProgressEvent(string(app), string(event.Kind), err)
	if err != nil {
		log.Printf("[PROGRESSION] %s %s for user %d on %s failed: %v", event.Kind, event.StepID, userID, app, err)
		return nil, err
	}
	return rec, nil
}

func (e *ProgressionEngine) applyEvent(ctx context.Context, userID int64, app models.AppType, event StepEvent) (*models.ProgressRecord, error) {
	first, err := e.catalog.First(app)
	if err != nil {
		return nil, err
	}
	if _, err := e.catalog.Position(app, event.StepID); err != nil {
		return nil, err
	}
	switch event.Kind {
	case EventVisit, EventComplete:
	case EventVideo:
		if err := validPercent(event.Percent); err != nil {
			return nil, err
		}
	default:
		return nil, invalidInput("unknown event kind %q", event.Kind)
	}
	if event.Evidence.WatchPercent != nil {
		if err := validPercent(*event.Evidence.WatchPercent); err != nil {
			return nil, err
		}
	}
	if event.Evidence.WordCount != nil && *event.Evidence.WordCount < 0 {
		return nil, invalidInput("word count %d is negative", *event.Evidence.WordCount)
	}

	rec, err := e.store.Mutate(ctx, userID, app, func(current *models.ProgressRecord, flags models.CompletionFlags) (models.ProgressMutation, error) {
		return e.transition(userID, app, first, current, flags, event)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		}
		return nil, unavailable(err)
	}
	return rec, nil
}

// transition computes the next record. It runs inside the store
// transaction; returning an error rolls everything back, including the
// creation of a fresh record.
func (e *ProgressionEngine) transition(userID int64, app models.AppType, first string, current *models.ProgressRecord, flags models.CompletionFlags, event StepEvent) (models.ProgressMutation, error) {
	now := e.now().UTC()
	created := current == nil
	var rec *models.ProgressRecord
	if created {
		rec = models.NewProgressRecord(userID, app, first, now)
	} else {
		rec = current.Clone()
	}

	// Re-completing is a no-op even on a locked workshop: nothing is written.
	if event.Kind == EventComplete && !created && rec.IsCompleted(event.StepID) {
		return models.ProgressMutation{}, nil
	}

	if err := e.guard.Evaluate(userID, flags, app); err != nil {
		return models.ProgressMutation{}, err
	}
	if !rec.IsUnlocked(event.StepID) {
		return models.ProgressMutation{}, fmt.Errorf("%w: %s", ErrStepLocked, event.StepID)
	}

	mutation := models.ProgressMutation{Record: rec, Created: created}
	switch event.Kind {
	case EventVisit:
		rec.CurrentStepID = event.StepID

	case EventVideo:
		mergeWatch(rec, event.StepID, event.Percent)

	case EventComplete:
		criterion, err := e.catalog.Resolve(app, event.StepID)
		if err != nil {
			return models.ProgressMutation{}, err
		}
		if !criterion.Satisfied(event.Evidence, rec.VideoProgress[event.StepID]) {
			return models.ProgressMutation{}, fmt.Errorf("%w: %s requires %s", ErrCriterionNotMet, event.StepID, criterion.Type)
		}
		if event.Evidence.WatchPercent != nil {
			mergeWatch(rec, event.StepID, *event.Evidence.WatchPercent)
		}
		rec.CompletedSteps = e.catalog.Ordered(app, append(rec.CompletedSteps, event.StepID))

		next, ok, err := e.catalog.Next(app, event.StepID)
		if err != nil {
			return models.ProgressMutation{}, err
		}
		if ok {
			rec.UnlockedSteps = e.catalog.Ordered(app, append(rec.UnlockedSteps, next))
			rec.CurrentStepID = next
		} else {
			mutation.MarkCompleted = true
			log.Printf("[PROGRESSION] User %d completed workshop %s", userID, app)
		}
	}

	rec.LastVisitedAt = now
	return mutation, nil
}

func mergeWatch(rec *models.ProgressRecord, stepID string, percent float64) {
	if percent > rec.VideoProgress[stepID] {
		rec.VideoProgress[stepID] = percent
	}
}

func validPercent(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return invalidInput("percent %v outside [0,100]", p)
	}
	return nil
}
