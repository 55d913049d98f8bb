package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ad/go-workshop-core/internal/metrics"
	"github.com/ad/go-workshop-core/internal/models"
)

type CompletionReader interface {
	GetCompletionFlags(ctx context.Context, userID int64) (models.CompletionFlags, error)
}

// WorkshopLockGuard is a read-only projection over the completion flags.
// It has no bypass: admins reopen a workshop only through a reset.
type WorkshopLockGuard struct {
	flags CompletionReader
}

func NewWorkshopLockGuard(flags CompletionReader) *WorkshopLockGuard {
	return &WorkshopLockGuard{flags: flags}
}

type LockStatus struct {
	AppType     models.AppType `json:"appType"`
	Locked      bool           `json:"locked"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// Evaluate decides writability from flags already loaded by the caller
// inside the transaction that performs the write.
func (g *WorkshopLockGuard) Evaluate(userID int64, flags models.CompletionFlags, app models.AppType) error {
	if !flags.IsCompleted(app) {
		return nil
	}
	metrics.RecordLockRejection(string(app))
	log.Printf("[LOCK_GUARD] Rejected write for user %d on completed workshop %s", userID, app)
	return ErrWorkshopLocked
}

func (g *WorkshopLockGuard) Status(ctx context.Context, userID int64, app models.AppType) (LockStatus, error) {
	flags, err := g.load(ctx, userID)
	if err != nil {
		return LockStatus{}, err
	}
	return LockStatus{
		AppType:     app,
		Locked:      flags.IsCompleted(app),
		CompletedAt: flags.CompletedAt(app),
	}, nil
}

func (g *WorkshopLockGuard) load(ctx context.Context, userID int64) (models.CompletionFlags, error) {
	flags, err := g.flags.GetCompletionFlags(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return flags, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	return flags, unavailable(err)
}
