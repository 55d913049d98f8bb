package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/ad/go-workshop-core/internal/metrics"
	"github.com/ad/go-workshop-core/internal/models"
	"github.com/ad/go-workshop-core/internal/storage"
)

// ResetStore is the relational side of a reset. Every method must be
// idempotent: rows already gone count as zero affected, not as a failure.
type ResetStore interface {
	SupportsSoftDelete(category models.ResetCategory) bool
	DeleteRows(ctx context.Context, category models.ResetCategory, userID int64, mode models.DeleteMode) (int64, error)
	ClearEmbeddedProgress(ctx context.Context, userID int64) (int64, error)
	ClearCompletionFlags(ctx context.Context, userID int64) (int64, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// fullWipeLedger is the order categories are visited in. Rows go first,
// then files, then the user-record fields that reopen the workshops.
var fullWipeLedger = []models.ResetCategory{
	models.CategoryAssessments,
	models.CategoryNavigation,
	models.CategoryParticipation,
	models.CategoryGrowthPlans,
	models.CategoryDiscernment,
	models.CategoryPhotos,
	models.CategoryReportRows,
	models.CategoryReportFiles,
	models.CategoryUserProgress,
	models.CategoryCompletionFlags,
}

var reportsOnlyLedger = []models.ResetCategory{
	models.CategoryReportRows,
	models.CategoryReportFiles,
}

type ResetEngine struct {
	users    UserLookup
	store    ResetStore
	files    storage.FileStore
	notifier AdminNotifier
}

func NewResetEngine(users UserLookup, store ResetStore, files storage.FileStore, notifier AdminNotifier) *ResetEngine {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ResetEngine{users: users, store: store, files: files, notifier: notifier}
}

func Ledger(scope models.ResetScope) []models.ResetCategory {
	if scope == models.ScopeHolisticReportsOnly {
		return append([]models.ResetCategory(nil), reportsOnlyLedger...)
	}
	return append([]models.ResetCategory(nil), fullWipeLedger...)
}

// ReportFilePattern matches every generated report file of a user.
func ReportFilePattern(userID int64) string {
	return fmt.Sprintf("%d-*.pdf", userID)
}

// ResetUser visits every category of the scope's ledger and records one
// outcome per category. A failing category never stops the others, and
// partial failure is reported through the returned report rather than
// the error, which is reserved for refusing to start.
func (e *ResetEngine) ResetUser(ctx context.Context, actor models.Actor, userID int64, scope models.ResetScope) (*models.ResetReport, error) {
	if !actor.Role.CanManageUsers() {
		return nil, fmt.Errorf("%w: role %q cannot reset users", ErrForbidden, actor.Role)
	}
	if scope != models.ScopeFullWipe && scope != models.ScopeHolisticReportsOnly {
		return nil, invalidInput("unknown reset scope %q", scope)
	}

	user, err := e.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, unavailable(err)
	}

	report := &models.ResetReport{
		UserID:      userID,
		Scope:       scope,
		TestAccount: user.IsTestUser,
		Outcomes:    make(map[models.ResetCategory]models.CategoryOutcome),
	}

	log.Printf("[RESET] Actor %d (%s) resetting user %s scope=%s test=%v",
		actor.UserID, actor.Role, user.DisplayName(), scope, user.IsTestUser)

	for _, category := range Ledger(scope) {
		mode := e.modeFor(category, user.IsTestUser)
		rows, err := e.resetCategory(ctx, category, userID, mode)
		outcome := models.CategoryOutcome{Mode: mode, Success: err == nil, RowsAffected: rows}
		if err != nil {
			outcome.Error = err.Error()
			log.Printf("[RESET] Category %s (%s) failed for user %d: %v", category, mode, userID, err)
		}
		metrics.RecordResetCategory(string(category), string(mode), outcome.Success)
		report.Record(category, outcome)
	}

	if failed := report.Err(); failed != nil {
		log.Printf("[RESET] User %d: %v", userID, failed)
		e.notifier.NotifyResetFailure(ctx, report)
	} else {
		log.Printf("[RESET] User %d reset complete, %d rows affected", userID, report.TotalRowsAffected())
	}
	return report, nil
}

func (e *ResetEngine) modeFor(category models.ResetCategory, testAccount bool) models.DeleteMode {
	switch category {
	case models.CategoryUserProgress, models.CategoryCompletionFlags:
		return models.ModeClear
	case models.CategoryReportFiles:
		return models.ModeHard
	}
	if !testAccount && e.store.SupportsSoftDelete(category) {
		return models.ModeSoft
	}
	return models.ModeHard
}

func (e *ResetEngine) resetCategory(ctx context.Context, category models.ResetCategory, userID int64, mode models.DeleteMode) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	switch category {
	case models.CategoryReportFiles:
		n, err := e.files.DeleteMatching(ctx, ReportFilePattern(userID))
		return int64(n), err
	case models.CategoryUserProgress:
		return e.store.ClearEmbeddedProgress(ctx, userID)
	case models.CategoryCompletionFlags:
		return e.store.ClearCompletionFlags(ctx, userID)
	default:
		return e.store.DeleteRows(ctx, category, userID, mode)
	}
}
