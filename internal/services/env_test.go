package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ad/go-workshop-core/internal/catalog"
	"github.com/ad/go-workshop-core/internal/db"
	"github.com/ad/go-workshop-core/internal/models"
	"github.com/ad/go-workshop-core/internal/storage"
	_ "modernc.org/sqlite"
)

var admin = models.Actor{UserID: 1, Role: models.RoleAdmin}

type recordingNotifier struct {
	mu     sync.Mutex
	resets []*models.ResetReport
	panics []interface{}
}

func (n *recordingNotifier) NotifyPanic(_ context.Context, panicValue interface{}, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.panics = append(n.panics, panicValue)
}

func (n *recordingNotifier) NotifyResetFailure(_ context.Context, report *models.ResetReport) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, report)
}

type testEnv struct {
	queue       *db.DBQueue
	users       *db.UserRepository
	progress    *db.ProgressRepository
	catalog     *catalog.Catalog
	guard       *WorkshopLockGuard
	progression *ProgressionEngine
	reset       *ResetEngine
	files       *storage.LocalStore
	invites     *InviteEngine
	assessments *AssessmentService
	reports     *ReportService
	notifier    *recordingNotifier
	clock       *time.Time
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.InitSchema(sqlDB); err != nil {
		t.Fatal(err)
	}
	queue := db.NewDBQueueForTest(sqlDB)
	t.Cleanup(func() {
		queue.Close()
		sqlDB.Close()
	})

	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	files, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	users := db.NewUserRepository(queue)
	progress := db.NewProgressRepository(queue)
	guard := NewWorkshopLockGuard(users)
	notifier := &recordingNotifier{}

	env := &testEnv{
		queue:       queue,
		users:       users,
		progress:    progress,
		catalog:     cat,
		guard:       guard,
		progression: NewProgressionEngine(cat, progress, guard),
		reset:       NewResetEngine(users, db.NewResetRepository(queue), files, notifier),
		files:       files,
		invites:     NewInviteEngine(db.NewInviteRepository(queue), 12, 0),
		assessments: NewAssessmentService(db.NewAssessmentRepository(queue), guard),
		reports:     NewReportService(db.NewReportRepository(queue), files, users),
		notifier:    notifier,
		clock:       &clock,
	}
	env.progression.now = now
	env.invites.now = now
	env.reports.now = now
	return env
}

func (env *testEnv) advance(d time.Duration) {
	*env.clock = env.clock.Add(d)
}

func (env *testEnv) createUser(t testing.TB, id int64, role models.Role) *models.User {
	t.Helper()
	user := &models.User{ID: id, Email: emailFor(id), Name: "User", Role: role}
	if _, err := env.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %d: %v", id, err)
	}
	return user
}

func emailFor(id int64) string {
	return fmt.Sprintf("user%d@example.com", id)
}

func float(v float64) *float64 { return &v }
func intp(v int) *int          { return &v }

// satisfying returns evidence that meets the criterion.
func satisfying(c catalog.Criterion) models.Evidence {
	switch c.Type {
	case catalog.CriterionVideoWatch:
		return models.Evidence{WatchPercent: float(c.MinPercent)}
	case catalog.CriterionAllQuestionsAnswered:
		return models.Evidence{AllAnswered: true}
	case catalog.CriterionExactWordCount:
		return models.Evidence{WordCount: intp(c.WordCount)}
	case catalog.CriterionSlidersCompleted:
		return models.Evidence{SlidersSet: true}
	default:
		return models.Evidence{DataSubmitted: true}
	}
}

// completeAll walks the workshop to its terminal step.
func (env *testEnv) completeAll(t testing.TB, userID int64, app models.AppType) *models.ProgressRecord {
	t.Helper()
	steps, _ := env.catalog.Steps(app)
	var rec *models.ProgressRecord
	var err error
	for _, step := range steps {
		rec, err = env.progression.ApplyEvent(context.Background(), userID, app, CompleteStep(step.ID, satisfying(step.Criterion)))
		if err != nil {
			t.Fatalf("complete %s: %v", step.ID, err)
		}
	}
	return rec
}
