package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ad/go-workshop-core/internal/models"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func createRecord(userID int64, app models.AppType) models.ProgressMutateFunc {
	return func(current *models.ProgressRecord, _ models.CompletionFlags) (models.ProgressMutation, error) {
		if current != nil {
			return models.ProgressMutation{}, nil
		}
		return models.ProgressMutation{
			Record:  models.NewProgressRecord(userID, app, "1-1", testNow),
			Created: true,
		}, nil
	}
}

func TestProgressRepository_MutateCreatesAndUpdates(t *testing.T) {
	queue := setupTestQueue(t)
	repo := NewProgressRepository(queue)
	ctx := context.Background()
	user := createTestUser(t, queue, "p@example.com", models.RoleParticipant)

	if _, err := repo.Get(ctx, user.ID, models.AppAST); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows before first event, got %v", err)
	}

	rec, err := repo.Mutate(ctx, user.ID, models.AppAST, createRecord(user.ID, models.AppAST))
	if err != nil {
		t.Fatal(err)
	}
	if rec.CurrentStepID != "1-1" || !rec.IsUnlocked("1-1") {
		t.Errorf("unexpected fresh record %+v", rec)
	}

	_, err = repo.Mutate(ctx, user.ID, models.AppAST, func(current *models.ProgressRecord, _ models.CompletionFlags) (models.ProgressMutation, error) {
		next := current.Clone()
		next.CompletedSteps = append(next.CompletedSteps, "1-1")
		next.UnlockedSteps = append(next.UnlockedSteps, "1-2")
		next.CurrentStepID = "1-2"
		next.VideoProgress["1-1"] = 80
		return models.ProgressMutation{Record: next}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, user.ID, models.AppAST)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsCompleted("1-1") || got.CurrentStepID != "1-2" || got.VideoProgress["1-1"] != 80 {
		t.Errorf("update not persisted: %+v", got)
	}

	count, _ := repo.CountLive(ctx, user.ID)
	if count != 1 {
		t.Errorf("expected one live record, got %d", count)
	}

	raw, err := NewUserRepository(queue).GetEmbeddedProgress(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	var snapshot map[models.AppType]*models.ProgressRecord
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		t.Fatalf("embedded snapshot is not JSON: %v", err)
	}
	if snapshot[models.AppAST] == nil || snapshot[models.AppAST].CurrentStepID != "1-2" {
		t.Errorf("embedded snapshot out of sync: %s", raw)
	}
}

func TestProgressRepository_MutateErrorRollsBack(t *testing.T) {
	queue := setupTestQueue(t)
	repo := NewProgressRepository(queue)
	ctx := context.Background()
	user := createTestUser(t, queue, "r@example.com", models.RoleParticipant)

	boom := errors.New("boom")
	_, err := repo.Mutate(ctx, user.ID, models.AppIA, func(current *models.ProgressRecord, _ models.CompletionFlags) (models.ProgressMutation, error) {
		return models.ProgressMutation{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := repo.Get(ctx, user.ID, models.AppIA); err != sql.ErrNoRows {
		t.Errorf("expected no record after failed mutation, got %v", err)
	}
}

func TestProgressRepository_MutateUnknownUser(t *testing.T) {
	queue := setupTestQueue(t)
	repo := NewProgressRepository(queue)

	_, err := repo.Mutate(context.Background(), 404, models.AppAST, createRecord(404, models.AppAST))
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected wrapped sql.ErrNoRows, got %v", err)
	}
}

func TestProgressRepository_MarkCompletedSetsFlagOnce(t *testing.T) {
	queue := setupTestQueue(t)
	repo := NewProgressRepository(queue)
	users := NewUserRepository(queue)
	ctx := context.Background()
	user := createTestUser(t, queue, "c@example.com", models.RoleParticipant)

	if _, err := repo.Mutate(ctx, user.ID, models.AppIA, createRecord(user.ID, models.AppIA)); err != nil {
		t.Fatal(err)
	}

	complete := func(at time.Time) models.ProgressMutateFunc {
		return func(current *models.ProgressRecord, _ models.CompletionFlags) (models.ProgressMutation, error) {
			next := current.Clone()
			next.LastVisitedAt = at
			return models.ProgressMutation{Record: next, MarkCompleted: true}, nil
		}
	}

	first := testNow.Add(time.Hour)
	if _, err := repo.Mutate(ctx, user.ID, models.AppIA, complete(first)); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Mutate(ctx, user.ID, models.AppIA, complete(first.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	flags, err := users.GetCompletionFlags(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !flags.IACompleted || flags.ASTCompleted {
		t.Errorf("unexpected flags %+v", flags)
	}
	if flags.IACompletedAt == nil || !flags.IACompletedAt.Equal(first) {
		t.Errorf("completion time must be set once, got %v", flags.IACompletedAt)
	}
}
