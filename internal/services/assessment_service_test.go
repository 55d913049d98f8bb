package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ad/go-workshop-core/internal/models"
)

func TestAssessmentServiceSaveAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, 42, models.RoleParticipant)

	rec, err := env.assessments.Save(ctx, 42, models.AppAST, "", "star-strengths", []byte(`{"thinking":27}`))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Kind != models.KindAssessment || rec.ID == 0 {
		t.Errorf("unexpected record %+v", rec)
	}

	list, err := env.assessments.List(ctx, 42, models.AppAST)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].AssessmentType != "star-strengths" {
		t.Errorf("List = %+v", list)
	}
}

func TestAssessmentServiceValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, 42, models.RoleParticipant)

	tests := []struct {
		name    string
		kind    models.AssessmentKind
		typ     string
		results string
		want    error
	}{
		{"bad kind", "quiz", "t", `{}`, ErrInvalidInput},
		{"missing type", models.KindReflection, " ", `{}`, ErrInvalidInput},
		{"bad json", models.KindReflection, "t", `{`, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.assessments.Save(ctx, 42, models.AppAST, tt.kind, tt.typ, []byte(tt.results))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := env.assessments.Save(ctx, 404, models.AppAST, models.KindAssessment, "t", []byte(`{}`)); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: expected ErrUserNotFound, got %v", err)
	}
}

func TestReportServiceStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, 42, models.RoleParticipant)

	report, err := env.reports.Store(ctx, 42, "standard", []byte("%PDF-1.7 body"))
	if err != nil {
		t.Fatal(err)
	}
	want := ReportFileName(42, "standard", *env.clock)
	if report.FileName != want {
		t.Errorf("file name %s, want %s", report.FileName, want)
	}
	files, _ := env.files.List(ctx, ReportFilePattern(42))
	if len(files) != 1 || files[0] != want {
		t.Errorf("files on disk = %v", files)
	}

	if _, err := env.reports.Store(ctx, 42, "standard", []byte("<html>")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("non-PDF body: expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.reports.Store(ctx, 42, "../etc", []byte("%PDF")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad report type: expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.reports.Store(ctx, 404, "standard", []byte("%PDF")); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: expected ErrUserNotFound, got %v", err)
	}
}

func TestAssessmentServiceRespectsWorkshopLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, 42, models.RoleParticipant)
	env.completeAll(t, 42, models.AppAST)

	if _, err := env.assessments.Save(ctx, 42, models.AppAST, models.KindReflection, "ast-4-1", []byte(`{}`)); !errors.Is(err, ErrWorkshopLocked) {
		t.Errorf("locked workshop: expected ErrWorkshopLocked, got %v", err)
	}
	if _, err := env.assessments.Save(ctx, 42, models.AppIA, models.KindReflection, "ia-2-2", []byte(`{}`)); err != nil {
		t.Errorf("other workshop stays writable: %v", err)
	}

	status, err := env.guard.Status(ctx, 42, models.AppAST)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Locked || status.CompletedAt == nil {
		t.Errorf("AST status = %+v", status)
	}
	status, _ = env.guard.Status(ctx, 42, models.AppIA)
	if status.Locked || status.CompletedAt != nil {
		t.Errorf("IA status = %+v", status)
	}
	if _, err := env.guard.Status(ctx, 404, models.AppIA); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: expected ErrUserNotFound, got %v", err)
	}
}
