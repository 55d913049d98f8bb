package models

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestProperty2_ResetReportFailedCategories(t *testing.T) {
	categories := []ResetCategory{
		CategoryAssessments, CategoryNavigation, CategoryParticipation, CategoryGrowthPlans,
		CategoryDiscernment, CategoryPhotos, CategoryReportRows, CategoryReportFiles,
		CategoryUserProgress, CategoryCompletionFlags,
	}

	rapid.Check(t, func(t *rapid.T) {
		report := &ResetReport{UserID: 1, Scope: ScopeFullWipe}
		expectedFailed := 0
		var expectedRows int64
		for _, c := range categories {
			ok := rapid.Bool().Draw(t, string(c))
			rows := rapid.Int64Range(0, 50).Draw(t, string(c)+"_rows")
			outcome := CategoryOutcome{Mode: ModeHard, Success: ok, RowsAffected: rows}
			if !ok {
				outcome.Error = "boom"
				expectedFailed++
			}
			expectedRows += rows
			report.Record(c, outcome)
		}

		failed := report.FailedCategories()
		if len(failed) != expectedFailed {
			t.Fatalf("Expected %d failed categories, got %d", expectedFailed, len(failed))
		}
		if report.TotalRowsAffected() != expectedRows {
			t.Fatalf("Expected %d rows, got %d", expectedRows, report.TotalRowsAffected())
		}

		err := report.Err()
		if expectedFailed == 0 {
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			return
		}
		var partial *PartialResetError
		if !errors.As(err, &partial) {
			t.Fatalf("Expected PartialResetError, got %v", err)
		}
		if len(partial.Categories) != expectedFailed {
			t.Fatalf("PartialResetError lists %d categories, expected %d", len(partial.Categories), expectedFailed)
		}
	})
}

func TestParseResetScope(t *testing.T) {
	if s, err := ParseResetScope(""); err != nil || s != ScopeFullWipe {
		t.Fatalf("Expected empty scope to mean full wipe, got %q err=%v", s, err)
	}
	if s, err := ParseResetScope("holistic_reports_only"); err != nil || s != ScopeHolisticReportsOnly {
		t.Fatalf("Expected holistic_reports_only, got %q err=%v", s, err)
	}
	if _, err := ParseResetScope("everything"); err == nil {
		t.Fatal("Expected unknown scope to fail")
	}
}
