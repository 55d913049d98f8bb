package models

import (
	"fmt"
	"strings"
)

type ResetScope string

const (
	ScopeFullWipe            ResetScope = "full_wipe"
	ScopeHolisticReportsOnly ResetScope = "holistic_reports_only"
)

func ParseResetScope(s string) (ResetScope, error) {
	switch ResetScope(s) {
	case ScopeFullWipe, ScopeHolisticReportsOnly:
		return ResetScope(s), nil
	case "":
		return ScopeFullWipe, nil
	default:
		return "", fmt.Errorf("unknown reset scope %q", s)
	}
}

type ResetCategory string

const (
	CategoryAssessments     ResetCategory = "assessments"
	CategoryNavigation      ResetCategory = "navigation_progress"
	CategoryParticipation   ResetCategory = "workshop_participation"
	CategoryGrowthPlans     ResetCategory = "growth_plans"
	CategoryDiscernment     ResetCategory = "discernment_progress"
	CategoryPhotos          ResetCategory = "photos"
	CategoryReportRows      ResetCategory = "report_rows"
	CategoryReportFiles     ResetCategory = "report_files"
	CategoryUserProgress    ResetCategory = "user_progress_field"
	CategoryCompletionFlags ResetCategory = "completion_flags"
)

type DeleteMode string

const (
	ModeHard  DeleteMode = "hard"
	ModeSoft  DeleteMode = "soft"
	ModeClear DeleteMode = "clear"
)

type CategoryOutcome struct {
	Mode         DeleteMode `json:"mode"`
	Success      bool       `json:"success"`
	RowsAffected int64      `json:"rowsAffected"`
	Error        string     `json:"error,omitempty"`
}

// ResetReport is the per-category outcome of one reset invocation.
type ResetReport struct {
	UserID      int64                             `json:"userId"`
	Scope       ResetScope                        `json:"scope"`
	TestAccount bool                              `json:"testAccount"`
	Outcomes    map[ResetCategory]CategoryOutcome `json:"outcomes"`
	Order       []ResetCategory                   `json:"order"`
}

func (r *ResetReport) Record(category ResetCategory, outcome CategoryOutcome) {
	if r.Outcomes == nil {
		r.Outcomes = make(map[ResetCategory]CategoryOutcome)
	}
	r.Outcomes[category] = outcome
	r.Order = append(r.Order, category)
}

func (r *ResetReport) FailedCategories() []ResetCategory {
	var failed []ResetCategory
	for _, c := range r.Order {
		if !r.Outcomes[c].Success {
			failed = append(failed, c)
		}
	}
	return failed
}

func (r *ResetReport) TotalRowsAffected() int64 {
	var total int64
	for _, o := range r.Outcomes {
		total += o.RowsAffected
	}
	return total
}

// Err returns a *PartialResetError when any category failed.
func (r *ResetReport) Err() error {
	failed := r.FailedCategories()
	if len(failed) == 0 {
		return nil
	}
	return &PartialResetError{Categories: failed}
}

type PartialResetError struct {
	Categories []ResetCategory
}

func (e *PartialResetError) Error() string {
	names := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		names[i] = string(c)
	}
	return "partial reset failure: " + strings.Join(names, ", ")
}
