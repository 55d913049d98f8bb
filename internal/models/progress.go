package models

import "time"

// ProgressRecord is the navigation state of one user in one workshop.
// CompletedSteps and UnlockedSteps are kept in catalog order.
type ProgressRecord struct {
	UserID         int64              `json:"userId"`
	AppType        AppType            `json:"appType"`
	CompletedSteps []string           `json:"completedSteps"`
	CurrentStepID  string             `json:"currentStepId"`
	UnlockedSteps  []string           `json:"unlockedSteps"`
	VideoProgress  map[string]float64 `json:"videoProgress"`
	LastVisitedAt  time.Time          `json:"lastVisitedAt"`
}

func NewProgressRecord(userID int64, app AppType, firstStep string, now time.Time) *ProgressRecord {
	return &ProgressRecord{
		UserID:         userID,
		AppType:        app,
		CompletedSteps: []string{},
		CurrentStepID:  firstStep,
		UnlockedSteps:  []string{firstStep},
		VideoProgress:  map[string]float64{},
		LastVisitedAt:  now,
	}
}

func (p *ProgressRecord) IsCompleted(stepID string) bool {
	return contains(p.CompletedSteps, stepID)
}

func (p *ProgressRecord) IsUnlocked(stepID string) bool {
	return contains(p.UnlockedSteps, stepID)
}

func (p *ProgressRecord) Clone() *ProgressRecord {
	if p == nil {
		return nil
	}
	c := *p
	c.CompletedSteps = append([]string{}, p.CompletedSteps...)
	c.UnlockedSteps = append([]string{}, p.UnlockedSteps...)
	c.VideoProgress = make(map[string]float64, len(p.VideoProgress))
	for k, v := range p.VideoProgress {
		c.VideoProgress[k] = v
	}
	return &c
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ProgressMutation is what a progress transaction decided to persist.
type ProgressMutation struct {
	// Record is written when non-nil.
	Record *ProgressRecord
	// Created marks the record as new for this (user, app).
	Created bool
	// MarkCompleted sets the workshop completion flag.
	MarkCompleted bool
}

// ProgressMutateFunc receives the live record (nil when absent) and the
// user's completion flags, all read inside the same transaction.
type ProgressMutateFunc func(current *ProgressRecord, flags CompletionFlags) (ProgressMutation, error)

// Evidence is what the client reports when asking to complete a step.
type Evidence struct {
	WatchPercent  *float64 `json:"watchPercent,omitempty"`
	AllAnswered   bool     `json:"allAnswered,omitempty"`
	WordCount     *int     `json:"wordCount,omitempty"`
	SlidersSet    bool     `json:"slidersSet,omitempty"`
	DataSubmitted bool     `json:"dataSubmitted,omitempty"`
}
