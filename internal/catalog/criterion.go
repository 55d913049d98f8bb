package catalog

import (
	"fmt"

	"github.com/ad/go-workshop-core/internal/models"
)

type CriterionType string

const (
	CriterionVideoWatch           CriterionType = "video_watch"
	CriterionAllQuestionsAnswered CriterionType = "all_questions_answered"
	CriterionExactWordCount       CriterionType = "exact_word_count"
	CriterionSlidersCompleted     CriterionType = "sliders_completed"
	CriterionDataSubmitted        CriterionType = "data_submitted"
)

// Criterion is the rule a step's evidence must satisfy. MinPercent is used
// by video_watch and WordCount by exact_word_count only.
type Criterion struct {
	Type       CriterionType `yaml:"type" json:"type"`
	MinPercent float64       `yaml:"min_percent,omitempty" json:"minPercent,omitempty"`
	WordCount  int           `yaml:"word_count,omitempty" json:"wordCount,omitempty"`
}

func VideoWatch(minPercent float64) Criterion {
	return Criterion{Type: CriterionVideoWatch, MinPercent: minPercent}
}

func ExactWordCount(n int) Criterion {
	return Criterion{Type: CriterionExactWordCount, WordCount: n}
}

func (c Criterion) validate() error {
	switch c.Type {
	case CriterionVideoWatch:
		if c.MinPercent <= 0 || c.MinPercent > 100 {
			return fmt.Errorf("video_watch min_percent %v out of range (0,100]", c.MinPercent)
		}
	case CriterionExactWordCount:
		if c.WordCount <= 0 {
			return fmt.Errorf("exact_word_count needs a positive word_count")
		}
	case CriterionAllQuestionsAnswered, CriterionSlidersCompleted, CriterionDataSubmitted:
	default:
		return fmt.Errorf("unknown criterion type %q", c.Type)
	}
	return nil
}

// Satisfied decides completion. storedWatch is the highest watch percentage
// already recorded for the step.
func (c Criterion) Satisfied(ev models.Evidence, storedWatch float64) bool {
	switch c.Type {
	case CriterionVideoWatch:
		watched := storedWatch
		if ev.WatchPercent != nil && *ev.WatchPercent > watched {
			watched = *ev.WatchPercent
		}
		return watched >= c.MinPercent
	case CriterionAllQuestionsAnswered:
		return ev.AllAnswered
	case CriterionExactWordCount:
		return ev.WordCount != nil && *ev.WordCount == c.WordCount
	case CriterionSlidersCompleted:
		return ev.SlidersSet
	case CriterionDataSubmitted:
		return ev.DataSubmitted
	default:
		return false
	}
}
