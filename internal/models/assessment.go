package models

import (
	"encoding/json"
	"time"
)

// AssessmentRecord stores the submitted results of an assessment or a
// reflection. Scoring is done elsewhere; results are kept verbatim.
type AssessmentRecord struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"userId"`
	AppType        AppType         `json:"appType"`
	Kind           AssessmentKind  `json:"kind"`
	AssessmentType string          `json:"assessmentType"`
	Results        json.RawMessage `json:"results"`
	CreatedAt      time.Time       `json:"createdAt"`
}
