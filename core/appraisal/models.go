package appraisal

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/appraise/core"
)

// Statuses
const (
	StatusDraft     = "draft"
	StatusOpen      = "open"
	StatusClosed    = "closed"
	defaultMaxScore = 5
)

// Appraisal is an appraisal template as listed on the Appraisals screen.
type Appraisal struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Status      string      `json:"status"`
	Criteria    []Criterion `json:"criteria,omitempty"`
	CreatedAt   null.Time   `json:"created_at"`
}

func (a Appraisal) RecordID() string { return a.ID }

// Criterion is one scored question, rated from 1 to MaxScore.
type Criterion struct {
	ID       string `json:"id,omitempty"`
	Question string `json:"question" validate:"required"`
	MaxScore int    `json:"max_score" validate:"min=1,max=10"`
}

// NewAppraisal configures a new appraisal template.
type NewAppraisal struct {
	Name        string      `json:"name" validate:"required"`
	Description string      `json:"description"`
	Status      string      `json:"status" validate:"omitempty,oneof=draft open closed"`
	Criteria    []Criterion `json:"criteria" validate:"required,min=1,dive"`
}

func (na *NewAppraisal) Validate(v *core.Validator) error {
	na.Name = core.CleanString(na.Name)
	na.Description = core.CleanString(na.Description)
	if na.Status == "" {
		na.Status = StatusDraft
	}
	for i := range na.Criteria {
		na.Criteria[i].Question = core.CleanString(na.Criteria[i].Question)
		if na.Criteria[i].MaxScore == 0 {
			na.Criteria[i].MaxScore = defaultMaxScore
		}
	}
	return v.Struct(na)
}
