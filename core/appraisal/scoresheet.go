package appraisal

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/appraise/core"
)

var honorificRegex = regexp.MustCompile(`(?i)^(mr|mrs|ms|dr|prof)\.\s*`)

// Appraisee is the lecturer being scored.
type Appraisee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Faculty    string `json:"faculty"`
	Department string `json:"department"`
}

func (a Appraisee) RecordID() string { return a.ID }

// DisplayName is the name without its honorific (Mr., Mrs., Ms., Dr., Prof.).
func (a Appraisee) DisplayName() string {
	return honorificRegex.ReplaceAllString(strings.TrimSpace(a.Name), "")
}

// Initials returns at most two upper-case initials of the display name.
func (a Appraisee) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(a.DisplayName()) {
		b.WriteString(strings.ToUpper(string([]rune(part)[:1])))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

// Scoresheet records the option picked for each criterion of an appraisal.
type Scoresheet struct {
	appraisal Appraisal
	appraisee Appraisee
	selected  map[string]int
}

func NewScoresheet(a Appraisal, appraisee Appraisee) *Scoresheet {
	return &Scoresheet{appraisal: a, appraisee: appraisee, selected: make(map[string]int, len(a.Criteria))}
}

// Select picks value (1..MaxScore) for the criterion; picking again overrides.
func (s *Scoresheet) Select(criterionID string, value int) error {
	c, ok := s.criterion(criterionID)
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "criterion", Error: fmt.Sprintf("unknown criterion %q", criterionID)})
	}
	if value < 1 || value > c.MaxScore {
		return core.NewValidationError(nil, core.FieldError{
			Field: "score",
			Error: fmt.Sprintf("score must be between 1 and %d", c.MaxScore),
		})
	}
	s.selected[criterionID] = value
	return nil
}

func (s *Scoresheet) Selected(criterionID string) (int, bool) {
	v, ok := s.selected[criterionID]
	return v, ok
}

// Total sums the picked options; unscored criteria count as 0.
func (s *Scoresheet) Total() int {
	var total int
	for _, v := range s.selected {
		total += v
	}
	return total
}

func (s *Scoresheet) MaxTotal() int {
	var total int
	for _, c := range s.appraisal.Criteria {
		total += c.MaxScore
	}
	return total
}

func (s *Scoresheet) Percentage() float64 {
	maxTotal := s.MaxTotal()
	if maxTotal == 0 {
		return 0
	}
	return float64(s.Total()) * 100 / float64(maxTotal)
}

// Submission is what gets posted once every criterion is scored.
type Submission struct {
	AppraisalID string         `json:"appraisal_id"`
	AppraiseeID string         `json:"appraisee_id"`
	Scores      map[string]int `json:"scores"`
	Total       int            `json:"total"`
	Percentage  float64        `json:"percentage"`
}

// Submission fails with a validation error while some criterion is unscored.
func (s *Scoresheet) Submission() (Submission, error) {
	var missing []core.FieldError
	for _, c := range s.appraisal.Criteria {
		if _, ok := s.selected[c.ID]; !ok {
			missing = append(missing, core.FieldError{Field: c.ID, Error: fmt.Sprintf("%q is not scored", c.Question)})
		}
	}
	if len(missing) > 0 {
		return Submission{}, core.NewValidationError(errors.New("every criterion must be scored"), missing...)
	}

	scores := make(map[string]int, len(s.selected))
	for id, v := range s.selected {
		scores[id] = v
	}
	return Submission{
		AppraisalID: s.appraisal.ID,
		AppraiseeID: s.appraisee.ID,
		Scores:      scores,
		Total:       s.Total(),
		Percentage:  s.Percentage(),
	}, nil
}

func (s *Scoresheet) criterion(id string) (Criterion, bool) {
	for _, c := range s.appraisal.Criteria {
		if c.ID == id {
			return c, true
		}
	}
	return Criterion{}, false
}
