package appraisal

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/appraise/core"
)

type (
	// API is the slice of the backend the appraisal Service talks to.
	API interface {
		ListAppraisals(ctx context.Context, token string) ([]Appraisal, error)
		CreateAppraisal(ctx context.Context, token string, na NewAppraisal) (Appraisal, error)
		SubmitScores(ctx context.Context, token string, sub Submission) error
	}

	Service struct {
		api      API
		validate *core.Validator
	}
)

func NewService(api API, validate *core.Validator) *Service {
	return &Service{api: api, validate: validate}
}

func (svc *Service) List(ctx context.Context, token string) ([]Appraisal, error) {
	appraisals, err := svc.api.ListAppraisals(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "listing appraisals")
	}
	return appraisals, nil
}

func (svc *Service) Create(ctx context.Context, token string, na NewAppraisal) (Appraisal, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Appraisal{}, err
	}
	a, err := svc.api.CreateAppraisal(ctx, token, na)
	if err != nil {
		return Appraisal{}, errors.Wrap(err, "creating appraisal")
	}
	return a, nil
}

// Submit posts the scoresheet once every criterion has been scored.
func (svc *Service) Submit(ctx context.Context, token string, sheet *Scoresheet) (Submission, error) {
	sub, err := sheet.Submission()
	if err != nil {
		return Submission{}, err
	}
	if err := svc.api.SubmitScores(ctx, token, sub); err != nil {
		return Submission{}, errors.Wrap(err, "submitting scores")
	}
	return sub, nil
}
