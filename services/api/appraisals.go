package apisvc

import (
	"context"
	"net/http"
	"net/url"

	"github.com/trezcool/appraise/core/appraisal"
	"github.com/trezcool/appraise/core/faculty"
)

func (c *Client) ListAppraisals(ctx context.Context, token string) ([]appraisal.Appraisal, error) {
	var appraisals []appraisal.Appraisal
	if err := c.do(ctx, http.MethodGet, "/appraisals", token, nil, &appraisals); err != nil {
		return nil, err
	}
	return appraisals, nil
}

func (c *Client) CreateAppraisal(ctx context.Context, token string, na appraisal.NewAppraisal) (appraisal.Appraisal, error) {
	var a appraisal.Appraisal
	err := c.do(ctx, http.MethodPost, "/appraisals", token, na, &a)
	return a, err
}

func (c *Client) SubmitScores(ctx context.Context, token string, sub appraisal.Submission) error {
	path := "/appraisals/" + url.PathEscape(sub.AppraisalID) + "/scores"
	return c.do(ctx, http.MethodPost, path, token, sub, nil)
}

func (c *Client) ListFaculties(ctx context.Context, token string) ([]faculty.Faculty, error) {
	var faculties []faculty.Faculty
	if err := c.do(ctx, http.MethodGet, "/faculties", token, nil, &faculties); err != nil {
		return nil, err
	}
	return faculties, nil
}
