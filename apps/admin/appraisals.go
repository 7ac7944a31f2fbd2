package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/appraisal"
	"github.com/trezcool/appraise/core/faculty"
	"github.com/trezcool/appraise/core/table"
)

func (cli *commandLine) runAppraisals(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("appraisals")
	search := fs.String("search", "", "Only list appraisals whose name or status contains this.")
	ordering := fs.String("ordering", "-created_at", "Comma separated columns, \"-\" for descending.")
	page := fs.Int("page", 1, "Page to print.")
	pageSize := fs.Int("page-size", table.DefaultPageSize, "Rows per page.")
	if err := parse(fs, args); err != nil {
		return err
	}

	sess, err := cli.requireSession()
	if err != nil {
		return err
	}
	appraisals, err := cli.appraisalSvc.List(ctx, sess.Token)
	if err != nil {
		return err
	}

	result := table.Apply(appraisals, appraisal.Columns, table.Query{
		Search:   *search,
		Ordering: table.ParseOrdering(*ordering),
		Page:     *page,
		PageSize: *pageSize,
	})
	fmt.Fprintln(cli.out, renderPage(result, appraisal.Columns))
	return nil
}

func (cli *commandLine) runNewAppraisal(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("newappraisal")
	name := fs.String("name", "", "Name of the appraisal.")
	description := fs.String("description", "", "Description.")
	status := fs.String("status", appraisal.StatusDraft, "draft, open or closed.")
	criteria := fs.StringArray("criterion", nil, "A scored question, optionally suffixed with its max score: \"Punctuality:5\". Repeatable.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *name == "" {
		fs.Usage()
		return errHelp
	}

	sess, err := cli.requireSession()
	if err != nil {
		return err
	}

	na := appraisal.NewAppraisal{Name: *name, Description: *description, Status: *status}
	for _, raw := range *criteria {
		c, err := parseCriterion(raw)
		if err != nil {
			return err
		}
		na.Criteria = append(na.Criteria, c)
	}

	a, err := cli.appraisalSvc.Create(ctx, sess.Token, na)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Created appraisal %q (%s) with %d criteria\n", a.Name, a.ID, len(a.Criteria))
	return nil
}

// parseCriterion reads "question[:max]".
func parseCriterion(raw string) (appraisal.Criterion, error) {
	question, maxScore := raw, 0
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		n, err := strconv.Atoi(strings.TrimSpace(raw[i+1:]))
		if err == nil {
			question, maxScore = raw[:i], n
		}
	}
	if strings.TrimSpace(question) == "" {
		return appraisal.Criterion{}, core.NewValidationError(nil, core.FieldError{Field: "criterion", Error: "criterion needs a question"})
	}
	return appraisal.Criterion{Question: question, MaxScore: maxScore}, nil
}

// runScore fills a scoresheet for one appraisee and submits it.
func (cli *commandLine) runScore(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("score")
	appraisalID := fs.String("appraisal", "", "ID of the appraisal.")
	appraiseeID := fs.String("appraisee", "", "ID of the lecturer being appraised.")
	appraiseeName := fs.String("name", "", "Name of the lecturer, eg. \"Dr. Jane Doe\".")
	scores := fs.StringToInt("score", nil, "CRITERION_ID=VALUE pairs, VALUE from 1 to the criterion's max score.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *appraisalID == "" || *appraiseeID == "" {
		fs.Usage()
		return errHelp
	}

	sess, err := cli.requireSession()
	if err != nil {
		return err
	}
	appraisals, err := cli.appraisalSvc.List(ctx, sess.Token)
	if err != nil {
		return err
	}
	var target *appraisal.Appraisal
	for i := range appraisals {
		if appraisals[i].ID == *appraisalID {
			target = &appraisals[i]
			break
		}
	}
	if target == nil {
		return &core.ServerError{Code: 404, Message: fmt.Sprintf("appraisal %s not found", *appraisalID)}
	}

	appraisee := appraisal.Appraisee{ID: *appraiseeID, Name: *appraiseeName}
	sheet := appraisal.NewScoresheet(*target, appraisee)
	for criterionID, value := range *scores {
		if err := sheet.Select(criterionID, value); err != nil {
			return errors.Wrap(err, criterionID)
		}
	}

	sub, err := cli.appraisalSvc.Submit(ctx, sess.Token, sheet)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "[%s] %s scored %d/%d (%.0f%%)\n",
		appraisee.Initials(), appraisee.DisplayName(), sub.Total, sheet.MaxTotal(), sub.Percentage)
	return nil
}

func (cli *commandLine) runFaculties(ctx context.Context) error {
	sess, err := cli.requireSession()
	if err != nil {
		return err
	}
	faculties, err := cli.client.ListFaculties(ctx, sess.Token)
	if err != nil {
		return err
	}
	result := table.Apply(faculties, faculty.Columns, table.Query{Ordering: table.ParseOrdering("faculty"), PageSize: len(faculties)})
	fmt.Fprintln(cli.out, renderPage(result, faculty.Columns))
	return nil
}
