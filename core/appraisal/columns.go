package appraisal

import (
	"strconv"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/table"
)

// Columns of the Appraisals screen.
var Columns = []table.Column[Appraisal]{
	{Key: "name", Value: func(a Appraisal) string { return a.Name }, Searchable: true},
	{Key: "status", Value: func(a Appraisal) string { return a.Status }, Searchable: true},
	{
		Key:   "criteria",
		Value: func(a Appraisal) string { return strconv.Itoa(len(a.Criteria)) },
		Less:  func(a, b Appraisal) bool { return len(a.Criteria) < len(b.Criteria) },
	},
	{
		Key:   "created_at",
		Value: func(a Appraisal) string { return core.FormatTime(a.CreatedAt) },
		Less:  func(a, b Appraisal) bool { return a.CreatedAt.Time.Before(b.CreatedAt.Time) },
	},
}
