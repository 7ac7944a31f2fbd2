package faculty

import (
	"strconv"

	"github.com/trezcool/appraise/core/table"
)

var Columns = []table.Column[Faculty]{
	{
		Key:   "id",
		Value: func(f Faculty) string { return strconv.Itoa(f.ID) },
		Less:  func(a, b Faculty) bool { return a.ID < b.ID },
	},
	{Key: "faculty", Value: func(f Faculty) string { return f.Faculty }, Searchable: true},
	{
		Key:   "department",
		Value: func(f Faculty) string { return strconv.Itoa(f.Department) },
		Less:  func(a, b Faculty) bool { return a.Department < b.Department },
	},
}
