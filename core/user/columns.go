package user

import (
	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/table"
)

// Columns of the Admins screen.
var Columns = []table.Column[User]{
	{Key: "firstname", Value: func(u User) string { return u.Firstname }, Searchable: true},
	{Key: "lastname", Value: func(u User) string { return u.Lastname }, Searchable: true},
	{Key: "email", Value: func(u User) string { return u.Email }, Searchable: true},
	{Key: "role", Value: func(u User) string { return u.Role }, Searchable: true},
	{
		Key:   "created_at",
		Value: func(u User) string { return core.FormatTime(u.CreatedAt) },
		Less:  func(a, b User) bool { return a.CreatedAt.Time.Before(b.CreatedAt.Time) },
	},
}
