package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/user"
)

func TestUser_roles(t *testing.T) {
	lecturer := user.User{Firstname: "Lin", Lastname: "Wei", Role: "lecturer"}
	admin := user.User{Firstname: "Ada", Role: user.RoleSuperAdmin}

	assert.True(t, lecturer.IsLecturer())
	assert.False(t, lecturer.IsAdmin())
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, "Lin Wei", lecturer.FullName())
	assert.Equal(t, "Ada", admin.FullName())

	notLecturer := user.ExcludeRole(user.RoleLecturer)
	assert.False(t, notLecturer(lecturer))
	assert.True(t, notLecturer(admin))

	assert.Greater(t, user.RolePriority("super_admin"), user.RolePriority(user.RoleAdmin))
	assert.Greater(t, user.RolePriority(user.RoleAdmin), user.RolePriority(user.RoleLecturer))
	assert.Greater(t, user.RolePriority(user.RoleLecturer), user.RolePriority(user.RoleVisitor))
	assert.Zero(t, user.RolePriority("janitor"))
}

func TestValidate(t *testing.T) {
	v := core.NewValidator(user.InitValidators)

	creds := user.Credentials{Email: "  Ada@Example.COM ", Password: "pw"}
	assert.NoError(t, creds.Validate(v))
	assert.Equal(t, "ada@example.com", creds.Email)

	bad := user.Credentials{Email: "not-an-email"}
	assert.Error(t, bad.Validate(v))

	for _, matNo := range []string{"AG101", "CS303", "De.2019/4521"} {
		assert.NoError(t, (&user.Visitor{MatNo: matNo}).Validate(v), matNo)
	}
	assert.Error(t, (&user.Visitor{}).Validate(v))

	vis := user.Visitor{MatNo: " De.2019/4521 "}
	assert.NoError(t, vis.Validate(v))
	assert.Equal(t, "De.2019/4521", vis.MatNo)
	assert.Error(t, (&user.Visitor{MatNo: "CS 303"}).Validate(v))

	reg := user.Registration{Firstname: "Grace", Lastname: "Hopper", Email: "grace@navy.mil", Password: "c0b0l!rules", ConfirmPassword: "c0b0l!rules"}
	assert.NoError(t, reg.Validate(v))
	reg.ConfirmPassword = "cobol"
	assert.Error(t, reg.Validate(v))
}
