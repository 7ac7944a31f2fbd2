package user

import (
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/appraise/core"
)

// Users stream event names
const (
	StreamSeedEvent   = "initUsers"
	StreamUpdateEvent = "userUpdate"
)

// Roles
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleLecturer   = "LECTURER"
	RoleVisitor    = "VISITOR"
)

var (
	AdminRoles = []string{RoleSuperAdmin, RoleAdmin}
	AllRoles   = []string{RoleSuperAdmin, RoleAdmin, RoleLecturer, RoleVisitor}

	rolePriorities = map[string]int{
		RoleSuperAdmin: 30,
		RoleAdmin:      21,
		RoleLecturer:   11,
		RoleVisitor:    1,
	}

	Roles = []Role{
		{Name: "Visitor", Value: RoleVisitor},
		{Name: "Lecturer", Value: RoleLecturer},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Super Admin", Value: RoleSuperAdmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[strings.ToUpper(role)]
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is the profile the backend returns on login and streams on the users feed.
type User struct {
	ID        string    `json:"id"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Email     string    `json:"email,omitempty"`
	MatNo     string    `json:"matno,omitempty"`
	Role      string    `json:"role"`
	CreatedAt null.Time `json:"created_at"`
	UpdatedAt null.Time `json:"updated_at"`
}

func (u User) RecordID() string { return u.ID }

func (u User) FullName() string {
	return strings.TrimSpace(u.Firstname + " " + u.Lastname)
}

func (u User) HasRole(role string) bool {
	return strings.EqualFold(u.Role, role)
}

func (u User) IsAdmin() bool {
	return u.HasRole(RoleAdmin) || u.HasRole(RoleSuperAdmin)
}

func (u User) IsLecturer() bool {
	return u.HasRole(RoleLecturer)
}

// ExcludeRole is the inclusion predicate of screens that hide one role (eg. lecturers on the Admins screen).
func ExcludeRole(role string) func(User) bool {
	return func(u User) bool {
		return !u.HasRole(role)
	}
}

// Credentials are posted to /login.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(v *core.Validator) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return v.Struct(c)
}

// Visitor is the non-admin login: a matriculation number only.
type Visitor struct {
	MatNo string `json:"matno" validate:"required,matno"`
}

func (vis *Visitor) Validate(v *core.Validator) error {
	vis.MatNo = core.CleanString(vis.MatNo)
	return v.Struct(vis)
}

// Registration contains information needed to self-register.
// ConfirmPassword is checked locally; the API client does not send it.
type Registration struct {
	Firstname       string `json:"firstname" validate:"required"`
	Lastname        string `json:"lastname" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

func (r *Registration) Validate(v *core.Validator) error {
	r.Firstname = core.CleanString(r.Firstname)
	r.Lastname = core.CleanString(r.Lastname)
	r.Email = core.CleanString(r.Email, true /* lower */)
	return v.Struct(r)
}

// NewUser contains information needed to create a new User from the Admins screen.
type NewUser struct {
	Firstname       string `json:"firstname" validate:"required"`
	Lastname        string `json:"lastname" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,role"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

func (nu *NewUser) Validate(v *core.Validator) error {
	nu.Firstname = core.CleanString(nu.Firstname)
	nu.Lastname = core.CleanString(nu.Lastname)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = strings.ToUpper(core.CleanString(nu.Role))
	if nu.Role == "" {
		nu.Role = RoleAdmin
	}
	return v.Struct(nu)
}

// AuthResponse is what /login, /register and /visitor answer on success.
type AuthResponse struct {
	User    User   `json:"user"`
	Token   string `json:"token"`
	Message string `json:"message"`
}
