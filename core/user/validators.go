package user

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/appraise/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// InitValidators registers the user validators on v. Pass it to core.NewValidator.
func InitValidators(v *core.Validator) {
	_ = v.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(v.Validate, v.Translator, roleTag, roleText)

	v.Validate.RegisterStructValidation(userStructValidation, Registration{}, NewUser{})
	core.RegisterCustomTranslation(v.Validate, v.Translator, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// roleValidation checks that the role is one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	role := strings.ToUpper(fl.Field().String())
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// userStructValidation does struct level validation on Registration and NewUser structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case Registration:
		validatePassword(usr.Password, usr.Firstname, usr.Lastname, usr.Email, sl)
	case NewUser:
		validatePassword(usr.Password, usr.Firstname, usr.Lastname, usr.Email, sl)
	}
}

// validatePassword rejects passwords too similar to the user's own attributes.
// The rest of the password policy is the server's business.
func validatePassword(pwd, firstname, lastname, email string, sl validator.StructLevel) {
	if pwd == "" {
		return
	}
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		pass, usrAttr = strings.ToLower(pass), strings.ToLower(usrAttr)
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	if getRatio(pwd, firstname) >= pwdMaxSim ||
		getRatio(pwd, lastname) >= pwdMaxSim ||
		getRatio(pwd, email) >= pwdMaxSim {
		sl.ReportError(pwd, "password", "Password", pwdAttrSimTag, "")
	}
}
