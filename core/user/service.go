package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/appraise/core"
)

var errNoPermsToSetRole = "not enough rights to set this role"

type (
	// API is the slice of the backend the user Service talks to.
	API interface {
		CreateUser(ctx context.Context, token string, nu NewUser) (User, error)
	}

	Service struct {
		api      API
		validate *core.Validator
	}
)

func NewService(api API, validate *core.Validator) *Service {
	return &Service{api: api, validate: validate}
}

// Create validates nu and asks the backend to create it on behalf of actor.
// Validation failures never reach the network.
func (svc *Service) Create(ctx context.Context, actor User, token string, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	// actor cannot grant a role above their own
	if RolePriority(nu.Role) > RolePriority(actor.Role) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: errNoPermsToSetRole})
	}

	usr, err := svc.api.CreateUser(ctx, token, nu)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}
