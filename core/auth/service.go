// Package auth runs the login, visitor, register and logout actions against the session store.
package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/session"
	"github.com/trezcool/appraise/core/user"
)

type (
	// API is the slice of the backend that hands out tokens.
	API interface {
		Login(ctx context.Context, creds user.Credentials) (user.AuthResponse, error)
		Register(ctx context.Context, reg user.Registration) (user.AuthResponse, error)
		VisitorLogin(ctx context.Context, vis user.Visitor) (user.AuthResponse, error)
	}

	Service struct {
		api      API
		store    *session.Store
		validate *core.Validator
		logger   core.Logger
	}
)

func NewService(api API, store *session.Store, validate *core.Validator, logger core.Logger) *Service {
	return &Service{api: api, store: store, validate: validate, logger: logger}
}

// Login authenticates an admin. Validation failures never reach the network.
func (svc *Service) Login(ctx context.Context, creds user.Credentials) (user.AuthResponse, error) {
	if err := creds.Validate(svc.validate); err != nil {
		return user.AuthResponse{}, err
	}
	resp, err := svc.api.Login(ctx, creds)
	if err != nil {
		return user.AuthResponse{}, errors.Wrap(err, "logging in")
	}
	return svc.establish(resp)
}

// Visit logs a visitor in with their matriculation number.
func (svc *Service) Visit(ctx context.Context, vis user.Visitor) (user.AuthResponse, error) {
	if err := vis.Validate(svc.validate); err != nil {
		return user.AuthResponse{}, err
	}
	resp, err := svc.api.VisitorLogin(ctx, vis)
	if err != nil {
		return user.AuthResponse{}, errors.Wrap(err, "visitor login")
	}
	return svc.establish(resp)
}

// Register creates an account and logs it in.
func (svc *Service) Register(ctx context.Context, reg user.Registration) (user.AuthResponse, error) {
	if err := reg.Validate(svc.validate); err != nil {
		return user.AuthResponse{}, err
	}
	resp, err := svc.api.Register(ctx, reg)
	if err != nil {
		return user.AuthResponse{}, errors.Wrap(err, "registering")
	}
	return svc.establish(resp)
}

func (svc *Service) Logout() {
	svc.store.Logout()
}

func (svc *Service) establish(resp user.AuthResponse) (user.AuthResponse, error) {
	if resp.Token == "" || resp.User.ID == "" {
		return user.AuthResponse{}, &core.ServerError{Code: 200, Message: "incomplete authentication response"}
	}
	svc.store.LoginSuccess(resp.User, resp.Token)
	svc.logger.Info("logged in", resp.User)
	return resp, nil
}
