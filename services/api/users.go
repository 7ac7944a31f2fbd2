package apisvc

import (
	"context"
	"net/http"

	"github.com/trezcool/appraise/core/user"
)

// wire bodies: confirmation fields are checked locally and never sent

type registerRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type createUserRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Password  string `json:"password"`
}

func (c *Client) Login(ctx context.Context, creds user.Credentials) (user.AuthResponse, error) {
	var resp user.AuthResponse
	err := c.do(ctx, http.MethodPost, "/login", "", creds, &resp)
	return resp, err
}

func (c *Client) Register(ctx context.Context, reg user.Registration) (user.AuthResponse, error) {
	body := registerRequest{
		Firstname: reg.Firstname,
		Lastname:  reg.Lastname,
		Email:     reg.Email,
		Password:  reg.Password,
	}
	var resp user.AuthResponse
	err := c.do(ctx, http.MethodPost, "/register", "", body, &resp)
	return resp, err
}

func (c *Client) VisitorLogin(ctx context.Context, vis user.Visitor) (user.AuthResponse, error) {
	var resp user.AuthResponse
	err := c.do(ctx, http.MethodPost, "/visitor", "", vis, &resp)
	return resp, err
}

func (c *Client) CreateUser(ctx context.Context, token string, nu user.NewUser) (user.User, error) {
	body := createUserRequest{
		Firstname: nu.Firstname,
		Lastname:  nu.Lastname,
		Email:     nu.Email,
		Role:      nu.Role,
		Password:  nu.Password,
	}
	var usr user.User
	err := c.do(ctx, http.MethodPost, "/users", token, body, &usr)
	return usr, err
}
