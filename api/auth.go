package api

import (
	"context"
	"net/http"
)

// Credentials is the login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup is the signup body.
type Signup struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is what login and signup return.
type AuthResponse struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	UserID int64  `json:"userId"`
}

// Login exchanges credentials for a token. It never sends a bearer.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/api/auth/login",
		path:   "/api/auth/login",
		body:   creds,
		public: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup creates an account and returns the same shape as Login.
// A missing role defaults to USER.
func (c *Client) Signup(ctx context.Context, in Signup) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/api/auth/signup",
		path:   "/api/auth/signup",
		body:   in,
		public: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Role == "" {
		out.Role = "USER"
	}
	return &out, nil
}
