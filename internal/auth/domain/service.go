// Package domain defines the authentication contract: credential login
// returning a signed token, and token verification used by the HTTP layer.
package domain

import (
	"context"
	"errors"

	userdomain "github.com/smartcondo/condominio/internal/user/domain"
)

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int64           `json:"expires_in"`
	User      userdomain.User `json:"user"`
}

// Claims is what a verified token asserts about the caller.
type Claims struct {
	UserID string
	Role   userdomain.Role
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Verify(ctx context.Context, token string) (Claims, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrTokenExpired       = errors.New("token_expired")
	ErrUserInactive       = errors.New("user_inactive")
)
