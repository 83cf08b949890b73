package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smartcondo/condominio/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	PhotoURL  string
	Role      Role
}

type UpdateUserRequest struct {
	ID        string
	FirstName *string
	LastName  *string
	Phone     *string
	PhotoURL  *string
}

type ChangePasswordRequest struct {
	ID          string
	OldPassword string
	NewPassword string
}

type ListUserRequest struct {
	PageToken string
	PageSize  int32
	Role      Role
	Email     string
	IsActive  *bool
}

type ListUserResponse struct {
	pagination.PageInfo
	Users []User `json:"users"`
}

type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (User, error)
	List(ctx context.Context, req ListUserRequest) (ListUserResponse, error)
	GetByID(ctx context.Context, id string) (User, error)
	Update(ctx context.Context, req UpdateUserRequest) (User, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	Deactivate(ctx context.Context, id string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	List(ctx context.Context, db *gorm.DB, filter ListUserRequest) ([]*User, error)
	Update(ctx context.Context, db *gorm.DB, user *User, now time.Time) error
}

var (
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidRole     = errors.New("invalid_role")
	ErrInvalidID       = errors.New("invalid_id")
	ErrEmailTaken      = errors.New("email_taken")
	ErrNotFound        = errors.New("user_not_found")
	ErrWrongPassword   = errors.New("wrong_password")
)
