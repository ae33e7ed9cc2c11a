package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("user account is inactive")
	ErrInvalidRole        = errors.New("invalid role")
)

// Role determines which profile shape a user owns and which operations they
// may perform. Dispatch is always on this field, never on profile presence.
type Role string

const (
	RoleAthlete Role = "athlete"
	RoleRegion  Role = "region"
	RoleSponsor Role = "sponsor"
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAthlete, RoleRegion, RoleSponsor:
		return Role(value), nil
	}
	return "", ErrInvalidRole
}

type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateParams struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
