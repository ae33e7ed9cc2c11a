// Package users implements registration and credential authentication for
// federation accounts. Profile rows are created lazily right after
// registration; see profiles.Service for the per-role shapes.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsp-platform/server/internal/auth"
	"github.com/fsp-platform/server/internal/domain/ids"
	"github.com/fsp-platform/server/internal/sanitize"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ProfileBootstrapper creates the default role-shaped profile for a freshly
// registered user. Implemented by profiles.Service.
type ProfileBootstrapper interface {
	CreateDefault(ctx context.Context, userID string, role Role) error
}

type Service struct {
	repo      Repository
	profiles  ProfileBootstrapper
	tokens    *auth.JWTManager
	logger    zerolog.Logger
	validator *validator.Validate
}

func NewService(repo Repository, profiles ProfileBootstrapper, tokens *auth.JWTManager, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		profiles:  profiles,
		tokens:    tokens,
		logger:    logger.With().Str("component", "users").Logger(),
		validator: validator.New(),
	}
}

type RegisterParams struct {
	FullName string `validate:"required,min=2,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Role     string `validate:"required"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Register creates a user with a salted password hash, then bootstraps the
// role profile. Athlete and sponsor profiles are created immediately; the
// region profile is deferred because it needs a mandatory region name not
// supplied at registration. Returns the user together with an access token
// so the client is signed in right away.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, string, error) {
	if err := s.validator.Struct(params); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, "", ValidationError{Field: fieldErrs[0].Field(), Message: "failed " + fieldErrs[0].Tag() + " validation"}
		}
		return nil, "", ValidationError{Message: err.Error()}
	}

	role, err := ParseRole(params.Role)
	if err != nil {
		return nil, "", err
	}

	if err := auth.ValidatePassword(params.Password); err != nil {
		return nil, "", err
	}

	if _, err := s.repo.GetByEmail(ctx, params.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		ID:           ids.NewID(),
		Email:        params.Email,
		FullName:     sanitize.Text(params.FullName),
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return nil, "", err
	}

	// Profile bootstrap failure must not undo the registration.
	if err := s.profiles.CreateDefault(ctx, user.ID, role); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Str("role", string(role)).Msg("default profile creation failed")
	}

	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Authenticate verifies email/password credentials and issues an access
// token. Lookup misses and hash mismatches are indistinguishable to the
// caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrInactive
	}

	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Resolve loads the user behind a verified token subject. Used by the bearer
// middleware on every protected request.
func (s *Service) Resolve(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactive
	}
	return user, nil
}
