// Package profiles implements the role-shaped profile services. Every user
// owns at most one profile whose shape is fixed by the account role: athletes
// carry ratings and history, sponsors carry organization data and the hosted
// events counter, region representatives carry region metadata.
//
// Athlete and sponsor profiles are created automatically right after
// registration. Region profiles are created later through an explicit call
// because the region name is mandatory and is not collected at registration.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsp-platform/server/internal/domain/ids"
	"github.com/fsp-platform/server/internal/domain/users"
	"github.com/fsp-platform/server/internal/sanitize"
	"github.com/fsp-platform/server/internal/validation"
	"github.com/rs/zerolog"
)

// UserDirectory is the slice of the users repository the profile service
// needs for role checks. Satisfied by users.Repository.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

type Service struct {
	repo   Repository
	users  UserDirectory
	logger zerolog.Logger
}

func NewService(repo Repository, userDir UserDirectory, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  userDir,
		logger: logger.With().Str("component", "profiles").Logger(),
	}
}

// CreateDefault bootstraps the profile matching a new user's role. Region
// profiles are deliberately not created here; the region name is required
// and arrives later via CreateRegionProfile.
func (s *Service) CreateDefault(ctx context.Context, userID string, role users.Role) error {
	switch role {
	case users.RoleAthlete:
		_, err := s.repo.CreateAthlete(ctx, AthleteProfile{ID: ids.NewID(), UserID: userID})
		return err
	case users.RoleSponsor:
		_, err := s.repo.CreateSponsor(ctx, SponsorProfile{ID: ids.NewID(), UserID: userID})
		return err
	case users.RoleRegion:
		return nil
	}
	return users.ErrInvalidRole
}

// CreateRegionProfile creates the deferred region profile. The user must
// have the region role and must not already own a profile.
func (s *Service) CreateRegionProfile(ctx context.Context, userID string, params RegionCreateParams) (*RegionProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != users.RoleRegion {
		return nil, ErrRoleMismatch
	}
	if params.RegionName == "" {
		return nil, ValidationError{Field: "region_name", Message: "is required"}
	}

	if _, err := s.repo.GetRegionByUserID(ctx, userID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check region profile: %w", err)
	}

	return s.repo.CreateRegion(ctx, RegionProfile{
		ID:           ids.NewID(),
		UserID:       userID,
		RegionName:   sanitize.Text(params.RegionName),
		RegionCode:   sanitize.Text(params.RegionCode),
		Population:   params.Population,
		ContactPhone: sanitize.Text(params.ContactPhone),
		ContactEmail: sanitize.Text(params.ContactEmail),
	})
}

// UserProfile is the role-shaped envelope returned to clients. Profile is
// one of *AthleteProfile, *SponsorProfile or *RegionProfile, or nil when the
// role profile does not exist yet (a region user before CreateRegionProfile).
type UserProfile struct {
	UserID    string
	FullName  string
	Email     string
	Role      users.Role
	Profile   any
	CreatedAt time.Time
}

// GetUserProfile loads the profile envelope for a user, dispatching on the
// account role.
func (s *Service) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &UserProfile{
		UserID:    user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}

	switch user.Role {
	case users.RoleAthlete:
		profile, err := s.repo.GetAthleteByUserID(ctx, userID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if profile != nil {
			result.Profile = profile
		}
	case users.RoleSponsor:
		profile, err := s.repo.GetSponsorByUserID(ctx, userID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if profile != nil {
			result.Profile = profile
		}
	case users.RoleRegion:
		profile, err := s.repo.GetRegionByUserID(ctx, userID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if profile != nil {
			result.Profile = profile
		}
	}
	return result, nil
}

// UpdateAthleteProfile applies a partial patch to the caller's athlete
// profile. Callers with any other role are rejected.
func (s *Service) UpdateAthleteProfile(ctx context.Context, userID string, role users.Role, patch AthleteUpdate) (*AthleteProfile, error) {
	if role != users.RoleAthlete {
		return nil, ErrRoleMismatch
	}
	if patch.Bio != nil {
		clean := sanitize.RichText(*patch.Bio)
		patch.Bio = &clean
	}
	if patch.Specialization != nil {
		clean := sanitize.Text(*patch.Specialization)
		patch.Specialization = &clean
	}
	if patch.ExperienceYears != nil && *patch.ExperienceYears < 0 {
		return nil, ValidationError{Field: "experience_years", Message: "must not be negative"}
	}
	return s.repo.UpdateAthlete(ctx, userID, patch)
}

func (s *Service) UpdateSponsorProfile(ctx context.Context, userID string, role users.Role, patch SponsorUpdate) (*SponsorProfile, error) {
	if role != users.RoleSponsor {
		return nil, ErrRoleMismatch
	}
	if patch.OrganizationName != nil {
		clean := sanitize.Text(*patch.OrganizationName)
		patch.OrganizationName = &clean
	}
	if patch.Description != nil {
		clean := sanitize.RichText(*patch.Description)
		patch.Description = &clean
	}
	if patch.Website != nil {
		if err := validation.WebsiteURL(*patch.Website, "website"); err != nil {
			return nil, err
		}
	}
	return s.repo.UpdateSponsor(ctx, userID, patch)
}

func (s *Service) UpdateRegionProfile(ctx context.Context, userID string, role users.Role, patch RegionUpdate) (*RegionProfile, error) {
	if role != users.RoleRegion {
		return nil, ErrRoleMismatch
	}
	if patch.RegionName != nil {
		clean := sanitize.Text(*patch.RegionName)
		if clean == "" {
			return nil, ValidationError{Field: "region_name", Message: "must not be empty"}
		}
		patch.RegionName = &clean
	}
	return s.repo.UpdateRegion(ctx, userID, patch)
}

// Ratings returns the athlete leaderboard ordered by rating descending.
func (s *Service) Ratings(ctx context.Context, skip, limit int) ([]RatingEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}
	return s.repo.ListAthleteRatings(ctx, skip, limit)
}
