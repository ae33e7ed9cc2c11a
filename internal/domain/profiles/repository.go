package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrAlreadyExists = errors.New("profile already exists")
	ErrRoleMismatch  = errors.New("user role does not match profile type")
)

// ValidationError marks a rejected patch field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AthleteProfile carries competition history and self-description for
// athlete-role users. Rating, CompletedEvents and Wins are maintained by the
// platform, not by profile updates.
type AthleteProfile struct {
	ID              string
	UserID          string
	Rating          int
	CompletedEvents int
	Wins            int
	Bio             string
	Specialization  string
	ExperienceYears int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type SponsorProfile struct {
	ID                string
	UserID            string
	OrganizationName  string
	Description       string
	HostedEventsCount int
	ContactPhone      string
	ContactEmail      string
	Website           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type RegionProfile struct {
	ID                string
	UserID            string
	RegionName        string
	RegionCode        string
	Population        *int
	TeamMembers       int
	RegionEventsCount int
	ContactPhone      string
	ContactEmail      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Patch types use pointer fields: nil means "leave unchanged".

type AthleteUpdate struct {
	Bio             *string
	Specialization  *string
	ExperienceYears *int
}

type SponsorUpdate struct {
	OrganizationName *string
	Description      *string
	ContactPhone     *string
	ContactEmail     *string
	Website          *string
}

type RegionUpdate struct {
	RegionName   *string
	RegionCode   *string
	Population   *int
	ContactPhone *string
	ContactEmail *string
}

type RegionCreateParams struct {
	RegionName   string
	RegionCode   string
	Population   *int
	ContactPhone string
	ContactEmail string
}

// RatingEntry is one leaderboard row: an athlete profile joined with the
// owner's name.
type RatingEntry struct {
	UserID          string
	FullName        string
	Rating          int
	Wins            int
	CompletedEvents int
}

type Repository interface {
	CreateAthlete(ctx context.Context, profile AthleteProfile) (*AthleteProfile, error)
	CreateSponsor(ctx context.Context, profile SponsorProfile) (*SponsorProfile, error)
	CreateRegion(ctx context.Context, profile RegionProfile) (*RegionProfile, error)

	GetAthleteByUserID(ctx context.Context, userID string) (*AthleteProfile, error)
	GetSponsorByUserID(ctx context.Context, userID string) (*SponsorProfile, error)
	GetRegionByUserID(ctx context.Context, userID string) (*RegionProfile, error)

	UpdateAthlete(ctx context.Context, userID string, patch AthleteUpdate) (*AthleteProfile, error)
	UpdateSponsor(ctx context.Context, userID string, patch SponsorUpdate) (*SponsorProfile, error)
	UpdateRegion(ctx context.Context, userID string, patch RegionUpdate) (*RegionProfile, error)

	ListAthleteRatings(ctx context.Context, skip, limit int) ([]RatingEntry, error)
}
