package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsp-platform/server/internal/domain/profiles"
	"github.com/jackc/pgx/v5"
)

var _ profiles.Repository = (*ProfileRepository)(nil)

const athleteColumns = `id, user_id, rating, completed_events, wins,
       COALESCE(bio, ''), COALESCE(specialization, ''), experience_years, created_at, updated_at`

func scanAthlete(row pgx.Row) (*profiles.AthleteProfile, error) {
	var p profiles.AthleteProfile
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Rating,
		&p.CompletedEvents,
		&p.Wins,
		&p.Bio,
		&p.Specialization,
		&p.ExperienceYears,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) CreateAthlete(ctx context.Context, profile profiles.AthleteProfile) (*profiles.AthleteProfile, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO athlete_profiles (id, user_id, bio, specialization, experience_years)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+athleteColumns,
		profile.ID,
		profile.UserID,
		nilIfEmpty(profile.Bio),
		nilIfEmpty(profile.Specialization),
		profile.ExperienceYears,
	)

	created, err := scanAthlete(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, profiles.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create athlete profile: %w", err)
	}
	return created, nil
}

func (r *ProfileRepository) GetAthleteByUserID(ctx context.Context, userID string) (*profiles.AthleteProfile, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+athleteColumns+` FROM athlete_profiles WHERE user_id = $1`, userID)

	profile, err := scanAthlete(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profiles.ErrNotFound
		}
		return nil, fmt.Errorf("get athlete profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) UpdateAthlete(ctx context.Context, userID string, patch profiles.AthleteUpdate) (*profiles.AthleteProfile, error) {
	row := r.queryer().QueryRow(ctx, `
UPDATE athlete_profiles
   SET bio              = COALESCE($2, bio),
       specialization   = COALESCE($3, specialization),
       experience_years = COALESCE($4, experience_years),
       updated_at       = now()
 WHERE user_id = $1
RETURNING `+athleteColumns,
		userID,
		patch.Bio,
		patch.Specialization,
		patch.ExperienceYears,
	)

	profile, err := scanAthlete(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profiles.ErrNotFound
		}
		return nil, fmt.Errorf("update athlete profile: %w", err)
	}
	return profile, nil
}

const sponsorColumns = `id, user_id, COALESCE(organization_name, ''), COALESCE(description, ''),
       hosted_events_count, COALESCE(contact_phone, ''), COALESCE(contact_email, ''),
       COALESCE(website, ''), created_at, updated_at`

func scanSponsor(row pgx.Row) (*profiles.SponsorProfile, error) {
	var p profiles.SponsorProfile
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.OrganizationName,
		&p.Description,
		&p.HostedEventsCount,
		&p.ContactPhone,
		&p.ContactEmail,
		&p.Website,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) CreateSponsor(ctx context.Context, profile profiles.SponsorProfile) (*profiles.SponsorProfile, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO sponsor_profiles (id, user_id, organization_name, description, contact_phone, contact_email, website)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+sponsorColumns,
		profile.ID,
		profile.UserID,
		nilIfEmpty(profile.OrganizationName),
		nilIfEmpty(profile.Description),
		nilIfEmpty(profile.ContactPhone),
		nilIfEmpty(profile.ContactEmail),
		nilIfEmpty(profile.Website),
	)

	created, err := scanSponsor(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, profiles.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create sponsor profile: %w", err)
	}
	return created, nil
}

func (r *ProfileRepository) GetSponsorByUserID(ctx context.Context, userID string) (*profiles.SponsorProfile, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+sponsorColumns+` FROM sponsor_profiles WHERE user_id = $1`, userID)

	profile, err := scanSponsor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profiles.ErrNotFound
		}
		return nil, fmt.Errorf("get sponsor profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) UpdateSponsor(ctx context.Context, userID string, patch profiles.SponsorUpdate) (*profiles.SponsorProfile, error) {
	row := r.queryer().QueryRow(ctx, `
UPDATE sponsor_profiles
   SET organization_name = COALESCE($2, organization_name),
       description       = COALESCE($3, description),
       contact_phone     = COALESCE($4, contact_phone),
       contact_email     = COALESCE($5, contact_email),
       website           = COALESCE($6, website),
       updated_at        = now()
 WHERE user_id = $1
RETURNING `+sponsorColumns,
		userID,
		patch.OrganizationName,
		patch.Description,
		patch.ContactPhone,
		patch.ContactEmail,
		patch.Website,
	)

	profile, err := scanSponsor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profiles.ErrNotFound
		}
		return nil, fmt.Errorf("update sponsor profile: %w", err)
	}
	return profile, nil
}

const regionColumns = `id, user_id, region_name, COALESCE(region_code, ''), population,
       team_members, region_events_count, COALESCE(contact_phone, ''), COALESCE(contact_email, ''),
       created_at, updated_at`

func scanRegion(row pgx.Row) (*profiles.RegionProfile, error) {
	var p profiles.RegionProfile
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.RegionName,
		&p.RegionCode,
		&p.Population,
		&p.TeamMembers,
		&p.RegionEventsCount,
		&p.ContactPhone,
		&p.ContactEmail,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) CreateRegion(ctx context.Context, profile profiles.RegionProfile) (*profiles.RegionProfile, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO region_profiles (id, user_id, region_name, region_code, population, contact_phone, contact_email)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+regionColumns,
		profile.ID,
		profile.UserID,
		profile.RegionName,
		nilIfEmpty(profile.RegionCode),
		profile.Population,
		nilIfEmpty(profile.ContactPhone),
		nilIfEmpty(profile.ContactEmail),
	)

	created, err := scanRegion(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, profiles.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create region profile: %w", err)
	}
	return created, nil
}

func (r *ProfileRepository) GetRegionByUserID(ctx context.Context, userID string) (*profiles.RegionProfile, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+regionColumns+` FROM region_profiles WHERE user_id = $1`, userID)

	profile, err := scanRegion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profiles.ErrNotFound
		}
		return nil, fmt.Errorf("get region profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) UpdateRegion(ctx context.Context, userID string, patch profiles.RegionUpdate) (*profiles.RegionProfile, error) {
	row := r.queryer().QueryRow(ctx, `
UPDATE region_profiles
   SET region_name   = COALESCE($2, region_name),
       region_code   = COALESCE($3, region_code),
       population    = COALESCE($4, population),
       contact_phone = COALESCE($5, contact_phone),
       contact_email = COALESCE($6, contact_email),
       updated_at    = now()
 WHERE user_id = $1
RETURNING `+regionColumns,
		userID,
		patch.RegionName,
		patch.RegionCode,
		patch.Population,
		patch.ContactPhone,
		patch.ContactEmail,
	)

	profile, err := scanRegion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profiles.ErrNotFound
		}
		return nil, fmt.Errorf("update region profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) ListAthleteRatings(ctx context.Context, skip, limit int) ([]profiles.RatingEntry, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT p.user_id, u.full_name, p.rating, p.wins, p.completed_events
  FROM athlete_profiles p
  JOIN users u ON u.id = p.user_id
 WHERE u.is_active
 ORDER BY p.rating DESC, u.full_name ASC
OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list athlete ratings: %w", err)
	}
	defer rows.Close()

	entries := make([]profiles.RatingEntry, 0, limit)
	for rows.Next() {
		var entry profiles.RatingEntry
		if err := rows.Scan(&entry.UserID, &entry.FullName, &entry.Rating, &entry.Wins, &entry.CompletedEvents); err != nil {
			return nil, fmt.Errorf("scan rating entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return entries, nil
}
