package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fsp-platform/server/internal/api/middleware"
	"github.com/fsp-platform/server/internal/api/problem"
	"github.com/fsp-platform/server/internal/domain/ids"
	"github.com/fsp-platform/server/internal/domain/profiles"
	"github.com/fsp-platform/server/internal/domain/users"
	"github.com/fsp-platform/server/internal/validation"
)

type ProfilesHandler struct {
	Service *profiles.Service
	Env     string
}

func NewProfilesHandler(service *profiles.Service, env string) *ProfilesHandler {
	return &ProfilesHandler{Service: service, Env: env}
}

func (h *ProfilesHandler) writeProfileError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, profiles.ErrNotFound), errors.Is(err, users.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Profile not found", err, h.Env)
	case errors.Is(err, profiles.ErrRoleMismatch):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, h.Env)
	case errors.Is(err, profiles.ErrAlreadyExists):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Profile already exists", err, h.Env)
	default:
		var urlErr validation.URLError
		var validationErr profiles.ValidationError
		if errors.As(err, &urlErr) || errors.As(err, &validationErr) {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}

type athleteProfilePayload struct {
	Rating          int    `json:"rating"`
	CompletedEvents int    `json:"completed_events"`
	Wins            int    `json:"wins"`
	Bio             string `json:"bio,omitempty"`
	Specialization  string `json:"specialization,omitempty"`
	ExperienceYears int    `json:"experience_years"`
}

type sponsorProfilePayload struct {
	OrganizationName  string `json:"organization_name,omitempty"`
	Description       string `json:"description,omitempty"`
	HostedEventsCount int    `json:"hosted_events_count"`
	ContactPhone      string `json:"contact_phone,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`
	Website           string `json:"website,omitempty"`
}

type regionProfilePayload struct {
	RegionName        string `json:"region_name"`
	RegionCode        string `json:"region_code,omitempty"`
	Population        *int   `json:"population,omitempty"`
	TeamMembers       int    `json:"team_members"`
	RegionEventsCount int    `json:"region_events_count"`
	ContactPhone      string `json:"contact_phone,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`
}

type profileEnvelope struct {
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	ProfileData any       `json:"profile_data"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAthletePayload(p *profiles.AthleteProfile) athleteProfilePayload {
	return athleteProfilePayload{
		Rating:          p.Rating,
		CompletedEvents: p.CompletedEvents,
		Wins:            p.Wins,
		Bio:             p.Bio,
		Specialization:  p.Specialization,
		ExperienceYears: p.ExperienceYears,
	}
}

func toSponsorPayload(p *profiles.SponsorProfile) sponsorProfilePayload {
	return sponsorProfilePayload{
		OrganizationName:  p.OrganizationName,
		Description:       p.Description,
		HostedEventsCount: p.HostedEventsCount,
		ContactPhone:      p.ContactPhone,
		ContactEmail:      p.ContactEmail,
		Website:           p.Website,
	}
}

func toRegionPayload(p *profiles.RegionProfile) regionProfilePayload {
	return regionProfilePayload{
		RegionName:        p.RegionName,
		RegionCode:        p.RegionCode,
		Population:        p.Population,
		TeamMembers:       p.TeamMembers,
		RegionEventsCount: p.RegionEventsCount,
		ContactPhone:      p.ContactPhone,
		ContactEmail:      p.ContactEmail,
	}
}

func toEnvelope(profile *profiles.UserProfile) profileEnvelope {
	envelope := profileEnvelope{
		UserID:    profile.UserID,
		FullName:  profile.FullName,
		Email:     profile.Email,
		Role:      string(profile.Role),
		CreatedAt: profile.CreatedAt,
	}
	switch data := profile.Profile.(type) {
	case *profiles.AthleteProfile:
		envelope.ProfileData = toAthletePayload(data)
	case *profiles.SponsorProfile:
		envelope.ProfileData = toSponsorPayload(data)
	case *profiles.RegionProfile:
		envelope.ProfileData = toRegionPayload(data)
	}
	return envelope
}

// Me returns the caller's role-shaped profile envelope.
func (h *ProfilesHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	profile, err := h.Service.GetUserProfile(r.Context(), caller.ID)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnvelope(profile))
}

// Get returns the profile envelope for any user id.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if err := ids.ValidateID(userID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			users.ValidationError{Field: "user_id", Message: "invalid user id"}, h.Env)
		return
	}

	profile, err := h.Service.GetUserProfile(r.Context(), userID)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnvelope(profile))
}

type athleteUpdateRequest struct {
	Bio             *string `json:"bio"`
	Specialization  *string `json:"specialization"`
	ExperienceYears *int    `json:"experience_years"`
}

func (h *ProfilesHandler) UpdateAthlete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	var input athleteUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	profile, err := h.Service.UpdateAthleteProfile(r.Context(), caller.ID, caller.Role, profiles.AthleteUpdate{
		Bio:             input.Bio,
		Specialization:  input.Specialization,
		ExperienceYears: input.ExperienceYears,
	})
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAthletePayload(profile))
}

type sponsorUpdateRequest struct {
	OrganizationName *string `json:"organization_name"`
	Description      *string `json:"description"`
	ContactPhone     *string `json:"contact_phone"`
	ContactEmail     *string `json:"contact_email"`
	Website          *string `json:"website"`
}

func (h *ProfilesHandler) UpdateSponsor(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	var input sponsorUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	profile, err := h.Service.UpdateSponsorProfile(r.Context(), caller.ID, caller.Role, profiles.SponsorUpdate{
		OrganizationName: input.OrganizationName,
		Description:      input.Description,
		ContactPhone:     input.ContactPhone,
		ContactEmail:     input.ContactEmail,
		Website:          input.Website,
	})
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSponsorPayload(profile))
}

type regionUpdateRequest struct {
	RegionName   *string `json:"region_name"`
	RegionCode   *string `json:"region_code"`
	Population   *int    `json:"population"`
	ContactPhone *string `json:"contact_phone"`
	ContactEmail *string `json:"contact_email"`
}

func (h *ProfilesHandler) UpdateRegion(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	var input regionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	profile, err := h.Service.UpdateRegionProfile(r.Context(), caller.ID, caller.Role, profiles.RegionUpdate{
		RegionName:   input.RegionName,
		RegionCode:   input.RegionCode,
		Population:   input.Population,
		ContactPhone: input.ContactPhone,
		ContactEmail: input.ContactEmail,
	})
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegionPayload(profile))
}

type regionCreateRequest struct {
	RegionName   string `json:"region_name"`
	RegionCode   string `json:"region_code"`
	Population   *int   `json:"population"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
}

// CreateRegion creates the deferred region profile. Unlike the update
// endpoints, a role mismatch here is a 400: the request itself is malformed
// for a non-region account.
func (h *ProfilesHandler) CreateRegion(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	var input regionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	if input.RegionName == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			users.ValidationError{Field: "region_name", Message: "is required"}, h.Env)
		return
	}

	profile, err := h.Service.CreateRegionProfile(r.Context(), caller.ID, profiles.RegionCreateParams{
		RegionName:   input.RegionName,
		RegionCode:   input.RegionCode,
		Population:   input.Population,
		ContactPhone: input.ContactPhone,
		ContactEmail: input.ContactEmail,
	})
	if err != nil {
		if errors.Is(err, profiles.ErrRoleMismatch) {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
			return
		}
		h.writeProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRegionPayload(profile))
}

type ratingEntryPayload struct {
	UserID          string `json:"user_id"`
	FullName        string `json:"full_name"`
	Rating          int    `json:"rating"`
	Wins            int    `json:"wins"`
	CompletedEvents int    `json:"completed_events"`
}

// Ratings is the athlete leaderboard, ordered by rating.
func (h *ProfilesHandler) Ratings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip, _ := strconv.Atoi(query.Get("skip"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	entries, err := h.Service.Ratings(r.Context(), skip, limit)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}

	payload := make([]ratingEntryPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, ratingEntryPayload{
			UserID:          entry.UserID,
			FullName:        entry.FullName,
			Rating:          entry.Rating,
			Wins:            entry.Wins,
			CompletedEvents: entry.CompletedEvents,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}
