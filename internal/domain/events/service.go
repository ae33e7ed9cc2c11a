// Package events implements the event lifecycle and the registration
// workflow, the closest thing this backend has to a core. Events move
// through an explicit state machine (draft → registration → active →
// completed, with cancelled reachable from registration or active); nothing
// moves an event automatically when its date passes, transitions are always
// caller-driven.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/fsp-platform/server/internal/domain/ids"
	"github.com/fsp-platform/server/internal/domain/users"
	"github.com/fsp-platform/server/internal/sanitize"
	"github.com/rs/zerolog"
)

// UserDirectory is the slice of the users repository the event service needs
// for role and existence checks. Satisfied by users.Repository.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// AssetRemover deletes stored event images. Removal is best-effort: failures
// are logged, never surfaced.
type AssetRemover interface {
	Remove(filename string) error
}

type Service struct {
	repo   Repository
	users  UserDirectory
	assets AssetRemover
	logger zerolog.Logger
}

func NewService(repo Repository, userDir UserDirectory, assets AssetRemover, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  userDir,
		assets: assets,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// allowedTransitions encodes the lifecycle state machine.
var allowedTransitions = map[Status][]Status{
	StatusDraft:        {StatusRegistration},
	StatusRegistration: {StatusActive, StatusCancelled},
	StatusActive:       {StatusCompleted, StatusCancelled},
}

func validTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type CreateParams struct {
	Name                 string
	Description          string
	Date                 time.Time
	RegistrationDeadline *time.Time
	Location             string
	IsOnline             bool
	MaxParticipants      int
	Type                 Type
	Difficulty           Difficulty
	Tags                 []string
	ImageFilename        string
	ImageURL             string
}

const (
	DefaultMaxParticipants = 100
	minNameLength          = 2
	maxNameLength          = 200
)

func validateName(name string) error {
	if len(name) < minNameLength || len(name) > maxNameLength {
		return FilterError{Field: "name", Message: fmt.Sprintf("must be between %d and %d characters", minNameLength, maxNameLength)}
	}
	return nil
}

func validateDeadline(deadline *time.Time, date time.Time) error {
	if deadline != nil && deadline.After(date) {
		return FilterError{Field: "registration_deadline", Message: "must not be after the event date"}
	}
	return nil
}

// Create creates a new event owned by a sponsor, in registration status,
// attaching tags and incrementing the organizer's hosted events counter in
// the same transaction.
func (s *Service) Create(ctx context.Context, organizerID string, params CreateParams) (*Event, error) {
	organizer, err := s.users.GetByID(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if organizer.Role != users.RoleSponsor {
		return nil, ErrNotSponsor
	}

	params.Name = sanitize.Text(params.Name)
	if err := validateName(params.Name); err != nil {
		return nil, err
	}
	if params.Date.IsZero() {
		return nil, FilterError{Field: "date", Message: "is required"}
	}
	if err := validateDeadline(params.RegistrationDeadline, params.Date); err != nil {
		return nil, err
	}
	if params.MaxParticipants == 0 {
		params.MaxParticipants = DefaultMaxParticipants
	}
	if params.MaxParticipants < 1 {
		return nil, FilterError{Field: "max_participants", Message: "must be at least 1"}
	}
	if params.Type == "" {
		params.Type = TypeCompetition
	} else if _, ok := ParseType(string(params.Type)); !ok {
		return nil, FilterError{Field: "event_type", Message: "unknown event type"}
	}
	if params.Difficulty == "" {
		params.Difficulty = DifficultyMedium
	} else if _, ok := ParseDifficulty(string(params.Difficulty)); !ok {
		return nil, FilterError{Field: "difficulty_level", Message: "unknown difficulty level"}
	}

	record := CreateRecord{
		ID:                   ids.NewID(),
		Name:                 params.Name,
		Description:          sanitize.RichText(params.Description),
		Date:                 params.Date,
		RegistrationDeadline: params.RegistrationDeadline,
		Location:             sanitize.Text(params.Location),
		IsOnline:             params.IsOnline,
		MaxParticipants:      params.MaxParticipants,
		Status:               StatusRegistration,
		Type:                 params.Type,
		Difficulty:           params.Difficulty,
		OrganizerID:          organizerID,
		ImageFilename:        params.ImageFilename,
		ImageURL:             params.ImageURL,
	}

	var created *Event
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		event, err := tx.Create(ctx, record)
		if err != nil {
			return err
		}
		if names := sanitize.TextSlice(params.Tags); len(names) > 0 {
			tags, err := tx.ReplaceTags(ctx, event.ID, names)
			if err != nil {
				return err
			}
			event.Tags = tags
		}
		if err := tx.IncrementHostedEvents(ctx, organizerID); err != nil {
			return err
		}
		created = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type UpdateParams struct {
	Name                 *string
	Description          *string
	Date                 *time.Time
	RegistrationDeadline *time.Time
	ClearDeadline        bool
	Location             *string
	IsOnline             *bool
	MaxParticipants      *int
	Status               *Status
	Type                 *Type
	Difficulty           *Difficulty
	Tags                 *[]string
}

// Update applies a partial patch to an event. Only the organizer may update;
// the deadline/date ordering is revalidated against the post-patch values,
// status changes must follow the state machine, and a tag list replaces the
// existing tags wholesale.
func (s *Service) Update(ctx context.Context, eventID, callerID string, params UpdateParams) (*Event, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != callerID {
		return nil, ErrNotOrganizer
	}

	if params.Name != nil {
		clean := sanitize.Text(*params.Name)
		if err := validateName(clean); err != nil {
			return nil, err
		}
		params.Name = &clean
	}
	if params.Description != nil {
		clean := sanitize.RichText(*params.Description)
		params.Description = &clean
	}
	if params.Location != nil {
		clean := sanitize.Text(*params.Location)
		params.Location = &clean
	}
	if params.MaxParticipants != nil && *params.MaxParticipants < 1 {
		return nil, FilterError{Field: "max_participants", Message: "must be at least 1"}
	}

	// Cross-field check against the values as they will be after the patch.
	effectiveDate := event.Date
	if params.Date != nil {
		effectiveDate = *params.Date
	}
	effectiveDeadline := event.RegistrationDeadline
	if params.ClearDeadline {
		effectiveDeadline = nil
	} else if params.RegistrationDeadline != nil {
		effectiveDeadline = params.RegistrationDeadline
	}
	if err := validateDeadline(effectiveDeadline, effectiveDate); err != nil {
		return nil, err
	}

	if params.Status != nil && *params.Status != event.Status {
		if _, ok := ParseStatus(string(*params.Status)); !ok {
			return nil, FilterError{Field: "status", Message: "unknown status"}
		}
		if !validTransition(event.Status, *params.Status) {
			return nil, FilterError{Field: "status", Message: fmt.Sprintf("cannot transition from %s to %s", event.Status, *params.Status)}
		}
	}
	if params.Type != nil {
		if _, ok := ParseType(string(*params.Type)); !ok {
			return nil, FilterError{Field: "event_type", Message: "unknown event type"}
		}
	}
	if params.Difficulty != nil {
		if _, ok := ParseDifficulty(string(*params.Difficulty)); !ok {
			return nil, FilterError{Field: "difficulty_level", Message: "unknown difficulty level"}
		}
	}

	record := UpdateRecord{
		Name:                 params.Name,
		Description:          params.Description,
		Date:                 params.Date,
		RegistrationDeadline: params.RegistrationDeadline,
		ClearDeadline:        params.ClearDeadline,
		Location:             params.Location,
		IsOnline:             params.IsOnline,
		MaxParticipants:      params.MaxParticipants,
		Status:               params.Status,
		Type:                 params.Type,
		Difficulty:           params.Difficulty,
	}

	var updated *Event
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		event, err := tx.Update(ctx, eventID, record)
		if err != nil {
			return err
		}
		if params.Tags != nil {
			tags, err := tx.ReplaceTags(ctx, eventID, sanitize.TextSlice(*params.Tags))
			if err != nil {
				return err
			}
			event.Tags = tags
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an event, its relations and its stored image, and lowers
// the organizer's hosted events counter. Image removal happens after the
// transaction commits and is best-effort.
func (s *Service) Delete(ctx context.Context, eventID, callerID string) error {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != callerID {
		return ErrNotOrganizer
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		if err := tx.DecrementHostedEvents(ctx, event.OrganizerID); err != nil {
			return err
		}
		return tx.Delete(ctx, eventID)
	})
	if err != nil {
		return err
	}

	if event.ImageFilename != "" && s.assets != nil {
		if err := s.assets.Remove(event.ImageFilename); err != nil {
			s.logger.Warn().Err(err).Str("event_id", eventID).Str("filename", event.ImageFilename).Msg("event image removal failed")
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, eventID string) (*EventDetail, error) {
	return s.repo.GetDetail(ctx, eventID)
}

func (s *Service) List(ctx context.Context, filters Filters, page Page) ([]Event, error) {
	return s.repo.List(ctx, filters, page)
}

// ListMine returns the caller's events: a sponsor sees events they organize,
// everyone else the events they are registered for, ordered by event date.
func (s *Service) ListMine(ctx context.Context, caller *users.User, page Page) ([]Event, error) {
	if caller.Role == users.RoleSponsor {
		return s.repo.List(ctx, Filters{OrganizerID: caller.ID}, page)
	}
	return s.repo.ListRegisteredByUser(ctx, caller.ID, page)
}

// Register signs an athlete up for an event. The duplicate insert and the
// conditional counter increment run in one transaction, so concurrent
// registrations cannot push current_participants past max_participants.
func (s *Service) Register(ctx context.Context, eventID, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != users.RoleAthlete {
		return ErrNotAthlete
	}

	return s.repo.WithTx(ctx, func(tx Repository) error {
		event, err := tx.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event.Status != StatusRegistration {
			return ErrRegistrationClosed
		}
		if event.CurrentParticipants >= event.MaxParticipants {
			return ErrEventFull
		}

		if err := tx.AddParticipant(ctx, eventID, userID); err != nil {
			return err
		}

		// The read above is advisory only. This conditional update is
		// what actually holds the capacity invariant under concurrency.
		ok, err := tx.IncrementParticipants(ctx, eventID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrEventFull
		}
		return nil
	})
}

// Unregister removes an athlete's participation and lowers the counter,
// flooring at zero. Finished events (completed or cancelled) are immutable.
func (s *Service) Unregister(ctx context.Context, eventID, userID string) error {
	return s.repo.WithTx(ctx, func(tx Repository) error {
		event, err := tx.GetByID(ctx, eventID)
		if err != nil {
			return err
		}

		registered, err := tx.HasParticipant(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if !registered {
			return ErrNotRegistered
		}
		if event.Status == StatusCompleted || event.Status == StatusCancelled {
			return ErrEventFinished
		}

		if err := tx.RemoveParticipant(ctx, eventID, userID); err != nil {
			return err
		}
		return tx.DecrementParticipants(ctx, eventID)
	})
}

// Participants lists an event's participants. Draft events are visible to
// the organizer only. The second return value tells the caller whether the
// requester is the organizer and may see contact fields.
func (s *Service) Participants(ctx context.Context, eventID, callerID string, page Page) ([]Participant, bool, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, false, err
	}

	isOrganizer := event.OrganizerID == callerID
	if event.Status == StatusDraft && !isOrganizer {
		return nil, false, ErrNotOrganizer
	}

	participants, err := s.repo.ListParticipants(ctx, eventID, page)
	if err != nil {
		return nil, false, err
	}
	return participants, isOrganizer, nil
}
