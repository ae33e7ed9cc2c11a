package events

import (
	"context"
	"errors"
	"time"

	"github.com/fsp-platform/server/internal/domain/users"
)

var (
	ErrNotFound     = errors.New("event not found")
	ErrNotOrganizer = errors.New("caller is not the event organizer")
	ErrNotSponsor   = errors.New("only sponsors can create events")
	ErrNotAthlete   = errors.New("only athletes can register for events")

	ErrRegistrationClosed = errors.New("event registration is closed")
	ErrEventFull          = errors.New("event is full")
	ErrAlreadyRegistered  = errors.New("already registered for this event")
	ErrNotRegistered      = errors.New("not registered for this event")
	ErrEventFinished      = errors.New("cannot unregister from a finished event")
)

type Status string

const (
	StatusDraft        Status = "draft"
	StatusRegistration Status = "registration"
	StatusActive       Status = "active"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
)

func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusDraft, StatusRegistration, StatusActive, StatusCompleted, StatusCancelled:
		return Status(value), true
	}
	return "", false
}

type Type string

const (
	TypeHackathon   Type = "hackathon"
	TypeCompetition Type = "competition"
	TypeWorkshop    Type = "workshop"
	TypeMeetup      Type = "meetup"
	TypeConference  Type = "conference"
	TypeOther       Type = "other"
)

func ParseType(value string) (Type, bool) {
	switch Type(value) {
	case TypeHackathon, TypeCompetition, TypeWorkshop, TypeMeetup, TypeConference, TypeOther:
		return Type(value), true
	}
	return "", false
}

type Difficulty string

const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyMedium   Difficulty = "medium"
	DifficultyAdvanced Difficulty = "advanced"
	DifficultyExpert   Difficulty = "expert"
)

func ParseDifficulty(value string) (Difficulty, bool) {
	switch Difficulty(value) {
	case DifficultyBeginner, DifficultyMedium, DifficultyAdvanced, DifficultyExpert:
		return Difficulty(value), true
	}
	return "", false
}

type Event struct {
	ID                   string
	Name                 string
	Description          string
	Date                 time.Time
	RegistrationDeadline *time.Time
	Location             string
	IsOnline             bool
	MaxParticipants      int
	CurrentParticipants  int
	Status               Status
	Type                 Type
	Difficulty           Difficulty
	OrganizerID          string
	ImageFilename        string
	ImageURL             string
	Tags                 []Tag
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Tag struct {
	ID   string
	Name string
}

type TagCount struct {
	Name  string
	Count int
}

// OrganizerSummary is the public slice of organizer data attached to event
// detail responses. OrganizationName is filled from the sponsor profile when
// one exists.
type OrganizerSummary struct {
	ID               string
	FullName         string
	Email            string
	OrganizationName string
}

type EventDetail struct {
	Event
	Organizer *OrganizerSummary
}

type Participant struct {
	ID           string
	FullName     string
	Email        string
	Role         users.Role
	RegisteredAt time.Time
}

type CreateRecord struct {
	ID                   string
	Name                 string
	Description          string
	Date                 time.Time
	RegistrationDeadline *time.Time
	Location             string
	IsOnline             bool
	MaxParticipants      int
	Status               Status
	Type                 Type
	Difficulty           Difficulty
	OrganizerID          string
	ImageFilename        string
	ImageURL             string
}

// UpdateRecord is a partial patch: nil fields are left unchanged.
type UpdateRecord struct {
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
}

type Filters struct {
	Status      Status
	Type        Type
	Difficulty  Difficulty
	OrganizerID string
	Search      string
}

type Page struct {
	Skip  int
	Limit int
}

type Stats struct {
	TotalEvents    int
	ActiveEvents   int
	UpcomingEvents int
	PopularTags    []TagCount
	RecentEvents   []Event
}

type Repository interface {
	Create(ctx context.Context, record CreateRecord) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	GetDetail(ctx context.Context, id string) (*EventDetail, error)
	Update(ctx context.Context, id string, patch UpdateRecord) (*Event, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters Filters, page Page) ([]Event, error)
	ListRegisteredByUser(ctx context.Context, userID string, page Page) ([]Event, error)

	// ReplaceTags swaps the event's tag set, creating unseen tag names
	// case-insensitively, and returns the resulting tags.
	ReplaceTags(ctx context.Context, eventID string, names []string) ([]Tag, error)

	AddParticipant(ctx context.Context, eventID, userID string) error
	RemoveParticipant(ctx context.Context, eventID, userID string) error
	HasParticipant(ctx context.Context, eventID, userID string) (bool, error)
	ListParticipants(ctx context.Context, eventID string, page Page) ([]Participant, error)

	// IncrementParticipants is the atomicity point of the registration
	// workflow: a single conditional update that only succeeds while the
	// event is open and below capacity. Returns false when the guard fails.
	IncrementParticipants(ctx context.Context, eventID string) (bool, error)
	// DecrementParticipants lowers the counter, flooring at zero.
	DecrementParticipants(ctx context.Context, eventID string) error

	IncrementHostedEvents(ctx context.Context, organizerID string) error
	// DecrementHostedEvents lowers the sponsor's counter, flooring at zero.
	DecrementHostedEvents(ctx context.Context, organizerID string) error

	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
	CountUpcoming(ctx context.Context, now time.Time) (int, error)
	TopTags(ctx context.Context, limit int) ([]TagCount, error)
	Recent(ctx context.Context, limit int) ([]Event, error)

	// WithTx runs fn against a transaction-scoped view of the repository.
	// Returning an error rolls everything back.
	WithTx(ctx context.Context, fn func(Repository) error) error
}
