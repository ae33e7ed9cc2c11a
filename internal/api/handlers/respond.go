// Package handlers implements the HTTP handlers for the federation API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fsp-platform/server/internal/domain/events"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type tagPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type eventPayload struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Description          string       `json:"description,omitempty"`
	Date                 time.Time    `json:"date"`
	RegistrationDeadline *time.Time   `json:"registration_deadline,omitempty"`
	Location             string       `json:"location,omitempty"`
	IsOnline             bool         `json:"is_online"`
	MaxParticipants      int          `json:"max_participants"`
	CurrentParticipants  int          `json:"current_participants"`
	Status               string       `json:"status"`
	EventType            string       `json:"event_type"`
	DifficultyLevel      string       `json:"difficulty_level"`
	OrganizerID          string       `json:"organizer_id"`
	ImageURL             string       `json:"image_url,omitempty"`
	Tags                 []tagPayload `json:"tags"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

type organizerPayload struct {
	ID               string `json:"id"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	OrganizationName string `json:"organization_name,omitempty"`
}

type eventDetailPayload struct {
	eventPayload
	Organizer *organizerPayload `json:"organizer,omitempty"`
}

func toEventPayload(event events.Event) eventPayload {
	tags := make([]tagPayload, 0, len(event.Tags))
	for _, tag := range event.Tags {
		tags = append(tags, tagPayload{ID: tag.ID, Name: tag.Name})
	}
	return eventPayload{
		ID:                   event.ID,
		Name:                 event.Name,
		Description:          event.Description,
		Date:                 event.Date,
		RegistrationDeadline: event.RegistrationDeadline,
		Location:             event.Location,
		IsOnline:             event.IsOnline,
		MaxParticipants:      event.MaxParticipants,
		CurrentParticipants:  event.CurrentParticipants,
		Status:               string(event.Status),
		EventType:            string(event.Type),
		DifficultyLevel:      string(event.Difficulty),
		OrganizerID:          event.OrganizerID,
		ImageURL:             event.ImageURL,
		Tags:                 tags,
		CreatedAt:            event.CreatedAt,
		UpdatedAt:            event.UpdatedAt,
	}
}

func toEventDetailPayload(detail *events.EventDetail) eventDetailPayload {
	payload := eventDetailPayload{eventPayload: toEventPayload(detail.Event)}
	if detail.Organizer != nil {
		payload.Organizer = &organizerPayload{
			ID:               detail.Organizer.ID,
			FullName:         detail.Organizer.FullName,
			Email:            detail.Organizer.Email,
			OrganizationName: detail.Organizer.OrganizationName,
		}
	}
	return payload
}
