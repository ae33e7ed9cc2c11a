package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fsp-platform/server/internal/api/middleware"
	"github.com/fsp-platform/server/internal/api/problem"
	"github.com/fsp-platform/server/internal/audit"
	"github.com/fsp-platform/server/internal/domain/events"
	"github.com/fsp-platform/server/internal/domain/ids"
	"github.com/fsp-platform/server/internal/metrics"
	"github.com/fsp-platform/server/internal/uploads"
)

const maxMultipartMemory = 10 << 20

type EventsHandler struct {
	Service *events.Service
	Assets  *uploads.Store
	Env     string
}

func NewEventsHandler(service *events.Service, assets *uploads.Store, env string) *EventsHandler {
	return &EventsHandler{Service: service, Assets: assets, Env: env}
}

// writeEventError maps domain errors to problem responses.
func (h *EventsHandler) writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
	case errors.Is(err, events.ErrNotOrganizer),
		errors.Is(err, events.ErrNotSponsor),
		errors.Is(err, events.ErrNotAthlete):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, h.Env)
	case errors.Is(err, events.ErrRegistrationClosed),
		errors.Is(err, events.ErrEventFull),
		errors.Is(err, events.ErrAlreadyRegistered),
		errors.Is(err, events.ErrNotRegistered),
		errors.Is(err, events.ErrEventFinished):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
	default:
		var filterErr events.FilterError
		if errors.As(err, &filterErr) {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}

// parseEventDate accepts ISO-8601 timestamps, with or without a zone suffix.
func parseEventDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", value)
}

// Create handles the multipart event creation form, storing the optional
// image before the database insert.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	date, err := parseEventDate(r.FormValue("date"))
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			events.FilterError{Field: "date", Message: err.Error()}, h.Env)
		return
	}

	params := events.CreateParams{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Date:        date,
		Location:    r.FormValue("location"),
		IsOnline:    r.FormValue("is_online") == "true",
		Tags:        splitTags(r.Form["tags"]),
	}

	if raw := r.FormValue("registration_deadline"); raw != "" {
		deadline, err := parseEventDate(raw)
		if err != nil {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
				events.FilterError{Field: "registration_deadline", Message: err.Error()}, h.Env)
			return
		}
		params.RegistrationDeadline = &deadline
	}

	if raw := r.FormValue("max_participants"); raw != "" {
		max, err := strconv.Atoi(raw)
		if err != nil {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
				events.FilterError{Field: "max_participants", Message: "must be an integer"}, h.Env)
			return
		}
		params.MaxParticipants = max
	}

	if raw := r.FormValue("event_type"); raw != "" {
		eventType, ok := events.ParseType(raw)
		if !ok {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
				events.FilterError{Field: "event_type", Message: "unknown event type"}, h.Env)
			return
		}
		params.Type = eventType
	}

	if raw := r.FormValue("difficulty_level"); raw != "" {
		difficulty, ok := events.ParseDifficulty(raw)
		if !ok {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
				events.FilterError{Field: "difficulty_level", Message: "unknown difficulty"}, h.Env)
			return
		}
		params.Difficulty = difficulty
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		name, saveErr := h.Assets.Save(file, header.Filename)
		if saveErr != nil {
			if errors.Is(saveErr, uploads.ErrUnsupportedType) || errors.Is(saveErr, uploads.ErrTooLarge) {
				problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", saveErr, h.Env)
				return
			}
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", saveErr, h.Env)
			return
		}
		params.ImageFilename = name
		params.ImageURL = "/api/uploads/events/" + name
	}

	event, err := h.Service.Create(r.Context(), caller.ID, params)
	if err != nil {
		// The insert failed, so the stored image is orphaned.
		if params.ImageFilename != "" {
			_ = h.Assets.Remove(params.ImageFilename)
		}
		h.writeEventError(w, r, err)
		return
	}

	metrics.EventsCreatedTotal.Inc()
	audit.Record(r, audit.ActionEventCreate, caller.ID, event.ID)
	writeJSON(w, http.StatusCreated, toEventPayload(*event))
}

func splitTags(values []string) []string {
	var tags []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tags = append(tags, part)
			}
		}
	}
	return tags
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, page, err := events.ParseListQuery(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	items, err := h.Service.List(r.Context(), filters, page)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	payload := make([]eventPayload, 0, len(items))
	for _, event := range items {
		payload = append(payload, toEventPayload(event))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *EventsHandler) My(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	_, page, err := events.ParseListQuery(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	items, err := h.Service.ListMine(r.Context(), caller, page)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	payload := make([]eventPayload, 0, len(items))
	for _, event := range items {
		payload = append(payload, toEventPayload(event))
	}
	writeJSON(w, http.StatusOK, payload)
}

type statsPayload struct {
	TotalEvents    int               `json:"total_events"`
	ActiveEvents   int               `json:"active_events"`
	UpcomingEvents int               `json:"upcoming_events"`
	PopularTags    []tagCountPayload `json:"popular_tags"`
	RecentEvents   []eventPayload    `json:"recent_events"`
}

type tagCountPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (h *EventsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	payload := statsPayload{
		TotalEvents:    stats.TotalEvents,
		ActiveEvents:   stats.ActiveEvents,
		UpcomingEvents: stats.UpcomingEvents,
		PopularTags:    make([]tagCountPayload, 0, len(stats.PopularTags)),
		RecentEvents:   make([]eventPayload, 0, len(stats.RecentEvents)),
	}
	for _, tag := range stats.PopularTags {
		payload.PopularTags = append(payload.PopularTags, tagCountPayload{Name: tag.Name, Count: tag.Count})
	}
	for _, event := range stats.RecentEvents {
		payload.RecentEvents = append(payload.RecentEvents, toEventPayload(event))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if err := ids.ValidateID(eventID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			events.FilterError{Field: "id", Message: "invalid event id"}, h.Env)
		return
	}

	detail, err := h.Service.Get(r.Context(), eventID)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDetailPayload(detail))
}

type updateEventRequest struct {
	Name                 *string         `json:"name"`
	Description          *string         `json:"description"`
	Date                 *string         `json:"date"`
	RegistrationDeadline json.RawMessage `json:"registration_deadline"`
	Location             *string         `json:"location"`
	IsOnline             *bool           `json:"is_online"`
	MaxParticipants      *int            `json:"max_participants"`
	Status               *string         `json:"status"`
	EventType            *string         `json:"event_type"`
	DifficultyLevel      *string         `json:"difficulty_level"`
	Tags                 *[]string       `json:"tags"`
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	eventID := r.PathValue("id")
	if err := ids.ValidateID(eventID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			events.FilterError{Field: "id", Message: "invalid event id"}, h.Env)
		return
	}

	var input updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	params := events.UpdateParams{
		Name:            input.Name,
		Description:     input.Description,
		Location:        input.Location,
		IsOnline:        input.IsOnline,
		MaxParticipants: input.MaxParticipants,
		Tags:            input.Tags,
	}

	if input.Date != nil {
		date, err := parseEventDate(*input.Date)
		if err != nil {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
				events.FilterError{Field: "date", Message: err.Error()}, h.Env)
			return
		}
		params.Date = &date
	}

	// An explicit null clears the deadline; an absent field leaves it alone.
	if len(input.RegistrationDeadline) > 0 {
		if string(input.RegistrationDeadline) == "null" {
			params.ClearDeadline = true
		} else {
			var raw string
			if err := json.Unmarshal(input.RegistrationDeadline, &raw); err != nil {
				problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
					events.FilterError{Field: "registration_deadline", Message: "must be a timestamp or null"}, h.Env)
				return
			}
			deadline, err := parseEventDate(raw)
			if err != nil {
				problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
					events.FilterError{Field: "registration_deadline", Message: err.Error()}, h.Env)
				return
			}
			params.RegistrationDeadline = &deadline
		}
	}

	if input.Status != nil {
		status, ok := events.ParseStatus(*input.Status)
		if !ok {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
				events.FilterError{Field: "status", Message: "unknown status"}, h.Env)
			return
		}
		params.Status = &status
	}
	if input.EventType != nil {
		eventType, ok := events.ParseType(*input.EventType)
		if !ok {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
				events.FilterError{Field: "event_type", Message: "unknown event type"}, h.Env)
			return
		}
		params.Type = &eventType
	}
	if input.DifficultyLevel != nil {
		difficulty, ok := events.ParseDifficulty(*input.DifficultyLevel)
		if !ok {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
				events.FilterError{Field: "difficulty_level", Message: "unknown difficulty"}, h.Env)
			return
		}
		params.Difficulty = &difficulty
	}

	event, err := h.Service.Update(r.Context(), eventID, caller.ID, params)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	audit.Record(r, audit.ActionEventUpdate, caller.ID, eventID)
	writeJSON(w, http.StatusOK, toEventPayload(*event))
}

type deleteResponse struct {
	Success bool   `json:"success"`
	EventID string `json:"event_id"`
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	eventID := r.PathValue("id")
	if err := ids.ValidateID(eventID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			events.FilterError{Field: "id", Message: "invalid event id"}, h.Env)
		return
	}

	if err := h.Service.Delete(r.Context(), eventID, caller.ID); err != nil {
		h.writeEventError(w, r, err)
		return
	}
	audit.Record(r, audit.ActionEventDelete, caller.ID, eventID)
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, EventID: eventID})
}

type actionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	eventID := r.PathValue("id")
	if err := ids.ValidateID(eventID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			events.FilterError{Field: "id", Message: "invalid event id"}, h.Env)
		return
	}

	if err := h.Service.Register(r.Context(), eventID, caller.ID); err != nil {
		switch {
		case errors.Is(err, events.ErrEventFull):
			metrics.EventRegistrationsTotal.WithLabelValues("full").Inc()
		case errors.Is(err, events.ErrRegistrationClosed):
			metrics.EventRegistrationsTotal.WithLabelValues("closed").Inc()
		case errors.Is(err, events.ErrAlreadyRegistered):
			metrics.EventRegistrationsTotal.WithLabelValues("duplicate").Inc()
		}
		h.writeEventError(w, r, err)
		return
	}

	metrics.EventRegistrationsTotal.WithLabelValues("ok").Inc()
	audit.Record(r, audit.ActionEventRegister, caller.ID, eventID)
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "registered for event"})
}

func (h *EventsHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	eventID := r.PathValue("id")
	if err := ids.ValidateID(eventID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			events.FilterError{Field: "id", Message: "invalid event id"}, h.Env)
		return
	}

	if err := h.Service.Unregister(r.Context(), eventID, caller.ID); err != nil {
		h.writeEventError(w, r, err)
		return
	}
	audit.Record(r, audit.ActionEventUnregister, caller.ID, eventID)
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "unregistered from event"})
}

type participantPayload struct {
	ID           string     `json:"id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email,omitempty"`
	Role         string     `json:"role,omitempty"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

// Participants lists registered users. The organizer sees contact fields;
// everyone else gets id and name only.
func (h *EventsHandler) Participants(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	eventID := r.PathValue("id")
	if err := ids.ValidateID(eventID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			events.FilterError{Field: "id", Message: "invalid event id"}, h.Env)
		return
	}

	page, err := events.ParseParticipantsQuery(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	participants, isOrganizer, err := h.Service.Participants(r.Context(), eventID, caller.ID, page)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	payload := make([]participantPayload, 0, len(participants))
	for _, p := range participants {
		item := participantPayload{ID: p.ID, FullName: p.FullName}
		if isOrganizer {
			registeredAt := p.RegisteredAt
			item.Email = p.Email
			item.Role = string(p.Role)
			item.RegisteredAt = &registeredAt
		}
		payload = append(payload, item)
	}
	writeJSON(w, http.StatusOK, payload)
}
