package events

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsp-platform/server/internal/domain/ids"
	"github.com/fsp-platform/server/internal/domain/users"
)

// MockRepository implements Repository for service tests. Transactions are
// serialized and snapshot-based so a failing fn really rolls back.
type MockRepository struct {
	mu   sync.Mutex
	txMu sync.Mutex

	events       map[string]*Event
	eventTags    map[string][]string            // eventID -> tag IDs
	tagIDs       map[string]string              // lower(name) -> tag ID
	tagNames     map[string]string              // tag ID -> first-seen casing
	participants map[string]map[string]time.Time // eventID -> userID -> registered at
	hostedEvents map[string]int
	organizers   map[string]*OrganizerSummary
	userInfo     map[string]*users.User

	clock time.Time

	shouldFailReplaceTags bool
	shouldFailCountAll    bool
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		events:       make(map[string]*Event),
		eventTags:    make(map[string][]string),
		tagIDs:       make(map[string]string),
		tagNames:     make(map[string]string),
		participants: make(map[string]map[string]time.Time),
		hostedEvents: make(map[string]int),
		organizers:   make(map[string]*OrganizerSummary),
		userInfo:     make(map[string]*users.User),
		clock:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *MockRepository) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func cloneEvent(e *Event) *Event {
	c := *e
	c.Tags = append([]Tag(nil), e.Tags...)
	if e.RegistrationDeadline != nil {
		d := *e.RegistrationDeadline
		c.RegistrationDeadline = &d
	}
	return &c
}

func (m *MockRepository) resolveTags(eventID string) []Tag {
	var tags []Tag
	for _, id := range m.eventTags[eventID] {
		tags = append(tags, Tag{ID: id, Name: m.tagNames[id]})
	}
	return tags
}

func (m *MockRepository) Create(ctx context.Context, record CreateRecord) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.tick()
	event := &Event{
		ID:                   record.ID,
		Name:                 record.Name,
		Description:          record.Description,
		Date:                 record.Date,
		RegistrationDeadline: record.RegistrationDeadline,
		Location:             record.Location,
		IsOnline:             record.IsOnline,
		MaxParticipants:      record.MaxParticipants,
		Status:               record.Status,
		Type:                 record.Type,
		Difficulty:           record.Difficulty,
		OrganizerID:          record.OrganizerID,
		ImageFilename:        record.ImageFilename,
		ImageURL:             record.ImageURL,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	m.events[event.ID] = event
	return cloneEvent(event), nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneEvent(event)
	out.Tags = m.resolveTags(id)
	return out, nil
}

func (m *MockRepository) GetDetail(ctx context.Context, id string) (*EventDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneEvent(event)
	out.Tags = m.resolveTags(id)
	return &EventDetail{Event: *out, Organizer: m.organizers[event.OrganizerID]}, nil
}

func (m *MockRepository) Update(ctx context.Context, id string, patch UpdateRecord) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		event.Name = *patch.Name
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Date != nil {
		event.Date = *patch.Date
	}
	if patch.ClearDeadline {
		event.RegistrationDeadline = nil
	} else if patch.RegistrationDeadline != nil {
		event.RegistrationDeadline = patch.RegistrationDeadline
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.IsOnline != nil {
		event.IsOnline = *patch.IsOnline
	}
	if patch.MaxParticipants != nil {
		event.MaxParticipants = *patch.MaxParticipants
	}
	if patch.Status != nil {
		event.Status = *patch.Status
	}
	if patch.Type != nil {
		event.Type = *patch.Type
	}
	if patch.Difficulty != nil {
		event.Difficulty = *patch.Difficulty
	}
	event.UpdatedAt = m.tick()

	out := cloneEvent(event)
	out.Tags = m.resolveTags(id)
	return out, nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	delete(m.eventTags, id)
	delete(m.participants, id)
	return nil
}

func (m *MockRepository) List(ctx context.Context, filters Filters, page Page) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Event
	for id, event := range m.events {
		if filters.Status != "" && event.Status != filters.Status {
			continue
		}
		if filters.Type != "" && event.Type != filters.Type {
			continue
		}
		if filters.Difficulty != "" && event.Difficulty != filters.Difficulty {
			continue
		}
		if filters.OrganizerID != "" && event.OrganizerID != filters.OrganizerID {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(event.Name), strings.ToLower(filters.Search)) {
			continue
		}
		out := cloneEvent(event)
		out.Tags = m.resolveTags(id)
		matched = append(matched, *out)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page), nil
}

func (m *MockRepository) ListRegisteredByUser(ctx context.Context, userID string, page Page) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Event
	for id, event := range m.events {
		if _, ok := m.participants[id][userID]; !ok {
			continue
		}
		out := cloneEvent(event)
		out.Tags = m.resolveTags(id)
		matched = append(matched, *out)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Date.Before(matched[j].Date)
	})
	return paginate(matched, page), nil
}

func paginate(events []Event, page Page) []Event {
	if page.Skip >= len(events) {
		return nil
	}
	events = events[page.Skip:]
	if page.Limit > 0 && page.Limit < len(events) {
		events = events[:page.Limit]
	}
	return events
}

func (m *MockRepository) ReplaceTags(ctx context.Context, eventID string, names []string) ([]Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFailReplaceTags {
		return nil, errMockFailure
	}

	m.eventTags[eventID] = nil
	seen := make(map[string]bool)
	var tags []Tag
	for _, name := range names {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		id, ok := m.tagIDs[key]
		if !ok {
			id = ids.NewID()
			m.tagIDs[key] = id
			m.tagNames[id] = name
		}
		m.eventTags[eventID] = append(m.eventTags[eventID], id)
		tags = append(tags, Tag{ID: id, Name: m.tagNames[id]})
	}
	return tags, nil
}

func (m *MockRepository) AddParticipant(ctx context.Context, eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.participants[eventID] == nil {
		m.participants[eventID] = make(map[string]time.Time)
	}
	if _, ok := m.participants[eventID][userID]; ok {
		return ErrAlreadyRegistered
	}
	m.participants[eventID][userID] = m.tick()
	return nil
}

func (m *MockRepository) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.participants[eventID], userID)
	return nil
}

func (m *MockRepository) HasParticipant(ctx context.Context, eventID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.participants[eventID][userID]
	return ok, nil
}

func (m *MockRepository) ListParticipants(ctx context.Context, eventID string, page Page) ([]Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Participant
	for userID, at := range m.participants[eventID] {
		p := Participant{ID: userID, RegisteredAt: at}
		if user, ok := m.userInfo[userID]; ok {
			p.FullName = user.FullName
			p.Email = user.Email
			p.Role = user.Role
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	if page.Skip >= len(out) {
		return nil, nil
	}
	out = out[page.Skip:]
	if page.Limit > 0 && page.Limit < len(out) {
		out = out[:page.Limit]
	}
	return out, nil
}

func (m *MockRepository) IncrementParticipants(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[eventID]
	if !ok {
		return false, nil
	}
	if event.Status != StatusRegistration || event.CurrentParticipants >= event.MaxParticipants {
		return false, nil
	}
	event.CurrentParticipants++
	event.UpdatedAt = m.tick()
	return true, nil
}

func (m *MockRepository) DecrementParticipants(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[eventID]
	if !ok {
		return ErrNotFound
	}
	if event.CurrentParticipants > 0 {
		event.CurrentParticipants--
	}
	event.UpdatedAt = m.tick()
	return nil
}

func (m *MockRepository) IncrementHostedEvents(ctx context.Context, organizerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hostedEvents[organizerID]++
	return nil
}

func (m *MockRepository) DecrementHostedEvents(ctx context.Context, organizerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hostedEvents[organizerID] > 0 {
		m.hostedEvents[organizerID]--
	}
	return nil
}

func (m *MockRepository) CountAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFailCountAll {
		return 0, errMockFailure
	}
	return len(m.events), nil
}

func (m *MockRepository) CountByStatus(ctx context.Context, status Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, event := range m.events {
		if event.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *MockRepository) CountUpcoming(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, event := range m.events {
		if event.Date.After(now) && (event.Status == StatusRegistration || event.Status == StatusActive) {
			count++
		}
	}
	return count, nil
}

func (m *MockRepository) TopTags(ctx context.Context, limit int) ([]TagCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int)
	for _, tagIDs := range m.eventTags {
		for _, id := range tagIDs {
			counts[m.tagNames[id]]++
		}
	}
	var out []TagCount
	for name, count := range counts {
		out = append(out, TagCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRepository) Recent(ctx context.Context, limit int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for id, event := range m.events {
		e := cloneEvent(event)
		e.Tags = m.resolveTags(id)
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// WithTx serializes transactions and restores a pre-fn snapshot on error, so
// partial writes made inside a failing fn do not leak out.
func (m *MockRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapshot := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type mockState struct {
	events       map[string]*Event
	eventTags    map[string][]string
	tagIDs       map[string]string
	tagNames     map[string]string
	participants map[string]map[string]time.Time
	hostedEvents map[string]int
}

func (m *MockRepository) snapshot() mockState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := mockState{
		events:       make(map[string]*Event, len(m.events)),
		eventTags:    make(map[string][]string, len(m.eventTags)),
		tagIDs:       make(map[string]string, len(m.tagIDs)),
		tagNames:     make(map[string]string, len(m.tagNames)),
		participants: make(map[string]map[string]time.Time, len(m.participants)),
		hostedEvents: make(map[string]int, len(m.hostedEvents)),
	}
	for id, event := range m.events {
		state.events[id] = cloneEvent(event)
	}
	for id, tagIDs := range m.eventTags {
		state.eventTags[id] = append([]string(nil), tagIDs...)
	}
	for k, v := range m.tagIDs {
		state.tagIDs[k] = v
	}
	for k, v := range m.tagNames {
		state.tagNames[k] = v
	}
	for id, byUser := range m.participants {
		inner := make(map[string]time.Time, len(byUser))
		for userID, at := range byUser {
			inner[userID] = at
		}
		state.participants[id] = inner
	}
	for k, v := range m.hostedEvents {
		state.hostedEvents[k] = v
	}
	return state
}

func (m *MockRepository) restore(state mockState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = state.events
	m.eventTags = state.eventTags
	m.tagIDs = state.tagIDs
	m.tagNames = state.tagNames
	m.participants = state.participants
	m.hostedEvents = state.hostedEvents
}

// mockUserDirectory satisfies UserDirectory from a fixed user set.
type mockUserDirectory struct {
	users map[string]*users.User
}

func (d *mockUserDirectory) GetByID(ctx context.Context, id string) (*users.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

type mockAssetStore struct {
	mu         sync.Mutex
	removed    []string
	failRemove bool
}

func (s *mockAssetStore) Remove(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failRemove {
		return errMockFailure
	}
	s.removed = append(s.removed, filename)
	return nil
}
