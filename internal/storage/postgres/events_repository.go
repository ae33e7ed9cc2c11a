package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsp-platform/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
)

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `id, name, COALESCE(description, ''), date, registration_deadline,
       COALESCE(location, ''), is_online, max_participants, current_participants,
       status, event_type, difficulty_level, organizer_id,
       COALESCE(image_filename, ''), COALESCE(image_url, ''), created_at, updated_at`

func scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	if err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Date,
		&event.RegistrationDeadline,
		&event.Location,
		&event.IsOnline,
		&event.MaxParticipants,
		&event.CurrentParticipants,
		&event.Status,
		&event.Type,
		&event.Difficulty,
		&event.OrganizerID,
		&event.ImageFilename,
		&event.ImageURL,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) Create(ctx context.Context, record events.CreateRecord) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (id, name, description, date, registration_deadline, location, is_online,
                    max_participants, status, event_type, difficulty_level, organizer_id,
                    image_filename, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING `+eventColumns,
		record.ID,
		record.Name,
		nilIfEmpty(record.Description),
		record.Date,
		record.RegistrationDeadline,
		nilIfEmpty(record.Location),
		record.IsOnline,
		record.MaxParticipants,
		string(record.Status),
		string(record.Type),
		string(record.Difficulty),
		record.OrganizerID,
		nilIfEmpty(record.ImageFilename),
		nilIfEmpty(record.ImageURL),
	)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if err := r.loadTags(ctx, []*events.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *EventRepository) GetDetail(ctx context.Context, id string) (*events.EventDetail, error) {
	event, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &events.EventDetail{Event: *event}

	row := r.queryer().QueryRow(ctx, `
SELECT u.id, u.full_name, u.email, COALESCE(sp.organization_name, '')
  FROM users u
  LEFT JOIN sponsor_profiles sp ON sp.user_id = u.id
 WHERE u.id = $1`, event.OrganizerID)

	var organizer events.OrganizerSummary
	if err := row.Scan(&organizer.ID, &organizer.FullName, &organizer.Email, &organizer.OrganizationName); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get event organizer: %w", err)
		}
	} else {
		detail.Organizer = &organizer
	}
	return detail, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, patch events.UpdateRecord) (*events.Event, error) {
	var status, eventType, difficulty *string
	if patch.Status != nil {
		value := string(*patch.Status)
		status = &value
	}
	if patch.Type != nil {
		value := string(*patch.Type)
		eventType = &value
	}
	if patch.Difficulty != nil {
		value := string(*patch.Difficulty)
		difficulty = &value
	}

	row := r.queryer().QueryRow(ctx, `
UPDATE events
   SET name                  = COALESCE($2, name),
       description           = COALESCE($3, description),
       date                  = COALESCE($4, date),
       registration_deadline = CASE WHEN $5 THEN NULL ELSE COALESCE($6, registration_deadline) END,
       location              = COALESCE($7, location),
       is_online             = COALESCE($8, is_online),
       max_participants      = COALESCE($9, max_participants),
       status                = COALESCE($10, status),
       event_type            = COALESCE($11, event_type),
       difficulty_level      = COALESCE($12, difficulty_level),
       updated_at            = now()
 WHERE id = $1
RETURNING `+eventColumns,
		id,
		patch.Name,
		patch.Description,
		patch.Date,
		patch.ClearDeadline,
		patch.RegistrationDeadline,
		patch.Location,
		patch.IsOnline,
		patch.MaxParticipants,
		status,
		eventType,
		difficulty,
	)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	if err := r.loadTags(ctx, []*events.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) List(ctx context.Context, filters events.Filters, page events.Page) ([]events.Event, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = events.DefaultListLimit
	}

	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE ($1 = '' OR status = $1)
   AND ($2 = '' OR event_type = $2)
   AND ($3 = '' OR difficulty_level = $3)
   AND ($4 = '' OR organizer_id::text = $4)
   AND ($5 = '' OR name ILIKE '%' || $5 || '%')
 ORDER BY created_at DESC
OFFSET $6 LIMIT $7`,
		string(filters.Status),
		string(filters.Type),
		string(filters.Difficulty),
		filters.OrganizerID,
		filters.Search,
		page.Skip,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return r.collectEvents(ctx, rows)
}

func (r *EventRepository) ListRegisteredByUser(ctx context.Context, userID string, page events.Page) ([]events.Event, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = events.DefaultListLimit
	}

	rows, err := r.queryer().Query(ctx, `
SELECT `+prefixedEventColumns("e")+`
  FROM events e
  JOIN event_participants ep ON ep.event_id = e.id
 WHERE ep.user_id = $1
 ORDER BY e.date ASC
OFFSET $2 LIMIT $3`, userID, page.Skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list registered events: %w", err)
	}
	return r.collectEvents(ctx, rows)
}

func (r *EventRepository) collectEvents(ctx context.Context, rows pgx.Rows) ([]events.Event, error) {
	defer rows.Close()

	items := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	refs := make([]*events.Event, len(items))
	for i := range items {
		refs[i] = &items[i]
	}
	if err := r.loadTags(ctx, refs); err != nil {
		return nil, err
	}
	return items, nil
}

// loadTags fills the Tags slice for the given events with one query.
func (r *EventRepository) loadTags(ctx context.Context, items []*events.Event) error {
	if len(items) == 0 {
		return nil
	}

	idIndex := make(map[string]*events.Event, len(items))
	eventIDs := make([]string, 0, len(items))
	for _, event := range items {
		eventIDs = append(eventIDs, event.ID)
		idIndex[event.ID] = event
	}

	rows, err := r.queryer().Query(ctx, `
SELECT et.event_id, t.id, t.name
  FROM event_tags et
  JOIN tags t ON t.id = et.tag_id
 WHERE et.event_id = ANY($1)
 ORDER BY t.name ASC`, eventIDs)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID string
		var tag events.Tag
		if err := rows.Scan(&eventID, &tag.ID, &tag.Name); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		if event, ok := idIndex[eventID]; ok {
			event.Tags = append(event.Tags, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate tags: %w", err)
	}
	return nil
}

func (r *EventRepository) ReplaceTags(ctx context.Context, eventID string, names []string) ([]events.Tag, error) {
	queryer := r.queryer()

	if _, err := queryer.Exec(ctx, `DELETE FROM event_tags WHERE event_id = $1`, eventID); err != nil {
		return nil, fmt.Errorf("clear event tags: %w", err)
	}

	tags := make([]events.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		var tag events.Tag
		// Tag names are unique case-insensitively: "Go" and "go" hit the
		// same row, keeping the first-seen spelling.
		row := queryer.QueryRow(ctx, `
INSERT INTO tags (id, name)
VALUES (gen_random_uuid(), $1)
ON CONFLICT (lower(name)) DO UPDATE SET name = tags.name
RETURNING id, name`, name)
		if err := row.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("upsert tag %q: %w", name, err)
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true

		if _, err := queryer.Exec(ctx, `
INSERT INTO event_tags (event_id, tag_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, eventID, tag.ID); err != nil {
			return nil, fmt.Errorf("attach tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (r *EventRepository) AddParticipant(ctx context.Context, eventID, userID string) error {
	tag, err := r.queryer().Exec(ctx, `
INSERT INTO event_participants (event_id, user_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, eventID, userID)
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrAlreadyRegistered
	}
	return nil
}

func (r *EventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	tag, err := r.queryer().Exec(ctx, `
DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotRegistered
	}
	return nil
}

func (r *EventRepository) HasParticipant(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.queryer().QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM event_participants WHERE event_id = $1 AND user_id = $2)`, eventID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return exists, nil
}

func (r *EventRepository) ListParticipants(ctx context.Context, eventID string, page events.Page) ([]events.Participant, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = events.DefaultParticipantsLimit
	}

	rows, err := r.queryer().Query(ctx, `
SELECT u.id, u.full_name, u.email, u.role, ep.registered_at
  FROM event_participants ep
  JOIN users u ON u.id = ep.user_id
 WHERE ep.event_id = $1
 ORDER BY ep.registered_at ASC
OFFSET $2 LIMIT $3`, eventID, page.Skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]events.Participant, 0, limit)
	for rows.Next() {
		var p events.Participant
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.Role, &p.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}

// IncrementParticipants only succeeds while the event is open for
// registration and below capacity, making the capacity check and the
// increment one atomic statement.
func (r *EventRepository) IncrementParticipants(ctx context.Context, eventID string) (bool, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET current_participants = current_participants + 1
 WHERE id = $1
   AND status = 'registration'
   AND current_participants < max_participants`, eventID)
	if err != nil {
		return false, fmt.Errorf("increment participants: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *EventRepository) DecrementParticipants(ctx context.Context, eventID string) error {
	if _, err := r.queryer().Exec(ctx, `
UPDATE events
   SET current_participants = GREATEST(current_participants - 1, 0)
 WHERE id = $1`, eventID); err != nil {
		return fmt.Errorf("decrement participants: %w", err)
	}
	return nil
}

func (r *EventRepository) IncrementHostedEvents(ctx context.Context, organizerID string) error {
	if _, err := r.queryer().Exec(ctx, `
UPDATE sponsor_profiles
   SET hosted_events_count = hosted_events_count + 1, updated_at = now()
 WHERE user_id = $1`, organizerID); err != nil {
		return fmt.Errorf("increment hosted events: %w", err)
	}
	return nil
}

func (r *EventRepository) DecrementHostedEvents(ctx context.Context, organizerID string) error {
	if _, err := r.queryer().Exec(ctx, `
UPDATE sponsor_profiles
   SET hosted_events_count = GREATEST(hosted_events_count - 1, 0), updated_at = now()
 WHERE user_id = $1`, organizerID); err != nil {
		return fmt.Errorf("decrement hosted events: %w", err)
	}
	return nil
}

func (r *EventRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.queryer().QueryRow(ctx, `SELECT count(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func (r *EventRepository) CountByStatus(ctx context.Context, status events.Status) (int, error) {
	var count int
	if err := r.queryer().QueryRow(ctx, `SELECT count(*) FROM events WHERE status = $1`, string(status)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events by status: %w", err)
	}
	return count, nil
}

func (r *EventRepository) CountUpcoming(ctx context.Context, now time.Time) (int, error) {
	var count int
	if err := r.queryer().QueryRow(ctx, `
SELECT count(*) FROM events
 WHERE date > $1 AND status IN ('registration', 'active')`, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("count upcoming events: %w", err)
	}
	return count, nil
}

func (r *EventRepository) TopTags(ctx context.Context, limit int) ([]events.TagCount, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT t.name, count(et.event_id) AS event_count
  FROM tags t
  JOIN event_tags et ON et.tag_id = t.id
 GROUP BY t.name
 ORDER BY event_count DESC, t.name ASC
 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top tags: %w", err)
	}
	defer rows.Close()

	counts := make([]events.TagCount, 0, limit)
	for rows.Next() {
		var tc events.TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag counts: %w", err)
	}
	return counts, nil
}

func (r *EventRepository) Recent(ctx context.Context, limit int) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+` FROM events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return r.collectEvents(ctx, rows)
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(events.Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &EventRepository{pool: r.pool, tx: tx}
	if err := fn(wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func prefixedEventColumns(alias string) string {
	return alias + `.id, ` + alias + `.name, COALESCE(` + alias + `.description, ''), ` + alias + `.date, ` + alias + `.registration_deadline,
       COALESCE(` + alias + `.location, ''), ` + alias + `.is_online, ` + alias + `.max_participants, ` + alias + `.current_participants,
       ` + alias + `.status, ` + alias + `.event_type, ` + alias + `.difficulty_level, ` + alias + `.organizer_id,
       COALESCE(` + alias + `.image_filename, ''), COALESCE(` + alias + `.image_url, ''), ` + alias + `.created_at, ` + alias + `.updated_at`
}
