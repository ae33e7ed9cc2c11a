package events

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	DefaultParticipantsLimit = 50
	MaxParticipantsLimit     = 200
)

// ParseListQuery extracts event list filters and pagination from query
// parameters. Unknown enum values are rejected rather than silently matching
// nothing.
func ParseListQuery(values url.Values) (Filters, Page, error) {
	filters := Filters{}
	page := Page{Limit: DefaultListLimit}

	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok {
			return filters, page, FilterError{Field: "status", Message: "unknown status"}
		}
		filters.Status = status
	}
	if raw := strings.TrimSpace(values.Get("event_type")); raw != "" {
		eventType, ok := ParseType(raw)
		if !ok {
			return filters, page, FilterError{Field: "event_type", Message: "unknown event type"}
		}
		filters.Type = eventType
	}
	if raw := strings.TrimSpace(values.Get("difficulty_level")); raw != "" {
		difficulty, ok := ParseDifficulty(raw)
		if !ok {
			return filters, page, FilterError{Field: "difficulty_level", Message: "unknown difficulty level"}
		}
		filters.Difficulty = difficulty
	}
	filters.OrganizerID = strings.TrimSpace(values.Get("organizer_id"))
	filters.Search = strings.TrimSpace(values.Get("search"))

	var err error
	page, err = parsePage(values, DefaultListLimit, MaxListLimit)
	if err != nil {
		return filters, page, err
	}
	return filters, page, nil
}

// ParseParticipantsQuery extracts pagination for participant listings, which
// allow a larger page than event listings.
func ParseParticipantsQuery(values url.Values) (Page, error) {
	return parsePage(values, DefaultParticipantsLimit, MaxParticipantsLimit)
}

func parsePage(values url.Values, defaultLimit, maxLimit int) (Page, error) {
	page := Page{Limit: defaultLimit}

	if raw := strings.TrimSpace(values.Get("skip")); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return page, FilterError{Field: "skip", Message: "must be a non-negative integer"}
		}
		page.Skip = skip
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return page, FilterError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxLimit)}
		}
		page.Limit = limit
	}
	return page, nil
}
