// Package ids generates and validates the identifiers used across the
// federation backend. Entities (users, profiles, events, tags) are keyed by
// UUIDv4; uploaded assets get ULID-based filenames so concurrent uploads
// cannot collide and names stay lexically sortable by creation time.
package ids

import (
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var ErrInvalidID = errors.New("invalid id")

// NewID generates a new UUIDv4 entity identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidateID checks that value is a well-formed UUID.
func ValidateID(value string) error {
	if _, err := uuid.Parse(strings.TrimSpace(value)); err != nil {
		return ErrInvalidID
	}
	return nil
}

// NewAssetName generates a ULID-based filename, preserving the extension of
// the original upload (including the leading dot, e.g. ".png").
func NewAssetName(ext string) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String() + ext, nil
}
