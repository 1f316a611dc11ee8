package domain

import (
	"github.com/oklog/ulid/v2"
)

// ParseULID parses a string into a ULID, reporting ErrInvalidID on failure
func ParseULID(id string) (ulid.ULID, error) {
	parsedID, err := ulid.Parse(id)
	if err != nil {
		return ulid.ULID{}, ErrInvalidID
	}
	return parsedID, nil
}
