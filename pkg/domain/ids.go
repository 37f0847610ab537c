// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "sentinel/pkg/domain-errors"
)

// SessionID identifies one access attempt. Sessions are created by this
// service, so the ID is always a UUID we minted ourselves.
type SessionID uuid.UUID

// External identifiers come from the enrollment and scheduling systems and are
// treated as opaque strings.
type (
	IdentityID string
	TaskID     string
	GateID     string
)

// NewSessionID mints a fresh session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseSessionID validates a session ID at trust boundaries (handlers, API inputs).
func ParseSessionID(s string) (SessionID, error) {
	if s == "" {
		return SessionID{}, dErrors.New(dErrors.CodeValidation, "session ID is required")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, dErrors.New(dErrors.CodeValidation, "invalid session ID format")
	}
	return SessionID(id), nil
}

func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the ID is the zero value.
func (id SessionID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id IdentityID) String() string { return string(id) }
func (id TaskID) String() string     { return string(id) }
func (id GateID) String() string     { return string(id) }
