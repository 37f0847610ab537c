// Package store persists gate records.
//
// Error Contract:
// All store methods follow this error pattern:
//   - Return a domain error with CodeNotFound when the requested entity does not exist
//   - Return nil for successful operations
//   - Return wrapped errors with context for infrastructure failures
package store

import (
	"context"
	"time"

	"sentinel/internal/gate/models"
	id "sentinel/pkg/domain"
)

// Store is the persistence interface for gates. Gates are read-only except
// for the heartbeat fields.
type Store interface {
	FindByID(ctx context.Context, gateID id.GateID) (*models.Gate, error)
	RecordHeartbeat(ctx context.Context, gateID id.GateID, at time.Time) error
}
