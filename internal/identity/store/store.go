// Package store persists enrolled identities.
//
// Error Contract:
// All store methods follow this error pattern:
//   - Return a domain error with CodeNotFound when the requested entity does not exist
//   - Return nil for successful operations
//   - Return wrapped errors with context for infrastructure failures
package store

import (
	"context"

	"sentinel/internal/identity/models"
	id "sentinel/pkg/domain"
)

// Store is the persistence interface for identity records.
type Store interface {
	Save(ctx context.Context, identity *models.Identity) error
	FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
	FindByFaceID(ctx context.Context, faceID string) (*models.Identity, error)
	// ListEnrolled returns all identities that have a stored embedding,
	// ordered by identity id so nearest-neighbor ties resolve deterministically.
	ListEnrolled(ctx context.Context) ([]*models.Identity, error)
}
