// Package store persists scheduling tasks.
//
// Error Contract:
// All store methods follow this error pattern:
//   - Return a domain error with CodeNotFound when the requested entity does not exist
//   - Return nil (with an empty slice where applicable) for successful operations
//   - Return wrapped errors with context for infrastructure failures
package store

import (
	"context"

	"sentinel/internal/task/models"
	id "sentinel/pkg/domain"
)

// Store is the read interface over the external task schedule.
type Store interface {
	// FindForPair returns all tasks, regardless of status or window, where
	// the vendor is assigned and the approver matches. The authorizer applies
	// status, window, and gate checks so denials carry precise reasons.
	FindForPair(ctx context.Context, vendorID, approverID id.IdentityID) ([]*models.Task, error)
	FindByID(ctx context.Context, taskID id.TaskID) (*models.Task, error)
}
