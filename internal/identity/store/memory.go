package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sentinel/internal/identity/models"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// InMemoryStore stores identities in memory for tests/dev.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[id.IdentityID]*models.Identity
}

// NewInMemoryStore constructs an empty in-memory identity store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{identities: make(map[id.IdentityID]*models.Identity)}
}

func (s *InMemoryStore) Save(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity.ID] = identity
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, identityID id.IdentityID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if identity, ok := s.identities[identityID]; ok {
		return identity, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("identity %s not found", identityID))
}

func (s *InMemoryStore) FindByFaceID(_ context.Context, faceID string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.identities {
		if identity.FaceID != "" && identity.FaceID == faceID {
			return identity, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no identity with face ID %s", faceID))
}

func (s *InMemoryStore) ListEnrolled(_ context.Context) ([]*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enrolled := make([]*models.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		if len(identity.Embedding) > 0 {
			enrolled = append(enrolled, identity)
		}
	}
	sort.Slice(enrolled, func(i, j int) bool {
		return enrolled[i].ID < enrolled[j].ID
	})
	return enrolled, nil
}
