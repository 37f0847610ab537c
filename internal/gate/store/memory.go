package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sentinel/internal/gate/models"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// InMemoryStore stores gates in memory for tests/dev.
type InMemoryStore struct {
	mu    sync.RWMutex
	gates map[id.GateID]*models.Gate
}

// NewInMemoryStore constructs an empty in-memory gate store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{gates: make(map[id.GateID]*models.Gate)}
}

// Save inserts or replaces a gate. Test seeding helper; production gates are
// provisioned externally.
func (s *InMemoryStore) Save(_ context.Context, gate *models.Gate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gates[gate.ID] = gate
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, gateID id.GateID) (*models.Gate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if gate, ok := s.gates[gateID]; ok {
		return gate, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("gate %s not found", gateID))
}

func (s *InMemoryStore) RecordHeartbeat(_ context.Context, gateID id.GateID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate, ok := s.gates[gateID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("gate %s not found", gateID))
	}
	gate.LastHeartbeatAt = &at
	gate.IntegrationStatus = models.IntegrationIntegrated
	return nil
}
