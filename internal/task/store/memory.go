package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sentinel/internal/task/models"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// InMemoryStore stores tasks in memory for tests/dev.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[id.TaskID]*models.Task
}

// NewInMemoryStore constructs an empty in-memory task store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tasks: make(map[id.TaskID]*models.Task)}
}

// Save inserts or replaces a task. Test seeding helper; production tasks come
// from the scheduling system's database.
func (s *InMemoryStore) Save(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	return nil
}

func (s *InMemoryStore) FindForPair(_ context.Context, vendorID, approverID id.IdentityID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*models.Task, 0)
	for _, task := range s.tasks {
		if task.ApproverID == approverID && task.HasVendor(vendorID) {
			matches = append(matches, task)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, taskID id.TaskID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if task, ok := s.tasks[taskID]; ok {
		return task, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("task %s not found", taskID))
}
