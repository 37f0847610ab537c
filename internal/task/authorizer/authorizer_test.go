package authorizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	gatemodels "sentinel/internal/gate/models"
	gatestore "sentinel/internal/gate/store"
	"sentinel/internal/task/models"
	taskstore "sentinel/internal/task/store"
	id "sentinel/pkg/domain"
)

type AuthorizerSuite struct {
	suite.Suite
	tasks *taskstore.InMemoryStore
	gates *gatestore.InMemoryStore
	auth  *Authorizer
	now   time.Time
}

func (s *AuthorizerSuite) SetupTest() {
	s.tasks = taskstore.NewInMemoryStore()
	s.gates = gatestore.NewInMemoryStore()
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	auth, err := New(s.tasks, s.gates, WithNowFunc(func() time.Time { return s.now }))
	require.NoError(s.T(), err)
	s.auth = auth
}

func (s *AuthorizerSuite) seedTask(taskID string, mutate func(*models.Task)) *models.Task {
	task := &models.Task{
		ID:         id.TaskID(taskID),
		VendorIDs:  []id.IdentityID{"vendor-1"},
		ApproverID: "approver-1",
		Start:      s.now.Add(-time.Hour),
		End:        s.now.Add(time.Hour),
		Status:     models.StatusActive,
		GateIDs:    []id.GateID{"gate-east"},
	}
	if mutate != nil {
		mutate(task)
	}
	require.NoError(s.T(), s.tasks.Save(context.Background(), task))
	return task
}

func (s *AuthorizerSuite) seedGate(gateID string, active bool) {
	require.NoError(s.T(), s.gates.Save(context.Background(), &gatemodels.Gate{
		ID:     id.GateID(gateID),
		Name:   gateID,
		Active: active,
	}))
}

func (s *AuthorizerSuite) TestApprovesValidPair() {
	task := s.seedTask("task-1", nil)

	ok, got, reason, err := s.auth.Authorize(context.Background(), "vendor-1", "approver-1", nil)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)
	assert.Equal(s.T(), task.ID, got.ID)
	assert.Empty(s.T(), reason)
}

func (s *AuthorizerSuite) TestDeniesUnknownPair() {
	s.seedTask("task-1", nil)

	ok, _, reason, err := s.auth.Authorize(context.Background(), "vendor-1", "approver-2", nil)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
	assert.Equal(s.T(), ReasonNoTask, reason)
}

func (s *AuthorizerSuite) TestDeniesRevokedTask() {
	s.seedTask("task-1", func(t *models.Task) { t.Status = models.StatusRevoked })

	ok, _, reason, err := s.auth.Authorize(context.Background(), "vendor-1", "approver-1", nil)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
	assert.Equal(s.T(), ReasonTaskNotActive, reason)
}

func (s *AuthorizerSuite) TestWindowBoundaries() {
	s.seedTask("task-1", func(t *models.Task) {
		t.Start = s.now
		t.End = s.now.Add(time.Hour)
	})

	// Valid at exactly task.Start.
	ok, _, _, err := s.auth.Authorize(context.Background(), "vendor-1", "approver-1", nil)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	// Denied one second past task.End.
	s.now = s.now.Add(time.Hour + time.Second)
	ok, _, reason, err := s.auth.Authorize(context.Background(), "vendor-1", "approver-1", nil)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
	assert.Equal(s.T(), ReasonOutsideWindow, reason)
}

func (s *AuthorizerSuite) TestValidAtExactlyEnd() {
	s.seedTask("task-1", func(t *models.Task) {
		t.End = s.now
	})

	ok, _, _, err := s.auth.Authorize(context.Background(), "vendor-1", "approver-1", nil)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok, "window is inclusive at End")
}

func (s *AuthorizerSuite) TestGateChecks() {
	s.seedTask("task-1", nil)
	s.seedGate("gate-east", true)
	s.seedGate("gate-west", true)
	s.seedGate("gate-dark", false)

	gateEast := id.GateID("gate-east")
	ok, _, _, err := s.auth.Authorize(context.Background(), "vendor-1", "approver-1", &gateEast)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	gateWest := id.GateID("gate-west")
	ok, _, reason, err := s.auth.Authorize(context.Background(), "vendor-1", "approver-1", &gateWest)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
	assert.Equal(s.T(), ReasonGateNotAllowed, reason)

	gateDark := id.GateID("gate-dark")
	ok, _, reason, err = s.auth.Authorize(context.Background(), "vendor-1", "approver-1", &gateDark)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
	assert.Equal(s.T(), ReasonGateInactive, reason)

	gateGhost := id.GateID("gate-ghost")
	ok, _, reason, err = s.auth.Authorize(context.Background(), "vendor-1", "approver-1", &gateGhost)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
	assert.Equal(s.T(), ReasonGateNotFound, reason)
}

func (s *AuthorizerSuite) TestLastEvaluatedReasonWins() {
	// Two candidates: the first is revoked, the second expired. The reason
	// reported is from the last task evaluated.
	s.seedTask("task-a", func(t *models.Task) { t.Status = models.StatusRevoked })
	s.seedTask("task-b", func(t *models.Task) {
		t.Start = s.now.Add(-2 * time.Hour)
		t.End = s.now.Add(-time.Hour)
	})

	ok, _, reason, err := s.auth.Authorize(context.Background(), "vendor-1", "approver-1", nil)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
	assert.Equal(s.T(), ReasonOutsideWindow, reason)
}

func (s *AuthorizerSuite) TestFirstValidCandidateWins() {
	s.seedTask("task-a", func(t *models.Task) { t.Status = models.StatusCompleted })
	s.seedTask("task-b", nil)
	s.seedTask("task-c", nil)

	ok, got, _, err := s.auth.Authorize(context.Background(), "vendor-1", "approver-1", nil)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)
	assert.Equal(s.T(), id.TaskID("task-b"), got.ID)
}

func TestAuthorizerSuite(t *testing.T) {
	suite.Run(t, new(AuthorizerSuite))
}
