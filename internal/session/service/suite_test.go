package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Identifier,Authorizer,DoorController,GateSource,AuditEmitter

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sentinel/internal/audit"
	identitymodels "sentinel/internal/identity/models"
	"sentinel/internal/session/registry"
	"sentinel/internal/session/service/mocks"
	taskmodels "sentinel/internal/task/models"
	id "sentinel/pkg/domain"
)

type ServiceSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	mockIdentifier *mocks.MockIdentifier
	mockAuthorizer *mocks.MockAuthorizer
	mockDoors      *mocks.MockDoorController
	mockGates      *mocks.MockGateSource
	mockAudit      *mocks.MockAuditEmitter
	registry       *registry.Registry
	service        *Service

	eventsMu sync.Mutex
	events   []audit.Event
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockIdentifier = mocks.NewMockIdentifier(s.ctrl)
	s.mockAuthorizer = mocks.NewMockAuthorizer(s.ctrl)
	s.mockDoors = mocks.NewMockDoorController(s.ctrl)
	s.mockGates = mocks.NewMockGateSource(s.ctrl)
	s.mockAudit = mocks.NewMockAuditEmitter(s.ctrl)

	s.events = nil
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Do(func(_ any, event audit.Event) {
		s.eventsMu.Lock()
		defer s.eventsMu.Unlock()
		s.events = append(s.events, event)
	}).AnyTimes()

	var err error
	s.registry, err = registry.New(5 * time.Minute)
	s.Require().NoError(err)

	roles, err := identitymodels.NewRoles(map[string]string{
		"vendor": "vendor",
		"pic":    "approver",
		"dcfm":   "approver",
		"soc":    "approver",
	})
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service, err = New(
		s.registry,
		s.mockIdentifier,
		s.mockAuthorizer,
		s.mockDoors,
		roles,
		WithLogger(logger),
		WithAuditEmitter(s.mockAudit),
		WithGateSource(s.mockGates),
		WithActuatorAddr("http://fallback-actuator:9000"),
		WithUnlockDuration(5*time.Millisecond),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.service.Close()
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// Shared fixture builders.

func (s *ServiceSuite) vendorIdentity(identityID, name string) *identitymodels.Identity {
	return &identitymodels.Identity{ID: id.IdentityID(identityID), Name: name, Role: "vendor"}
}

func (s *ServiceSuite) approverIdentity(identityID, name string) *identitymodels.Identity {
	return &identitymodels.Identity{ID: id.IdentityID(identityID), Name: name, Role: "pic"}
}

func (s *ServiceSuite) activeTask(taskID string) *taskmodels.Task {
	now := time.Now()
	return &taskmodels.Task{
		ID:         id.TaskID(taskID),
		VendorIDs:  []id.IdentityID{"v-001"},
		ApproverID: "a-001",
		Start:      now.Add(-time.Hour),
		End:        now.Add(time.Hour),
		Status:     taskmodels.StatusActive,
	}
}

func (s *ServiceSuite) auditActions() []audit.Action {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	actions := make([]audit.Action, len(s.events))
	for i, e := range s.events {
		actions[i] = e.Action
	}
	return actions
}

func (s *ServiceSuite) hasAuditAction(action audit.Action) bool {
	for _, a := range s.auditActions() {
		if a == action {
			return true
		}
	}
	return false
}
