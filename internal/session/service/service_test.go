package service

import (
	"context"
	"time"

	"go.uber.org/mock/gomock"

	"sentinel/internal/actuator"
	"sentinel/internal/audit"
	gatemodels "sentinel/internal/gate/models"
	"sentinel/internal/session/models"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

var testEmbedding = []float32{0.1, 0.2, 0.3}

func (s *ServiceSuite) startSession() id.SessionID {
	session, err := s.service.Start(context.Background(), nil)
	s.Require().NoError(err)
	return session.ID
}

// waitForState polls until the detached unlock flow lands the session in the
// expected state.
func (s *ServiceSuite) waitForState(sessionID id.SessionID, want models.State) {
	s.Require().Eventually(func() bool {
		session, err := s.service.Status(context.Background(), sessionID)
		return err == nil && session.State == want
	}, time.Second, 2*time.Millisecond)
}

func (s *ServiceSuite) TestStartCreatesWaitingSession() {
	session, err := s.service.Start(context.Background(), nil)

	s.Require().NoError(err)
	s.Equal(models.StateWaitingVendors, session.State)
	s.True(s.hasAuditAction(audit.ActionSessionStarted))
}

func (s *ServiceSuite) TestStartRejectsUnknownGate() {
	gateID := id.GateID("gate-9")
	s.mockGates.EXPECT().FindByID(gomock.Any(), gateID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "gate not found"))

	_, err := s.service.Start(context.Background(), &gateID)

	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestScanUnknownFaceLeavesStateUntouched() {
	sessionID := s.startSession()
	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).Return(nil, 0.31, nil)

	_, err := s.service.Scan(context.Background(), sessionID, testEmbedding)

	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Contains(err.Error(), "0.31")
	s.Equal(models.StateWaitingVendors.String(), dErrors.StateOf(err))

	session, err := s.service.Status(context.Background(), sessionID)
	s.Require().NoError(err)
	s.Equal(models.StateWaitingVendors, session.State)
	s.True(s.hasAuditAction(audit.ActionScanRejected))
}

func (s *ServiceSuite) TestScanUnmappedRoleRejected() {
	sessionID := s.startSession()
	ghost := s.vendorIdentity("g-001", "Ghost")
	ghost.Role = "contractor"
	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).Return(ghost, 0.92, nil)

	_, err := s.service.Scan(context.Background(), sessionID, testEmbedding)

	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Contains(err.Error(), "contractor")
}

func (s *ServiceSuite) TestVendorScanQueuesAndAdvances() {
	sessionID := s.startSession()
	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.vendorIdentity("v-001", "Dana"), 0.88, nil)

	result, err := s.service.Scan(context.Background(), sessionID, testEmbedding)

	s.Require().NoError(err)
	s.Equal(OutcomeVendorAdded, result.Outcome)
	s.Equal(models.StateWaitingPIC, result.Session.State)
	s.Equal([]string{"Dana"}, result.Session.VendorNames())
	s.InDelta(0.88, result.Score, 1e-9)
	s.True(s.hasAuditAction(audit.ActionVendorScanned))
}

func (s *ServiceSuite) TestVendorRepeatScanIsIdempotent() {
	sessionID := s.startSession()
	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.vendorIdentity("v-001", "Dana"), 0.88, nil).Times(2)

	_, err := s.service.Scan(context.Background(), sessionID, testEmbedding)
	s.Require().NoError(err)
	result, err := s.service.Scan(context.Background(), sessionID, testEmbedding)

	s.Require().NoError(err)
	s.Equal(OutcomeVendorRepeat, result.Outcome)
	s.Len(result.Session.Vendors, 1)
	s.Contains(result.Message, "already checked in")
}

func (s *ServiceSuite) TestApproverBeforeAnyVendorIsDenied() {
	sessionID := s.startSession()
	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.approverIdentity("a-001", "Pat"), 0.95, nil)

	result, err := s.service.Scan(context.Background(), sessionID, testEmbedding)

	s.Require().NoError(err)
	s.True(result.Denied)
	s.Equal(OutcomeNoVendors, result.Outcome)
	s.Equal(models.StateWaitingVendors, result.Session.State)
	s.Contains(result.Message, "Pat")
}

func (s *ServiceSuite) TestApprovedScanUnlocksAndCompletes() {
	sessionID := s.startSession()
	task := s.activeTask("task-7")

	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.vendorIdentity("v-001", "Dana"), 0.88, nil)
	_, err := s.service.Scan(context.Background(), sessionID, testEmbedding)
	s.Require().NoError(err)

	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.approverIdentity("a-001", "Pat"), 0.95, nil)
	s.mockAuthorizer.EXPECT().
		Authorize(gomock.Any(), id.IdentityID("v-001"), id.IdentityID("a-001"), nil).
		Return(true, task, "", nil)
	s.mockDoors.EXPECT().
		UnlockAndRelock(gomock.Any(), "http://fallback-actuator:9000", 5*time.Millisecond).
		Return(actuator.SequenceResult{
			Unlock: actuator.CommandResult{Command: actuator.CommandUnlock, Success: true},
			Lock:   actuator.CommandResult{Command: actuator.CommandLock, Success: true},
		})

	result, err := s.service.Scan(context.Background(), sessionID, testEmbedding)

	s.Require().NoError(err)
	s.Equal(OutcomeApproved, result.Outcome)
	s.Equal(models.StateApproved, result.Session.State)
	s.Equal(id.TaskID("task-7"), result.TaskID)
	s.Require().NotNil(result.Session.Approver)
	s.Equal(id.IdentityID("a-001"), result.Session.Approver.ID)

	s.waitForState(sessionID, models.StateCompleted)
	s.service.Close()
	s.True(s.hasAuditAction(audit.ActionAccessApproved))
	s.True(s.hasAuditAction(audit.ActionDoorUnlocked))
	s.True(s.hasAuditAction(audit.ActionDoorLocked))
}

func (s *ServiceSuite) TestDeniedApproverLeavesSessionWaiting() {
	sessionID := s.startSession()

	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.vendorIdentity("v-001", "Dana"), 0.88, nil)
	_, err := s.service.Scan(context.Background(), sessionID, testEmbedding)
	s.Require().NoError(err)

	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.approverIdentity("a-001", "Pat"), 0.95, nil)
	s.mockAuthorizer.EXPECT().
		Authorize(gomock.Any(), id.IdentityID("v-001"), id.IdentityID("a-001"), nil).
		Return(false, nil, "no active task found for this vendor and approver", nil)

	result, err := s.service.Scan(context.Background(), sessionID, testEmbedding)

	s.Require().NoError(err)
	s.True(result.Denied)
	s.Equal(OutcomeDenied, result.Outcome)
	s.Equal(models.StateWaitingPIC, result.Session.State, "denial is not terminal")
	s.Contains(result.Message, "Dana")
	s.Contains(result.Message, "Pat")
	s.Contains(result.Message, "no active task")
	s.True(s.hasAuditAction(audit.ActionAccessDenied))
}

func (s *ServiceSuite) TestApproverAuthorizesVendorsInScanOrder() {
	sessionID := s.startSession()

	first := s.vendorIdentity("v-010", "Kim")
	second := s.vendorIdentity("v-001", "Dana")
	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).Return(first, 0.9, nil)
	_, err := s.service.Scan(context.Background(), sessionID, testEmbedding)
	s.Require().NoError(err)
	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).Return(second, 0.9, nil)
	_, err = s.service.Scan(context.Background(), sessionID, testEmbedding)
	s.Require().NoError(err)

	task := s.activeTask("task-3")
	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.approverIdentity("a-001", "Pat"), 0.95, nil)
	gomock.InOrder(
		s.mockAuthorizer.EXPECT().
			Authorize(gomock.Any(), id.IdentityID("v-010"), id.IdentityID("a-001"), nil).
			Return(false, nil, "no active task found for this vendor and approver", nil),
		s.mockAuthorizer.EXPECT().
			Authorize(gomock.Any(), id.IdentityID("v-001"), id.IdentityID("a-001"), nil).
			Return(true, task, "", nil),
	)
	s.mockDoors.EXPECT().
		UnlockAndRelock(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(actuator.SequenceResult{
			Unlock: actuator.CommandResult{Success: true},
			Lock:   actuator.CommandResult{Success: true},
		})

	result, err := s.service.Scan(context.Background(), sessionID, testEmbedding)

	s.Require().NoError(err)
	s.Equal(OutcomeApproved, result.Outcome)
	s.waitForState(sessionID, models.StateCompleted)
}

func (s *ServiceSuite) TestUnlockFailureStillCompletesSession() {
	sessionID := s.startSession()

	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.vendorIdentity("v-001", "Dana"), 0.88, nil)
	_, err := s.service.Scan(context.Background(), sessionID, testEmbedding)
	s.Require().NoError(err)

	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.approverIdentity("a-001", "Pat"), 0.95, nil)
	s.mockAuthorizer.EXPECT().
		Authorize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, s.activeTask("task-1"), "", nil)
	s.mockDoors.EXPECT().
		UnlockAndRelock(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(actuator.SequenceResult{
			Unlock: actuator.CommandResult{Success: false, Error: "connection refused"},
		})

	_, err = s.service.Scan(context.Background(), sessionID, testEmbedding)
	s.Require().NoError(err)

	s.waitForState(sessionID, models.StateCompleted)
	s.service.Close()
	s.True(s.hasAuditAction(audit.ActionActuatorFailed))
	s.False(s.hasAuditAction(audit.ActionDoorUnlocked))
}

func (s *ServiceSuite) TestUnlockUsesGateActuatorAddress() {
	gateID := id.GateID("gate-1")
	gate := &gatemodels.Gate{ID: gateID, Name: "North Gate", Active: true, ActuatorAddr: "http://north-lock:8080"}
	s.mockGates.EXPECT().FindByID(gomock.Any(), gateID).Return(gate, nil).AnyTimes()

	session, err := s.service.Start(context.Background(), &gateID)
	s.Require().NoError(err)

	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.vendorIdentity("v-001", "Dana"), 0.88, nil)
	_, err = s.service.Scan(context.Background(), session.ID, testEmbedding)
	s.Require().NoError(err)

	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.approverIdentity("a-001", "Pat"), 0.95, nil)
	s.mockAuthorizer.EXPECT().
		Authorize(gomock.Any(), id.IdentityID("v-001"), id.IdentityID("a-001"), &gateID).
		Return(true, s.activeTask("task-1"), "", nil)
	s.mockDoors.EXPECT().
		UnlockAndRelock(gomock.Any(), "http://north-lock:8080", gomock.Any()).
		Return(actuator.SequenceResult{
			Unlock: actuator.CommandResult{Success: true},
			Lock:   actuator.CommandResult{Success: true},
		})

	_, err = s.service.Scan(context.Background(), session.ID, testEmbedding)
	s.Require().NoError(err)
	s.waitForState(session.ID, models.StateCompleted)
}

func (s *ServiceSuite) TestScanAfterCancelRejected() {
	sessionID := s.startSession()
	_, err := s.service.Cancel(context.Background(), sessionID)
	s.Require().NoError(err)

	_, err = s.service.Scan(context.Background(), sessionID, testEmbedding)

	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	s.Equal(models.StateCancelled.String(), dErrors.StateOf(err))
	s.True(s.hasAuditAction(audit.ActionSessionCancelled))
}

func (s *ServiceSuite) TestScanUnknownSession() {
	_, err := s.service.Scan(context.Background(), id.NewSessionID(), testEmbedding)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCancelAfterApprovalRejected() {
	sessionID := s.startSession()

	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.vendorIdentity("v-001", "Dana"), 0.88, nil)
	_, err := s.service.Scan(context.Background(), sessionID, testEmbedding)
	s.Require().NoError(err)

	s.mockIdentifier.EXPECT().Identify(gomock.Any(), testEmbedding).
		Return(s.approverIdentity("a-001", "Pat"), 0.95, nil)
	s.mockAuthorizer.EXPECT().
		Authorize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, s.activeTask("task-1"), "", nil)

	unlockStarted := make(chan struct{})
	release := make(chan struct{})
	s.mockDoors.EXPECT().
		UnlockAndRelock(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, time.Duration) actuator.SequenceResult {
			close(unlockStarted)
			<-release
			return actuator.SequenceResult{
				Unlock: actuator.CommandResult{Success: true},
				Lock:   actuator.CommandResult{Success: true},
			}
		})

	_, err = s.service.Scan(context.Background(), sessionID, testEmbedding)
	s.Require().NoError(err)
	<-unlockStarted

	_, err = s.service.Cancel(context.Background(), sessionID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	close(release)
	s.waitForState(sessionID, models.StateCompleted)
}
