package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(nil, time.Now(), 5*time.Minute)
}

func vendor(identityID, name string) ScannedPerson {
	return ScannedPerson{ID: id.IdentityID(identityID), Name: name, Role: "vendor", ScannedAt: time.Now()}
}

func TestNewSessionStartsWaitingVendors(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewSession(nil, now, 5*time.Minute)

	assert.Equal(t, StateWaitingVendors, s.State)
	assert.False(t, s.ID.IsNil())
	assert.Equal(t, now.Add(5*time.Minute), s.ExpiresAt)
	assert.Empty(t, s.Vendors)
	assert.Nil(t, s.Approver)
}

func TestStateTransitionTable(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		allowed bool
	}{
		{StateWaitingVendors, StateWaitingPIC, true},
		{StateWaitingVendors, StateCancelled, true},
		{StateWaitingVendors, StateExpired, true},
		{StateWaitingVendors, StateApproved, false},
		{StateWaitingPIC, StateApproved, true},
		{StateWaitingPIC, StateCancelled, true},
		{StateWaitingPIC, StateWaitingVendors, false},
		{StateApproved, StateCompleted, true},
		{StateApproved, StateExpired, true},
		{StateApproved, StateCancelled, false},
		{StateCompleted, StateExpired, false},
		{StateExpired, StateWaitingVendors, false},
		{StateCancelled, StateCancelled, false},
	}

	for _, tc := range tests {
		t.Run(tc.from.String()+"_to_"+tc.to.String(), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StateWaitingVendors.IsTerminal())
	assert.False(t, StateWaitingPIC.IsTerminal())
	assert.False(t, StateApproved.IsTerminal())
	assert.True(t, StateCompleted.IsTerminal())
	assert.True(t, StateExpired.IsTerminal())
	assert.True(t, StateCancelled.IsTerminal())
}

func TestAddVendorMovesToWaitingPIC(t *testing.T) {
	s := newTestSession(t)

	added, err := s.AddVendor(vendor("v-001", "Dana"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, StateWaitingPIC, s.State)
	assert.Equal(t, []string{"Dana"}, s.VendorNames())
}

func TestAddVendorIsIdempotentPerIdentity(t *testing.T) {
	s := newTestSession(t)

	_, err := s.AddVendor(vendor("v-001", "Dana"))
	require.NoError(t, err)
	added, err := s.AddVendor(vendor("v-001", "Dana"))
	require.NoError(t, err)

	assert.False(t, added)
	assert.Len(t, s.Vendors, 1)
	assert.Equal(t, StateWaitingPIC, s.State)
}

func TestAddVendorKeepsScanOrder(t *testing.T) {
	s := newTestSession(t)

	for _, v := range []ScannedPerson{vendor("v-002", "Kim"), vendor("v-001", "Dana"), vendor("v-003", "Ola")} {
		_, err := s.AddVendor(v)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Kim", "Dana", "Ola"}, s.VendorNames())
}

func TestAddVendorRejectedAfterApproval(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddVendor(vendor("v-001", "Dana"))
	require.NoError(t, err)
	require.NoError(t, s.Approve(ScannedPerson{ID: "a-001", Name: "Pat", Role: "pic"}, "task-1"))

	_, err = s.AddVendor(vendor("v-002", "Kim"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	assert.Equal(t, "approved", dErrors.StateOf(err))
	assert.Len(t, s.Vendors, 1)
}

func TestApproveRequiresVendors(t *testing.T) {
	s := newTestSession(t)

	err := s.Approve(ScannedPerson{ID: "a-001", Name: "Pat"}, "task-1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	assert.Equal(t, StateWaitingVendors, s.State)
}

func TestApproveRecordsApproverAndTask(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddVendor(vendor("v-001", "Dana"))
	require.NoError(t, err)

	require.NoError(t, s.Approve(ScannedPerson{ID: "a-001", Name: "Pat", Role: "pic"}, "task-7"))

	assert.Equal(t, StateApproved, s.State)
	require.NotNil(t, s.Approver)
	assert.Equal(t, id.IdentityID("a-001"), s.Approver.ID)
	assert.Equal(t, id.TaskID("task-7"), s.TaskID)
}

func TestCancelOnlyBeforeApproval(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Cancel())
	assert.Equal(t, StateCancelled, s.State)

	approved := newTestSession(t)
	_, err := approved.AddVendor(vendor("v-001", "Dana"))
	require.NoError(t, err)
	require.NoError(t, approved.Approve(ScannedPerson{ID: "a-001", Name: "Pat"}, "task-1"))

	err = approved.Cancel()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	assert.Equal(t, StateApproved, approved.State)
}

func TestExpiredRespectsDeadlineAndTerminality(t *testing.T) {
	now := time.Now()
	s := NewSession(nil, now, time.Minute)

	assert.False(t, s.Expired(now.Add(time.Minute)), "deadline itself is still live")
	assert.True(t, s.Expired(now.Add(time.Minute+time.Second)))

	require.NoError(t, s.Cancel())
	assert.False(t, s.Expired(now.Add(time.Hour)), "terminal sessions never expire")
}

func TestSnapshotIsIndependent(t *testing.T) {
	gateID := id.GateID("gate-1")
	s := NewSession(&gateID, time.Now(), time.Minute)
	_, err := s.AddVendor(vendor("v-001", "Dana"))
	require.NoError(t, err)

	snap := s.Snapshot()
	_, err = s.AddVendor(vendor("v-002", "Kim"))
	require.NoError(t, err)
	*s.GateID = "gate-2"

	assert.Len(t, snap.Vendors, 1)
	assert.Equal(t, id.GateID("gate-1"), *snap.GateID)
}
