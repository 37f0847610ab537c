// Package models defines the multi-party access session and its state machine.
package models

import (
	"time"

	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// State is a session's position in the scan protocol. Transitions only move
// forward; see CanTransitionTo for the full table.
type State string

const (
	// StateWaitingVendors is the initial state: no vendor has scanned yet.
	StateWaitingVendors State = "waiting_vendors"
	// StateWaitingPIC means at least one vendor is queued and the session is
	// waiting for an approver scan.
	StateWaitingPIC State = "waiting_pic"
	// StateApproved means an approver authorized the queued vendors and the
	// unlock sequence has been scheduled.
	StateApproved State = "approved"
	// StateCompleted means the unlock sequence finished, successfully or not.
	StateCompleted State = "completed"
	// StateExpired means the session hit its absolute TTL deadline.
	StateExpired State = "expired"
	// StateCancelled means the session was cancelled before approval.
	StateCancelled State = "cancelled"
)

func (s State) String() string { return string(s) }

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateExpired, StateCancelled:
		return true
	}
	return false
}

// transitions is the forward-only state machine. Cancellation is permitted
// from the waiting states only; once approved, the unlock sequence runs to
// completion (expiry remains possible if the sweep wins the race).
var transitions = map[State][]State{
	StateWaitingVendors: {StateWaitingPIC, StateCancelled, StateExpired},
	StateWaitingPIC:     {StateApproved, StateCancelled, StateExpired},
	StateApproved:       {StateCompleted, StateExpired},
}

// CanTransitionTo reports whether the transition from s to next is legal.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ScannedPerson is one identified participant in a session.
type ScannedPerson struct {
	ID        id.IdentityID
	Name      string
	Role      string
	ScannedAt time.Time
}

// Session is one access attempt at a gate. All mutation happens through the
// methods below; callers are expected to hold the registry's per-session lock.
type Session struct {
	ID        id.SessionID
	GateID    *id.GateID
	State     State
	Vendors   []ScannedPerson
	Approver  *ScannedPerson
	TaskID    id.TaskID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSession creates a session in StateWaitingVendors with an absolute
// expiry deadline of now+ttl.
func NewSession(gateID *id.GateID, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id.NewSessionID(),
		GateID:    gateID,
		State:     StateWaitingVendors,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the TTL deadline has passed for a still-live
// session. Terminal sessions never report expired.
func (s *Session) Expired(now time.Time) bool {
	return !s.State.IsTerminal() && now.After(s.ExpiresAt)
}

// HasVendor reports whether the identity is already in the vendor queue.
func (s *Session) HasVendor(identityID id.IdentityID) bool {
	for _, v := range s.Vendors {
		if v.ID == identityID {
			return true
		}
	}
	return false
}

// VendorNames lists queued vendor names in scan order.
func (s *Session) VendorNames() []string {
	names := make([]string, len(s.Vendors))
	for i, v := range s.Vendors {
		names[i] = v.Name
	}
	return names
}

// AddVendor enqueues a vendor and moves the session to StateWaitingPIC.
// Enqueueing is idempotent per identity: a repeat scan returns false and
// changes nothing.
func (s *Session) AddVendor(person ScannedPerson) (bool, error) {
	if s.State != StateWaitingVendors && s.State != StateWaitingPIC {
		return false, s.transitionError(StateWaitingPIC)
	}
	if s.HasVendor(person.ID) {
		return false, nil
	}
	s.Vendors = append(s.Vendors, person)
	if s.State == StateWaitingVendors {
		s.State = StateWaitingPIC
	}
	return true, nil
}

// Approve records the approver and the authorizing task and moves the
// session to StateApproved. The participant set is immutable afterwards.
func (s *Session) Approve(approver ScannedPerson, taskID id.TaskID) error {
	if !s.State.CanTransitionTo(StateApproved) {
		return s.transitionError(StateApproved)
	}
	if len(s.Vendors) == 0 {
		return dErrors.NewWithState(dErrors.CodeInvalidTransition,
			"cannot approve a session with no vendors", s.State.String())
	}
	s.Approver = &approver
	s.TaskID = taskID
	s.State = StateApproved
	return nil
}

// Complete closes out an approved session after the unlock sequence ran.
func (s *Session) Complete() error {
	if !s.State.CanTransitionTo(StateCompleted) {
		return s.transitionError(StateCompleted)
	}
	s.State = StateCompleted
	return nil
}

// Cancel aborts a session before approval.
func (s *Session) Cancel() error {
	if !s.State.CanTransitionTo(StateCancelled) {
		return s.transitionError(StateCancelled)
	}
	s.State = StateCancelled
	return nil
}

// Expire marks a session expired. Callers decide when (lazy at touch time or
// from the sweep worker); the deadline itself lives in ExpiresAt.
func (s *Session) Expire() error {
	if !s.State.CanTransitionTo(StateExpired) {
		return s.transitionError(StateExpired)
	}
	s.State = StateExpired
	return nil
}

// Snapshot returns a deep copy safe to hand out without the session lock.
func (s *Session) Snapshot() *Session {
	copied := *s
	copied.Vendors = make([]ScannedPerson, len(s.Vendors))
	copy(copied.Vendors, s.Vendors)
	if s.Approver != nil {
		approver := *s.Approver
		copied.Approver = &approver
	}
	if s.GateID != nil {
		gateID := *s.GateID
		copied.GateID = &gateID
	}
	return &copied
}

func (s *Session) transitionError(target State) error {
	return dErrors.NewWithState(dErrors.CodeInvalidTransition,
		"session is "+s.State.String()+", cannot move to "+target.String(),
		s.State.String())
}
