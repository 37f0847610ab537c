// Package audit captures access decision records. Events are emitted from
// domain logic and fanned out to a sink; emission is fire-and-forget, so a
// slow or dead sink never affects session behavior.
package audit

import (
	"context"
	"time"

	id "sentinel/pkg/domain"
)

// Action identifies what kind of decision an event records.
type Action string

const (
	ActionSessionStarted   Action = "session_started"
	ActionVendorScanned    Action = "vendor_scanned"
	ActionScanRejected     Action = "scan_rejected"
	ActionAccessApproved   Action = "access_approved"
	ActionAccessDenied     Action = "access_denied"
	ActionDoorUnlocked     Action = "door_unlocked"
	ActionDoorLocked       Action = "door_locked"
	ActionActuatorFailed   Action = "actuator_failed"
	ActionSessionCancelled Action = "session_cancelled"
	ActionSessionExpired   Action = "session_expired"
)

// Event is one decision record. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	Timestamp  time.Time
	Action     Action
	SessionID  id.SessionID
	VendorID   id.IdentityID
	ApproverID id.IdentityID
	TaskID     id.TaskID
	GateID     id.GateID
	Success    bool
	Reason     string
	// Similarity is the best match score observed during the scan, when the
	// event came from an identification attempt.
	Similarity float64
	RequestID  string
	Device     string
}

// Store persists audit events. Implementations must tolerate concurrent Append calls.
type Store interface {
	Append(ctx context.Context, event Event) error
}
