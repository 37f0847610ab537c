// Package models defines scheduled authorization tasks. Tasks are owned by an
// external scheduling system; this engine only reads them.
package models

import (
	"time"

	id "sentinel/pkg/domain"
)

// Status is a task's lifecycle state in the scheduling system.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusRevoked   Status = "revoked"
)

// Task links a set of authorized vendors, one approver, a validity window,
// and the gates the work is allowed through.
type Task struct {
	ID         id.TaskID
	VendorIDs  []id.IdentityID
	ApproverID id.IdentityID
	Start      time.Time
	End        time.Time
	Status     Status
	GateIDs    []id.GateID
}

// HasVendor reports whether the vendor is assigned to this task.
func (t *Task) HasVendor(vendorID id.IdentityID) bool {
	for _, v := range t.VendorIDs {
		if v == vendorID {
			return true
		}
	}
	return false
}

// InWindow reports whether now falls inside the validity window. Both
// boundaries are inclusive: a task is valid at exactly Start and exactly End.
func (t *Task) InWindow(now time.Time) bool {
	return !now.Before(t.Start) && !now.After(t.End)
}

// AuthorizesGate reports whether the gate is in the task's authorized set.
func (t *Task) AuthorizesGate(gateID id.GateID) bool {
	for _, g := range t.GateIDs {
		if g == gateID {
			return true
		}
	}
	return false
}
