// Package models defines enrolled identity records and the role capability table.
package models

import (
	"strings"
	"time"

	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// Identity is an enrolled person with a stored face embedding. Records are
// produced by the enrollment path and read-only inside the access engine.
type Identity struct {
	ID        id.IdentityID
	Name      string
	Role      string
	FaceID    string
	Embedding []float32
	CreatedAt time.Time
}

// Capability is the closed set of things a scanned person can do in a
// session. Role strings from the enrollment system are loosely typed and have
// drifted across revisions ("pic", "dcfm", "soc"); they are mapped to a
// capability at the boundary instead of being compared as literals.
type Capability int

const (
	// CapabilityUnknown marks role strings absent from the table. These are
	// rejected and logged distinctly from known-but-wrong-capability roles.
	CapabilityUnknown Capability = iota
	CapabilityVendor
	CapabilityApprover
)

func (c Capability) String() string {
	switch c {
	case CapabilityVendor:
		return "vendor"
	case CapabilityApprover:
		return "approver"
	default:
		return "unknown"
	}
}

// Roles maps role strings to capabilities. The table is built from
// configuration at startup; membership is a deployment decision.
type Roles struct {
	table map[string]Capability
}

// NewRoles builds a role table from a role→capability string map.
// Unrecognized capability names are dropped, which leaves the role unknown.
func NewRoles(raw map[string]string) (*Roles, error) {
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "role capability table cannot be empty")
	}
	table := make(map[string]Capability, len(raw))
	for role, capability := range raw {
		switch strings.ToLower(capability) {
		case "vendor":
			table[strings.ToLower(role)] = CapabilityVendor
		case "approver":
			table[strings.ToLower(role)] = CapabilityApprover
		}
	}
	if len(table) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "role capability table has no valid entries")
	}
	return &Roles{table: table}, nil
}

// Capability resolves a role string. The second return reports whether the
// role is known at all.
func (r *Roles) Capability(role string) (Capability, bool) {
	c, ok := r.table[strings.ToLower(role)]
	if !ok {
		return CapabilityUnknown, false
	}
	return c, true
}

// Known reports whether the role string appears in the table.
func (r *Roles) Known(role string) bool {
	_, ok := r.table[strings.ToLower(role)]
	return ok
}
