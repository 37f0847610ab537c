// Package models defines physical gates and their actuator endpoints.
package models

import (
	"time"

	id "sentinel/pkg/domain"
)

// IntegrationStatus tracks whether the gate's device has checked in.
type IntegrationStatus string

const (
	IntegrationPending    IntegrationStatus = "pending"
	IntegrationIntegrated IntegrationStatus = "integrated"
)

// Gate is a physical entry point with an associated lock actuator. Gate
// records are provisioned externally; this engine reads them and updates only
// heartbeat fields.
type Gate struct {
	ID           id.GateID
	Name         string
	Active       bool
	ActuatorAddr string
	// SecretHash is the bcrypt hash of the device's heartbeat credential.
	SecretHash        string
	LastHeartbeatAt   *time.Time
	IntegrationStatus IntegrationStatus
}
