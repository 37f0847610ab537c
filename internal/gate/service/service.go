// Package service implements gate device heartbeat handling.
package service

import (
	"context"
	"log/slog"
	"time"

	gatestore "sentinel/internal/gate/store"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
	"sentinel/pkg/secrets"
)

// Service records device check-ins so operators can see which gates are online.
type Service struct {
	gates  gatestore.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNowFunc overrides the clock. The time source is injected for
// testability (no hidden time.Now() calls).
func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a heartbeat Service.
func New(gates gatestore.Store, opts ...Option) (*Service, error) {
	if gates == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "gate store is required")
	}
	s := &Service{
		gates:  gates,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// HeartbeatResult reports the gate a successful heartbeat was recorded for.
type HeartbeatResult struct {
	GateID   id.GateID
	GateName string
}

// Heartbeat verifies the device credential and updates the gate's heartbeat
// timestamp and integration status.
func (s *Service) Heartbeat(ctx context.Context, deviceID id.GateID, secret string) (*HeartbeatResult, error) {
	gate, err := s.gates.FindByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if gate.SecretHash != "" {
		if err := secrets.Verify(secret, gate.SecretHash); err != nil {
			s.logger.WarnContext(ctx, "heartbeat with invalid device secret",
				"gate_id", deviceID,
			)
			return nil, err
		}
	}

	if err := s.gates.RecordHeartbeat(ctx, deviceID, s.now()); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "gate heartbeat recorded",
		"gate_id", deviceID,
		"gate_name", gate.Name,
	)
	return &HeartbeatResult{GateID: gate.ID, GateName: gate.Name}, nil
}
