// Package cleanup periodically sweeps the session registry. Lazy expiry keeps
// individual sessions correct on touch; the sweep exists so abandoned
// sessions are expired and reclaimed even when nobody touches them again.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	dErrors "sentinel/pkg/domain-errors"
)

// Registry exposes the sweep operation.
type Registry interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// CleanupService periodically expires and reclaims sessions.
type CleanupService struct {
	registry Registry
	interval time.Duration
	logger   *slog.Logger
}

// CleanupOption configures CleanupService.
type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the sweep interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithCleanupLogger overrides the logger used for sweep errors.
func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a CleanupService over the session registry.
func New(registry Registry, opts ...CleanupOption) (*CleanupService, error) {
	if registry == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "registry is required")
	}
	svc := &CleanupService{
		registry: registry,
		interval: time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs the sweep periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "session sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep and reports how many sessions were removed.
func (s *CleanupService) RunOnce(ctx context.Context) (int, error) {
	removed, err := s.registry.Sweep(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "session sweep removed sessions", "removed", removed)
	}
	return removed, nil
}
