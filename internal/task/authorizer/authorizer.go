// Package authorizer decides whether a vendor/approver pair is allowed
// through a gate right now.
package authorizer

import (
	"context"
	"log/slog"
	"time"

	gatestore "sentinel/internal/gate/store"
	"sentinel/internal/platform/tracing"
	"sentinel/internal/task/models"
	taskstore "sentinel/internal/task/store"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// Denial reasons surfaced to callers. These end up in user-facing messages
// and audit records, so they stay stable.
const (
	ReasonGateNotFound   = "gate not found"
	ReasonGateInactive   = "gate is inactive"
	ReasonNoTask         = "no active task found for this vendor and approver"
	ReasonTaskNotActive  = "task is not active"
	ReasonOutsideWindow  = "task is outside its valid time window"
	ReasonGateNotAllowed = "gate not authorized for this task"
)

// Authorizer runs the fixed authorization pipeline. It is a pure read over
// the task and gate stores; each call evaluates exactly one pair.
type Authorizer struct {
	tasks  taskstore.Store
	gates  gatestore.Store
	logger *slog.Logger
	tracer tracing.Tracer
	now    func() time.Time
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authorizer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTracer overrides the default no-op tracer.
func WithTracer(tracer tracing.Tracer) Option {
	return func(a *Authorizer) {
		if tracer != nil {
			a.tracer = tracer
		}
	}
}

// WithNowFunc overrides the clock. The time source is injected for
// testability (no hidden time.Now() calls).
func WithNowFunc(now func() time.Time) Option {
	return func(a *Authorizer) {
		if now != nil {
			a.now = now
		}
	}
}

// New constructs an Authorizer.
func New(tasks taskstore.Store, gates gatestore.Store, opts ...Option) (*Authorizer, error) {
	if tasks == nil || gates == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "task and gate stores are required")
	}
	a := &Authorizer{
		tasks:  tasks,
		gates:  gates,
		logger: slog.Default(),
		tracer: tracing.NewNoop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Authorize checks one vendor/approver pair, optionally scoped to a gate.
// The pipeline short-circuits on the first failing step and the step's reason
// is returned. When several candidate tasks exist, the first fully valid one
// wins; otherwise the reason of the last task evaluated is returned so the
// caller can show the most specific denial.
func (a *Authorizer) Authorize(ctx context.Context, vendorID, approverID id.IdentityID, gateID *id.GateID) (bool, *models.Task, string, error) {
	attrs := []tracing.Attribute{
		tracing.String("vendor_id", vendorID.String()),
		tracing.String("approver_id", approverID.String()),
	}
	if gateID != nil {
		attrs = append(attrs, tracing.String("gate_id", gateID.String()))
	}
	ctx, span := a.tracer.Start(ctx, "authorizer.authorize", attrs...)
	var spanErr error
	defer func() { span.End(spanErr) }()

	if gateID != nil {
		gate, err := a.gates.FindByID(ctx, *gateID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return false, nil, ReasonGateNotFound, nil
			}
			spanErr = err
			return false, nil, "", err
		}
		if !gate.Active {
			return false, nil, ReasonGateInactive, nil
		}
	}

	candidates, err := a.tasks.FindForPair(ctx, vendorID, approverID)
	if err != nil {
		spanErr = err
		return false, nil, "", err
	}
	if len(candidates) == 0 {
		return false, nil, ReasonNoTask, nil
	}

	now := a.now()
	reason := ReasonNoTask
	for _, task := range candidates {
		if task.Status != models.StatusActive {
			reason = ReasonTaskNotActive
			continue
		}
		if !task.InWindow(now) {
			reason = ReasonOutsideWindow
			continue
		}
		if gateID != nil && !task.AuthorizesGate(*gateID) {
			reason = ReasonGateNotAllowed
			continue
		}

		span.SetAttributes(tracing.String("task_id", task.ID.String()))
		return true, task, "", nil
	}

	a.logger.DebugContext(ctx, "authorization denied",
		"vendor_id", vendorID,
		"approver_id", approverID,
		"reason", reason,
	)
	return false, nil, reason, nil
}
