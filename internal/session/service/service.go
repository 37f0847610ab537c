// Package service orchestrates the multi-party scan protocol: identify the
// person at the gate, route by role capability, and drive the door hardware
// once an approver authorizes the queued vendors.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sentinel/internal/actuator"
	"sentinel/internal/audit"
	gatemodels "sentinel/internal/gate/models"
	identitymodels "sentinel/internal/identity/models"
	"sentinel/internal/platform/metrics"
	"sentinel/internal/platform/middleware"
	"sentinel/internal/platform/tracing"
	"sentinel/internal/session/models"
	"sentinel/internal/session/registry"
	taskmodels "sentinel/internal/task/models"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// Identifier resolves a face embedding to an enrolled identity.
type Identifier interface {
	Identify(ctx context.Context, embedding []float32) (*identitymodels.Identity, float64, error)
}

// Authorizer decides whether one vendor/approver pair may pass a gate now.
type Authorizer interface {
	Authorize(ctx context.Context, vendorID, approverID id.IdentityID, gateID *id.GateID) (bool, *taskmodels.Task, string, error)
}

// DoorController drives the physical lock hardware.
type DoorController interface {
	UnlockAndRelock(ctx context.Context, addr string, duration time.Duration) actuator.SequenceResult
}

// GateSource looks up gate records, mainly for per-gate actuator addresses.
type GateSource interface {
	FindByID(ctx context.Context, gateID id.GateID) (*gatemodels.Gate, error)
}

// AuditEmitter records access decisions. Emission is fire-and-forget.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Scan outcomes, used as metric labels and reported to callers.
const (
	OutcomeVendorAdded  = "vendor_added"
	OutcomeVendorRepeat = "vendor_repeat"
	OutcomeApproved     = "approved"
	OutcomeDenied       = "denied"
	OutcomeNoVendors    = "no_vendors"
	outcomeUnknownFace  = "unknown_face"
	outcomeUnknownRole  = "unknown_role"
)

// ScanResult is the observable effect of one scan on a session.
type ScanResult struct {
	Session *models.Session
	Person  *models.ScannedPerson
	Outcome string
	Message string
	Score   float64
	TaskID  id.TaskID
	Denied  bool
}

// Service runs the scan protocol over the session registry.
type Service struct {
	registry   *registry.Registry
	identifier Identifier
	authorizer Authorizer
	doors      DoorController
	roles      *identitymodels.Roles

	gates          GateSource
	audit          AuditEmitter
	actuatorAddr   string
	unlockDuration time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         tracing.Tracer
	now            func() time.Time

	// wg tracks detached unlock flows so Close can wait for the hardware
	// sequence to finish before the audit publisher drains.
	wg sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables scan and access metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer overrides the default no-op tracer.
func WithTracer(tracer tracing.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithAuditEmitter wires the audit sink.
func WithAuditEmitter(emitter AuditEmitter) Option {
	return func(s *Service) {
		s.audit = emitter
	}
}

// WithGateSource enables per-gate actuator address resolution.
func WithGateSource(gates GateSource) Option {
	return func(s *Service) {
		s.gates = gates
	}
}

// WithActuatorAddr sets the fallback actuator address used when the session
// has no gate or the gate record carries no address of its own.
func WithActuatorAddr(addr string) Option {
	return func(s *Service) {
		s.actuatorAddr = addr
	}
}

// WithUnlockDuration overrides how long the door stays unlocked (default 10s).
func WithUnlockDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.unlockDuration = d
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

// New constructs the session service.
func New(reg *registry.Registry, identifier Identifier, authorizer Authorizer, doors DoorController, roles *identitymodels.Roles, opts ...Option) (*Service, error) {
	if reg == nil || identifier == nil || authorizer == nil || doors == nil || roles == nil {
		return nil, dErrors.New(dErrors.CodeValidation,
			"registry, identifier, authorizer, door controller, and role table are required")
	}
	s := &Service{
		registry:       reg,
		identifier:     identifier,
		authorizer:     authorizer,
		doors:          doors,
		roles:          roles,
		unlockDuration: 10 * time.Second,
		logger:         slog.Default(),
		tracer:         tracing.NewNoop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start opens a new session, optionally bound to a gate. A bound gate must
// exist; binding to an unknown gate is rejected up front rather than at
// approval time.
func (s *Service) Start(ctx context.Context, gateID *id.GateID) (*models.Session, error) {
	if gateID != nil && s.gates != nil {
		if _, err := s.gates.FindByID(ctx, *gateID); err != nil {
			return nil, err
		}
	}

	session, err := s.registry.Create(ctx, gateID)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionSessionStarted,
		SessionID: session.ID,
		GateID:    derefGate(gateID),
		Success:   true,
	})
	return session, nil
}

// Status returns a snapshot of the session, applying lazy expiry.
func (s *Service) Status(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	return s.registry.Get(ctx, sessionID)
}

// Cancel aborts a session before approval.
func (s *Service) Cancel(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := s.registry.Cancel(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionSessionCancelled,
		SessionID: session.ID,
		GateID:    derefGate(session.GateID),
		Success:   true,
	})
	return session, nil
}

// Scan processes one face scan against a session. The embedding is matched
// first; vendors are queued, approver-class roles trigger authorization of
// the queued vendors. On approval the unlock sequence is scheduled detached
// and the call returns immediately.
func (s *Service) Scan(ctx context.Context, sessionID id.SessionID, embedding []float32) (*ScanResult, error) {
	ctx, span := s.tracer.Start(ctx, "session.scan",
		tracing.String("session_id", sessionID.String()))
	var spanErr error
	defer func() { span.End(spanErr) }()

	// Touch the session before identifying so an expired or terminal session
	// is reported as such regardless of who is standing at the gate.
	snapshot, err := s.registry.Get(ctx, sessionID)
	if err != nil {
		spanErr = err
		return nil, err
	}
	if snapshot.State == models.StateExpired {
		spanErr = dErrors.NewWithState(dErrors.CodeNotFound,
			"session has expired", snapshot.State.String())
		return nil, spanErr
	}
	if snapshot.State.IsTerminal() {
		spanErr = dErrors.NewWithState(dErrors.CodeInvalidTransition,
			"session is "+snapshot.State.String(), snapshot.State.String())
		return nil, spanErr
	}

	identifyStart := s.now()
	match, score, err := s.identifier.Identify(ctx, embedding)
	if s.metrics != nil {
		s.metrics.IdentifyLatency.Observe(s.now().Sub(identifyStart).Seconds())
	}
	if err != nil {
		spanErr = err
		return nil, err
	}
	span.SetAttributes(tracing.Float64("score", score))

	if match == nil {
		s.countScan(outcomeUnknownFace)
		s.emit(ctx, audit.Event{
			Action:     audit.ActionScanRejected,
			SessionID:  sessionID,
			GateID:     derefGate(snapshot.GateID),
			Reason:     "face not recognized",
			Similarity: score,
		})
		return nil, dErrors.NewWithState(dErrors.CodeUnauthorized,
			fmt.Sprintf("face not recognized (best score %.2f)", score),
			snapshot.State.String())
	}

	capability, known := s.roles.Capability(match.Role)
	if !known {
		s.logger.WarnContext(ctx, "scan by identity with unmapped role",
			"session_id", sessionID,
			"identity_id", match.ID,
			"role", match.Role,
		)
		s.countScan(outcomeUnknownRole)
		s.emit(ctx, audit.Event{
			Action:     audit.ActionScanRejected,
			SessionID:  sessionID,
			GateID:     derefGate(snapshot.GateID),
			Reason:     "role " + match.Role + " is not mapped to a capability",
			Similarity: score,
		})
		return nil, dErrors.NewWithState(dErrors.CodeUnauthorized,
			fmt.Sprintf("role %q is not permitted to scan", match.Role),
			snapshot.State.String())
	}

	person := models.ScannedPerson{
		ID:        match.ID,
		Name:      match.Name,
		Role:      match.Role,
		ScannedAt: s.now(),
	}

	var result *ScanResult
	switch capability {
	case identitymodels.CapabilityVendor:
		result, err = s.scanVendor(ctx, sessionID, person, score)
	case identitymodels.CapabilityApprover:
		result, err = s.scanApprover(ctx, sessionID, person, score)
	default:
		err = dErrors.NewWithState(dErrors.CodeUnauthorized,
			fmt.Sprintf("role %q is not permitted to scan", match.Role),
			snapshot.State.String())
	}
	if err != nil {
		spanErr = err
		return nil, err
	}

	span.SetAttributes(tracing.String("outcome", result.Outcome))
	return result, nil
}

// Close waits for detached unlock flows to finish. Call before draining the
// audit publisher so their events still land.
func (s *Service) Close() {
	s.wg.Wait()
}

func (s *Service) scanVendor(ctx context.Context, sessionID id.SessionID, person models.ScannedPerson, score float64) (*ScanResult, error) {
	var added bool
	snapshot, err := s.registry.Update(ctx, sessionID, func(session *models.Session) error {
		var addErr error
		added, addErr = session.AddVendor(person)
		return addErr
	})
	if err != nil {
		return nil, err
	}

	outcome := OutcomeVendorAdded
	message := fmt.Sprintf("vendor %s checked in, waiting for approver", person.Name)
	if !added {
		outcome = OutcomeVendorRepeat
		message = fmt.Sprintf("vendor %s already checked in", person.Name)
	}
	s.countScan(outcome)
	s.emit(ctx, audit.Event{
		Action:     audit.ActionVendorScanned,
		SessionID:  sessionID,
		VendorID:   person.ID,
		GateID:     derefGate(snapshot.GateID),
		Success:    added,
		Reason:     message,
		Similarity: score,
	})
	s.logger.InfoContext(ctx, "vendor scanned",
		"session_id", sessionID,
		"vendor_id", person.ID,
		"added", added,
	)

	return &ScanResult{
		Session: snapshot,
		Person:  &person,
		Outcome: outcome,
		Message: message,
		Score:   score,
	}, nil
}

func (s *Service) scanApprover(ctx context.Context, sessionID id.SessionID, person models.ScannedPerson, score float64) (*ScanResult, error) {
	var (
		approvedTask   *taskmodels.Task
		approvedVendor id.IdentityID
		denialReason   string
		vendorNames    []string
	)

	// Authorization runs inside the mutator: the per-session lock is what
	// serializes scans, so the vendor queue cannot change mid-evaluation.
	snapshot, err := s.registry.Update(ctx, sessionID, func(session *models.Session) error {
		vendorNames = session.VendorNames()
		if len(session.Vendors) == 0 {
			return nil
		}

		for _, vendor := range session.Vendors {
			ok, task, reason, authErr := s.authorizer.Authorize(ctx, vendor.ID, person.ID, session.GateID)
			if authErr != nil {
				return authErr
			}
			if ok {
				if approveErr := session.Approve(person, task.ID); approveErr != nil {
					return approveErr
				}
				approvedTask = task
				approvedVendor = vendor.ID
				return nil
			}
			denialReason = reason
		}
		// No vendor authorized: the session deliberately stays in
		// waiting_pic so another approver can still try.
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case approvedTask != nil:
		return s.approved(ctx, snapshot, person, approvedVendor, approvedTask, score), nil
	case len(vendorNames) == 0:
		message := fmt.Sprintf("no vendors have checked in yet, approver %s must wait for a vendor scan", person.Name)
		s.countScan(OutcomeNoVendors)
		s.countDenied(OutcomeNoVendors)
		s.emit(ctx, audit.Event{
			Action:     audit.ActionAccessDenied,
			SessionID:  sessionID,
			ApproverID: person.ID,
			GateID:     derefGate(snapshot.GateID),
			Reason:     message,
			Similarity: score,
		})
		return &ScanResult{
			Session: snapshot,
			Person:  &person,
			Outcome: OutcomeNoVendors,
			Message: message,
			Score:   score,
			Denied:  true,
		}, nil
	default:
		message := fmt.Sprintf("access denied: %s (vendors: %s; approver: %s)",
			denialReason, strings.Join(vendorNames, ", "), person.Name)
		s.countScan(OutcomeDenied)
		s.countDenied(denialReason)
		s.emit(ctx, audit.Event{
			Action:     audit.ActionAccessDenied,
			SessionID:  sessionID,
			ApproverID: person.ID,
			GateID:     derefGate(snapshot.GateID),
			Reason:     denialReason,
			Similarity: score,
		})
		s.logger.InfoContext(ctx, "access denied",
			"session_id", sessionID,
			"approver_id", person.ID,
			"reason", denialReason,
		)
		return &ScanResult{
			Session: snapshot,
			Person:  &person,
			Outcome: OutcomeDenied,
			Message: message,
			Score:   score,
			Denied:  true,
		}, nil
	}
}

func (s *Service) approved(ctx context.Context, snapshot *models.Session, person models.ScannedPerson, vendorID id.IdentityID, task *taskmodels.Task, score float64) *ScanResult {
	s.countScan(OutcomeApproved)
	if s.metrics != nil {
		s.metrics.AccessApproved.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:     audit.ActionAccessApproved,
		SessionID:  snapshot.ID,
		VendorID:   vendorID,
		ApproverID: person.ID,
		TaskID:     task.ID,
		GateID:     derefGate(snapshot.GateID),
		Success:    true,
		Similarity: score,
	})
	s.logger.InfoContext(ctx, "access approved",
		"session_id", snapshot.ID,
		"approver_id", person.ID,
		"task_id", task.ID,
	)

	s.wg.Add(1)
	go s.runUnlock(snapshot)

	return &ScanResult{
		Session: snapshot,
		Person:  &person,
		Outcome: OutcomeApproved,
		Message: fmt.Sprintf("access approved by %s, unlocking door", person.Name),
		Score:   score,
		TaskID:  task.ID,
	}
}

// runUnlock drives the door hardware for an approved session. It runs
// detached from the triggering request and always hands the session to
// registry.Complete when done, whatever the hardware did.
func (s *Service) runUnlock(session *models.Session) {
	defer s.wg.Done()
	ctx := context.Background()
	defer func() {
		if err := s.registry.Complete(ctx, session.ID); err != nil {
			s.logger.Error("failed to complete session after unlock flow",
				"session_id", session.ID,
				"error", err,
			)
		}
	}()

	addr := s.resolveActuatorAddr(ctx, session.GateID)
	if addr == "" {
		s.logger.Error("no actuator address available, door stays locked",
			"session_id", session.ID,
		)
		s.emit(ctx, audit.Event{
			Action:    audit.ActionActuatorFailed,
			SessionID: session.ID,
			GateID:    derefGate(session.GateID),
			Reason:    "no actuator address configured",
		})
		return
	}

	sequence := s.doors.UnlockAndRelock(ctx, addr, s.unlockDuration)

	if !sequence.Unlock.Success {
		s.emit(ctx, audit.Event{
			Action:    audit.ActionActuatorFailed,
			SessionID: session.ID,
			GateID:    derefGate(session.GateID),
			Reason:    "unlock failed: " + sequence.Unlock.Error,
		})
		return
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionDoorUnlocked,
		SessionID: session.ID,
		GateID:    derefGate(session.GateID),
		TaskID:    session.TaskID,
		Success:   true,
	})

	if !sequence.Lock.Success {
		s.emit(ctx, audit.Event{
			Action:    audit.ActionActuatorFailed,
			SessionID: session.ID,
			GateID:    derefGate(session.GateID),
			Reason:    "relock failed: " + sequence.Lock.Error,
		})
		return
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionDoorLocked,
		SessionID: session.ID,
		GateID:    derefGate(session.GateID),
		TaskID:    session.TaskID,
		Success:   true,
	})
}

// resolveActuatorAddr prefers the gate's own actuator address and falls back
// to the globally configured one.
func (s *Service) resolveActuatorAddr(ctx context.Context, gateID *id.GateID) string {
	if gateID == nil || s.gates == nil {
		return s.actuatorAddr
	}
	gate, err := s.gates.FindByID(ctx, *gateID)
	if err != nil {
		s.logger.Warn("gate lookup failed, using fallback actuator address",
			"gate_id", gateID,
			"error", err,
		)
		return s.actuatorAddr
	}
	if gate.ActuatorAddr == "" {
		return s.actuatorAddr
	}
	return gate.ActuatorAddr
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.RequestID = middleware.GetRequestID(ctx)
	if info, ok := middleware.GetDeviceInfo(ctx); ok {
		event.Device = strings.TrimSpace(info.Name + " " + info.OS)
	}
	s.audit.Emit(ctx, event)
}

func (s *Service) countScan(outcome string) {
	if s.metrics != nil {
		s.metrics.Scans.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countDenied(reason string) {
	if s.metrics != nil {
		s.metrics.AccessDenied.WithLabelValues(reason).Inc()
	}
}

func derefGate(gateID *id.GateID) id.GateID {
	if gateID == nil {
		return ""
	}
	return *gateID
}
