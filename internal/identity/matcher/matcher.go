// Package matcher implements 1:N nearest-neighbor search over enrolled face
// embeddings.
package matcher

import (
	"context"
	"log/slog"
	"math"

	"sentinel/internal/identity/models"
	"sentinel/internal/platform/tracing"
	dErrors "sentinel/pkg/domain-errors"
)

// IdentitySource enumerates identities with stored embeddings in a
// deterministic order.
type IdentitySource interface {
	ListEnrolled(ctx context.Context) ([]*models.Identity, error)
}

// Matcher finds the enrolled identity whose embedding is nearest to a query
// embedding. Matching is a pure read with no side effects.
type Matcher struct {
	source    IdentitySource
	threshold float64
	logger    *slog.Logger
	tracer    tracing.Tracer
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTracer overrides the default no-op tracer.
func WithTracer(tracer tracing.Tracer) Option {
	return func(m *Matcher) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// New constructs a Matcher over the given identity source. Matches scoring at
// or below threshold are reported as unknown.
func New(source IdentitySource, threshold float64, opts ...Option) (*Matcher, error) {
	if source == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "identity source is required")
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "similarity threshold must be in (0, 1)")
	}
	m := &Matcher{
		source:    source,
		threshold: threshold,
		logger:    slog.Default(),
		tracer:    tracing.NewNoop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Identify runs a linear scan over all enrolled identities and returns the
// best match above the similarity threshold, or nil with the best observed
// score for diagnostics. An empty registry yields (nil, 0).
//
// Stored embeddings are L2-normalized at enrollment; the query is defensively
// re-normalized here so cosine similarity reduces to a dot product. Records
// whose embedding dimension differs from the query are skipped as non-matches
// rather than silently truncated.
func (m *Matcher) Identify(ctx context.Context, embedding []float32) (*models.Identity, float64, error) {
	_, span := m.tracer.Start(ctx, "matcher.identify", tracing.Int("dim", len(embedding)))
	var spanErr error
	defer func() { span.End(spanErr) }()

	if len(embedding) == 0 {
		spanErr = dErrors.New(dErrors.CodeValidation, "embedding is required")
		return nil, 0, spanErr
	}

	enrolled, err := m.source.ListEnrolled(ctx)
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "could not enumerate enrolled identities")
		return nil, 0, spanErr
	}
	if len(enrolled) == 0 {
		span.SetAttributes(tracing.Int("candidates", 0))
		return nil, 0, nil
	}

	query := normalize(embedding)

	var (
		best      *models.Identity
		bestScore float64
	)
	for _, candidate := range enrolled {
		if len(candidate.Embedding) != len(query) {
			m.logger.WarnContext(ctx, "skipping identity with mismatched embedding dimension",
				"identity_id", candidate.ID,
				"stored_dim", len(candidate.Embedding),
				"query_dim", len(query),
			)
			continue
		}
		// Strictly-greater comparison keeps the first candidate on ties;
		// enumeration is sorted by identity id, so ties resolve to the lowest id.
		if score := dot(query, candidate.Embedding); score > bestScore || best == nil {
			best = candidate
			bestScore = score
		}
	}

	span.SetAttributes(
		tracing.Int("candidates", len(enrolled)),
		tracing.Float64("best_score", bestScore),
	)

	if best == nil || bestScore <= m.threshold {
		return nil, bestScore, nil
	}

	span.SetAttributes(tracing.String("matched_identity", best.ID.String()))
	return best, bestScore, nil
}

// normalize returns a unit-length copy of v. A zero vector is returned
// unchanged so downstream dot products yield similarity 0 instead of dividing
// by zero.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
