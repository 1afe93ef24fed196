// Package source resolves the backing dataset through an ordered fallback
// chain: session upload, database, network share, bundled sample.
//
// The fallback policy is data, not control flow: candidates implement one
// Fetch contract and the resolver iterates them in priority order,
// collecting a Failure per candidate that could not serve.
package source

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/minehaul/fleetsafety/internal/domain/model"
	"github.com/minehaul/fleetsafety/internal/domain/schema"
	"github.com/minehaul/fleetsafety/pkg/logger"
	"github.com/minehaul/fleetsafety/pkg/metrics"
)

// Candidate is one strategy in the fallback chain.
type Candidate interface {
	// Descriptor identifies the source for diagnostics and cache keys.
	Descriptor() model.SourceDescriptor

	// Fetch returns the raw tabular batch, honoring ctx for cancellation.
	Fetch(ctx context.Context) (model.RawBatch, error)
}

// Failure records one candidate that could not serve a batch. Recoverable:
// the resolver proceeds to the next candidate.
type Failure struct {
	Kind        model.SourceKind `json:"kind"`
	Cause       string           `json:"cause"`
	AttemptedAt time.Time        `json:"attempted_at"`
}

// Resolver tries candidates in priority order and returns the first usable
// batch.
type Resolver struct {
	mu         sync.RWMutex
	candidates []Candidate
	override   Candidate // session upload, tried before everything else
	timeout    time.Duration
	log        logger.Logger
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithTimeout bounds each candidate attempt.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a Resolver over the given candidates, ordered by priority.
func New(candidates []Candidate, opts ...Option) *Resolver {
	r := &Resolver{
		candidates: append([]Candidate(nil), candidates...),
		timeout:    10 * time.Second,
	}
	sort.SliceStable(r.candidates, func(i, j int) bool {
		return r.candidates[i].Descriptor().Priority < r.candidates[j].Descriptor().Priority
	})
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("resolver")
	}
	return r
}

// SetOverride installs a session-scoped candidate (an uploaded file) that
// outranks every configured source until cleared.
func (r *Resolver) SetOverride(c Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = c
}

// ClearOverride removes the session override.
func (r *Resolver) ClearOverride() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = nil
}

// Descriptors lists the chain in attempt order, for the diagnostics probe.
func (r *Resolver) Descriptors() []model.SourceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.SourceDescriptor, 0, len(r.candidates)+1)
	if r.override != nil {
		out = append(out, r.override.Descriptor())
	}
	for _, c := range r.candidates {
		out = append(out, c.Descriptor())
	}
	return out
}

// Resolve walks the chain and returns the first structurally valid,
// non-empty batch along with the failures collected on the way. A batch
// served by the sample source after real sources failed is flagged degraded
// by the caller via the failure list; only a chain with no survivor at all
// returns ErrAllSourcesFailed.
func (r *Resolver) Resolve(ctx context.Context) (model.RawBatch, model.SourceDescriptor, []Failure, error) {
	r.mu.RLock()
	chain := make([]Candidate, 0, len(r.candidates)+1)
	if r.override != nil {
		chain = append(chain, r.override)
	}
	chain = append(chain, r.candidates...)
	r.mu.RUnlock()

	var failures []Failure
	for depth, c := range chain {
		desc := c.Descriptor()
		metrics.RecordSourceAttempt(string(desc.Kind))

		batch, err := r.attempt(ctx, c)
		if err != nil {
			metrics.RecordSourceFailure(string(desc.Kind))
			failures = append(failures, Failure{
				Kind:        desc.Kind,
				Cause:       err.Error(),
				AttemptedAt: time.Now(),
			})
			r.log.Warn(ctx, "source attempt failed, falling through",
				logger.String("kind", string(desc.Kind)),
				logger.String("name", desc.Name),
				logger.Error(err),
			)
			continue
		}

		metrics.RecordFallbackDepth(depth + 1)
		r.log.Info(ctx, "source resolved",
			logger.String("kind", string(desc.Kind)),
			logger.String("name", desc.Name),
			logger.Int("rows", len(batch.Rows)),
			logger.Int("failures", len(failures)),
		)
		return batch, desc, failures, nil
	}

	return model.RawBatch{}, model.SourceDescriptor{}, failures, ErrAllSourcesFailed
}

// attempt fetches from one candidate under the per-attempt timeout and
// applies the minimal shape check.
func (r *Resolver) attempt(ctx context.Context, c Candidate) (model.RawBatch, error) {
	// The embedded sample reads from memory; a deadline already spent by a
	// hung upstream candidate must not keep the last resort from serving.
	if c.Descriptor().Kind == model.SourceSample {
		ctx = context.WithoutCancel(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	batch, err := c.Fetch(attemptCtx)
	if err != nil {
		return model.RawBatch{}, err
	}
	if batch.Empty() {
		return model.RawBatch{}, ErrEmptyBatch
	}
	if !schema.HasIdentityColumns(batch.Header) {
		return model.RawBatch{}, ErrBadShape
	}
	return batch, nil
}

// Degraded reports whether a resolved descriptor represents a degraded
// result: the sample served while preferred sources were configured and
// failing.
func Degraded(desc model.SourceDescriptor, failures []Failure) bool {
	return desc.Kind == model.SourceSample && len(failures) > 0
}
