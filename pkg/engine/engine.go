// Package engine is the alignment gate facade.
//
// Engine is the only entry point external callers use: it resolves the
// operation's parameter set, fans the checks out through the runner,
// aggregates the results per policy, updates the running statistics
// and returns the verdict. Sub-components are not reachable from
// outside the engine — policy correctness depends on evaluating the
// full parameter set, so callers must never invoke an individual check
// directly.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/preflightd/preflight/pkg/check"
	"github.com/preflightd/preflight/pkg/policy"
	"github.com/preflightd/preflight/pkg/registry"
	"github.com/preflightd/preflight/pkg/runner"
	"github.com/preflightd/preflight/pkg/verdict"
)

// Recorder receives every completed verdict for observability. It is
// read-only with respect to the decision path.
type Recorder interface {
	RecordVerdict(ctx context.Context, v *verdict.Verdict)
}

// Sink receives every completed verdict for audit emission.
type Sink interface {
	Record(ctx context.Context, v *verdict.Verdict) error
}

// Option configures an Engine at construction. The engine is immutable
// afterward.
type Option func(*Engine)

// WithPolicy overrides the policy thresholds.
func WithPolicy(cfg policy.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithCheckTimeout overrides the runner's per-check timeout.
func WithCheckTimeout(d time.Duration) Option {
	return func(e *Engine) { e.runner = runner.New(runner.WithCheckTimeout(d)) }
}

// WithRecorder attaches an observability recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithAuditSink attaches an audit sink. Sink errors are logged, never
// surfaced to the caller.
func WithAuditSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithLogger overrides the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine orchestrates registry lookup, concurrent check execution,
// aggregation and statistics.
type Engine struct {
	registry *registry.Registry
	runner   *runner.Runner
	cfg      policy.Config
	stats    *Statistics
	recorder Recorder
	sink     Sink
	logger   *slog.Logger
}

// New creates an Engine over an immutable registry.
func New(reg *registry.Registry, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("engine: registry must not be nil")
	}
	e := &Engine{
		registry: reg,
		runner:   runner.New(),
		cfg:      policy.DefaultConfig(),
		stats:    newStatistics(),
		logger:   slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.MinimumConfidence < 0 || e.cfg.MinimumConfidence > 100 {
		return nil, fmt.Errorf("engine: minimum confidence %d outside [0,100]", e.cfg.MinimumConfidence)
	}
	if e.cfg.MaxNonCriticalFailures < 0 {
		return nil, fmt.Errorf("engine: negative non-critical failure budget")
	}
	return e, nil
}

// Validate evaluates one operation against its parameter set and
// returns the verdict. An unregistered operation type is a
// configuration error: Validate fails fast and the statistics are not
// touched, since no verdict was produced. A denial is not an error.
func (e *Engine) Validate(ctx context.Context, operationType string, params check.Params) (*verdict.Verdict, error) {
	ps, err := e.registry.Lookup(operationType)
	if err != nil {
		e.logger.ErrorContext(ctx, "validation misconfigured",
			"operation_type", operationType, "error", err)
		return nil, err
	}

	start := time.Now()
	results, err := e.runner.Run(ctx, ps.Checks(), params)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	out := policy.Aggregate(results, e.cfg)
	v := verdict.New(operationType, uuid.NewString(), start.UTC(), time.Since(start), results, out)

	e.stats.record(operationType, v.Allowed)

	if !v.Allowed {
		e.logger.WarnContext(ctx, "operation denied",
			"operation_type", operationType,
			"confidence", v.Confidence,
			"risk_level", v.RiskLevel,
			"critical_failed", v.CriticalFailed,
			"failed", v.FailedCount)
	}

	if e.recorder != nil {
		e.recorder.RecordVerdict(ctx, v)
	}
	if e.sink != nil {
		if serr := e.sink.Record(ctx, v); serr != nil {
			e.logger.ErrorContext(ctx, "audit sink failed", "error", serr)
		}
	}
	return v, nil
}

// Stats returns a point-in-time snapshot of the running counters.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.snapshot()
}

// OperationTypes lists the operation types this engine can validate.
func (e *Engine) OperationTypes() []string {
	return e.registry.OperationTypes()
}
