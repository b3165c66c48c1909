// Package runner executes the checks of a parameter set concurrently.
//
// The runner is a parallel join: every check runs in its own goroutine
// against the same parameter bundle, and the runner waits for all of
// them before returning. There is no short-circuiting — every check's
// explanation is part of the report. A single faulting check degrades
// its own result and never aborts the batch.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/preflightd/preflight/pkg/check"
)

// DefaultCheckTimeout bounds a single predicate. Checks are meant to be
// static, local validations; anything slower is treated as a fault.
const DefaultCheckTimeout = 2 * time.Second

// Option configures a Runner.
type Option func(*Runner)

// WithCheckTimeout overrides the per-check timeout. Zero or negative
// disables the bound.
func WithCheckTimeout(d time.Duration) Option {
	return func(r *Runner) { r.checkTimeout = d }
}

// Runner fans checks out and joins their results in registration order.
type Runner struct {
	checkTimeout time.Duration
}

// New creates a Runner with the default per-check timeout.
func New(opts ...Option) *Runner {
	r := &Runner{checkTimeout: DefaultCheckTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every check against params. The returned slice is in
// the checks' registration order regardless of completion order, so
// reports are reproducible across runs.
func (r *Runner) Run(ctx context.Context, checks []check.Check, params check.Params) ([]check.Result, error) {
	if len(checks) == 0 {
		return nil, fmt.Errorf("runner: no checks to run")
	}

	results := make([]check.Result, len(checks))
	var wg sync.WaitGroup
	for i := range checks {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = r.runOne(ctx, checks[idx], params)
		}(i)
	}
	wg.Wait()

	return results, nil
}

type predicateOutcome struct {
	finding check.Finding
	err     error
}

// runOne evaluates a single check with fault isolation: predicate
// errors, panics and timeouts all become FailureError results.
func (r *Runner) runOne(ctx context.Context, c check.Check, params check.Params) check.Result {
	res := check.Result{
		Name:        c.Name,
		Category:    c.Category,
		Critical:    c.Critical,
		Confidence:  c.Confidence,
		FailureKind: check.FailureNone,
	}

	cctx := ctx
	cancel := context.CancelFunc(func() {})
	if r.checkTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, r.checkTimeout)
	}
	defer cancel()

	start := time.Now()
	outcome := make(chan predicateOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				outcome <- predicateOutcome{err: fmt.Errorf("predicate panic: %v", rec)}
			}
		}()
		f, err := c.Predicate(cctx, params)
		outcome <- predicateOutcome{finding: f, err: err}
	}()

	var o predicateOutcome
	select {
	case o = <-outcome:
	case <-cctx.Done():
		o = predicateOutcome{err: fmt.Errorf("timeout after %s", r.checkTimeout)}
	}
	res.Elapsed = time.Since(start)

	if o.err != nil {
		res.Passed = false
		res.FailureKind = check.FailureError
		res.ErrorDetail = o.err.Error()
		res.Message = o.err.Error()
		return res
	}

	res.Passed = o.finding.Passed
	if !res.Passed {
		res.FailureKind = check.FailurePredicate
	}

	// Best effort: a Describe failure degrades to a missing message,
	// never to a failing result.
	if c.Describe != nil {
		if msg, derr := c.Describe(params, o.finding); derr == nil {
			res.Message = msg
		}
	}
	return res
}
