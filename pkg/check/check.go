// Package check defines the alignment check contract.
//
// A Check is a single named predicate over an operation's parameters.
// Checks are independent by construction: a check MUST NOT assume any
// other check has run, and checks share no mutable state. A predicate
// that needs derived data for its explanation returns it inside its
// Finding; the Finding is private to the check that produced it.
package check

import (
	"context"
	"fmt"
	"time"
)

// Params is the opaque parameter bundle for one operation. The engine
// passes it unchanged to every check of the selected parameter set.
type Params map[string]any

// String returns the named parameter as a string, or "" if absent or
// not a string. Rule bodies use this to read well-known fields.
func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Finding is a predicate's verdict on the operation, plus an opaque
// detail value the check's Describe step may consume. Detail MUST NOT
// be read by any other check.
type Finding struct {
	Passed bool
	Detail any
}

// Predicate evaluates the operation parameters. Returning an error
// means the check itself faulted; the runner converts that into a
// failing result, it never aborts the batch.
type Predicate func(ctx context.Context, params Params) (Finding, error)

// Describer renders a human-readable explanation of a finding. A
// Describer failure is swallowed (the result simply carries no
// message); it never turns a passing check into a failing one.
type Describer func(params Params, f Finding) (string, error)

// Check is an immutable named predicate with policy weight.
type Check struct {
	// Name is unique within a parameter set.
	Name string
	// Category groups checks for reporting. It never affects policy.
	Category string
	// Critical checks have veto power and double aggregation weight.
	Critical bool
	// Confidence in [0,100] is the trust contributed when the check passes.
	Confidence int
	Predicate  Predicate
	// Describe is optional.
	Describe Describer
}

// Validate reports whether the check definition is well formed.
func (c Check) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("check: name must not be empty")
	}
	if c.Confidence < 0 || c.Confidence > 100 {
		return fmt.Errorf("check %q: confidence %d outside [0,100]", c.Name, c.Confidence)
	}
	if c.Predicate == nil {
		return fmt.Errorf("check %q: predicate must not be nil", c.Name)
	}
	return nil
}

// FailureKind classifies why a check did not pass.
type FailureKind string

const (
	// FailureNone marks a passing result.
	FailureNone FailureKind = "NONE"
	// FailurePredicate marks a predicate that evaluated to false.
	FailurePredicate FailureKind = "PREDICATE_FAILED"
	// FailureError marks a predicate that faulted (error, panic, timeout).
	FailureError FailureKind = "PREDICATE_ERROR"
)

// Result is the outcome of one check invocation.
type Result struct {
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Critical    bool          `json:"critical"`
	Confidence  int           `json:"confidence"`
	Passed      bool          `json:"passed"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Message     string        `json:"message,omitempty"`
	FailureKind FailureKind   `json:"failure_kind"`
	// ErrorDetail carries the fault description when FailureKind is
	// FailureError.
	ErrorDetail string `json:"error_detail,omitempty"`
}

// Weight is the aggregation weight of this result: 2 for critical
// checks, 1 otherwise.
func (r Result) Weight() int {
	if r.Critical {
		return 2
	}
	return 1
}
