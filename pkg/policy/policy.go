// Package policy aggregates raw check results into a single decision.
//
// The policy is fail-closed: critical checks have no failure budget,
// and a faulting check counts as a failing one. Allowing an operation
// requires critical unanimity, the confidence floor, and the
// non-critical failure budget to hold simultaneously.
package policy

import (
	"math"

	"github.com/preflightd/preflight/pkg/check"
)

// RiskLevel is the coarse classification of a verdict.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

const (
	// DefaultMinimumConfidence is the default confidence floor.
	DefaultMinimumConfidence = 85
	// DefaultMaxNonCriticalFailures is the default failure budget for
	// non-critical checks.
	DefaultMaxNonCriticalFailures = 2

	highConfidenceThreshold   = 85
	mediumConfidenceThreshold = 70
)

// Config carries the two policy knobs. Both are fixed at engine
// construction; check definitions themselves are part of the parameter
// set, not runtime configuration.
type Config struct {
	MinimumConfidence      int
	MaxNonCriticalFailures int
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		MinimumConfidence:      DefaultMinimumConfidence,
		MaxNonCriticalFailures: DefaultMaxNonCriticalFailures,
	}
}

// FailedCheck is one entry of a failure summary.
type FailedCheck struct {
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Critical bool              `json:"critical"`
	Kind     check.FailureKind `json:"kind"`
	Message  string            `json:"message,omitempty"`
}

// FailureSummary lists every failing check of a denied verdict,
// critical failures first, so the caller can correct the specific
// unmet conditions instead of receiving a bare boolean.
type FailureSummary struct {
	Critical    []FailedCheck `json:"critical,omitempty"`
	NonCritical []FailedCheck `json:"non_critical,omitempty"`
}

// Outcome is the aggregate over one result set.
type Outcome struct {
	Confidence     int
	Risk           RiskLevel
	Allowed        bool
	PassedCount    int
	FailedCount    int
	CriticalTotal  int
	CriticalPassed int
	CriticalFailed int
	// Summary is non-nil iff Allowed is false.
	Summary *FailureSummary
}

// Aggregate computes the weighted confidence score, risk level and
// allow decision for a result set. It is deterministic: identical
// result sequences always yield identical outcomes.
func Aggregate(results []check.Result, cfg Config) Outcome {
	var out Outcome
	var weightSum, contribution int
	nonCriticalFailed := 0

	for _, r := range results {
		w := r.Weight()
		weightSum += w
		if r.Passed {
			contribution += w * r.Confidence
			out.PassedCount++
		} else {
			out.FailedCount++
			if !r.Critical {
				nonCriticalFailed++
			}
		}
		if r.Critical {
			out.CriticalTotal++
			if r.Passed {
				out.CriticalPassed++
			} else {
				out.CriticalFailed++
			}
		}
	}

	if weightSum > 0 {
		out.Confidence = int(math.Round(float64(contribution) / float64(weightSum)))
	}

	switch {
	case out.CriticalFailed > 0:
		out.Risk = RiskCritical
	case out.Confidence < mediumConfidenceThreshold:
		out.Risk = RiskHigh
	case out.Confidence < highConfidenceThreshold:
		out.Risk = RiskMedium
	default:
		out.Risk = RiskLow
	}

	out.Allowed = out.CriticalFailed == 0 &&
		out.Confidence >= cfg.MinimumConfidence &&
		nonCriticalFailed <= cfg.MaxNonCriticalFailures

	if !out.Allowed {
		out.Summary = summarize(results)
	}
	return out
}

func summarize(results []check.Result) *FailureSummary {
	s := &FailureSummary{}
	for _, r := range results {
		if r.Passed {
			continue
		}
		fc := FailedCheck{
			Name:     r.Name,
			Category: r.Category,
			Critical: r.Critical,
			Kind:     r.FailureKind,
			Message:  r.Message,
		}
		if r.Critical {
			s.Critical = append(s.Critical, fc)
		} else {
			s.NonCritical = append(s.NonCritical, fc)
		}
	}
	return s
}
