//go:build property
// +build property

// Property-based tests for the aggregation policy.
package policy_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/preflightd/preflight/pkg/check"
	"github.com/preflightd/preflight/pkg/policy"
)

func genResults() gopter.Gen {
	genResult := gopter.CombineGens(
		gen.Bool(),          // critical
		gen.IntRange(0, 100), // confidence
		gen.Bool(),          // passed
	).Map(func(vals []interface{}) check.Result {
		kind := check.FailureNone
		if !vals[2].(bool) {
			kind = check.FailurePredicate
		}
		return check.Result{
			Name:        "c",
			Critical:    vals[0].(bool),
			Confidence:  vals[1].(int),
			Passed:      vals[2].(bool),
			FailureKind: kind,
		}
	})
	return gen.SliceOf(genResult).SuchThat(func(rs []check.Result) bool {
		return len(rs) > 0
	})
}

// Identical result sequences always yield identical outcomes.
func TestAggregateDeterminismProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("aggregate is deterministic", prop.ForAll(
		func(results []check.Result) bool {
			a := policy.Aggregate(results, policy.DefaultConfig())
			b := policy.Aggregate(results, policy.DefaultConfig())
			return a.Confidence == b.Confidence && a.Risk == b.Risk && a.Allowed == b.Allowed
		},
		genResults(),
	))

	properties.TestingRun(t)
}

// Flipping any single failed check to passed never decreases
// confidence.
func TestAggregateMonotonicityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("confidence is monotonic in passed weight", prop.ForAll(
		func(results []check.Result) bool {
			before := policy.Aggregate(results, policy.DefaultConfig())
			for i := range results {
				if results[i].Passed {
					continue
				}
				flipped := make([]check.Result, len(results))
				copy(flipped, results)
				flipped[i].Passed = true
				flipped[i].FailureKind = check.FailureNone
				after := policy.Aggregate(flipped, policy.DefaultConfig())
				if after.Confidence < before.Confidence {
					return false
				}
			}
			return true
		},
		genResults(),
	))

	properties.TestingRun(t)
}

// Any failing critical check forces denial regardless of confidence.
func TestAggregateCriticalVetoProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("critical failure forces denial", prop.ForAll(
		func(results []check.Result) bool {
			out := policy.Aggregate(results, policy.Config{
				MinimumConfidence:      0,
				MaxNonCriticalFailures: len(results),
			})
			for _, r := range results {
				if r.Critical && !r.Passed {
					return !out.Allowed
				}
			}
			return true
		},
		genResults(),
	))

	properties.TestingRun(t)
}
