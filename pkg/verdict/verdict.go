// Package verdict defines the structured output of one validation
// call, plus a deterministic hash binding the decision for receipts.
//
// The hash covers only decision-relevant fields (operation type,
// per-check outcomes, confidence, risk, allowed) and is computed over
// JCS-canonical JSON, so two runs reaching the same decision produce
// the same hash regardless of timing or verdict identity.
package verdict

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/preflightd/preflight/pkg/check"
	"github.com/preflightd/preflight/pkg/policy"
)

// Verdict is the complete result of validating one operation.
type Verdict struct {
	ID            string        `json:"id"`
	OperationType string        `json:"operation_type"`
	Timestamp     time.Time     `json:"timestamp"`
	TotalElapsed  time.Duration `json:"total_elapsed_ns"`

	// Results are in parameter-set registration order.
	Results []check.Result `json:"results"`

	PassedCount    int `json:"passed_count"`
	FailedCount    int `json:"failed_count"`
	CriticalTotal  int `json:"critical_total"`
	CriticalPassed int `json:"critical_passed"`
	CriticalFailed int `json:"critical_failed"`

	Confidence int              `json:"confidence"`
	RiskLevel  policy.RiskLevel `json:"risk_level"`
	Allowed    bool             `json:"allowed"`

	// FailureSummary is present iff Allowed is false.
	FailureSummary *policy.FailureSummary `json:"failure_summary,omitempty"`
}

// New assembles a verdict from the runner's results and the policy
// outcome.
func New(operationType string, id string, ts time.Time, elapsed time.Duration, results []check.Result, out policy.Outcome) *Verdict {
	return &Verdict{
		ID:             id,
		OperationType:  operationType,
		Timestamp:      ts,
		TotalElapsed:   elapsed,
		Results:        results,
		PassedCount:    out.PassedCount,
		FailedCount:    out.FailedCount,
		CriticalTotal:  out.CriticalTotal,
		CriticalPassed: out.CriticalPassed,
		CriticalFailed: out.CriticalFailed,
		Confidence:     out.Confidence,
		RiskLevel:      out.Risk,
		Allowed:        out.Allowed,
		FailureSummary: out.Summary,
	}
}

type hashedResult struct {
	Name        string            `json:"name"`
	Passed      bool              `json:"passed"`
	FailureKind check.FailureKind `json:"failure_kind"`
}

type hashInput struct {
	OperationType string           `json:"operation_type"`
	Results       []hashedResult   `json:"results"`
	Confidence    int              `json:"confidence"`
	RiskLevel     policy.RiskLevel `json:"risk_level"`
	Allowed       bool             `json:"allowed"`
}

// Hash returns "sha256:<hex>" over the JCS-canonical decision content.
func (v *Verdict) Hash() (string, error) {
	in := hashInput{
		OperationType: v.OperationType,
		Results:       make([]hashedResult, 0, len(v.Results)),
		Confidence:    v.Confidence,
		RiskLevel:     v.RiskLevel,
		Allowed:       v.Allowed,
	}
	for _, r := range v.Results {
		in.Results = append(in.Results, hashedResult{
			Name:        r.Name,
			Passed:      r.Passed,
			FailureKind: r.FailureKind,
		})
	}

	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("verdict: hash marshal failed: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("verdict: hash canonicalization failed: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
