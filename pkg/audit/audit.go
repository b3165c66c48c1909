// Package audit emits verdict records to pluggable sinks.
//
// Emission only: the gate does not persist decisions. A sink that
// wants durability owns it on its side of the boundary.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/preflightd/preflight/pkg/policy"
	"github.com/preflightd/preflight/pkg/verdict"
)

// Sink receives one record per verdict. Sinks are notified after the
// verdict is complete and must not influence the decision.
type Sink interface {
	Record(ctx context.Context, v *verdict.Verdict) error
}

// Record is the JSON shape written by the built-in sink. It carries
// the decision and its hash, not the full per-check detail.
type Record struct {
	ID            string                 `json:"id"`
	Timestamp     time.Time              `json:"timestamp"`
	OperationType string                 `json:"operation_type"`
	Allowed       bool                   `json:"allowed"`
	Confidence    int                    `json:"confidence"`
	RiskLevel     policy.RiskLevel       `json:"risk_level"`
	DecisionHash  string                 `json:"decision_hash,omitempty"`
	Failures      *policy.FailureSummary `json:"failures,omitempty"`
}

type jsonSink struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewJSONSink creates a sink writing one JSON line per verdict.
func NewJSONSink(w io.Writer) Sink {
	if w == nil {
		w = os.Stdout
	}
	return &jsonSink{writer: w}
}

func (s *jsonSink) Record(_ context.Context, v *verdict.Verdict) error {
	rec := Record{
		ID:            v.ID,
		Timestamp:     v.Timestamp,
		OperationType: v.OperationType,
		Allowed:       v.Allowed,
		Confidence:    v.Confidence,
		RiskLevel:     v.RiskLevel,
		Failures:      v.FailureSummary,
	}
	if h, err := v.Hash(); err == nil {
		rec.DecisionHash = h
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.writer.Write(data)
	return err
}
