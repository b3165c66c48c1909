package engine

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Statistics holds the engine's running counters. Counters are updated
// with atomic increments because multiple Validate calls may run
// concurrently against the same engine. Never persisted.
type Statistics struct {
	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64

	mu    sync.RWMutex
	perOp map[string]*opCounters
}

type opCounters struct {
	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64
}

func newStatistics() *Statistics {
	return &Statistics{perOp: make(map[string]*opCounters)}
}

func (s *Statistics) record(operationType string, allowed bool) {
	s.total.Add(1)
	if allowed {
		s.allowed.Add(1)
	} else {
		s.denied.Add(1)
	}

	s.mu.RLock()
	oc, ok := s.perOp[operationType]
	s.mu.RUnlock()
	if !ok {
		s.mu.Lock()
		oc, ok = s.perOp[operationType]
		if !ok {
			oc = &opCounters{}
			s.perOp[operationType] = oc
		}
		s.mu.Unlock()
	}

	oc.total.Add(1)
	if allowed {
		oc.allowed.Add(1)
	} else {
		oc.denied.Add(1)
	}
}

// OpStats are the counters for one operation type.
type OpStats struct {
	OperationType string `json:"operation_type"`
	Total         int64  `json:"total"`
	Allowed       int64  `json:"allowed"`
	Denied        int64  `json:"denied"`
}

// StatsSnapshot is a point-in-time copy of the running counters.
type StatsSnapshot struct {
	Total      int64     `json:"total"`
	Allowed    int64     `json:"allowed"`
	Denied     int64     `json:"denied"`
	Operations []OpStats `json:"operations"`
}

func (s *Statistics) snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Total:   s.total.Load(),
		Allowed: s.allowed.Load(),
		Denied:  s.denied.Load(),
	}

	s.mu.RLock()
	for op, oc := range s.perOp {
		snap.Operations = append(snap.Operations, OpStats{
			OperationType: op,
			Total:         oc.total.Load(),
			Allowed:       oc.allowed.Load(),
			Denied:        oc.denied.Load(),
		})
	}
	s.mu.RUnlock()

	sort.Slice(snap.Operations, func(i, j int) bool {
		return snap.Operations[i].OperationType < snap.Operations[j].OperationType
	})
	return snap
}
