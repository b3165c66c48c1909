// Package registry maps operation types to their parameter sets.
//
// The registry is a pure catalog: built once at engine construction,
// immutable afterward. A config reload replaces the whole registry
// atomically rather than mutating it in place.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/preflightd/preflight/pkg/check"
)

var (
	// ErrUnknownOperation is returned on lookup of an unregistered
	// operation type. This is a configuration error; the engine fails
	// fast and never downgrades it to an allow/deny decision.
	ErrUnknownOperation = errors.New("registry: unknown operation type")

	// ErrEmptyParameterSet is returned when a parameter set carries no
	// checks. A gate with nothing to check is a misconfiguration, not a
	// vacuous pass.
	ErrEmptyParameterSet = errors.New("registry: parameter set has no checks")
)

// ParameterSet is the ordered collection of checks bound to one
// operation type. Order is registration order and determines result
// order in the verdict.
type ParameterSet struct {
	operationType string
	checks        []check.Check
}

// NewParameterSet validates and builds a parameter set. It rejects
// empty check lists, malformed checks, and duplicate check names.
func NewParameterSet(operationType string, checks []check.Check) (*ParameterSet, error) {
	if operationType == "" {
		return nil, fmt.Errorf("registry: operation type must not be empty")
	}
	if len(checks) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyParameterSet, operationType)
	}
	seen := make(map[string]bool, len(checks))
	for _, c := range checks {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("registry: parameter set %q: %w", operationType, err)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("registry: parameter set %q: duplicate check name %q", operationType, c.Name)
		}
		seen[c.Name] = true
	}
	ps := &ParameterSet{operationType: operationType}
	ps.checks = append(ps.checks, checks...)
	return ps, nil
}

// OperationType returns the operation type this set is bound to.
func (ps *ParameterSet) OperationType() string { return ps.operationType }

// Checks returns the checks in registration order. Callers must not
// mutate the returned slice.
func (ps *ParameterSet) Checks() []check.Check { return ps.checks }

// Registry is the immutable operation-type catalog.
type Registry struct {
	sets map[string]*ParameterSet
}

// New builds a registry from explicit parameter sets. Duplicate
// operation types are rejected.
func New(sets ...*ParameterSet) (*Registry, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("registry: at least one parameter set required")
	}
	r := &Registry{sets: make(map[string]*ParameterSet, len(sets))}
	for _, ps := range sets {
		if ps == nil {
			return nil, fmt.Errorf("registry: nil parameter set")
		}
		if _, dup := r.sets[ps.operationType]; dup {
			return nil, fmt.Errorf("registry: duplicate operation type %q", ps.operationType)
		}
		r.sets[ps.operationType] = ps
	}
	return r, nil
}

// Lookup resolves the parameter set for an operation type.
func (r *Registry) Lookup(operationType string) (*ParameterSet, error) {
	ps, ok := r.sets[operationType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, operationType)
	}
	return ps, nil
}

// OperationTypes lists the registered operation types, sorted.
func (r *Registry) OperationTypes() []string {
	out := make([]string, 0, len(r.sets))
	for op := range r.sets {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}
