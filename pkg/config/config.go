// Package config loads a gate policy file.
//
// The file tunes the two policy knobs, the built-in rule bodies, and
// optional declarative CEL checks per operation type. Loading produces
// a fully constructed engine; there is no partial or mutable
// configuration state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/preflightd/preflight/pkg/check"
	"github.com/preflightd/preflight/pkg/checks"
	"github.com/preflightd/preflight/pkg/engine"
	"github.com/preflightd/preflight/pkg/policy"
	"github.com/preflightd/preflight/pkg/registry"
)

// Policy is the root of the gate policy file.
type Policy struct {
	Thresholds   Thresholds      `yaml:"policy"`
	CheckTimeout string          `yaml:"check_timeout,omitempty"`
	Builtin      Builtin         `yaml:"builtin"`
	Operations   []OperationSpec `yaml:"operations,omitempty"`
}

// Thresholds are the two policy knobs.
type Thresholds struct {
	MinimumConfidence      *int `yaml:"minimum_confidence,omitempty"`
	MaxNonCriticalFailures *int `yaml:"max_non_critical_failures,omitempty"`
}

// Builtin tunes the built-in rule bodies.
type Builtin struct {
	AllowedTools             []string          `yaml:"allowed_tools,omitempty"`
	ToolSchemas              map[string]string `yaml:"tool_schemas,omitempty"`
	ToolVersionConstraints   map[string]string `yaml:"tool_version_constraints,omitempty"`
	ProtectedPaths           []string          `yaml:"protected_paths,omitempty"`
	ExtraDestructivePatterns []string          `yaml:"extra_destructive_patterns,omitempty"`
}

// OperationSpec adds declarative CEL checks to an operation type. An
// unknown type creates a new parameter set from the listed checks.
type OperationSpec struct {
	Type   string      `yaml:"type"`
	Checks []CheckSpec `yaml:"checks"`
}

// CheckSpec declares one CEL-backed check.
type CheckSpec struct {
	Name       string `yaml:"name"`
	Category   string `yaml:"category,omitempty"`
	Critical   bool   `yaml:"critical"`
	Confidence int    `yaml:"confidence"`
	Expr       string `yaml:"expr"`
}

// Load reads and parses a policy file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &p, nil
}

// BuildRegistry materializes the registry: built-in parameter sets
// plus the declared CEL checks.
func (p *Policy) BuildRegistry() (*registry.Registry, error) {
	sets, err := checks.DefaultParameterSets(checks.Options{
		AllowedTools:             p.Builtin.AllowedTools,
		ToolSchemas:              p.Builtin.ToolSchemas,
		ToolVersionConstraints:   p.Builtin.ToolVersionConstraints,
		ProtectedPaths:           p.Builtin.ProtectedPaths,
		ExtraDestructivePatterns: p.Builtin.ExtraDestructivePatterns,
	})
	if err != nil {
		return nil, fmt.Errorf("config: built-in sets: %w", err)
	}

	byType := make(map[string]int, len(sets))
	for i, ps := range sets {
		byType[ps.OperationType()] = i
	}

	for _, spec := range p.Operations {
		extra := make([]check.Check, 0, len(spec.Checks))
		for _, cs := range spec.Checks {
			c, err := checks.FromCEL(cs.Name, cs.Category, cs.Critical, cs.Confidence, cs.Expr)
			if err != nil {
				return nil, fmt.Errorf("config: operation %q: %w", spec.Type, err)
			}
			extra = append(extra, c)
		}

		if i, ok := byType[spec.Type]; ok {
			base := sets[i].Checks()
			combined := make([]check.Check, 0, len(base)+len(extra))
			combined = append(combined, base...)
			combined = append(combined, extra...)
			merged, err := registry.NewParameterSet(spec.Type, combined)
			if err != nil {
				return nil, fmt.Errorf("config: operation %q: %w", spec.Type, err)
			}
			sets[i] = merged
			continue
		}

		ps, err := registry.NewParameterSet(spec.Type, extra)
		if err != nil {
			return nil, fmt.Errorf("config: operation %q: %w", spec.Type, err)
		}
		sets = append(sets, ps)
		byType[spec.Type] = len(sets) - 1
	}

	return registry.New(sets...)
}

// Build constructs an engine from the policy file content.
func (p *Policy) Build(opts ...engine.Option) (*engine.Engine, error) {
	reg, err := p.BuildRegistry()
	if err != nil {
		return nil, err
	}

	cfg := policy.DefaultConfig()
	if p.Thresholds.MinimumConfidence != nil {
		cfg.MinimumConfidence = *p.Thresholds.MinimumConfidence
	}
	if p.Thresholds.MaxNonCriticalFailures != nil {
		cfg.MaxNonCriticalFailures = *p.Thresholds.MaxNonCriticalFailures
	}

	all := []engine.Option{engine.WithPolicy(cfg)}
	if p.CheckTimeout != "" {
		d, err := time.ParseDuration(p.CheckTimeout)
		if err != nil {
			return nil, fmt.Errorf("config: check_timeout: %w", err)
		}
		all = append(all, engine.WithCheckTimeout(d))
	}
	all = append(all, opts...)

	return engine.New(reg, all...)
}
