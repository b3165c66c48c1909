package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/preflightd/preflight/pkg/check"
)

// ToolAllowlisted denies any tool not on the explicit allowlist.
// Fail-closed: an empty allowlist denies everything.
func ToolAllowlisted(allowed ...string) check.Check {
	set := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		set[name] = true
	}
	return check.Check{
		Name:       "tool_allowlisted",
		Category:   CategoryGovernance,
		Critical:   true,
		Confidence: 100,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			name := p.String(ParamToolName)
			if name == "" {
				return check.Finding{}, fmt.Errorf("missing %q parameter", ParamToolName)
			}
			return check.Finding{Passed: set[name], Detail: name}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if !f.Passed {
				return fmt.Sprintf("tool %q not in allowlist", f.Detail), nil
			}
			return fmt.Sprintf("tool %q allowlisted", f.Detail), nil
		},
	}
}

// ParamsSchema validates tool parameters against per-tool JSON
// Schemas. Schemas are compiled once at construction; a tool with no
// schema passes. Draft 2020-12.
func ParamsSchema(schemas map[string]string) (check.Check, error) {
	compiled := make(map[string]*jsonschema.Schema, len(schemas))
	for tool, raw := range schemas {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		url := fmt.Sprintf("https://preflight.schemas.local/tools/%s.schema.json", tool)
		if err := c.AddResource(url, strings.NewReader(raw)); err != nil {
			return check.Check{}, fmt.Errorf("checks: schema load for %q failed: %w", tool, err)
		}
		s, err := c.Compile(url)
		if err != nil {
			return check.Check{}, fmt.Errorf("checks: schema compile for %q failed: %w", tool, err)
		}
		compiled[tool] = s
	}
	return check.Check{
		Name:       "params_schema",
		Category:   CategoryGovernance,
		Critical:   true,
		Confidence: 95,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			schema, ok := compiled[p.String(ParamToolName)]
			if !ok || schema == nil {
				return check.Finding{Passed: true}, nil
			}
			toolParams, _ := p[ParamToolParams].(map[string]any)
			if toolParams == nil {
				return check.Finding{Passed: false, Detail: "missing tool parameters"}, nil
			}
			if err := schema.Validate(toolParams); err != nil {
				return check.Finding{Passed: false, Detail: err.Error()}, nil
			}
			return check.Finding{Passed: true}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if !f.Passed {
				return fmt.Sprintf("schema validation failed: %v", f.Detail), nil
			}
			return "parameters conform to schema", nil
		},
	}, nil
}

// ToolVersion verifies a tool's reported version satisfies its semver
// constraint. Constraints are parsed once at construction; tools
// without a constraint, or calls without a version, pass.
func ToolVersion(constraints map[string]string) (check.Check, error) {
	parsed := make(map[string]*semver.Constraints, len(constraints))
	for tool, raw := range constraints {
		c, err := semver.NewConstraint(raw)
		if err != nil {
			return check.Check{}, fmt.Errorf("checks: version constraint for %q: %w", tool, err)
		}
		parsed[tool] = c
	}
	return check.Check{
		Name:       "tool_version",
		Category:   CategoryGovernance,
		Critical:   false,
		Confidence: 85,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			c, ok := parsed[p.String(ParamToolName)]
			if !ok {
				return check.Finding{Passed: true}, nil
			}
			raw := p.String(ParamToolVersion)
			if raw == "" {
				return check.Finding{Passed: true, Detail: "no version reported"}, nil
			}
			v, err := semver.NewVersion(raw)
			if err != nil {
				return check.Finding{Passed: false, Detail: fmt.Sprintf("unparseable version %q", raw)}, nil
			}
			return check.Finding{Passed: c.Check(v), Detail: raw}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if !f.Passed {
				return fmt.Sprintf("version constraint not satisfied: %v", f.Detail), nil
			}
			return "version constraint satisfied", nil
		},
	}, nil
}
