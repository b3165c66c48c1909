package checks

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/preflightd/preflight/pkg/check"
)

// FromCEL compiles a CEL expression into a rule body. The expression
// sees the parameter bundle as the map variable `params` and must
// evaluate to a bool. Compilation happens once at construction, so a
// bad expression is a configuration error, never a runtime fault.
func FromCEL(name, category string, critical bool, confidence int, expr string) (check.Check, error) {
	env, err := cel.NewEnv(
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return check.Check{}, fmt.Errorf("checks: cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return check.Check{}, fmt.Errorf("checks: cel compile %q: %w", name, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return check.Check{}, fmt.Errorf("checks: cel check %q: expression must yield bool, got %s", name, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return check.Check{}, fmt.Errorf("checks: cel program %q: %w", name, err)
	}

	return check.Check{
		Name:       name,
		Category:   category,
		Critical:   critical,
		Confidence: confidence,
		Predicate: func(_ context.Context, p check.Params) (check.Finding, error) {
			val, _, err := prg.Eval(map[string]any{"params": map[string]any(p)})
			if err != nil {
				return check.Finding{}, fmt.Errorf("cel evaluation: %w", err)
			}
			passed, ok := val.Value().(bool)
			if !ok {
				return check.Finding{}, fmt.Errorf("cel expression yielded %T, want bool", val.Value())
			}
			return check.Finding{Passed: passed}, nil
		},
		Describe: func(p check.Params, f check.Finding) (string, error) {
			if !f.Passed {
				return fmt.Sprintf("expression %q not satisfied", expr), nil
			}
			return fmt.Sprintf("expression %q satisfied", expr), nil
		},
	}, nil
}
