package checks

import (
	"github.com/preflightd/preflight/pkg/check"
	"github.com/preflightd/preflight/pkg/registry"
)

// Reference operation types.
const (
	OpSurgicalEdit     = "surgical_edit"
	OpCommandExecution = "command_execution"
	OpToolCall         = "tool_call"
	OpFileOperation    = "file_operation"
)

// Options tunes the built-in parameter sets.
type Options struct {
	// AllowedTools is the tool_call allowlist. Empty denies all tools.
	AllowedTools []string
	// ToolSchemas maps tool name to a JSON Schema for its parameters.
	ToolSchemas map[string]string
	// ToolVersionConstraints maps tool name to a semver constraint.
	ToolVersionConstraints map[string]string
	// ProtectedPaths overrides DefaultProtectedPatterns when non-empty.
	ProtectedPaths []string
	// ExtraDestructivePatterns extends the destructive command list.
	ExtraDestructivePatterns []string
}

// DefaultParameterSets builds the four reference parameter sets.
func DefaultParameterSets(opts Options) ([]*registry.ParameterSet, error) {
	edit, err := registry.NewParameterSet(OpSurgicalEdit, []check.Check{
		ExactMatch(),
		UniqueMatch(),
		SizeDelta(),
		BraceBalance(),
		SecretIntroduction(),
	})
	if err != nil {
		return nil, err
	}

	cmd, err := registry.NewParameterSet(OpCommandExecution, []check.Check{
		DestructiveCommand(opts.ExtraDestructivePatterns...),
		WorkdirInsideWorkspace(),
		ShellInjection(),
	})
	if err != nil {
		return nil, err
	}

	fileOp, err := registry.NewParameterSet(OpFileOperation, []check.Check{
		PathInsideWorkspace(),
		ProtectedPath(opts.ProtectedPaths...),
		ContentSecretScan(),
	})
	if err != nil {
		return nil, err
	}

	schemaCheck, err := ParamsSchema(opts.ToolSchemas)
	if err != nil {
		return nil, err
	}
	versionCheck, err := ToolVersion(opts.ToolVersionConstraints)
	if err != nil {
		return nil, err
	}
	tool, err := registry.NewParameterSet(OpToolCall, []check.Check{
		ToolAllowlisted(opts.AllowedTools...),
		schemaCheck,
		versionCheck,
	})
	if err != nil {
		return nil, err
	}

	return []*registry.ParameterSet{edit, cmd, tool, fileOp}, nil
}

// DefaultRegistry wires the built-in rule bodies for the four
// reference operation types.
func DefaultRegistry(opts Options) (*registry.Registry, error) {
	sets, err := DefaultParameterSets(opts)
	if err != nil {
		return nil, err
	}
	return registry.New(sets...)
}
