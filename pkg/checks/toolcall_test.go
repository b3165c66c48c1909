package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preflightd/preflight/pkg/check"
)

func toolParams(name string, params map[string]any) check.Params {
	p := check.Params{ParamToolName: name}
	if params != nil {
		p[ParamToolParams] = params
	}
	return p
}

func TestToolAllowlisted(t *testing.T) {
	c := ToolAllowlisted("read_file", "search")
	ctx := context.Background()

	f, err := c.Predicate(ctx, toolParams("read_file", nil))
	require.NoError(t, err)
	assert.True(t, f.Passed)

	f, err = c.Predicate(ctx, toolParams("delete_everything", nil))
	require.NoError(t, err)
	assert.False(t, f.Passed)

	msg, err := c.Describe(nil, f)
	require.NoError(t, err)
	assert.Contains(t, msg, "not in allowlist")
}

func TestToolAllowlistedFailClosed(t *testing.T) {
	// Empty allowlist denies everything.
	c := ToolAllowlisted()
	f, err := c.Predicate(context.Background(), toolParams("anything", nil))
	require.NoError(t, err)
	assert.False(t, f.Passed)
}

func TestToolAllowlistedMissingName(t *testing.T) {
	c := ToolAllowlisted("x")
	_, err := c.Predicate(context.Background(), check.Params{})
	assert.Error(t, err)
}

const readFileSchema = `{
	"type": "object",
	"properties": {
		"path": {"type": "string"}
	},
	"required": ["path"],
	"additionalProperties": false
}`

func TestParamsSchema(t *testing.T) {
	c, err := ParamsSchema(map[string]string{"read_file": readFileSchema})
	require.NoError(t, err)
	ctx := context.Background()

	f, err := c.Predicate(ctx, toolParams("read_file", map[string]any{"path": "main.go"}))
	require.NoError(t, err)
	assert.True(t, f.Passed)

	f, err = c.Predicate(ctx, toolParams("read_file", map[string]any{"path": 42}))
	require.NoError(t, err)
	assert.False(t, f.Passed)

	f, err = c.Predicate(ctx, toolParams("read_file", nil))
	require.NoError(t, err)
	assert.False(t, f.Passed)

	// Tools without a schema pass.
	f, err = c.Predicate(ctx, toolParams("search", map[string]any{"anything": true}))
	require.NoError(t, err)
	assert.True(t, f.Passed)
}

func TestParamsSchemaRejectsBadSchema(t *testing.T) {
	_, err := ParamsSchema(map[string]string{"broken": `{"type": 42}`})
	assert.Error(t, err)
}

func TestToolVersion(t *testing.T) {
	c, err := ToolVersion(map[string]string{"formatter": ">= 2.0.0, < 3.0.0"})
	require.NoError(t, err)
	ctx := context.Background()

	p := toolParams("formatter", nil)
	p[ParamToolVersion] = "2.4.1"
	f, err := c.Predicate(ctx, p)
	require.NoError(t, err)
	assert.True(t, f.Passed)

	p[ParamToolVersion] = "1.9.0"
	f, err = c.Predicate(ctx, p)
	require.NoError(t, err)
	assert.False(t, f.Passed)

	p[ParamToolVersion] = "not-a-version"
	f, err = c.Predicate(ctx, p)
	require.NoError(t, err)
	assert.False(t, f.Passed)

	// No constraint, or no reported version: pass.
	f, err = c.Predicate(ctx, toolParams("other", nil))
	require.NoError(t, err)
	assert.True(t, f.Passed)

	f, err = c.Predicate(ctx, toolParams("formatter", nil))
	require.NoError(t, err)
	assert.True(t, f.Passed)
}

func TestToolVersionRejectsBadConstraint(t *testing.T) {
	_, err := ToolVersion(map[string]string{"x": ">>nope"})
	assert.Error(t, err)
}
