package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preflightd/preflight/pkg/check"
	"github.com/preflightd/preflight/pkg/checks"
)

const samplePolicy = `
policy:
  minimum_confidence: 70
  max_non_critical_failures: 1
check_timeout: 500ms
builtin:
  allowed_tools:
    - read_file
    - search
  tool_version_constraints:
    formatter: ">= 2.0.0"
  protected_paths:
    - ".git/"
operations:
  - type: surgical_edit
    checks:
      - name: no_todo
        category: hygiene
        critical: false
        confidence: 60
        expr: '!(params.new_text.contains("TODO"))'
  - type: database_migration
    checks:
      - name: no_drop_table
        category: safety
        critical: true
        confidence: 95
        expr: '!(params.sql.contains("DROP TABLE"))'
`

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preflight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndBuild(t *testing.T) {
	pol, err := Load(writePolicy(t, samplePolicy))
	require.NoError(t, err)

	require.NotNil(t, pol.Thresholds.MinimumConfidence)
	assert.Equal(t, 70, *pol.Thresholds.MinimumConfidence)
	assert.Equal(t, "500ms", pol.CheckTimeout)

	eng, err := pol.Build()
	require.NoError(t, err)

	assert.Contains(t, eng.OperationTypes(), "surgical_edit")
	assert.Contains(t, eng.OperationTypes(), "database_migration")
}

func TestBuildAppendsCELChecksToBuiltinSet(t *testing.T) {
	pol, err := Load(writePolicy(t, samplePolicy))
	require.NoError(t, err)
	reg, err := pol.BuildRegistry()
	require.NoError(t, err)

	ps, err := reg.Lookup(checks.OpSurgicalEdit)
	require.NoError(t, err)

	last := ps.Checks()[len(ps.Checks())-1]
	assert.Equal(t, "no_todo", last.Name)
	assert.Equal(t, "hygiene", last.Category)
}

func TestBuildCustomOperationType(t *testing.T) {
	pol, err := Load(writePolicy(t, samplePolicy))
	require.NoError(t, err)
	eng, err := pol.Build()
	require.NoError(t, err)

	v, err := eng.Validate(context.Background(), "database_migration", check.Params{
		"sql": "ALTER TABLE users ADD COLUMN age INT",
	})
	require.NoError(t, err)
	assert.True(t, v.Allowed)

	v, err = eng.Validate(context.Background(), "database_migration", check.Params{
		"sql": "DROP TABLE users",
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writePolicy(t, "policy: [unclosed"))
	assert.Error(t, err)
}

func TestBuildRejectsBadExpression(t *testing.T) {
	bad := `
operations:
  - type: surgical_edit
    checks:
      - name: broken
        critical: false
        confidence: 50
        expr: 'params.x ==='
`
	pol, err := Load(writePolicy(t, bad))
	require.NoError(t, err)
	_, err = pol.Build()
	assert.Error(t, err)
}

func TestBuildRejectsBadTimeout(t *testing.T) {
	pol, err := Load(writePolicy(t, "check_timeout: soon"))
	require.NoError(t, err)
	_, err = pol.Build()
	assert.Error(t, err)
}

func TestBuildDefaultsWithEmptyPolicy(t *testing.T) {
	pol, err := Load(writePolicy(t, "{}"))
	require.NoError(t, err)
	eng, err := pol.Build()
	require.NoError(t, err)

	// Built-in operation types are always present.
	assert.Len(t, eng.OperationTypes(), 4)
}
