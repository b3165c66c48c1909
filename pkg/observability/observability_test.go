package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preflightd/preflight/pkg/check"
	"github.com/preflightd/preflight/pkg/policy"
	"github.com/preflightd/preflight/pkg/verdict"
)

func TestDisabledProviderIsInert(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	p, err := New(context.Background(), cfg)
	require.NoError(t, err)

	results := []check.Result{
		{Name: "c", Critical: true, Confidence: 100, Passed: false, FailureKind: check.FailurePredicate},
	}
	out := policy.Aggregate(results, policy.DefaultConfig())
	v := verdict.New("op", "id", time.Now().UTC(), time.Millisecond, results, out)

	// Must be safe to record against a disabled provider.
	p.RecordVerdict(context.Background(), v)

	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "preflight", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.NotEmpty(t, cfg.OTLPEndpoint)
}
