package telemetry_test

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfilerDisabled(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfilerRequiresServerAndName(t *testing.T) {
	_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ApplicationName: "storefront"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "server address")

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "application name")
}

func TestProfileTypes(t *testing.T) {
	base := telemetry.ProfileTypes(false)
	assert.Len(t, base, 6)
	assert.Contains(t, base, pyroscope.ProfileCPU)
	assert.NotContains(t, base, pyroscope.ProfileMutexCount)

	all := telemetry.ProfileTypes(true)
	assert.Len(t, all, 10)
	assert.Contains(t, all, pyroscope.ProfileBlockDuration)
}

func TestWithProfileLabels(t *testing.T) {
	t.Run("labels are visible inside fn", func(t *testing.T) {
		var got string
		telemetry.WithProfileLabels(context.Background(), func(ctx context.Context) {
			got, _ = pprof.Label(ctx, "job_type")
		}, "job_type", "cart_cleanup")
		assert.Equal(t, "cart_cleanup", got)
	})

	t.Run("odd trailing name is dropped", func(t *testing.T) {
		called := false
		telemetry.WithProfileLabels(context.Background(), func(ctx context.Context) {
			called = true
			_, ok := pprof.Label(ctx, "dangling")
			assert.False(t, ok)
		}, "dangling")
		assert.True(t, called)
	})
}
