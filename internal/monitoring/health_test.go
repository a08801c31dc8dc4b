package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarcraft/polarstudio/internal/registry"
)

func staticCheck(name string, critical bool, status HealthStatus) HealthChecker {
	return NewHealthCheckFunc(name, critical, func(context.Context) HealthCheck {
		return HealthCheck{Status: status}
	})
}

func TestHealthMonitorOverallStatus(t *testing.T) {
	tests := []struct {
		name   string
		checks []HealthChecker
		want   HealthStatus
	}{
		{"no checks", nil, HealthStatusHealthy},
		{"all healthy", []HealthChecker{
			staticCheck("a", true, HealthStatusHealthy),
			staticCheck("b", false, HealthStatusHealthy),
		}, HealthStatusHealthy},
		{"non-critical failure degrades", []HealthChecker{
			staticCheck("a", true, HealthStatusHealthy),
			staticCheck("b", false, HealthStatusUnhealthy),
		}, HealthStatusDegraded},
		{"critical degraded", []HealthChecker{
			staticCheck("a", true, HealthStatusDegraded),
		}, HealthStatusDegraded},
		{"critical failure", []HealthChecker{
			staticCheck("a", true, HealthStatusUnhealthy),
			staticCheck("b", false, HealthStatusDegraded),
		}, HealthStatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hm := NewHealthMonitor(nil)
			for _, c := range tt.checks {
				hm.RegisterCheck(c)
			}

			health := hm.GetHealth(context.Background())
			assert.Equal(t, tt.want, health.Status)
			assert.Equal(t, len(tt.checks), health.Summary.Total)
			assert.Len(t, health.Checks, len(tt.checks))
		})
	}
}

func TestHealthMonitorFillsCheckFields(t *testing.T) {
	hm := NewHealthMonitor(nil)
	hm.RegisterCheck(staticCheck("codec", true, HealthStatusHealthy))

	health := hm.GetHealth(context.Background())
	check := health.Checks["codec"]
	assert.Equal(t, "codec", check.Name)
	assert.True(t, check.Critical)
	assert.False(t, check.LastChecked.IsZero())
	assert.Equal(t, 1, health.Summary.Critical)
	assert.NotZero(t, health.SystemInfo.PID)
	assert.Equal(t, []string{"codec"}, hm.Names())
}

func TestCodecHealthChecker(t *testing.T) {
	check := CodecHealthChecker(registry.Default()).Check(context.Background())

	assert.Equal(t, HealthStatusHealthy, check.Status, check.Message)
	assert.Equal(t, registry.Default().Len(), check.Metadata["kinds"])
}

func TestCodecHealthCheckerEmptyRegistry(t *testing.T) {
	empty, err := registry.New()
	require.NoError(t, err)

	check := CodecHealthChecker(empty).Check(context.Background())
	assert.Equal(t, HealthStatusHealthy, check.Status, check.Message)
	assert.Equal(t, 0, check.Metadata["kinds"])
}

func TestRuntimeCheckers(t *testing.T) {
	hm := NewHealthMonitor(nil)
	hm.RegisterCheck(MemoryHealthChecker())
	hm.RegisterCheck(GoroutineHealthChecker())

	health := hm.GetHealth(context.Background())
	assert.Equal(t, HealthStatusHealthy, health.Status)
	assert.Contains(t, health.Checks["goroutines"].Metadata, "count")
	assert.Contains(t, health.Checks["memory"].Metadata, "heap_alloc")
}
