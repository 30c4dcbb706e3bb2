package configuration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigurationDefaults(t *testing.T) {
	t.Run("configuration_struct_exists", func(t *testing.T) {
		require.NotNil(t, &C, "Configuration should not be nil")
		require.NotNil(t, &C.App, "App configuration should exist")
		require.NotNil(t, &C.Database, "Database configuration should exist")
	})

	t.Run("publish_defaults_applied", func(t *testing.T) {
		require.Equal(t, 4, C.Publish.MaxParallel)
		require.Equal(t, 1000, C.Publish.DispatchDelayMs)
		require.NotEmpty(t, C.Publish.Platforms)
	})

	t.Run("scheduler_defaults_applied", func(t *testing.T) {
		require.Equal(t, 60, C.Scheduler.SweepIntervalSec)
		require.Equal(t, 10, C.Scheduler.ClaimTimeoutMin)
		require.Equal(t, 20, C.Scheduler.BatchSize)
	})
}
