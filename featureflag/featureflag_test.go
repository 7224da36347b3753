package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{string(FlagDisableStreaming)})

	t.Run("run if enabled", func(t *testing.T) {
		var runStreaming bool
		f.IfSet(FlagDisableStreaming, func() {
			runStreaming = true
		})
		require.True(t, runStreaming)

		var runHalfSpace bool
		f.IfSet(FlagDisableHalfSpace, func() {
			runHalfSpace = true
		})
		require.False(t, runHalfSpace)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var runStreaming bool
		f.IfNotSet(FlagDisableStreaming, func() {
			runStreaming = true
		})
		require.False(t, runStreaming)

		var runHalfSpace bool
		f.IfNotSet(FlagDisableHalfSpace, func() {
			runHalfSpace = true
		})
		require.True(t, runHalfSpace)
	})
}

func TestNew(t *testing.T) {
	f := New([]string{" disable_planar_index", "", "DISABLE_TRIXEL_LISTING "})
	require.Len(t, f, 2)
	require.True(t, f.IsSet(FlagDisablePlanarIndex))
	require.True(t, f.IsSet(FlagDisableTrixelListing))
	require.False(t, f.IsSet(FlagDisableStreaming))
}

func TestNilFeatureFlag(t *testing.T) {
	var f FeatureFlag
	require.False(t, f.IsSet(FlagDisableHalfSpace))
}
