package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikey/voice-retrieval/internal/core"
)

// The feedback loop is wired entirely from the container: the tracker, its
// store and the index must resolve without a config file on disk.
func TestBuildContainerResolvesUsageTracker(t *testing.T) {
	t.Setenv("VOICE_RETRIEVAL_INDEX_TYPE", "memory")
	t.Setenv("VOICE_RETRIEVAL_USAGE_STORE", "memory")

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(tracker *core.UsageTracker, store core.UsageStore, index core.VectorIndex) {
		require.NotNil(t, tracker)
		require.NotNil(t, index)

		tracker.TrackExampleUsage(context.Background(), "draft-1", "u1", []string{"ex-1"})
		effectiveness, err := tracker.GetExampleEffectiveness(context.Background(), []string{"ex-1"})
		require.NoError(t, err)
		require.Equal(t, core.EffectivenessNoData, effectiveness["ex-1"])

		if stopper, ok := store.(interface{ Stop() }); ok {
			stopper.Stop()
		}
	})
	require.NoError(t, err)
}
