package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		PresenceUpdates,
		VoiceConnectAttempts,
		VoiceReconnectEpisodes,
		VoiceConnected,
		BackgroundLoops,
		LifecycleEvents,
	}
	for _, c := range collectors {
		assert.NotNil(t, c)
	}
}

func TestPresenceUpdates_ByResult(t *testing.T) {
	before := testutil.ToFloat64(PresenceUpdates.WithLabelValues(ResultRateLimited))
	PresenceUpdates.WithLabelValues(ResultRateLimited).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PresenceUpdates.WithLabelValues(ResultRateLimited)))
}

func TestBackgroundLoops_Exposition(t *testing.T) {
	BackgroundLoops.WithLabelValues(LoopStatus).Set(1)
	t.Cleanup(func() { BackgroundLoops.WithLabelValues(LoopStatus).Set(0) })

	expected := `
# HELP afkbot_background_loops Running background loops (status/monitor)
# TYPE afkbot_background_loops gauge
afkbot_background_loops{loop="status"} 1
`
	require.NoError(t, testutil.CollectAndCompare(BackgroundLoops, strings.NewReader(expected)))
}
