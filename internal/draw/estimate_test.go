package draw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var estimatorConfig = EstimatorConfig{
	SecondsPerParticipant: 0.003,
	SoftFloor:             30 * time.Second,
	HardFloor:             60 * time.Second,
}

func TestEstimateLimitsClampsToFloor(t *testing.T) {
	limits := EstimateLimits(10, 100, estimatorConfig)

	// 10 * 0.003s * 100 = 3s, well under the floor.
	require.Equal(t, 30*time.Second, limits.Soft)
	require.Equal(t, 60*time.Second, limits.Hard)
}

func TestEstimateLimitsScalesWithParticipants(t *testing.T) {
	limits := EstimateLimits(200, 1000, estimatorConfig)

	// 200 * 0.003s * 1000 = 600s.
	require.Equal(t, 600*time.Second, limits.Soft)
	// The hard limit keeps the configured 30s buffer over the soft limit.
	require.Equal(t, 630*time.Second, limits.Hard)
}

func TestEstimateLimitsZeroParticipants(t *testing.T) {
	limits := EstimateLimits(0, 100, estimatorConfig)

	require.Equal(t, 30*time.Second, limits.Soft)
	require.Equal(t, 60*time.Second, limits.Hard)
}
