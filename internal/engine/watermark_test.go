package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatermarkOnlyMovesForward(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var w Watermark

	require.True(t, w.IsZero())
	require.True(t, w.Advance(base))
	require.Equal(t, base, w.Time())

	// Out-of-order and duplicate deliveries never move it back.
	require.False(t, w.Advance(base.Add(-time.Minute)))
	require.False(t, w.Advance(base))
	require.Equal(t, base, w.Time())

	require.True(t, w.Advance(base.Add(time.Second)))
	require.Equal(t, base.Add(time.Second), w.Time())
}

func TestWatermarkTracksMaxAcrossBatches(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var w Watermark

	// Batches arrive with interleaved timestamps, as when poll and
	// push race each other.
	for _, offset := range []time.Duration{2, 0, 5, 3, 1} {
		w.Advance(base.Add(offset * time.Second))
	}
	require.Equal(t, base.Add(5*time.Second), w.Time())
}
