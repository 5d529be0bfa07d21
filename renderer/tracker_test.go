package renderer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackerStartsUnowned(t *testing.T) {
	tracker := newFrameTracker(2, 3)

	require.Equal(t, 0, tracker.CurrentSlot())

	for image := 0; image < 3; image++ {
		prev, mustWait := tracker.ClaimImage(image, 0)
		require.Equal(t, noOwner, prev)
		require.False(t, mustWait)
	}
}

func TestTrackerReportsPreviousOwner(t *testing.T) {
	tracker := newFrameTracker(2, 3)

	_, _ = tracker.ClaimImage(1, 0)

	prev, mustWait := tracker.ClaimImage(1, 1)
	require.Equal(t, 0, prev)
	require.True(t, mustWait)

	// The new owner sticks.
	prev, mustWait = tracker.ClaimImage(1, 0)
	require.Equal(t, 1, prev)
	require.True(t, mustWait)
}

func TestTrackerAdvanceWraps(t *testing.T) {
	tracker := newFrameTracker(2, 3)

	tracker.Advance()
	require.Equal(t, 1, tracker.CurrentSlot())

	tracker.Advance()
	require.Equal(t, 0, tracker.CurrentSlot())
}

func TestTrackerResetImagesClearsOwnershipKeepsSlot(t *testing.T) {
	tracker := newFrameTracker(3, 2)
	tracker.Advance()
	_, _ = tracker.ClaimImage(0, 1)

	tracker.ResetImages(4)

	require.Equal(t, 1, tracker.CurrentSlot())
	for image := 0; image < 4; image++ {
		prev, mustWait := tracker.ClaimImage(image, 2)
		require.Equal(t, noOwner, prev)
		require.False(t, mustWait)
	}
}
