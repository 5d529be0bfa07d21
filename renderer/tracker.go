package renderer

// noOwner marks a swapchain image no in-flight frame slot has claimed yet.
const noOwner = -1

// frameTracker keeps the CPU-side bookkeeping of the frame loop: which slot
// is current, and which slot last claimed each swapchain image. A slot's
// fence must be waited before the slot is reused, and an image's previous
// owner's fence must be waited before the image is re-recorded.
type frameTracker struct {
	slotCount  int
	current    int
	imageOwner []int
}

func newFrameTracker(slotCount, imageCount int) *frameTracker {
	t := &frameTracker{slotCount: slotCount}
	t.ResetImages(imageCount)
	return t
}

func (t *frameTracker) CurrentSlot() int {
	return t.current
}

// ClaimImage records that the given slot now owns the image. It returns the
// previous owning slot and whether the caller must wait on that slot's fence
// before touching the image's resources.
func (t *frameTracker) ClaimImage(image, slot int) (prevOwner int, mustWait bool) {
	prevOwner = t.imageOwner[image]
	t.imageOwner[image] = slot
	return prevOwner, prevOwner != noOwner
}

// Advance moves to the next frame slot, wrapping around.
func (t *frameTracker) Advance() {
	t.current = (t.current + 1) % t.slotCount
}

// ResetImages clears all image ownership, sized for a new swapchain. The
// current slot is preserved.
func (t *frameTracker) ResetImages(imageCount int) {
	t.imageOwner = make([]int, imageCount)
	for i := range t.imageOwner {
		t.imageOwner[i] = noOwner
	}
}
