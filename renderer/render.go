package renderer

import "github.com/loov/hrtime"

// frameBackend is the device-facing half of the frame loop, keyed by frame
// slot and swapchain image indices. *Renderer implements it against Vulkan.
type frameBackend interface {
	// WaitFrameFence blocks until the slot's previous submission retired.
	WaitFrameFence(slot int) error
	// ResetFrameFence unsignals the slot's fence ahead of a new submission.
	ResetFrameFence(slot int) error
	// AcquireImage asks the presentation engine for the next image, signaling
	// the slot's image-available semaphore. outOfDate reports that the
	// swapchain can no longer present at all.
	AcquireImage(slot int) (image int, outOfDate bool, err error)
	// UpdateUniforms advances animation by dt seconds and rewrites the
	// image's uniform buffer.
	UpdateUniforms(image int, dt float32) error
	// RecordCommands re-records the image's command buffers to draw the given
	// number of model instances.
	RecordCommands(image, modelCount int) error
	// Submit queues the image's primary command buffer, signaling the slot's
	// render-finished semaphore and fence.
	Submit(slot, image int) error
	// Present hands the image to the presentation engine. stale reports that
	// the swapchain should be rebuilt, whether or not the frame presented.
	Present(slot, image int) (stale bool, err error)
	// Rebuild replaces the swapchain and everything derived from it, and
	// reports the new image count. rebuilt is false when the backend left the
	// old swapchain in place, such as while the window is minimized.
	Rebuild() (imageCount int, rebuilt bool, err error)
}

// Orchestrator drives the per-frame state machine: fence throttling, image
// acquisition and ownership, uniform refresh, command re-recording,
// submission, presentation, and swapchain rebuild scheduling.
type Orchestrator struct {
	backend frameBackend
	tracker *frameTracker

	modelCount   int
	rebuildFlag  bool
	lastTick     float64
	tickedBefore bool

	// now reports seconds from a monotonic clock.
	now func() float64
}

func newOrchestrator(backend frameBackend, framesInFlight, imageCount int) *Orchestrator {
	return &Orchestrator{
		backend:    backend,
		tracker:    newFrameTracker(framesInFlight, imageCount),
		modelCount: minModelInstances,
		now:        func() float64 { return hrtime.Now().Seconds() },
	}
}

// SetModelCount requests how many model instances the next frame draws,
// clamped to the drawable range.
func (o *Orchestrator) SetModelCount(count int) {
	o.modelCount = clampModelCount(count)
}

// ModelCount reports the instance count the next frame will draw.
func (o *Orchestrator) ModelCount() int {
	return o.modelCount
}

// NotifyResize schedules a swapchain rebuild before the next frame is drawn.
func (o *Orchestrator) NotifyResize() {
	o.rebuildFlag = true
}

// rebuild asks the backend for a new swapchain. Image ownership and the
// pending-rebuild flag only reset when the backend actually rebuilt: a
// skipped rebuild leaves in-flight submissions tied to their images, and the
// rebuild still owed.
func (o *Orchestrator) rebuild() error {
	imageCount, rebuilt, err := o.backend.Rebuild()
	if err != nil {
		return err
	}
	if !rebuilt {
		return nil
	}

	o.tracker.ResetImages(imageCount)
	o.rebuildFlag = false
	return nil
}

// DrawFrame runs one tick of the frame loop. A tick whose acquire finds the
// swapchain out of date rebuilds it and returns without drawing; a resize
// notification or a stale present rebuilds after the frame is handed off. The
// frame slot only advances when a frame was actually submitted and presented.
func (o *Orchestrator) DrawFrame() error {
	dt := o.tick()

	slot := o.tracker.CurrentSlot()

	err := o.backend.WaitFrameFence(slot)
	if err != nil {
		return err
	}

	image, outOfDate, err := o.backend.AcquireImage(slot)
	if err != nil {
		return err
	}
	if outOfDate {
		return o.rebuild()
	}

	prevOwner, mustWait := o.tracker.ClaimImage(image, slot)
	if mustWait && prevOwner != slot {
		err = o.backend.WaitFrameFence(prevOwner)
		if err != nil {
			return err
		}
	}

	err = o.backend.UpdateUniforms(image, dt)
	if err != nil {
		return err
	}

	err = o.backend.RecordCommands(image, o.modelCount)
	if err != nil {
		return err
	}

	err = o.backend.ResetFrameFence(slot)
	if err != nil {
		return err
	}

	err = o.backend.Submit(slot, image)
	if err != nil {
		return err
	}

	stale, err := o.backend.Present(slot, image)
	if err != nil {
		return err
	}
	if stale || o.rebuildFlag {
		err = o.rebuild()
		if err != nil {
			return err
		}
	}

	o.tracker.Advance()
	return nil
}

// tick reports seconds elapsed since the previous tick, zero on the first.
func (o *Orchestrator) tick() float32 {
	now := o.now()
	if !o.tickedBefore {
		o.tickedBefore = true
		o.lastTick = now
		return 0
	}

	dt := now - o.lastTick
	o.lastTick = now
	return float32(dt)
}
