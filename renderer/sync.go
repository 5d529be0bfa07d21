package renderer

import "github.com/vkngwrapper/core/v3/core1_0"

// SyncObjects holds one semaphore pair and one throttle fence per in-flight
// frame slot. Fences start signaled so the first wait on each slot passes.
type SyncObjects struct {
	ImageAvailable []core1_0.Semaphore
	RenderFinished []core1_0.Semaphore
	InFlight       []core1_0.Fence
}

func createSyncObjects(ctx *Context, framesInFlight int) (*SyncObjects, error) {
	sync := &SyncObjects{}

	for i := 0; i < framesInFlight; i++ {
		imageAvailable, _, err := ctx.DeviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return sync, err
		}
		sync.ImageAvailable = append(sync.ImageAvailable, imageAvailable)

		renderFinished, _, err := ctx.DeviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return sync, err
		}
		sync.RenderFinished = append(sync.RenderFinished, renderFinished)

		fence, _, err := ctx.DeviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return sync, err
		}
		sync.InFlight = append(sync.InFlight, fence)
	}

	return sync, nil
}

func (s *SyncObjects) Destroy(ctx *Context) {
	for _, sem := range s.ImageAvailable {
		if sem.Initialized() {
			ctx.DeviceDriver.DestroySemaphore(sem, nil)
		}
	}
	s.ImageAvailable = nil

	for _, sem := range s.RenderFinished {
		if sem.Initialized() {
			ctx.DeviceDriver.DestroySemaphore(sem, nil)
		}
	}
	s.RenderFinished = nil

	for _, fence := range s.InFlight {
		if fence.Initialized() {
			ctx.DeviceDriver.DestroyFence(fence, nil)
		}
	}
	s.InFlight = nil
}
