package renderer

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

// TransientExecutor runs short command sequences synchronously against a
// dedicated transient command pool: allocate, record, submit, wait idle,
// free. Used for one-shot copies and layout transitions at load time; it
// serializes with rendering by design.
type TransientExecutor struct {
	pool core1_0.CommandPool
}

func createTransientExecutor(ctx *Context) (*TransientExecutor, error) {
	pool, _, err := ctx.DeviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateTransient,
		QueueFamilyIndex: ctx.GraphicsFamily,
	})
	if err != nil {
		return nil, err
	}

	return &TransientExecutor{pool: pool}, nil
}

// Run records commands through the callback and blocks until the graphics
// queue has executed them.
func (t *TransientExecutor) Run(ctx *Context, record func(buffer core1_0.CommandBuffer) error) error {
	buffers, _, err := ctx.DeviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        t.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return err
	}

	buffer := buffers[0]
	defer ctx.DeviceDriver.FreeCommandBuffers(buffer)

	_, err = ctx.DeviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return err
	}

	if err := record(buffer); err != nil {
		return err
	}

	_, err = ctx.DeviceDriver.EndCommandBuffer(buffer)
	if err != nil {
		return err
	}

	_, err = ctx.DeviceDriver.QueueSubmit(ctx.GraphicsQueue, nil,
		core1_0.SubmitInfo{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	)
	if err != nil {
		return err
	}

	_, err = ctx.DeviceDriver.QueueWaitIdle(ctx.GraphicsQueue)
	return err
}

func (t *TransientExecutor) Destroy(ctx *Context) {
	if t.pool.Initialized() {
		ctx.DeviceDriver.DestroyCommandPool(t.pool, nil)
		t.pool = core1_0.CommandPool{}
	}
}
