package renderer

import (
	"unsafe"

	"github.com/vkngwrapper/core/v3/core1_0"
)

// renderTargets holds the multisampled color and depth attachments shared by
// every framebuffer of the current swapchain.
type renderTargets struct {
	colorImage  core1_0.Image
	colorMemory core1_0.DeviceMemory
	colorView   core1_0.ImageView

	depthImage  core1_0.Image
	depthMemory core1_0.DeviceMemory
	depthView   core1_0.ImageView
}

func createRenderTargets(ctx *Context, extent core1_0.Extent2D, colorFormat core1_0.Format) (*renderTargets, error) {
	targets := &renderTargets{}

	var err error
	targets.colorImage, targets.colorMemory, err = createImage(ctx,
		extent.Width,
		extent.Height,
		1,
		ctx.MsaaSamples,
		colorFormat,
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageTransientAttachment|core1_0.ImageUsageColorAttachment,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return targets, err
	}

	targets.colorView, err = createImageView(ctx, targets.colorImage, colorFormat, core1_0.ImageAspectColor, 1)
	if err != nil {
		return targets, err
	}

	depthFormat, err := findDepthFormat(ctx)
	if err != nil {
		return targets, err
	}

	targets.depthImage, targets.depthMemory, err = createImage(ctx,
		extent.Width,
		extent.Height,
		1,
		ctx.MsaaSamples,
		depthFormat,
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageDepthStencilAttachment,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return targets, err
	}

	targets.depthView, err = createImageView(ctx, targets.depthImage, depthFormat, core1_0.ImageAspectDepth, 1)
	return targets, err
}

func (t *renderTargets) Destroy(ctx *Context) {
	if t.depthView.Initialized() {
		ctx.DeviceDriver.DestroyImageView(t.depthView, nil)
		t.depthView = core1_0.ImageView{}
	}
	if t.depthImage.Initialized() {
		ctx.DeviceDriver.DestroyImage(t.depthImage, nil)
		t.depthImage = core1_0.Image{}
	}
	if t.depthMemory.Initialized() {
		ctx.DeviceDriver.FreeMemory(t.depthMemory, nil)
		t.depthMemory = core1_0.DeviceMemory{}
	}
	if t.colorView.Initialized() {
		ctx.DeviceDriver.DestroyImageView(t.colorView, nil)
		t.colorView = core1_0.ImageView{}
	}
	if t.colorImage.Initialized() {
		ctx.DeviceDriver.DestroyImage(t.colorImage, nil)
		t.colorImage = core1_0.Image{}
	}
	if t.colorMemory.Initialized() {
		ctx.DeviceDriver.FreeMemory(t.colorMemory, nil)
		t.colorMemory = core1_0.DeviceMemory{}
	}
}

// imageFrame is everything owned by one swapchain image: its framebuffer,
// uniform buffer, descriptor set, and a resettable command pool whose
// primary and secondary buffers are re-recorded each frame.
type imageFrame struct {
	framebuffer core1_0.Framebuffer

	uniformBuffer core1_0.Buffer
	uniformMemory core1_0.DeviceMemory
	descriptorSet core1_0.DescriptorSet

	commandPool core1_0.CommandPool
	primary     core1_0.CommandBuffer
	secondaries []core1_0.CommandBuffer
}

// frameSet is the per-swapchain-image resource table plus a descriptor pool
// sized for it. It is rebuilt with the swapchain.
type frameSet struct {
	targets        *renderTargets
	descriptorPool core1_0.DescriptorPool
	frames         []*imageFrame
}

func createFrameSet(ctx *Context, sc *Swapchain, renderPass core1_0.RenderPass, pipeline *Pipeline, texture *Texture) (*frameSet, error) {
	set := &frameSet{}

	var err error
	set.targets, err = createRenderTargets(ctx, sc.Extent, sc.Format)
	if err != nil {
		return set, err
	}

	imageCount := len(sc.Images)

	set.descriptorPool, _, err = ctx.DeviceDriver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: imageCount,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: imageCount,
			},
			{
				Type:            core1_0.DescriptorTypeCombinedImageSampler,
				DescriptorCount: imageCount,
			},
		},
	})
	if err != nil {
		return set, err
	}

	var allocLayouts []core1_0.DescriptorSetLayout
	for i := 0; i < imageCount; i++ {
		allocLayouts = append(allocLayouts, pipeline.DescriptorSetLayout)
	}

	descriptorSets, _, err := ctx.DeviceDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: set.descriptorPool,
		SetLayouts:     allocLayouts,
	})
	if err != nil {
		return set, err
	}

	uniformSize := int(unsafe.Sizeof(UniformPayload{}))

	for i := 0; i < imageCount; i++ {
		frame := &imageFrame{descriptorSet: descriptorSets[i]}
		set.frames = append(set.frames, frame)

		frame.framebuffer, _, err = ctx.DeviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				set.targets.colorView,
				set.targets.depthView,
				sc.Views[i],
			},
			Width:  sc.Extent.Width,
			Height: sc.Extent.Height,
		})
		if err != nil {
			return set, err
		}

		frame.uniformBuffer, frame.uniformMemory, err = createBuffer(ctx, uniformSize, core1_0.BufferUsageUniformBuffer, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
		if err != nil {
			return set, err
		}

		err = ctx.DeviceDriver.UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
			{
				DstSet:          frame.descriptorSet,
				DstBinding:      0,
				DstArrayElement: 0,

				DescriptorType: core1_0.DescriptorTypeUniformBuffer,

				BufferInfo: []core1_0.DescriptorBufferInfo{
					{
						Buffer: frame.uniformBuffer,
						Offset: 0,
						Range:  uniformSize,
					},
				},
			},
			{
				DstSet:          frame.descriptorSet,
				DstBinding:      1,
				DstArrayElement: 0,

				DescriptorType: core1_0.DescriptorTypeCombinedImageSampler,

				ImageInfo: []core1_0.DescriptorImageInfo{
					{
						ImageView:   texture.View,
						Sampler:     texture.Sampler,
						ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal,
					},
				},
			},
		}, nil)
		if err != nil {
			return set, err
		}

		frame.commandPool, _, err = ctx.DeviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
			QueueFamilyIndex: ctx.GraphicsFamily,
			Flags:            core1_0.CommandPoolCreateTransient,
		})
		if err != nil {
			return set, err
		}

		primaries, _, err := ctx.DeviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
			CommandPool:        frame.commandPool,
			Level:              core1_0.CommandBufferLevelPrimary,
			CommandBufferCount: 1,
		})
		if err != nil {
			return set, err
		}
		frame.primary = primaries[0]

		frame.secondaries, _, err = ctx.DeviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
			CommandPool:        frame.commandPool,
			Level:              core1_0.CommandBufferLevelSecondary,
			CommandBufferCount: maxModelInstances,
		})
		if err != nil {
			return set, err
		}
	}

	return set, nil
}

func (s *frameSet) Destroy(ctx *Context) {
	for _, frame := range s.frames {
		if frame.commandPool.Initialized() {
			ctx.DeviceDriver.DestroyCommandPool(frame.commandPool, nil)
			frame.commandPool = core1_0.CommandPool{}
		}
		if frame.uniformBuffer.Initialized() {
			ctx.DeviceDriver.DestroyBuffer(frame.uniformBuffer, nil)
			frame.uniformBuffer = core1_0.Buffer{}
		}
		if frame.uniformMemory.Initialized() {
			ctx.DeviceDriver.FreeMemory(frame.uniformMemory, nil)
			frame.uniformMemory = core1_0.DeviceMemory{}
		}
		if frame.framebuffer.Initialized() {
			ctx.DeviceDriver.DestroyFramebuffer(frame.framebuffer, nil)
			frame.framebuffer = core1_0.Framebuffer{}
		}
	}
	s.frames = nil

	if s.descriptorPool.Initialized() {
		ctx.DeviceDriver.DestroyDescriptorPool(s.descriptorPool, nil)
		s.descriptorPool = core1_0.DescriptorPool{}
	}

	if s.targets != nil {
		s.targets.Destroy(ctx)
		s.targets = nil
	}
}
