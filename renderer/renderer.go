package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// Renderer owns every Vulkan object needed to draw the textured model and
// implements the device-facing half of the frame loop. All methods must be
// called from the thread that owns the window.
type Renderer struct {
	window *sdl.Window
	cfg    Config
	ctx    *Context

	transient *TransientExecutor
	texture   *Texture
	mesh      *Mesh

	swapchain  *Swapchain
	renderPass core1_0.RenderPass
	pipeline   *Pipeline
	frames     *frameSet
	sync       *SyncObjects

	transforms Transforms

	orchestrator *Orchestrator
}

// New brings up the full Vulkan stack for the window: device context, static
// assets, the swapchain and everything derived from it, and the frame loop
// state.
func New(window *sdl.Window, cfg Config) (*Renderer, error) {
	cfg = cfg.withDefaults()

	r := &Renderer{
		window:     window,
		cfg:        cfg,
		transforms: NewTransforms(cfg.AngularVelocity),
	}

	var err error
	r.ctx, err = NewContext(window, cfg)
	if err != nil {
		return r, err
	}

	r.transient, err = createTransientExecutor(r.ctx)
	if err != nil {
		return r, err
	}

	r.texture, err = loadTexture(r.ctx, r.transient, cfg.Assets, cfg.TexturePath)
	if err != nil {
		return r, err
	}

	r.mesh, err = loadMesh(r.ctx, r.transient, cfg.Assets, cfg.MeshPath, cfg.MaterialPath)
	if err != nil {
		return r, err
	}

	err = r.buildSwapchain()
	if err != nil {
		return r, err
	}

	r.sync, err = createSyncObjects(r.ctx, cfg.FramesInFlight)
	if err != nil {
		return r, err
	}

	r.transforms.SetLookAt(
		mgl32.Vec3{2, 2, 2},
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 0, 1},
	)
	r.transforms.SetPerspective(mgl32.DegToRad(45), r.swapchain.AspectRatio(), 0.1, 10)

	r.orchestrator = newOrchestrator(r, cfg.FramesInFlight, len(r.swapchain.Images))
	return r, nil
}

// buildSwapchain creates the swapchain and everything keyed to its extent or
// image count.
func (r *Renderer) buildSwapchain() error {
	w, h := r.window.VulkanGetDrawableSize()

	var err error
	r.swapchain, err = createSwapchain(r.ctx, int(w), int(h))
	if err != nil {
		return err
	}

	r.renderPass, err = createRenderPass(r.ctx, r.swapchain.Format)
	if err != nil {
		return err
	}

	r.pipeline, err = createPipeline(r.ctx, r.cfg, r.renderPass, r.swapchain.Extent)
	if err != nil {
		return err
	}

	r.frames, err = createFrameSet(r.ctx, r.swapchain, r.renderPass, r.pipeline, r.texture)
	return err
}

func (r *Renderer) destroySwapchain() {
	if r.frames != nil {
		r.frames.Destroy(r.ctx)
		r.frames = nil
	}

	if r.pipeline != nil {
		r.pipeline.Destroy(r.ctx)
		r.pipeline = nil
	}

	if r.renderPass.Initialized() {
		r.ctx.DeviceDriver.DestroyRenderPass(r.renderPass, nil)
		r.renderPass = core1_0.RenderPass{}
	}

	if r.swapchain != nil {
		r.swapchain.Destroy(r.ctx)
		r.swapchain = nil
	}
}

// DrawFrame runs one tick of the frame loop.
func (r *Renderer) DrawFrame() error {
	return r.orchestrator.DrawFrame()
}

// NotifyResize schedules a swapchain rebuild before the next frame.
func (r *Renderer) NotifyResize() {
	r.orchestrator.NotifyResize()
}

// SetModelCount requests how many model instances to draw, clamped to the
// drawable range.
func (r *Renderer) SetModelCount(count int) {
	r.orchestrator.SetModelCount(count)
}

// ModelCount reports the instance count the next frame will draw.
func (r *Renderer) ModelCount() int {
	return r.orchestrator.ModelCount()
}

// WaitIdle blocks until the device finishes all queued work.
func (r *Renderer) WaitIdle() error {
	_, err := r.ctx.DeviceDriver.DeviceWaitIdle()
	return err
}

func (r *Renderer) WaitFrameFence(slot int) error {
	_, err := r.ctx.DeviceDriver.WaitForFences(true, common.NoTimeout, r.sync.InFlight[slot])
	return err
}

func (r *Renderer) ResetFrameFence(slot int) error {
	_, err := r.ctx.DeviceDriver.ResetFences(r.sync.InFlight[slot])
	return err
}

func (r *Renderer) AcquireImage(slot int) (int, bool, error) {
	image, res, err := r.ctx.SwapchainExtension.AcquireNextImage(r.swapchain.Handle, common.NoTimeout, &r.sync.ImageAvailable[slot], nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, err
	}
	return image, false, nil
}

func (r *Renderer) UpdateUniforms(image int, dt float32) error {
	r.transforms.AdvanceModel(dt)

	uniforms := r.transforms.Uniforms()
	return writeMapped(r.ctx.DeviceDriver, r.frames.frames[image].uniformMemory, 0, &uniforms)
}

// RecordCommands resets the image's command pool and re-records one
// secondary buffer per model instance plus the primary that executes them.
func (r *Renderer) RecordCommands(image, modelCount int) error {
	frame := r.frames.frames[image]

	_, err := r.ctx.DeviceDriver.ResetCommandPool(frame.commandPool, 0)
	if err != nil {
		return err
	}

	for i := 0; i < modelCount; i++ {
		err = r.recordInstance(frame, i)
		if err != nil {
			return err
		}
	}

	_, err = r.ctx.DeviceDriver.BeginCommandBuffer(frame.primary, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return err
	}

	err = r.ctx.DeviceDriver.CmdBeginRenderPass(frame.primary, core1_0.SubpassContentsSecondaryCommandBuffers,
		core1_0.RenderPassBeginInfo{
			RenderPass:  r.renderPass,
			Framebuffer: frame.framebuffer,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: r.swapchain.Extent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{0, 0, 0, 1},
				core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
			},
		})
	if err != nil {
		return err
	}

	r.ctx.DeviceDriver.CmdExecuteCommands(frame.primary, frame.secondaries[:modelCount]...)

	r.ctx.DeviceDriver.CmdEndRenderPass(frame.primary)

	_, err = r.ctx.DeviceDriver.EndCommandBuffer(frame.primary)
	return err
}

// recordInstance records the secondary buffer that draws one model instance,
// pushing its model matrix and opacity.
func (r *Renderer) recordInstance(frame *imageFrame, instance int) error {
	secondary := frame.secondaries[instance]

	_, err := r.ctx.DeviceDriver.BeginCommandBuffer(secondary, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit | core1_0.CommandBufferUsageRenderPassContinue,
		InheritanceInfo: &core1_0.CommandBufferInheritanceInfo{
			RenderPass:  r.renderPass,
			Subpass:     0,
			Framebuffer: frame.framebuffer,
		},
	})
	if err != nil {
		return err
	}

	r.ctx.DeviceDriver.CmdBindPipeline(secondary, core1_0.PipelineBindPointGraphics, r.pipeline.Handle)
	r.ctx.DeviceDriver.CmdBindVertexBuffers(secondary, 0, []core1_0.Buffer{r.mesh.vertexBuffer}, []int{0})
	r.ctx.DeviceDriver.CmdBindIndexBuffer(secondary, r.mesh.indexBuffer, 0, core1_0.IndexTypeUInt32)
	r.ctx.DeviceDriver.CmdBindDescriptorSets(secondary, core1_0.PipelineBindPointGraphics, r.pipeline.Layout, 0, []core1_0.DescriptorSet{
		frame.descriptorSet,
	}, nil)

	push := instancePushConstants(r.transforms.Model, instance)
	r.ctx.DeviceDriver.CmdPushConstants(secondary, r.pipeline.Layout, core1_0.StageVertex, ModelPushOffset, push.ModelBytes())
	r.ctx.DeviceDriver.CmdPushConstants(secondary, r.pipeline.Layout, core1_0.StageFragment, OpacityPushOffset, push.OpacityBytes())

	r.ctx.DeviceDriver.CmdDrawIndexed(secondary, len(r.mesh.Indices), 1, 0, 0, 0)

	_, err = r.ctx.DeviceDriver.EndCommandBuffer(secondary)
	return err
}

func (r *Renderer) Submit(slot, image int) error {
	_, err := r.ctx.DeviceDriver.QueueSubmit(r.ctx.GraphicsQueue, &r.sync.InFlight[slot],
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{r.sync.ImageAvailable[slot]},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{r.frames.frames[image].primary},
			SignalSemaphores: []core1_0.Semaphore{r.sync.RenderFinished[slot]},
		},
	)
	return err
}

func (r *Renderer) Present(slot, image int) (bool, error) {
	res, err := r.ctx.SwapchainExtension.QueuePresent(r.ctx.PresentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{r.sync.RenderFinished[slot]},
		Swapchains:     []khr_swapchain.Swapchain{r.swapchain.Handle},
		ImageIndices:   []int{image},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Rebuild replaces the swapchain and everything derived from it. A
// zero-sized or minimized window leaves the old swapchain in place and
// reports rebuilt false, so in-flight frames keep their image ownership and
// the rebuild stays pending.
func (r *Renderer) Rebuild() (int, bool, error) {
	w, h := r.window.VulkanGetDrawableSize()
	if w == 0 || h == 0 {
		return len(r.swapchain.Images), false, nil
	}
	if (r.window.GetFlags() & sdl.WINDOW_MINIMIZED) != 0 {
		return len(r.swapchain.Images), false, nil
	}

	_, err := r.ctx.DeviceDriver.DeviceWaitIdle()
	if err != nil {
		return 0, false, err
	}

	r.destroySwapchain()

	err = r.buildSwapchain()
	if err != nil {
		return 0, false, err
	}

	r.transforms.SetPerspective(mgl32.DegToRad(45), r.swapchain.AspectRatio(), 0.1, 10)

	return len(r.swapchain.Images), true, nil
}

// Destroy tears everything down in reverse dependency order. Safe to call on
// a partially constructed renderer.
func (r *Renderer) Destroy() {
	if r.ctx == nil {
		return
	}

	if r.ctx.DeviceDriver != nil {
		_, _ = r.ctx.DeviceDriver.DeviceWaitIdle()
	}

	r.destroySwapchain()

	if r.sync != nil {
		r.sync.Destroy(r.ctx)
		r.sync = nil
	}

	if r.mesh != nil {
		r.mesh.Destroy(r.ctx)
		r.mesh = nil
	}

	if r.texture != nil {
		r.texture.Destroy(r.ctx)
		r.texture = nil
	}

	if r.transient != nil {
		r.transient.Destroy(r.ctx)
		r.transient = nil
	}

	r.ctx.Destroy()
	r.ctx = nil
}
