package renderer

import (
	"io/fs"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// Config is resolved once at startup and threaded through the renderer.
// Nothing in the renderer reads environment state after construction.
type Config struct {
	AppName          string
	EnableValidation bool

	// FramesInFlight is the number of logical frame slots the orchestrator
	// cycles through. Independent of the swapchain image count.
	FramesInFlight int

	// AngularVelocity is the model spin rate in radians per second.
	AngularVelocity float32

	// Assets supplies the shader binaries, mesh, and texture.
	Assets             fs.FS
	VertexShaderPath   string
	FragmentShaderPath string
	MeshPath           string
	MaterialPath       string
	TexturePath        string
}

func (c Config) withDefaults() Config {
	if c.FramesInFlight <= 0 {
		c.FramesInFlight = 2
	}
	if c.AngularVelocity == 0 {
		c.AngularVelocity = defaultAngularVelocity
	}
	if c.AppName == "" {
		c.AppName = "viewer"
	}
	return c
}

// Context bundles the device-level handles nearly every component needs.
// It is passed down explicitly; there is no ambient global state.
type Context struct {
	GlobalDriver   core1_0.GlobalDriver
	InstanceDriver core1_0.CoreInstanceDriver
	DeviceDriver   core1_0.CoreDeviceDriver

	DebugDriver    ext_debug_utils.ExtensionDriver
	DebugMessenger ext_debug_utils.DebugUtilsMessenger

	SurfaceExtension   khr_surface.ExtensionDriver
	Surface            khr_surface.Surface
	SwapchainExtension khr_swapchain.ExtensionDriver

	PhysicalDevice core1_0.PhysicalDevice
	GraphicsFamily int
	PresentFamily  int
	GraphicsQueue  core1_0.Queue
	PresentQueue   core1_0.Queue

	MsaaSamples core1_0.SampleCountFlags

	Validation bool
}

// NewContext initializes the Vulkan instance, surface, and logical device for
// the given window, in that order.
func NewContext(window *sdl.Window, cfg Config) (*Context, error) {
	ctx := &Context{
		MsaaSamples: core1_0.Samples1,
		Validation:  cfg.EnableValidation,
	}

	var err error
	ctx.GlobalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, err
	}

	if err := ctx.createInstance(window, cfg); err != nil {
		return nil, err
	}
	if err := ctx.setupDebugMessenger(); err != nil {
		return nil, err
	}
	if err := ctx.createSurface(window); err != nil {
		return nil, err
	}
	if err := ctx.pickPhysicalDevice(); err != nil {
		return nil, err
	}
	if err := ctx.createLogicalDevice(); err != nil {
		return nil, err
	}

	ctx.SwapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(ctx.DeviceDriver)
	return ctx, nil
}

// Destroy tears down the device, messenger, surface, and instance, in reverse
// creation order. Callers must have destroyed everything derived from the
// device first.
func (ctx *Context) Destroy() {
	if ctx.DeviceDriver != nil {
		ctx.DeviceDriver.DestroyDevice(nil)
		ctx.DeviceDriver = nil
	}

	if ctx.DebugMessenger.Initialized() {
		ctx.DebugDriver.DestroyDebugUtilsMessenger(ctx.DebugMessenger, nil)
		ctx.DebugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if ctx.Surface.Initialized() {
		ctx.SurfaceExtension.DestroySurface(ctx.Surface, nil)
		ctx.Surface = khr_surface.Surface{}
	}

	if ctx.InstanceDriver != nil {
		ctx.InstanceDriver.DestroyInstance(nil)
		ctx.InstanceDriver = nil
	}
}
