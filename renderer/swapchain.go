package renderer

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// SupportDetails describes what a surface can do on a particular device.
type SupportDetails struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// QuerySupport fetches a surface's capabilities, formats, and present modes.
// A failing query propagates; it is not retried.
func QuerySupport(surfaceExt khr_surface.ExtensionDriver, surface khr_surface.Surface, device core1_0.PhysicalDevice) (SupportDetails, error) {
	var details SupportDetails
	var err error

	details.Capabilities, _, err = surfaceExt.GetPhysicalDeviceSurfaceCapabilities(surface, device)
	if err != nil {
		return details, err
	}

	details.Formats, _, err = surfaceExt.GetPhysicalDeviceSurfaceFormats(surface, device)
	if err != nil {
		return details, err
	}

	details.PresentModes, _, err = surfaceExt.GetPhysicalDeviceSurfacePresentModes(surface, device)
	return details, err
}

// chooseSurfaceFormat prefers 8-bit BGRA in the sRGB nonlinear color space,
// falling back to whatever the surface reports first.
func chooseSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

// choosePresentMode prefers mailbox (low-latency triple buffering), falling
// back to FIFO, which is always supported.
func choosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// chooseExtent resolves the swapchain extent. A current extent width of -1 is
// the surface's way of saying "match the window"; in that case the drawable
// size is clamped into the surface's min/max bounds.
func chooseExtent(capabilities *khr_surface.SurfaceCapabilities, drawableWidth, drawableHeight int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	width := drawableWidth
	height := drawableHeight

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return core1_0.Extent2D{Width: width, Height: height}
}

// chooseImageCount asks for one image more than the minimum so the driver is
// less likely to make us wait. A max of zero means unbounded.
func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// Swapchain owns the presentable image chain and the per-image views derived
// from it. Everything here is destroyed and rebuilt together when the surface
// changes.
type Swapchain struct {
	Handle khr_swapchain.Swapchain
	Format core1_0.Format
	Extent core1_0.Extent2D
	Images []core1_0.Image
	Views  []core1_0.ImageView
}

func createSwapchain(ctx *Context, drawableWidth, drawableHeight int) (*Swapchain, error) {
	support, err := QuerySupport(ctx.SurfaceExtension, ctx.Surface, ctx.PhysicalDevice)
	if err != nil {
		return nil, err
	}

	surfaceFormat := chooseSurfaceFormat(support.Formats)
	presentMode := choosePresentMode(support.PresentModes)
	extent := chooseExtent(support.Capabilities, drawableWidth, drawableHeight)
	imageCount := chooseImageCount(support.Capabilities)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if ctx.GraphicsFamily != ctx.PresentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, ctx.GraphicsFamily, ctx.PresentFamily)
	}

	handle, _, err := ctx.SwapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: ctx.Surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return nil, err
	}

	sc := &Swapchain{
		Handle: handle,
		Format: surfaceFormat.Format,
		Extent: extent,
	}

	sc.Images, _, err = ctx.SwapchainExtension.GetSwapchainImages(handle)
	if err != nil {
		sc.Destroy(ctx)
		return nil, err
	}

	for _, image := range sc.Images {
		view, err := createImageView(ctx, image, sc.Format, core1_0.ImageAspectColor, 1)
		if err != nil {
			sc.Destroy(ctx)
			return nil, err
		}
		sc.Views = append(sc.Views, view)
	}

	return sc, nil
}

func (sc *Swapchain) Destroy(ctx *Context) {
	for _, view := range sc.Views {
		ctx.DeviceDriver.DestroyImageView(view, nil)
	}
	sc.Views = nil

	if sc.Handle.Initialized() {
		ctx.SwapchainExtension.DestroySwapchain(sc.Handle, nil)
		sc.Handle = khr_swapchain.Swapchain{}
	}
}

// AspectRatio of the current extent, used for the projection matrix. Reads
// the live extent so a rebuild is picked up by the next frame.
func (sc *Swapchain) AspectRatio() float32 {
	return float32(sc.Extent.Width) / float32(sc.Extent.Height)
}
