package renderer

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

var deviceExtensions = []string{khr_swapchain.ExtensionName}

type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

func (ctx *Context) findQueueFamilies(device core1_0.PhysicalDevice) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}
	queueFamilies := ctx.InstanceDriver.GetPhysicalDeviceQueueFamilyProperties(device)

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0 {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, _, err := ctx.SurfaceExtension.GetPhysicalDeviceSurfaceSupport(ctx.Surface, device, queueFamilyIdx)
		if err != nil {
			return indices, err
		}

		if supported {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

func (ctx *Context) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) error {
	extensions, _, err := ctx.InstanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return err
	}

	for _, extension := range deviceExtensions {
		_, hasExtension := extensions[extension]
		if !hasExtension {
			return errors.Errorf("missing required device extension %s", extension)
		}
	}

	return nil
}

// checkDevice verifies every hard requirement for a candidate device and
// returns its score. Discrete GPUs outrank integrated ones; anything else is
// rejected.
func (ctx *Context) checkDevice(device core1_0.PhysicalDevice) (int, error) {
	properties, err := ctx.InstanceDriver.GetPhysicalDeviceProperties(device)
	if err != nil {
		return 0, err
	}

	var score int
	switch properties.DriverType {
	case core1_0.PhysicalDeviceTypeDiscreteGPU:
		score = 200
	case core1_0.PhysicalDeviceTypeIntegratedGPU:
		score = 100
	default:
		return 0, errors.Errorf("only discrete and integrated GPUs are supported")
	}

	indices, err := ctx.findQueueFamilies(device)
	if err != nil {
		return 0, err
	}
	if !indices.IsComplete() {
		return 0, errors.Errorf("missing required queue families")
	}

	if err := ctx.checkDeviceExtensionSupport(device); err != nil {
		return 0, err
	}

	// Only queryable once we know the swapchain extension is there
	support, err := QuerySupport(ctx.SurfaceExtension, ctx.Surface, device)
	if err != nil {
		return 0, err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return 0, errors.Errorf("insufficient swapchain support")
	}

	features := ctx.InstanceDriver.GetPhysicalDeviceFeatures(device)
	if !features.SamplerAnisotropy {
		return 0, errors.Errorf("missing sampler anisotropy support")
	}

	return score, nil
}

// pickPhysicalDevice scores every candidate independently. A device failing a
// hard requirement is logged and skipped; selection fails only if none
// qualify.
func (ctx *Context) pickPhysicalDevice() error {
	physicalDevices, _, err := ctx.InstanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}

	bestScore := -1
	for _, device := range physicalDevices {
		score, err := ctx.checkDevice(device)
		if err != nil {
			log.Printf("skipping physical device: %v", err)
			continue
		}

		if score > bestScore {
			bestScore = score
			ctx.PhysicalDevice = device
		}
	}

	if !ctx.PhysicalDevice.Initialized() {
		return errors.Errorf("failed to find a suitable GPU")
	}

	ctx.MsaaSamples, err = ctx.maxUsableSampleCount()
	return err
}

func (ctx *Context) maxUsableSampleCount() (core1_0.SampleCountFlags, error) {
	properties, err := ctx.InstanceDriver.GetPhysicalDeviceProperties(ctx.PhysicalDevice)
	if err != nil {
		return 0, err
	}

	counts := properties.Limits.FramebufferColorSampleCounts & properties.Limits.FramebufferDepthSampleCounts

	for _, samples := range []core1_0.SampleCountFlags{
		core1_0.Samples64,
		core1_0.Samples32,
		core1_0.Samples16,
		core1_0.Samples8,
		core1_0.Samples4,
		core1_0.Samples2,
	} {
		if (counts & samples) != 0 {
			return samples, nil
		}
	}
	return core1_0.Samples1, nil
}

func (ctx *Context) createLogicalDevice() error {
	indices, err := ctx.findQueueFamilies(ctx.PhysicalDevice)
	if err != nil {
		return err
	}

	uniqueQueueFamilies := []int{*indices.GraphicsFamily}
	if uniqueQueueFamilies[0] != *indices.PresentFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, *indices.PresentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	extensions, _, err := ctx.InstanceDriver.EnumerateDeviceExtensionProperties(ctx.PhysicalDevice)
	if err != nil {
		return err
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	ctx.DeviceDriver, _, err = ctx.InstanceDriver.CreateDevice(ctx.PhysicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueFamilyOptions,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return err
	}

	ctx.GraphicsFamily = *indices.GraphicsFamily
	ctx.PresentFamily = *indices.PresentFamily
	ctx.GraphicsQueue = ctx.DeviceDriver.GetQueue(*indices.GraphicsFamily, 0)
	ctx.PresentQueue = ctx.DeviceDriver.GetQueue(*indices.PresentFamily, 0)
	return nil
}
