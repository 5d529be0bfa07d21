package renderer

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

func (ctx *Context) createInstance(window *sdl.Window, cfg Config) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    cfg.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	sdlExtensions := window.VulkanGetInstanceExtensions()
	extensions, _, err := ctx.GlobalDriver.AvailableExtensions()
	if err != nil {
		return err
	}

	for _, ext := range sdlExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Errorf("createInstance: required window extension %s is not available", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if ctx.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	// Necessary to run on mobile & mac
	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	layers, _, err := ctx.GlobalDriver.AvailableLayers()
	if err != nil {
		return err
	}

	if ctx.Validation {
		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return errors.Errorf("createInstance: validation layer %s not available- install LunarG Vulkan SDK", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		// Covers instance creation/destruction, before the messenger exists
		instanceOptions.Next = ctx.debugMessengerOptions()
	}

	ctx.InstanceDriver, _, err = ctx.GlobalDriver.CreateInstance(nil, instanceOptions)
	return err
}

func (ctx *Context) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logValidationMessage,
	}
}

func (ctx *Context) setupDebugMessenger() error {
	if !ctx.Validation {
		return nil
	}

	var err error
	ctx.DebugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(ctx.InstanceDriver)
	ctx.DebugMessenger, _, err = ctx.DebugDriver.CreateDebugUtilsMessenger(nil, ctx.debugMessengerOptions())
	return err
}

func (ctx *Context) createSurface(window *sdl.Window) error {
	ctx.SurfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(ctx.InstanceDriver)
	surface, err := vkng_sdl2.CreateSurface(ctx.InstanceDriver.Instance(), ctx.SurfaceExtension, window)
	if err != nil {
		return err
	}

	ctx.Surface = surface
	return nil
}

func logValidationMessage(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	log.Printf("[%s %s] - %s", severity, msgType, data.Message)
	return false
}
