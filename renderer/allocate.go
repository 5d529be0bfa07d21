package renderer

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// findMemoryType returns the first memory type index whose bit is set in
// typeFilter and whose property flags are a superset of properties. The linear
// scan is fine: there are at most 32 memory types, one per bit.
func findMemoryType(memProperties *core1_0.PhysicalDeviceMemoryProperties, typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Errorf("failed to find any suitable memory type")
}

// createBuffer composes create, requirement query, memory type resolution,
// allocation, and bind. Every call is an independent allocation.
func createBuffer(ctx *Context, size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	buffer, _, err := ctx.DeviceDriver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	memRequirements := ctx.DeviceDriver.GetBufferMemoryRequirements(buffer)
	memProperties := ctx.InstanceDriver.GetPhysicalDeviceMemoryProperties(ctx.PhysicalDevice)
	memoryTypeIndex, err := findMemoryType(memProperties, memRequirements.MemoryTypeBits, properties)
	if err != nil {
		return buffer, core1_0.DeviceMemory{}, err
	}

	memory, _, err := ctx.DeviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return buffer, core1_0.DeviceMemory{}, err
	}

	_, err = ctx.DeviceDriver.BindBufferMemory(buffer, memory, 0)
	return buffer, memory, err
}

func createImage(ctx *Context, width, height int, mipLevels int, numSamples core1_0.SampleCountFlags, format core1_0.Format, tiling core1_0.ImageTiling, usage core1_0.ImageUsageFlags, memoryProperties core1_0.MemoryPropertyFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	image, _, err := ctx.DeviceDriver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     mipLevels,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       numSamples,
	})
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	memRequirements := ctx.DeviceDriver.GetImageMemoryRequirements(image)
	memProperties := ctx.InstanceDriver.GetPhysicalDeviceMemoryProperties(ctx.PhysicalDevice)
	memoryIndex, err := findMemoryType(memProperties, memRequirements.MemoryTypeBits, memoryProperties)
	if err != nil {
		return image, core1_0.DeviceMemory{}, err
	}

	imageMemory, _, err := ctx.DeviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		return image, core1_0.DeviceMemory{}, err
	}

	_, err = ctx.DeviceDriver.BindImageMemory(image, imageMemory, 0)
	if err != nil {
		return image, imageMemory, err
	}

	return image, imageMemory, nil
}

func createImageView(ctx *Context, image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags, mipLevels int) (core1_0.ImageView, error) {
	imageView, _, err := ctx.DeviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, err
}

// writeMapped marshals data into mapped device memory under a scoped
// map/copy/unmap sequence. The mapping never outlives the copy.
func writeMapped(driver core1_0.CoreDeviceDriver, memory core1_0.DeviceMemory, offset int, data any) error {
	bufferSize := binary.Size(data)
	if bufferSize < 0 {
		return errors.Errorf("writeMapped: data has no fixed binary size")
	}

	memoryPtr, _, err := driver.MapMemory(memory, offset, bufferSize, 0)
	if err != nil {
		return err
	}
	defer driver.UnmapMemory(memory)

	dataBuffer := unsafe.Slice((*byte)(memoryPtr), bufferSize)

	buf := &bytes.Buffer{}
	err = binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return err
	}

	copy(dataBuffer, buf.Bytes())
	return nil
}
