package renderer

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"io/fs"

	"github.com/chewxy/math32"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Texture is a sampled, mipmapped 2D image in device-local memory.
type Texture struct {
	MipLevels int

	image   core1_0.Image
	memory  core1_0.DeviceMemory
	View    core1_0.ImageView
	Sampler core1_0.Sampler
}

// mipLevelCount is the full mip chain length down to 1x1 for a base level of
// the given dimensions.
func mipLevelCount(width, height int) int {
	largest := width
	if height > largest {
		largest = height
	}
	if largest < 1 {
		return 1
	}
	return int(math32.Floor(math32.Log2(float32(largest)))) + 1
}

// decodeRGBA decodes a PNG and repacks it as tightly-packed 8-bit RGBA rows,
// whatever the source color model was.
func decodeRGBA(assets fs.FS, path string) (*image.RGBA, error) {
	imageBytes, err := fs.ReadFile(assets, path)
	if err != nil {
		return nil, err
	}

	decodedImage, err := png.Decode(bytes.NewBuffer(imageBytes))
	if err != nil {
		return nil, err
	}

	bounds := decodedImage.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), decodedImage, bounds.Min, draw.Src)
	return rgba, nil
}

// loadTexture decodes a PNG, uploads it through a staging buffer, generates
// the mip chain on the GPU, and creates the view and sampler.
func loadTexture(ctx *Context, transient *TransientExecutor, assets fs.FS, path string) (*Texture, error) {
	rgba, err := decodeRGBA(assets, path)
	if err != nil {
		return nil, err
	}

	width := rgba.Bounds().Dx()
	height := rgba.Bounds().Dy()
	imageSize := len(rgba.Pix)

	tex := &Texture{MipLevels: mipLevelCount(width, height)}

	stagingBuffer, stagingMemory, err := createBuffer(ctx, imageSize, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if stagingBuffer.Initialized() {
		defer ctx.DeviceDriver.DestroyBuffer(stagingBuffer, nil)
	}
	if stagingMemory.Initialized() {
		defer ctx.DeviceDriver.FreeMemory(stagingMemory, nil)
	}
	if err != nil {
		return tex, err
	}

	err = writeMapped(ctx.DeviceDriver, stagingMemory, 0, rgba.Pix)
	if err != nil {
		return tex, err
	}

	tex.image, tex.memory, err = createImage(ctx, width, height,
		tex.MipLevels,
		core1_0.Samples1,
		core1_0.FormatR8G8B8A8SRGB,
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageTransferSrc|core1_0.ImageUsageTransferDst|core1_0.ImageUsageSampled,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return tex, err
	}

	err = transitionImageLayout(ctx, transient, tex.image, core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal, tex.MipLevels)
	if err != nil {
		return tex, err
	}

	err = copyBufferToImage(ctx, transient, stagingBuffer, tex.image, width, height)
	if err != nil {
		return tex, err
	}

	err = generateMipmaps(ctx, transient, tex.image, core1_0.FormatR8G8B8A8SRGB, width, height, tex.MipLevels)
	if err != nil {
		return tex, err
	}

	tex.View, err = createImageView(ctx, tex.image, core1_0.FormatR8G8B8A8SRGB, core1_0.ImageAspectColor, tex.MipLevels)
	if err != nil {
		return tex, err
	}

	tex.Sampler, err = createTextureSampler(ctx, tex.MipLevels)
	return tex, err
}

func createTextureSampler(ctx *Context, mipLevels int) (core1_0.Sampler, error) {
	properties, err := ctx.InstanceDriver.GetPhysicalDeviceProperties(ctx.PhysicalDevice)
	if err != nil {
		return core1_0.Sampler{}, err
	}

	sampler, _, err := ctx.DeviceDriver.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,

		AnisotropyEnable: true,
		MaxAnisotropy:    properties.Limits.MaxSamplerAnisotropy,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,

		MipmapMode: core1_0.SamplerMipmapModeLinear,
		MinLod:     0,
		MaxLod:     float32(mipLevels),
	})
	return sampler, err
}

func transitionImageLayout(ctx *Context, transient *TransientExecutor, image core1_0.Image, oldLayout, newLayout core1_0.ImageLayout, mipLevels int) error {
	var sourceStage, destStage core1_0.PipelineStageFlags
	var sourceAccess, destAccess core1_0.AccessFlags

	if oldLayout == core1_0.ImageLayoutUndefined && newLayout == core1_0.ImageLayoutTransferDstOptimal {
		sourceAccess = 0
		destAccess = core1_0.AccessTransferWrite
		sourceStage = core1_0.PipelineStageTopOfPipe
		destStage = core1_0.PipelineStageTransfer
	} else if oldLayout == core1_0.ImageLayoutTransferDstOptimal && newLayout == core1_0.ImageLayoutShaderReadOnlyOptimal {
		sourceAccess = core1_0.AccessTransferWrite
		destAccess = core1_0.AccessShaderRead
		sourceStage = core1_0.PipelineStageTransfer
		destStage = core1_0.PipelineStageFragmentShader
	} else {
		return errors.Errorf("unsupported layout transition: %s -> %s", oldLayout, newLayout)
	}

	return transient.Run(ctx, func(cb core1_0.CommandBuffer) error {
		return ctx.DeviceDriver.CmdPipelineBarrier(cb, sourceStage, destStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
			{
				OldLayout:           oldLayout,
				NewLayout:           newLayout,
				SrcQueueFamilyIndex: -1,
				DstQueueFamilyIndex: -1,
				Image:               image,
				SubresourceRange: core1_0.ImageSubresourceRange{
					AspectMask:     core1_0.ImageAspectColor,
					BaseMipLevel:   0,
					LevelCount:     mipLevels,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				SrcAccessMask: sourceAccess,
				DstAccessMask: destAccess,
			},
		})
	})
}

func copyBufferToImage(ctx *Context, transient *TransientExecutor, buffer core1_0.Buffer, image core1_0.Image, width, height int) error {
	return transient.Run(ctx, func(cb core1_0.CommandBuffer) error {
		return ctx.DeviceDriver.CmdCopyBufferToImage(cb, buffer, image, core1_0.ImageLayoutTransferDstOptimal,
			core1_0.BufferImageCopy{
				BufferOffset:      0,
				BufferRowLength:   0,
				BufferImageHeight: 0,

				ImageSubresource: core1_0.ImageSubresourceLayers{
					AspectMask:     core1_0.ImageAspectColor,
					MipLevel:       0,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
				ImageExtent: core1_0.Extent3D{Width: width, Height: height, Depth: 1},
			},
		)
	})
}

// generateMipmaps fills levels 1..mipLevels-1 by blitting each level from the
// one above it, then transitions every level to shader-read-only.
func generateMipmaps(ctx *Context, transient *TransientExecutor, image core1_0.Image, imageFormat core1_0.Format, width, height, mipLevels int) error {
	properties := ctx.InstanceDriver.GetPhysicalDeviceFormatProperties(ctx.PhysicalDevice, imageFormat)

	if (properties.OptimalTilingFeatures & core1_0.FormatFeatureSampledImageFilterLinear) == 0 {
		return errors.Errorf("texture image format %s does not support linear blitting", imageFormat)
	}

	return transient.Run(ctx, func(cb core1_0.CommandBuffer) error {
		barrier := core1_0.ImageMemoryBarrier{
			Image:               image,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseArrayLayer: 0,
				LayerCount:     1,
				LevelCount:     1,
			},
		}

		mipWidth := width
		mipHeight := height
		for i := 1; i < mipLevels; i++ {
			barrier.SubresourceRange.BaseMipLevel = i - 1
			barrier.OldLayout = core1_0.ImageLayoutTransferDstOptimal
			barrier.NewLayout = core1_0.ImageLayoutTransferSrcOptimal
			barrier.SrcAccessMask = core1_0.AccessTransferWrite
			barrier.DstAccessMask = core1_0.AccessTransferRead

			err := ctx.DeviceDriver.CmdPipelineBarrier(cb, core1_0.PipelineStageTransfer, core1_0.PipelineStageTransfer, 0, nil, nil, []core1_0.ImageMemoryBarrier{barrier})
			if err != nil {
				return err
			}

			nextMipWidth := mipWidth
			nextMipHeight := mipHeight
			if nextMipWidth > 1 {
				nextMipWidth /= 2
			}
			if nextMipHeight > 1 {
				nextMipHeight /= 2
			}

			err = ctx.DeviceDriver.CmdBlitImage(cb, image, core1_0.ImageLayoutTransferSrcOptimal, image, core1_0.ImageLayoutTransferDstOptimal, []core1_0.ImageBlit{
				{
					SrcSubresource: core1_0.ImageSubresourceLayers{
						AspectMask:     core1_0.ImageAspectColor,
						MipLevel:       i - 1,
						BaseArrayLayer: 0,
						LayerCount:     1,
					},
					SrcOffsets: [2]core1_0.Offset3D{
						{X: 0, Y: 0, Z: 0},
						{X: mipWidth, Y: mipHeight, Z: 1},
					},

					DstSubresource: core1_0.ImageSubresourceLayers{
						AspectMask:     core1_0.ImageAspectColor,
						MipLevel:       i,
						BaseArrayLayer: 0,
						LayerCount:     1,
					},
					DstOffsets: [2]core1_0.Offset3D{
						{X: 0, Y: 0, Z: 0},
						{X: nextMipWidth, Y: nextMipHeight, Z: 1},
					},
				},
			}, core1_0.FilterLinear)
			if err != nil {
				return err
			}

			barrier.OldLayout = core1_0.ImageLayoutTransferSrcOptimal
			barrier.NewLayout = core1_0.ImageLayoutShaderReadOnlyOptimal
			barrier.SrcAccessMask = core1_0.AccessTransferRead
			barrier.DstAccessMask = core1_0.AccessShaderRead

			err = ctx.DeviceDriver.CmdPipelineBarrier(cb, core1_0.PipelineStageTransfer, core1_0.PipelineStageFragmentShader, 0, nil, nil, []core1_0.ImageMemoryBarrier{barrier})
			if err != nil {
				return err
			}

			mipWidth = nextMipWidth
			mipHeight = nextMipHeight
		}

		barrier.SubresourceRange.BaseMipLevel = mipLevels - 1
		barrier.OldLayout = core1_0.ImageLayoutTransferDstOptimal
		barrier.NewLayout = core1_0.ImageLayoutShaderReadOnlyOptimal
		barrier.SrcAccessMask = core1_0.AccessTransferWrite
		barrier.DstAccessMask = core1_0.AccessShaderRead

		return ctx.DeviceDriver.CmdPipelineBarrier(cb, core1_0.PipelineStageTransfer, core1_0.PipelineStageFragmentShader, 0, nil, nil, []core1_0.ImageMemoryBarrier{barrier})
	})
}

func (t *Texture) Destroy(ctx *Context) {
	if t.Sampler.Initialized() {
		ctx.DeviceDriver.DestroySampler(t.Sampler, nil)
		t.Sampler = core1_0.Sampler{}
	}
	if t.View.Initialized() {
		ctx.DeviceDriver.DestroyImageView(t.View, nil)
		t.View = core1_0.ImageView{}
	}
	if t.image.Initialized() {
		ctx.DeviceDriver.DestroyImage(t.image, nil)
		t.image = core1_0.Image{}
	}
	if t.memory.Initialized() {
		ctx.DeviceDriver.FreeMemory(t.memory, nil)
		t.memory = core1_0.DeviceMemory{}
	}
}
