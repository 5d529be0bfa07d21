package renderer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func TestChooseSurfaceFormatPrefersBGRASRGB(t *testing.T) {
	formats := []khr_surface.SurfaceFormat{
		{Format: core1_0.FormatR8G8B8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
	}

	chosen := chooseSurfaceFormat(formats)
	require.Equal(t, core1_0.FormatB8G8R8A8SRGB, chosen.Format)
	require.Equal(t, khr_surface.ColorSpaceSRGBNonlinear, chosen.ColorSpace)
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	formats := []khr_surface.SurfaceFormat{
		{Format: core1_0.FormatR8G8B8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
	}

	chosen := chooseSurfaceFormat(formats)
	require.Equal(t, formats[0], chosen)
}

func TestChoosePresentModePrefersMailbox(t *testing.T) {
	modes := []khr_surface.PresentMode{
		khr_surface.PresentModeFIFO,
		khr_surface.PresentModeMailbox,
	}

	require.Equal(t, khr_surface.PresentModeMailbox, choosePresentMode(modes))
}

func TestChoosePresentModeFallsBackToFIFO(t *testing.T) {
	modes := []khr_surface.PresentMode{
		khr_surface.PresentModeImmediate,
	}

	require.Equal(t, khr_surface.PresentModeFIFO, choosePresentMode(modes))
}

func TestChooseExtentUsesFixedCurrentExtent(t *testing.T) {
	capabilities := &khr_surface.SurfaceCapabilities{
		CurrentExtent: core1_0.Extent2D{Width: 640, Height: 480},
	}

	extent := chooseExtent(capabilities, 1920, 1080)
	require.Equal(t, core1_0.Extent2D{Width: 640, Height: 480}, extent)
}

func TestChooseExtentClampsDrawableSize(t *testing.T) {
	capabilities := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: core1_0.Extent2D{Width: 1000, Height: 1000},
	}

	require.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, chooseExtent(capabilities, 800, 600))
	require.Equal(t, core1_0.Extent2D{Width: 100, Height: 100}, chooseExtent(capabilities, 10, 10))
	require.Equal(t, core1_0.Extent2D{Width: 1000, Height: 1000}, chooseExtent(capabilities, 5000, 5000))
}

func TestChooseImageCount(t *testing.T) {
	require.Equal(t, 3, chooseImageCount(&khr_surface.SurfaceCapabilities{
		MinImageCount: 2,
		MaxImageCount: 8,
	}))

	// Clamped by the surface maximum.
	require.Equal(t, 2, chooseImageCount(&khr_surface.SurfaceCapabilities{
		MinImageCount: 2,
		MaxImageCount: 2,
	}))

	// Zero max means unbounded.
	require.Equal(t, 4, chooseImageCount(&khr_surface.SurfaceCapabilities{
		MinImageCount: 3,
		MaxImageCount: 0,
	}))
}
