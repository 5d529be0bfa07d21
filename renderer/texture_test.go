package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestMipLevelCount(t *testing.T) {
	cases := []struct {
		width, height int
		levels        int
	}{
		{1, 1, 1},
		{2, 2, 2},
		{256, 256, 9},
		{512, 256, 10},
		{256, 512, 10},
		{300, 200, 9},
		{0, 0, 1},
	}

	for _, tc := range cases {
		require.Equal(t, tc.levels, mipLevelCount(tc.width, tc.height),
			"mip levels for %dx%d", tc.width, tc.height)
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestDecodeRGBAConvertsColorModel(t *testing.T) {
	// A paletted source exercises the conversion path.
	src := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{
		color.RGBA{R: 255, A: 255},
		color.RGBA{G: 255, A: 255},
	})
	src.SetColorIndex(0, 0, 0)
	src.SetColorIndex(1, 0, 1)
	src.SetColorIndex(0, 1, 1)
	src.SetColorIndex(1, 1, 0)

	assets := fstest.MapFS{
		"images/test.png": {Data: encodePNG(t, src)},
	}

	rgba, err := decodeRGBA(assets, "images/test.png")
	require.NoError(t, err)

	require.Equal(t, 2, rgba.Bounds().Dx())
	require.Equal(t, 2, rgba.Bounds().Dy())
	require.Len(t, rgba.Pix, 2*2*4)

	require.Equal(t, color.RGBA{R: 255, A: 255}, rgba.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{G: 255, A: 255}, rgba.RGBAAt(1, 0))
}

func TestDecodeRGBANormalizesBounds(t *testing.T) {
	// A source whose bounds do not start at the origin still produces
	// origin-anchored pixel rows.
	src := image.NewRGBA(image.Rect(5, 5, 7, 7))
	src.SetRGBA(5, 5, color.RGBA{B: 255, A: 255})

	assets := fstest.MapFS{
		"images/offset.png": {Data: encodePNG(t, src)},
	}

	rgba, err := decodeRGBA(assets, "images/offset.png")
	require.NoError(t, err)

	require.Equal(t, image.Rect(0, 0, 2, 2), rgba.Bounds())
	require.Equal(t, color.RGBA{B: 255, A: 255}, rgba.RGBAAt(0, 0))
}

func TestDecodeRGBAMissingFile(t *testing.T) {
	_, err := decodeRGBA(fstest.MapFS{}, "images/missing.png")
	require.Error(t, err)
}

func TestDecodeRGBARejectsNonPNG(t *testing.T) {
	assets := fstest.MapFS{
		"images/bad.png": {Data: []byte("not a png")},
	}

	_, err := decodeRGBA(assets, "images/bad.png")
	require.Error(t, err)
}
