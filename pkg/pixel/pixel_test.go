package pixel

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/heisthecat31/assetpatch/pkg/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoRows is a 2x2 image: top row red, bottom row blue (semi transparent).
func twoRows() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 100, A: 128}
	img.Set(0, 0, red)
	img.Set(1, 0, red)
	img.Set(0, 1, blue)
	img.Set(1, 1, blue)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	c := NewRawCodec()

	img, err := c.Decode(encodePNG(t, twoRows()))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	_, err = c.Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	c := NewRawCodec()
	img := twoRows()

	t.Run("RGBA32FlipsRows", func(t *testing.T) {
		data, format, err := c.Encode(img, texture.FormatRGBA32, 0)
		require.NoError(t, err)
		assert.Equal(t, texture.FormatRGBA32, format)
		require.Len(t, data, 16)
		// bottom row (blue) comes first
		assert.Equal(t, []byte{0, 0, 100, 128}, data[0:4])
		assert.Equal(t, []byte{255, 0, 0, 255}, data[8:12])
	})

	t.Run("BlockCompressedFallsBack", func(t *testing.T) {
		data, format, err := c.Encode(img, texture.FormatBC7, 0)
		require.NoError(t, err)
		assert.Equal(t, texture.FormatRGBA32, format)
		assert.Len(t, data, texture.ImageSize(2, 2, texture.FormatRGBA32))
	})

	t.Run("Alpha8", func(t *testing.T) {
		data, format, err := c.Encode(img, texture.FormatAlpha8, 0)
		require.NoError(t, err)
		assert.Equal(t, texture.FormatAlpha8, format)
		assert.Equal(t, []byte{128, 128, 255, 255}, data)
	})

	t.Run("RGB24", func(t *testing.T) {
		data, format, err := c.Encode(img, texture.FormatRGB24, 0)
		require.NoError(t, err)
		assert.Equal(t, texture.FormatRGB24, format)
		assert.Len(t, data, 12)
	})

	t.Run("Empty", func(t *testing.T) {
		_, _, err := c.Encode(image.NewRGBA(image.Rect(0, 0, 0, 0)), texture.FormatRGBA32, 0)
		assert.ErrorIs(t, err, ErrEmptyImage)
	})
}
