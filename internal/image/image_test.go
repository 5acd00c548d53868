package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(12, 7, color.NRGBA{R: 200, A: 255})))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 7, img.Bounds().Dy())
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	assert.Error(t, err)

	_, err = Decode(nil)
	assert.Error(t, err)
}

func TestThumbnail(t *testing.T) {
	img := solid(400, 200, color.White)
	th := Thumbnail(img, 0.25)
	assert.Equal(t, 100, th.Bounds().Dx())
	assert.Equal(t, 50, th.Bounds().Dy())

	tiny := Thumbnail(solid(2, 2, color.White), 0.1)
	assert.Equal(t, 1, tiny.Bounds().Dx())
	assert.Equal(t, 1, tiny.Bounds().Dy())

	assert.Same(t, img, Thumbnail(img, 1))
}

func TestAddBorder(t *testing.T) {
	img := solid(10, 6, color.NRGBA{B: 255, A: 255})
	out := AddBorder(img, 3, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	assert.Equal(t, 16, out.Bounds().Dx())
	assert.Equal(t, 12, out.Bounds().Dy())
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, out.NRGBAAt(3, 3))

	same := AddBorder(img, 0, color.White)
	assert.Equal(t, img.Bounds(), same.Bounds())
}

func TestCropCenter(t *testing.T) {
	out := CropCenter(solid(20, 10, color.White), 8, 4)
	assert.Equal(t, image.Rect(0, 0, 8, 4), out.Bounds())
}

func TestCompositeRender(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}

	c := NewComposite(20, 10)
	c.AddLayer(solid(10, 10, red), 0, 0)
	c.AddLayer(solid(10, 10, green), 10, 0)
	c.AddLayer(solid(10, 10, green), 15, 5) // clipped
	out := c.Render()

	assert.Equal(t, image.Rect(0, 0, 20, 10), out.Bounds())
	assert.Equal(t, red, out.NRGBAAt(9, 9))
	assert.Equal(t, green, out.NRGBAAt(10, 0))
	assert.Equal(t, green, out.NRGBAAt(19, 9))
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(solid(16, 16, color.White), 95)
	require.NoError(t, err)
	require.True(t, len(data) > 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("a/b/frame.TIF"))
	assert.True(t, IsSupportedFormat("frame.jpeg"))
	assert.False(t, IsSupportedFormat("notes.txt"))
}
