package image

import (
	"image"
	"image/color"
	"image/draw"

	"ocular-mosaic/pkg/colorutil"
)

// Composite combines several images placed at pixel offsets into one canvas.
type Composite struct {
	Width     int
	Height    int
	Layers    []*CompositeLayer
	BackColor color.Color
}

// CompositeLayer is one image placed on the canvas.
type CompositeLayer struct {
	Image   image.Image
	OffsetX int
	OffsetY int
}

// NewComposite creates a new Composite with the specified dimensions.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: colorutil.Black,
	}
}

// AddLayer places img with its top-left corner at (offsetX, offsetY).
func (c *Composite) AddLayer(img image.Image, offsetX, offsetY int) {
	c.Layers = append(c.Layers, &CompositeLayer{
		Image:   img,
		OffsetX: offsetX,
		OffsetY: offsetY,
	})
}

// Render produces the final composited image. Layers are drawn in order and
// replace whatever is underneath; parts outside the canvas are clipped.
func (c *Composite) Render() *image.NRGBA {
	result := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(result, result.Bounds(), &image.Uniform{c.BackColor}, image.Point{}, draw.Src)

	for _, cl := range c.Layers {
		if cl == nil || cl.Image == nil {
			continue
		}
		src := cl.Image
		sb := src.Bounds()
		dst := image.Rect(cl.OffsetX, cl.OffsetY, cl.OffsetX+sb.Dx(), cl.OffsetY+sb.Dy())
		draw.Draw(result, dst, src, sb.Min, draw.Src)
	}

	return result
}
