package mosaic

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"ocular-mosaic/internal/store"
	"ocular-mosaic/internal/vision"
	"ocular-mosaic/pkg/colorutil"
	"ocular-mosaic/pkg/geometry"
)

// textured returns a blocky random RGB image.
func textured(seed int64, w, h int) *image.NRGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for by := 0; by < h; by += 4 {
		for bx := 0; bx < w; bx += 4 {
			c := color.NRGBA{R: uint8(40 + r.Intn(180)), G: uint8(40 + r.Intn(180)), B: uint8(40 + r.Intn(180)), A: 255}
			for y := by; y < by+4 && y < h; y++ {
				for x := bx; x < bx+4 && x < w; x++ {
					img.SetNRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fakeFeatures reports 0 keypoints for flat images and 100 otherwise.
type fakeFeatures struct{}

func (fakeFeatures) CountKeypoints(img image.Image) int {
	b := img.Bounds()
	r0, g0, b0, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			if r != r0 || g != g0 || bb != b0 {
				return 100
			}
		}
	}
	return 0
}

// fakeLuminance counts dark and bright pixels with Rec. 601 luma.
type fakeLuminance struct{}

func (fakeLuminance) LuminanceFractions(img image.Image, dark, bright uint8) (float64, float64) {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 1, 0
	}
	var nDark, nBright int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			switch l := colorutil.Luminance(img.At(x, y)); {
			case l < dark:
				nDark++
			case l > bright:
				nBright++
			}
		}
	}
	return float64(nDark) / float64(total), float64(nBright) / float64(total)
}

type fakeCircles struct {
	circle geometry.Circle
	found  bool
}

func (f fakeCircles) FindFieldCircle(image.Image, uint8) (geometry.Circle, bool) {
	return f.circle, f.found
}

type fakeStitcher struct {
	status map[vision.Mode]vision.Status
	calls  []vision.Mode
}

func (f *fakeStitcher) Stitch(imgs []image.Image, mode vision.Mode) (image.Image, vision.Status) {
	f.calls = append(f.calls, mode)
	if s := f.status[mode]; s != vision.StatusOK {
		return nil, s
	}
	return imgs[0], vision.StatusOK
}

// bitsHasher assigns fixed fingerprints to known images.
type bitsHasher map[image.Image]uint64

func (h bitsHasher) Fingerprint(img image.Image) (vision.Fingerprint, error) {
	return vision.NewFingerprint(h[img]), nil
}

func testToolkit(t *testing.T) vision.Toolkit {
	t.Helper()
	h, err := vision.NewHasher(vision.HashPerception)
	require.NoError(t, err)
	return vision.Toolkit{
		Features:  fakeFeatures{},
		Luminance: fakeLuminance{},
		Circles:   fakeCircles{},
		Stitcher:  &fakeStitcher{},
		Hasher:    h,
	}
}

// filterKit is the toolkit subset the quality filter uses.
func filterKit() vision.Toolkit {
	return vision.Toolkit{Features: fakeFeatures{}, Luminance: fakeLuminance{}}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedFrames stores the images as raw frames of sampleID and returns their ids.
func seedFrames(t *testing.T, s *store.Store, sampleID string, imgs []image.Image) []string {
	t.Helper()
	ids := make([]string, len(imgs))
	for i, img := range imgs {
		f, err := s.AddRawFrame(context.Background(), sampleID, "frame.png", encodePNG(t, img))
		require.NoError(t, err)
		ids[i] = f.ID
	}
	return ids
}

func tilesOf(imgs ...image.Image) []Tile {
	tiles := make([]Tile, len(imgs))
	for i, img := range imgs {
		tiles[i] = Tile{SourceID: string(rune('a' + i)), Image: img, Thumb: img}
	}
	return tiles
}
