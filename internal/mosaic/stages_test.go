package mosaic

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocular-mosaic/internal/vision"
	"ocular-mosaic/pkg/geometry"
)

func TestCropperNoContourReturnsInput(t *testing.T) {
	img := textured(1, 40, 40)
	c := NewCropper(DefaultConfig(), fakeCircles{found: false})
	assert.Same(t, img, c.Crop(img))

	c = NewCropper(DefaultConfig(), nil)
	assert.Same(t, img, c.Crop(img))
}

func TestCropperInscribedSquare(t *testing.T) {
	img := textured(1, 100, 100)
	finder := fakeCircles{found: true, circle: geometry.Circle{Center: geometry.Point2D{X: 50, Y: 50}, Radius: 40}}

	out := NewCropper(DefaultConfig(), finder).Crop(img)
	assert.Equal(t, 56, out.Bounds().Dx())
	assert.Equal(t, 56, out.Bounds().Dy())
	assert.Equal(t, img.At(22, 22), out.At(0, 0))

	// Borders are framed later, after the tiles share one size.
	bordered := NewCropper(DefaultConfig().WithBorder(2, "#ff0000"), finder).Crop(img)
	assert.Equal(t, 56, bordered.Bounds().Dx())
}

func TestCropperDegenerateCircle(t *testing.T) {
	img := textured(1, 40, 40)
	finder := fakeCircles{found: true, circle: geometry.Circle{Center: geometry.Point2D{X: 500, Y: 500}, Radius: 10}}
	assert.Same(t, img, NewCropper(DefaultConfig(), finder).Crop(img))
}

func TestDuplicateDetectorIdenticalImages(t *testing.T) {
	h, err := vision.NewHasher(vision.HashPerception)
	require.NoError(t, err)
	d := NewDuplicateDetector(h, 5, nil)

	a := tilesOf(textured(1, 64, 64), textured(1, 64, 64), textured(2, 64, 64))
	assert.True(t, d.Accept(a[0]))
	assert.False(t, d.Accept(a[1]))
	assert.True(t, d.Accept(a[2]))
}

func TestDuplicateDetectorOrderDependence(t *testing.T) {
	a, b, c := solid(1, 1, color.NRGBA{R: 1}), solid(1, 1, color.NRGBA{R: 2}), solid(1, 1, color.NRGBA{R: 3})
	hasher := bitsHasher{a: 0, b: 0b111, c: 0b111111}

	keep := func(order ...image.Image) []image.Image {
		d := NewDuplicateDetector(hasher, 3, nil)
		var kept []image.Image
		for _, t := range tilesOf(order...) {
			if d.Accept(t) {
				kept = append(kept, t.Image)
			}
		}
		return kept
	}

	assert.Equal(t, []image.Image{a, c}, keep(a, b, c))
	assert.Equal(t, []image.Image{b}, keep(b, a, c))
}

func TestDuplicateDetectorWithoutHasher(t *testing.T) {
	d := NewDuplicateDetector(nil, 5, nil)
	assert.False(t, d.Enabled())
	img := textured(1, 16, 16)
	for _, tile := range tilesOf(img, img, img) {
		assert.True(t, d.Accept(tile))
	}
}

func TestFingerprintSetThreshold(t *testing.T) {
	var s FingerprintSet
	s.Add(vision.NewFingerprint(0))
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.IsDuplicate(vision.NewFingerprint(0b11111), 5))
	assert.False(t, s.IsDuplicate(vision.NewFingerprint(0b111111), 5))
}

func TestCapFrames(t *testing.T) {
	var tiles []Tile
	for i := 0; i < 30; i++ {
		img := solid(1, 1, color.NRGBA{R: uint8(i), A: 255})
		tiles = append(tiles, Tile{SourceID: string(rune('A' + i)), Image: img, Thumb: img})
	}
	byID := make(map[string]Tile)
	for _, tile := range tiles {
		byID[tile.SourceID] = tile
	}

	capped := CapFrames(tiles, 10, 7)
	require.Len(t, capped, 10)
	for i, tile := range capped {
		orig, ok := byID[tile.SourceID]
		require.True(t, ok)
		assert.Same(t, orig.Thumb, tile.Thumb)
		if i > 0 {
			assert.Less(t, capped[i-1].SourceID, tile.SourceID)
		}
	}

	assert.Equal(t, sourceIDs(capped), sourceIDs(CapFrames(tiles, 10, 7)))
	assert.Len(t, CapFrames(tiles, 50, 7), 30)
	assert.Len(t, CapFrames(tiles, 0, 7), 30)
	assert.Len(t, CapFrames(tiles, 10, 0), 10)
}

func TestStandardize(t *testing.T) {
	tiles := tilesOf(textured(1, 10, 8), textured(2, 12, 6), textured(3, 9, 9))
	out := Standardize(tiles)
	require.Len(t, out, 3)
	for _, tile := range out {
		w, h := tile.Size()
		assert.Equal(t, 9, w)
		assert.Equal(t, 6, h)
	}

	single := tilesOf(textured(1, 5, 7))
	assert.Equal(t, single, Standardize(single))
	assert.Empty(t, Standardize(nil))
}

func TestFrameTilesAfterStandardize(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	tiles := FrameTiles(Standardize(tilesOf(textured(1, 10, 10), textured(2, 14, 14))), 2, red)
	require.Len(t, tiles, 2)
	for i, tile := range tiles {
		w, h := tile.Size()
		assert.Equal(t, 14, w, "tile %d", i)
		assert.Equal(t, 14, h, "tile %d", i)
		assert.Equal(t, red, color.NRGBAModel.Convert(tile.Image.At(0, 0)), "tile %d", i)
		assert.Equal(t, red, color.NRGBAModel.Convert(tile.Image.At(13, 13)), "tile %d", i)
	}

	plain := tilesOf(textured(1, 4, 4))
	assert.Equal(t, plain, FrameTiles(plain, 0, red))
}

func TestAssembleGrid(t *testing.T) {
	var imgs []image.Image
	for i := 0; i < 5; i++ {
		imgs = append(imgs, solid(4, 3, color.NRGBA{R: uint8(10 * (i + 1)), A: 255}))
	}
	canvas, grid, err := AssembleGrid(tilesOf(imgs...))
	require.NoError(t, err)
	assert.Equal(t, 3, grid.Cols)
	assert.Equal(t, 2, grid.Rows)
	assert.Equal(t, image.Rect(0, 0, 12, 6), canvas.Bounds())

	for i := range imgs {
		row, col := i/3, i%3
		assert.Equal(t, color.NRGBA{R: uint8(10 * (i + 1)), A: 255}, canvas.NRGBAAt(col*4+1, row*3+1), "tile %d", i)
	}
	assert.Equal(t, color.NRGBA{A: 255}, canvas.NRGBAAt(10, 4))
}

func TestAssembleGridEmpty(t *testing.T) {
	_, _, err := AssembleGrid(nil)
	assert.ErrorIs(t, err, ErrAssemblyFailed)
	assert.ErrorIs(t, err, ErrNoUsableFrames)
}

func TestGeometricStitcherFallback(t *testing.T) {
	tiles := tilesOf(textured(1, 20, 20), textured(2, 20, 20))

	fake := &fakeStitcher{status: map[vision.Mode]vision.Status{}}
	s := &GeometricStitcher{Panoramic: fake, Scale: 1}
	_, mode, err := s.Compose(tiles)
	require.NoError(t, err)
	assert.Equal(t, vision.ModePanorama, mode)
	assert.Equal(t, []vision.Mode{vision.ModePanorama}, fake.calls)

	fake = &fakeStitcher{status: map[vision.Mode]vision.Status{vision.ModePanorama: vision.StatusErrHomographyEstFail}}
	s.Panoramic = fake
	_, mode, err = s.Compose(tiles)
	require.NoError(t, err)
	assert.Equal(t, vision.ModeScans, mode)
	assert.Equal(t, []vision.Mode{vision.ModePanorama, vision.ModeScans}, fake.calls)
}

func TestGeometricStitcherBothFail(t *testing.T) {
	fake := &fakeStitcher{status: map[vision.Mode]vision.Status{
		vision.ModePanorama: vision.StatusErrNeedMoreImgs,
		vision.ModeScans:    vision.StatusErrHomographyEstFail,
	}}
	s := &GeometricStitcher{Panoramic: fake, Scale: 0.5}
	_, _, err := s.Compose(tilesOf(textured(1, 20, 20), textured(2, 20, 20)))

	var sfe *StitchingFailedError
	require.True(t, errors.As(err, &sfe))
	assert.Equal(t, vision.StatusErrNeedMoreImgs, sfe.Panorama)
	assert.Equal(t, vision.StatusErrHomographyEstFail, sfe.Scans)
	assert.Contains(t, err.Error(), "panorama=ERR_NEED_MORE_IMGS")
	assert.Len(t, fake.calls, 2)
}

func TestBuildContactSheet(t *testing.T) {
	sheet := BuildContactSheet(tilesOf(textured(1, 40, 20), textured(2, 20, 40), textured(3, 30, 30)), 10)
	require.NotNil(t, sheet)
	assert.Equal(t, image.Rect(0, 0, 20, 20), sheet.Bounds())
	// A 40x20 tile scaled into a 10px cell is letterboxed vertically.
	assert.Equal(t, color.NRGBA{A: 255}, sheet.NRGBAAt(5, 0))

	assert.Nil(t, BuildContactSheet(nil, 10))
}
