package vision

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noise(seed int64, w, h int) *image.Gray {
	r := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	// 8x8 blocks keep the structure visible to the low-frequency hashes.
	for by := 0; by < h; by += 8 {
		for bx := 0; bx < w; bx += 8 {
			v := uint8(r.Intn(256))
			for y := by; y < by+8 && y < h; y++ {
				for x := bx; x < bx+8 && x < w; x++ {
					img.SetGray(x, y, color.Gray{Y: v})
				}
			}
		}
	}
	return img
}

func TestHasherIdenticalImages(t *testing.T) {
	for _, kind := range HashKinds() {
		h, err := NewHasher(kind)
		require.NoError(t, err)

		a, err := h.Fingerprint(noise(1, 64, 64))
		require.NoError(t, err)
		b, err := h.Fingerprint(noise(1, 64, 64))
		require.NoError(t, err)

		d, err := a.Distance(b)
		require.NoError(t, err)
		assert.Zero(t, d, kind)
		assert.NotEmpty(t, a.String())
	}
}

func TestHasherDifferentImages(t *testing.T) {
	h, err := NewHasher(HashPerception)
	require.NoError(t, err)

	a, err := h.Fingerprint(noise(1, 64, 64))
	require.NoError(t, err)
	b, err := h.Fingerprint(noise(99, 64, 64))
	require.NoError(t, err)

	d, err := a.Distance(b)
	require.NoError(t, err)
	assert.Greater(t, d, 5)
}

func TestNewHasherUnknownKind(t *testing.T) {
	_, err := NewHasher("wavelet")
	assert.Error(t, err)
}

func TestEmptyFingerprintDistance(t *testing.T) {
	_, err := Fingerprint{}.Distance(Fingerprint{})
	assert.Error(t, err)
}

func TestProbe(t *testing.T) {
	assert.True(t, Probe(HashPerception).PerceptualHash)
	assert.False(t, Probe("wavelet").PerceptualHash)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OK", StatusOK.String())
	assert.Equal(t, "ERR_HOMOGRAPHY_EST_FAIL", StatusErrHomographyEstFail.String())
	assert.Equal(t, "STATUS(9)", Status(9).String())
	assert.Equal(t, "scans", ModeScans.String())
}

func TestFingerprintRoundTripAndBits(t *testing.T) {
	a := NewFingerprint(0b1011)
	b := NewFingerprint(0)

	d, err := a.Distance(b)
	require.NoError(t, err)
	assert.Equal(t, 3, d)

	parsed, err := ParseFingerprint(a.String())
	require.NoError(t, err)
	assert.Equal(t, uint64(0b1011), parsed.Bits())

	_, err = ParseFingerprint("nonsense")
	assert.Error(t, err)
}
