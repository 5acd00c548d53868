package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuminance(t *testing.T) {
	assert.Equal(t, uint8(0), Luminance(color.Black))
	assert.Equal(t, uint8(255), Luminance(color.White))
	// Pure green dominates the BT.601 weights.
	assert.Equal(t, uint8(150), Luma8(0, 255, 0))
	assert.Equal(t, uint8(76), Luma8(255, 0, 0))
	assert.Equal(t, uint8(29), Luma8(0, 0, 255))
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#10a0ff")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0xa0, B: 0xff, A: 255}, c)
	assert.Equal(t, "#10a0ff", Hex(c))

	_, err = ParseHex("#fff")
	assert.Error(t, err)
	_, err = ParseHex("zzzzzz")
	assert.Error(t, err)
}
