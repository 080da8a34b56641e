package buffer

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	b := New(3, 2)
	assert.Equal(t, 3, b.Width)
	assert.Equal(t, 2, b.Height)
	assert.Len(t, b.Pix, 24)
	assert.False(t, b.Empty())

	assert.True(t, New(-1, 4).Empty())
	var nilBuf *Buffer
	assert.True(t, nilBuf.Empty())
}

func TestCloneIsDeep(t *testing.T) {
	b := New(2, 2)
	b.Pix[0] = 10

	c := b.Clone()
	require.True(t, Equal(b, c))

	c.Pix[0] = 99
	assert.Equal(t, uint8(10), b.Pix[0])
	assert.False(t, Equal(b, c))
}

func TestFromImageNonZeroOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	src.SetNRGBA(5, 5, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	src.SetNRGBA(6, 5, color.NRGBA{R: 5, G: 6, B: 7, A: 255})

	b := FromImage(src)
	require.Equal(t, 2, b.Width)
	require.Equal(t, 1, b.Height)
	assert.Equal(t, []uint8{1, 2, 3, 4, 5, 6, 7, 255}, b.Pix)
}

func TestFromImageGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 1, 1))
	src.SetGray(0, 0, color.Gray{Y: 77})

	b := FromImage(src)
	assert.Equal(t, []uint8{77, 77, 77, 255}, b.Pix)
}

func TestNRGBASharesPixels(t *testing.T) {
	b := New(2, 1)
	img := b.NRGBA()
	img.SetNRGBA(1, 0, color.NRGBA{R: 9, A: 255})
	assert.Equal(t, uint8(9), b.Pix[b.Offset(1, 0)])
}

func TestNormalizeAlpha(t *testing.T) {
	b := New(2, 2)
	b.NormalizeAlpha()
	for i := 3; i < len(b.Pix); i += 4 {
		assert.Equal(t, uint8(255), b.Pix[i])
	}
}

func TestClampByte(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-10, 0},
		{0, 0},
		{0.5, 0},
		{1.5, 2},
		{127.5, 128},
		{128.5, 128},
		{204, 204},
		{254.6, 255},
		{300, 255},
		{math.NaN(), 0},
		{math.Inf(1), 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampByte(tt.in), "ClampByte(%v)", tt.in)
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 16.0, RoundHalfUp(15.5))
	assert.Equal(t, 12.0, RoundHalfUp(11.76))
	assert.Equal(t, 2.0, RoundHalfUp(2.49))
	assert.Equal(t, -1.0, RoundHalfUp(-1.5))
}

func TestClampHelpers(t *testing.T) {
	assert.Equal(t, 0.0, ClampFloat(math.NaN(), 0, 1))
	assert.Equal(t, 1.0, ClampFloat(7, 0, 1))
	assert.Equal(t, 2, ClampInt(1, 2, 32))
	assert.Equal(t, 32, ClampInt(40, 2, 32))
}
