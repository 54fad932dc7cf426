package display

import (
	"image/color"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDrawSetsPixelsMSBFirst(t *testing.T) {
	var b Buffer
	collision := b.Draw(0, 0, []byte{0x81})
	assert.False(t, collision)
	assert.True(t, b.Pixel(0, 0))
	assert.False(t, b.Pixel(1, 0))
	assert.True(t, b.Pixel(7, 0))
	assert.Equal(t, 2, b.Lit())
}

func TestDrawTwiceTogglesOffAndCollides(t *testing.T) {
	var b Buffer
	b.Draw(10, 5, []byte{0xFF})
	assert.Equal(t, 8, b.Lit())

	collision := b.Draw(10, 5, []byte{0xFF})
	assert.True(t, collision)
	assert.Equal(t, 0, b.Lit())
}

func TestDrawNoCollisionWhenTurningPixelsOn(t *testing.T) {
	var b Buffer
	b.Draw(0, 0, []byte{0xF0})
	// Overlapping zero bits never collide
	assert.False(t, b.Draw(0, 0, []byte{0x0F}))
	assert.Equal(t, 8, b.Lit())
}

func TestDrawOriginWraps(t *testing.T) {
	var b Buffer
	b.Draw(64+3, 32+2, []byte{0x80})
	assert.True(t, b.Pixel(3, 2))
}

func TestDrawClipsRightEdge(t *testing.T) {
	var b Buffer
	b.Draw(60, 0, []byte{0xFF})
	for x := 60; x < Width; x++ {
		assert.True(t, b.Pixel(x, 0))
	}
	// Nothing wrapped to the left side
	for x := 0; x < 4; x++ {
		assert.False(t, b.Pixel(x, 0))
	}
	assert.Equal(t, 4, b.Lit())
}

func TestDrawClipsBottomEdge(t *testing.T) {
	var b Buffer
	b.Draw(0, 30, []byte{0x80, 0x80, 0x80, 0x80})
	assert.True(t, b.Pixel(0, 30))
	assert.True(t, b.Pixel(0, 31))
	assert.False(t, b.Pixel(0, 0))
	assert.False(t, b.Pixel(0, 1))
	assert.Equal(t, 2, b.Lit())
}

func TestVisibleRows(t *testing.T) {
	assert.Equal(t, 5, VisibleRows(0, 5))
	assert.Equal(t, 2, VisibleRows(30, 5))
	assert.Equal(t, 2, VisibleRows(62, 5)) // 62 % 32 == 30
	assert.Equal(t, 0, VisibleRows(4, 0))
}

func TestClear(t *testing.T) {
	var b Buffer
	b.Draw(0, 0, []byte{0xFF, 0xFF})
	b.Clear()
	assert.Equal(t, 0, b.Lit())
}

func TestRGBA(t *testing.T) {
	var b Buffer
	b.Draw(1, 0, []byte{0x80})
	dst := make([]byte, Width*Height*4)
	on := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	off := color.RGBA{A: 0xFF}
	b.RGBA(dst, on, off)
	assert.Equal(t, []byte{0, 0, 0, 0xFF}, dst[0:4])
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, dst[4:8])
}

func TestStringAndChecksum(t *testing.T) {
	var a, b Buffer
	assert.Equal(t, a.Checksum(), b.Checksum())

	a.Draw(0, 0, []byte{0xC0})
	assert.True(t, a.Checksum() != b.Checksum())

	lines := strings.Split(a.String(), "\n")
	assert.Equal(t, Height+1, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], "##."))
	assert.Equal(t, Width, len(lines[1]))
}
