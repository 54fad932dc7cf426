package display

import (
	"hash/crc32"
	"image/color"
	"strings"
)

const (
	Width  = 64
	Height = 32
)

// Buffer is the monochrome framebuffer, indexed [row][column].
// It is mutated only by Clear and Draw.
type Buffer struct {
	pix [Height][Width]bool
}

// Clear turns every pixel off.
func (b *Buffer) Clear() {
	b.pix = [Height][Width]bool{}
}

// Draw XORs an 8-pixel-wide sprite onto the buffer with its top-left corner at (x, y).
// The origin wraps around the screen; sprite rows and columns that run past the bottom or
// right edge are clipped rather than wrapped. It reports whether any lit pixel was turned off.
func (b *Buffer) Draw(x, y int, sprite []byte) (collision bool) {
	x %= Width
	y %= Height
	for row, bits := range sprite {
		if y+row >= Height {
			break
		}
		for bit := 0; bit < 8; bit++ {
			if x+bit >= Width {
				break
			}
			if bits&(0x80>>bit) == 0 {
				continue
			}
			py, px := (y+row)%Height, (x+bit)%Width
			if b.pix[py][px] {
				collision = true
			}
			b.pix[py][px] = !b.pix[py][px]
		}
	}
	return collision
}

// VisibleRows is the number of sprite rows of height n that Draw would touch at row y.
func VisibleRows(y, n int) int {
	y %= Height
	if y+n > Height {
		return Height - y
	}
	return n
}

func (b *Buffer) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return b.pix[y][x]
}

// Pixels returns a copy of the whole grid.
func (b *Buffer) Pixels() [Height][Width]bool { return b.pix }

// Lit returns the number of pixels that are on.
func (b *Buffer) Lit() int {
	n := 0
	for y := range b.pix {
		for x := range b.pix[y] {
			if b.pix[y][x] {
				n++
			}
		}
	}
	return n
}

// RGBA writes the buffer as 64x32 RGBA pixels into dst, which must hold Width*Height*4 bytes.
func (b *Buffer) RGBA(dst []byte, on, off color.RGBA) {
	i := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			c := off
			if b.pix[y][x] {
				c = on
			}
			dst[i], dst[i+1], dst[i+2], dst[i+3] = c.R, c.G, c.B, c.A
			i += 4
		}
	}
}

// Checksum is a CRC32 over the pixel grid, one byte per pixel in row-major order.
// Headless runs compare it against an expected value.
func (b *Buffer) Checksum() uint32 {
	raw := make([]byte, 0, Width*Height)
	for y := range b.pix {
		for x := range b.pix[y] {
			v := byte(0)
			if b.pix[y][x] {
				v = 1
			}
			raw = append(raw, v)
		}
	}
	return crc32.ChecksumIEEE(raw)
}

// String renders the buffer as text, '#' for lit pixels and '.' otherwise, one line per row.
func (b *Buffer) String() string {
	var sb strings.Builder
	sb.Grow((Width + 1) * Height)
	for y := range b.pix {
		for x := range b.pix[y] {
			if b.pix[y][x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
