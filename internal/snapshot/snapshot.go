// Package snapshot writes the display as an upscaled PNG image.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"golang.org/x/image/draw"
)

// Image renders the display into an RGBA image scale times its native size.
func Image(d *display.Buffer, scale int, on, off color.RGBA) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	src := image.NewRGBA(image.Rect(0, 0, display.Width, display.Height))
	d.RGBA(src.Pix, on, off)
	if scale == 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, display.Width*scale, display.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Encode writes the display as PNG.
func Encode(w io.Writer, d *display.Buffer, scale int, on, off color.RGBA) error {
	return png.Encode(w, Image(d, scale, on, off))
}

// Save writes the display as PNG to path.
func Save(path string, d *display.Buffer, scale int, on, off color.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(f, d, scale, on, off); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
