package convert

import (
	"image"
	"image/color"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// DefaultThreshold is the luma at or above which a pixel lights up on a
// monochrome panel.
const DefaultThreshold = 64

// PackMono converts an RGBA frame into the 1bpp vertical-byte layout used by
// SSD1306-class OLED controllers.
//
// Behavior:
//
//   - the output has the same bounds as img.
//   - transparent pixels (alpha < 128) stay off.
//   - remaining pixels are lit when their luma is >= threshold, so colored
//     glyphs (yellow AM/PM, orange date) still show on a mono panel.
func PackMono(img *image.RGBA, threshold uint8) *image1bit.VerticalLSB {
	b := img.Bounds()
	out := image1bit.NewVerticalLSB(b)

	// Walk Pix directly to avoid At() and its interface conversions.
	for y := b.Min.Y; y < b.Max.Y; y++ {
		rowOff := (y - b.Min.Y) * img.Stride
		for x := b.Min.X; x < b.Max.X; x++ {
			i := rowOff + (x-b.Min.X)*4
			c := color.RGBA{R: img.Pix[i+0], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
			if lit(c, threshold) {
				out.SetBit(x, y, image1bit.On)
			}
		}
	}
	return out
}

// lit decides whether a pixel is drawn on a monochrome panel.
//
// Y = 0.299R + 0.587G + 0.114B on the premultiplied channels, so partially
// transparent pixels count as dimmer.
func lit(c color.RGBA, threshold uint8) bool {
	if c.A < 128 {
		return false
	}
	y := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	return y >= float64(threshold)
}

// Opaque returns a copy of img with every alpha forced to 0xFF. Displays
// have no alpha channel; RGBA is premultiplied, so dropping alpha this way
// is the same as compositing onto black.
func Opaque(img *image.RGBA) *image.RGBA {
	out := &image.RGBA{
		Pix:    make([]byte, len(img.Pix)),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	copy(out.Pix, img.Pix)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xFF
	}
	return out
}
