// Package display provides the sinks the clock draws into: an in-memory
// buffer, a PNG dump, an SSD1306 OLED over I2C, and a desktop window.
package display

import (
	"fmt"
	"image"
)

// Sink is a fixed-size frame buffer with an explicit flush.
//
// WriteFrame copies the frame into the sink's own buffer; the caller keeps
// ownership of the frame. Present pushes the buffer to the device. Release
// frees the device and must be called once when the process stops.
type Sink interface {
	Width() int
	Height() int
	WriteFrame(frame *image.RGBA) error
	Present() error
	Release() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverPNG    = "png"
	DriverOLED   = "oled"
	DriverWindow = "window"
)

// Options configures Open.
type Options struct {
	Driver string
	Width  int
	Height int

	// PNGPath is the output file for DriverPNG.
	PNGPath string

	// I2CBus is the periph bus name for DriverOLED ("" picks the default).
	I2CBus string

	// Rotated flips the OLED 180 degrees.
	Rotated bool

	// WindowScale multiplies the window size for DriverWindow.
	WindowScale int
	WindowTitle string
}

// Open builds the sink named by opts.Driver.
func Open(opts Options) (Sink, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("display: invalid size %dx%d", opts.Width, opts.Height)
	}
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemory(opts.Width, opts.Height), nil
	case DriverPNG:
		return NewPNG(opts.PNGPath, opts.Width, opts.Height)
	case DriverOLED:
		return OpenOLED(opts.I2CBus, opts.Width, opts.Height, opts.Rotated)
	case DriverWindow:
		return NewWindow(opts.Width, opts.Height, opts.WindowScale, opts.WindowTitle), nil
	default:
		return nil, fmt.Errorf("display: unknown driver %q", opts.Driver)
	}
}

// checkFrame verifies a frame matches the sink size.
func checkFrame(frame *image.RGBA, w, h int) error {
	if frame == nil {
		return fmt.Errorf("display: nil frame")
	}
	if got := frame.Bounds().Size(); got.X != w || got.Y != h {
		return fmt.Errorf("display: frame is %dx%d, sink is %dx%d", got.X, got.Y, w, h)
	}
	return nil
}

// copyInto copies frame into dst, which has the same size and origin (0,0).
func copyInto(dst, frame *image.RGBA) {
	b := frame.Bounds()
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		so := frame.PixOffset(b.Min.X, b.Min.Y+y)
		do := y * dst.Stride
		copy(dst.Pix[do:do+rowLen], frame.Pix[so:so+rowLen])
	}
}

// cloneRGBA returns a deep copy of img.
func cloneRGBA(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	copyInto(out, img)
	return out
}
