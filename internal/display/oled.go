package display

import (
	"errors"
	"fmt"
	"image"
	"runtime"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"glyphclock/internal/convert"
)

// OLED drives an SSD1306 panel (128x32 or 128x64) on an I2C bus at the
// controller's fixed address 0x3C.
type OLED struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev

	width, height int
	buf           *image1bit.VerticalLSB
}

// OpenOLED initializes periph.io, opens busName ("" for the first bus) and
// resets the panel.
func OpenOLED(busName string, w, h int, rotated bool) (*OLED, error) {
	if runtime.GOOS != "linux" {
		return nil, errors.New("display: oled driver is only available on linux")
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: periph host init failed: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("display: failed to open i2c bus %q: %w", busName, err)
	}

	opts := ssd1306.DefaultOpts
	opts.W = w
	opts.H = h
	opts.Rotated = rotated

	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("display: ssd1306 init failed: %w", err)
	}

	return &OLED{
		bus:    bus,
		dev:    dev,
		width:  w,
		height: h,
		buf:    image1bit.NewVerticalLSB(image.Rect(0, 0, w, h)),
	}, nil
}

func (o *OLED) Width() int  { return o.width }
func (o *OLED) Height() int { return o.height }

// WriteFrame packs the frame to 1bpp; nothing is sent until Present.
func (o *OLED) WriteFrame(frame *image.RGBA) error {
	if o.dev == nil {
		return ErrReleased
	}
	if err := checkFrame(frame, o.width, o.height); err != nil {
		return err
	}
	o.buf = convert.PackMono(frame, convert.DefaultThreshold)
	return nil
}

func (o *OLED) Present() error {
	if o.dev == nil {
		return ErrReleased
	}
	if err := o.dev.Draw(o.buf.Bounds(), o.buf, image.Point{}); err != nil {
		return fmt.Errorf("display: ssd1306 draw: %w", err)
	}
	return nil
}

// Release blanks the panel and closes the bus.
func (o *OLED) Release() error {
	if o.dev == nil {
		return nil
	}
	haltErr := o.dev.Halt()
	closeErr := o.bus.Close()
	o.dev = nil
	return errors.Join(haltErr, closeErr)
}
