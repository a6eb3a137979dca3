package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"glyphclock/internal/display"
	appLog "glyphclock/internal/log"
)

// TextColors are the colors of the text face lines.
type TextColors struct {
	Time color.RGBA
	AmPm color.RGBA
	Date color.RGBA
}

// DefaultTextColors are bright enough for an LED matrix.
func DefaultTextColors() TextColors {
	return TextColors{
		Time: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		AmPm: color.RGBA{R: 255, G: 255, B: 128, A: 255},
		Date: color.RGBA{R: 255, G: 100, B: 0, A: 255},
	}
}

// baselineOffset moves a line's top edge to the font baseline.
const baselineOffset = 7

// TextFace draws the time, AM/PM marker, weekday and date as text. Every
// changed pass clears and redraws the whole frame.
type TextFace struct {
	clock  Clock
	sink   display.Sink
	colors TextColors
	font   tinyfont.Fonter

	lastTime string
	lastDate string
}

// NewTextFace returns a text face drawing into sink.
func NewTextFace(clock Clock, sink display.Sink, colors TextColors) *TextFace {
	return &TextFace{
		clock:  clock,
		sink:   sink,
		colors: colors,
		font:   &proggy.TinySZ8pt7b,
	}
}

// LastTime returns the time string of the last successful pass.
func (f *TextFace) LastTime() string { return f.lastTime }

// LastDate returns the date string of the last successful pass.
func (f *TextFace) LastDate() string { return f.lastDate }

// Render draws the clock when the time or date changed, or when forced.
func (f *TextFace) Render(force bool) error {
	snap := f.clock.Snapshot()
	if !force && snap.Time == f.lastTime && snap.Date == f.lastDate {
		return nil
	}

	w, h := f.sink.Width(), f.sink.Height()
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.RGBA{A: 0xFF}), image.Point{}, draw.Src)
	c := canvas{img: frame}

	timeWidth := f.lineWidth(snap.Time)
	f.writeCentered(c, snap.Time, 4, f.colors.Time)
	f.write(c, snap.AmPm, (w+timeWidth)/2+4, 4, f.colors.AmPm)
	f.writeCentered(c, snap.Weekday, h-18, f.colors.Date)
	f.writeCentered(c, snap.Date, h-9, f.colors.Date)

	if err := f.sink.WriteFrame(frame); err != nil {
		return fmt.Errorf("render: write frame: %w", err)
	}
	if err := f.sink.Present(); err != nil {
		return fmt.Errorf("render: present: %w", err)
	}

	f.lastTime = snap.Time
	f.lastDate = snap.Date
	appLog.Debug("text clock rendered", "time", snap.Time, "date", snap.Date, "forced", force)
	return nil
}

func (f *TextFace) lineWidth(s string) int {
	_, outbox := tinyfont.LineWidth(f.font, s)
	return int(outbox)
}

// writeCentered draws s horizontally centered with its top edge at y.
func (f *TextFace) writeCentered(c canvas, s string, y int, col color.RGBA) {
	x := (c.img.Bounds().Dx() - f.lineWidth(s)) / 2
	f.write(c, s, x, y, col)
}

func (f *TextFace) write(c canvas, s string, x, y int, col color.RGBA) {
	tinyfont.WriteLine(c, f.font, int16(x), int16(y+baselineOffset), s, col)
}

// canvas lets tinyfont draw into an RGBA frame.
type canvas struct {
	img *image.RGBA
}

var _ drivers.Displayer = canvas{}

func (c canvas) Size() (x, y int16) {
	b := c.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (c canvas) SetPixel(x, y int16, col color.RGBA) {
	p := image.Pt(int(x), int(y))
	if !p.In(c.img.Bounds()) {
		return
	}
	c.img.SetRGBA(p.X, p.Y, col)
}

func (c canvas) Display() error { return nil }
