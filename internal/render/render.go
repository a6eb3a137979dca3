// Package render draws clock faces into a display sink.
//
// The glyph face (Renderer) composites pre-rendered digit images and only
// blanks the digit cells whose value changed since the last pass. The text
// face (TextFace) writes the time and date with a bitmap font.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"glyphclock/internal/digits"
	"glyphclock/internal/display"
	"glyphclock/internal/glyph"
	"glyphclock/internal/layout"
	appLog "glyphclock/internal/log"
	"glyphclock/internal/model"
)

// Face is one way of drawing the clock. The driving loop calls Render once
// per tick.
type Face interface {
	Render(force bool) error
}

// Clock supplies formatted time. *timesource.Source implements it.
type Clock interface {
	Snapshot() model.TimeSnapshot
}

// Glyphs supplies decoded glyph bitmaps. *glyph.Cache implements it.
type Glyphs interface {
	Get(name string) (*image.RGBA, error)
}

// Options tunes the glyph face.
type Options struct {
	// TwoPhase writes and presents the frame once after blanking changed
	// cells and again after drawing the new digits, so the blank state is
	// briefly visible. Off by default: each pass presents once.
	TwoPhase bool

	// Background fills the frame before anything is drawn. The zero value
	// is opaque black.
	Background color.RGBA
}

// Pass describes the last executed Render call.
type Pass struct {
	Skipped  bool
	Forced   bool
	Snapshot model.TimeSnapshot

	Old, New model.DigitQuad

	// Changed lists the digit cells whose value differs between Old and New.
	Changed []model.Cell
	// Blanked lists the cells that received a blank filler.
	Blanked []model.Cell
	// Drawn lists the cells that received a glyph, overlays included.
	Drawn []model.Cell

	Writes   int
	Presents int
}

// Renderer is the glyph face. It is not safe for concurrent use.
type Renderer struct {
	clock  Clock
	glyphs Glyphs
	table  layout.Table
	sink   display.Sink
	opts   Options

	// Last successfully presented time and date. Empty before the first
	// successful pass.
	lastTime string
	lastDate string

	pass Pass
}

// New returns a glyph face drawing into sink.
func New(clock Clock, glyphs Glyphs, table layout.Table, sink display.Sink, opts Options) *Renderer {
	if opts.Background == (color.RGBA{}) {
		opts.Background = color.RGBA{A: 0xFF}
	}
	opts.Background.A = 0xFF
	return &Renderer{
		clock:  clock,
		glyphs: glyphs,
		table:  table,
		sink:   sink,
		opts:   opts,
	}
}

// LastTime returns the time string of the last successful pass.
func (r *Renderer) LastTime() string { return r.lastTime }

// LastDate returns the date string of the last successful pass.
func (r *Renderer) LastDate() string { return r.lastDate }

// LastPass describes the most recent Render call.
func (r *Renderer) LastPass() Pass { return r.pass }

// Render draws the current time. Unless force is set, nothing happens when
// neither the time nor the date string changed since the last successful
// pass. A forced pass treats every digit cell as changed.
//
// A malformed time string aborts the pass with a *digits.FormatError before
// touching the sink. Missing glyphs are logged and skipped. Sink errors are
// returned and the pass is retried on the next call.
func (r *Renderer) Render(force bool) error {
	snap := r.clock.Snapshot()

	if !force && snap.Time == r.lastTime && snap.Date == r.lastDate {
		r.pass = Pass{Skipped: true, Snapshot: snap}
		return nil
	}

	newQuad, err := digits.Decompose(snap.Time)
	if err != nil {
		return err
	}
	oldQuad := model.UnknownQuad
	if !force {
		if oldQuad, err = digits.Decompose(r.lastTime); err != nil {
			return err
		}
	}

	pass := Pass{Forced: force, Snapshot: snap, Old: oldQuad, New: newQuad}
	for _, c := range model.DigitCells {
		if newQuad.Digit(c) != oldQuad.Digit(c) {
			pass.Changed = append(pass.Changed, c)
		}
	}

	bounds := image.Rect(0, 0, r.sink.Width(), r.sink.Height())
	frame := image.NewRGBA(bounds)
	draw.Draw(frame, bounds, image.NewUniform(r.opts.Background), image.Point{}, draw.Src)
	overlay := image.NewRGBA(bounds)

	// Separator and AM/PM are cheap, so they are redrawn every pass.
	if r.paste(overlay, glyph.TimeSeparator, model.Separator) {
		pass.Drawn = append(pass.Drawn, model.Separator)
	}
	if r.paste(overlay, ampmGlyph(snap.AmPm), model.AmPm) {
		pass.Drawn = append(pass.Drawn, model.AmPm)
	}

	// Glyphs do not always cover their whole cell (a "1" is narrower than
	// an "8"), so changed cells are blanked before the new digit lands.
	for _, c := range pass.Changed {
		if r.paste(frame, blankGlyph(c), c) {
			pass.Blanked = append(pass.Blanked, c)
		}
	}

	draw.Draw(frame, bounds, overlay, image.Point{}, draw.Over)

	if r.opts.TwoPhase {
		if err := r.flush(frame, &pass); err != nil {
			r.pass = pass
			return err
		}
	}

	for _, c := range model.DigitCells {
		name := digitGlyph(c, newQuad.Digit(c))
		if name == "" {
			continue
		}
		if r.paste(frame, name, c) {
			pass.Drawn = append(pass.Drawn, c)
		}
	}

	if err := r.flush(frame, &pass); err != nil {
		r.pass = pass
		return err
	}

	r.lastTime = snap.Time
	r.lastDate = snap.Date
	r.pass = pass

	appLog.Debug("clock rendered",
		"time", snap.Time,
		"date", snap.Date,
		"forced", force,
		"changed", cellNames(pass.Changed),
	)
	return nil
}

func (r *Renderer) flush(frame *image.RGBA, pass *Pass) error {
	if err := r.sink.WriteFrame(frame); err != nil {
		return fmt.Errorf("render: write frame: %w", err)
	}
	pass.Writes++
	if err := r.sink.Present(); err != nil {
		return fmt.Errorf("render: present: %w", err)
	}
	pass.Presents++
	return nil
}

// paste draws the named glyph at the cell origin, alpha-blended over dst.
// A glyph that cannot be loaded is logged and skipped.
func (r *Renderer) paste(dst *image.RGBA, name string, c model.Cell) bool {
	img, err := r.glyphs.Get(name)
	if err != nil {
		appLog.Error("glyph unavailable; skipping cell", err, "glyph", name, "cell", c)
		return false
	}
	at := r.table.Origin(c)
	b := img.Bounds()
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(b.Size())}, img, b.Min, draw.Over)
	return true
}

// ampmGlyph maps "AM" (any case) to the AM glyph and everything else to PM.
func ampmGlyph(token string) string {
	if strings.EqualFold(token, "AM") {
		return glyph.AM
	}
	return glyph.PM
}

// blankGlyph returns the filler matching a digit cell's width. The hour-tens
// cell is the narrow "1" slot.
func blankGlyph(c model.Cell) string {
	if c == model.HourTens {
		return glyph.Blank10s
	}
	return glyph.Blank1s
}

// digitGlyph returns the glyph for value v in cell c, or "" when the cell
// stays empty. A 12-hour clock never shows a leading zero, and the only
// possible hour-tens digit is 1.
func digitGlyph(c model.Cell, v int) string {
	if c == model.HourTens {
		if v > 0 {
			return glyph.Digit10s
		}
		return ""
	}
	return glyph.DigitName(v)
}

func cellNames(cells []model.Cell) string {
	names := make([]string, len(cells))
	for i, c := range cells {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}
