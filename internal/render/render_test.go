package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jonboulle/clockwork"

	"glyphclock/internal/digits"
	"glyphclock/internal/display"
	"glyphclock/internal/glyph"
	"glyphclock/internal/layout"
	appLog "glyphclock/internal/log"
	"glyphclock/internal/model"
	"glyphclock/internal/timesource"
)

type stubClock struct {
	snap model.TimeSnapshot
}

func (s *stubClock) Snapshot() model.TimeSnapshot { return s.snap }

func at(tm, ampm, date string) model.TimeSnapshot {
	return model.TimeSnapshot{Time: tm, AmPm: ampm, Weekday: "Monday", Date: date}
}

func digitColor(n int) color.RGBA {
	return color.RGBA{R: uint8(10 + n*20), G: 200, A: 255}
}

var (
	tensColor = color.RGBA{R: 250, G: 10, B: 10, A: 255}
	amColor   = color.RGBA{B: 255, A: 255}
	pmColor   = color.RGBA{G: 255, B: 255, A: 255}
	sepColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black     = color.RGBA{A: 255}
)

func solidPNG(t *testing.T, w, h int, c color.RGBA) *fstest.MapFile {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &fstest.MapFile{Data: buf.Bytes()}
}

// testAssets builds a full glyph set where every digit has its own color.
func testAssets(t *testing.T) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{
		glyph.Digit10s:      solidPNG(t, 6, 32, tensColor),
		glyph.Blank1s:       solidPNG(t, 24, 32, black),
		glyph.Blank10s:      solidPNG(t, 7, 32, black),
		glyph.AM:            solidPNG(t, 20, 10, amColor),
		glyph.PM:            solidPNG(t, 20, 10, pmColor),
		glyph.TimeSeparator: solidPNG(t, 6, 32, sepColor),
	}
	for n := 0; n < 10; n++ {
		fsys[glyph.DigitName(n)] = solidPNG(t, 20, 32, digitColor(n))
	}
	return fsys
}

type fixture struct {
	clock *stubClock
	sink  *display.Memory
	table layout.Table
	r     *Renderer
}

func newFixture(t *testing.T, fsys fstest.MapFS, opts Options) *fixture {
	t.Helper()
	appLog.SetOutput(io.Discard)
	clk := &stubClock{}
	sink := display.NewMemory(128, 32)
	table := layout.New(layout.DefaultOffsets())
	r := New(clk, glyph.New(fsys, 128, 32), table, sink, opts)
	return &fixture{clock: clk, sink: sink, table: table, r: r}
}

func (f *fixture) pixel(c model.Cell) color.RGBA {
	p := f.table.Origin(c).Add(image.Pt(1, 1))
	return f.sink.Snapshot().RGBAAt(p.X, p.Y)
}

func TestRender_FirstPassDrawsEverything(t *testing.T) {
	f := newFixture(t, testAssets(t), Options{})
	f.clock.snap = at("9:05", "AM", "Oct 19")

	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}

	pass := f.r.LastPass()
	if !reflect.DeepEqual(pass.Changed, model.DigitCells) {
		t.Fatalf("Changed: got %v, want all digit cells", pass.Changed)
	}
	if !reflect.DeepEqual(pass.Blanked, model.DigitCells) {
		t.Fatalf("Blanked: got %v, want all digit cells", pass.Blanked)
	}
	if f.sink.Writes() != 1 || f.sink.Presents() != 1 {
		t.Fatalf("sink: got %d writes %d presents, want 1/1", f.sink.Writes(), f.sink.Presents())
	}
	if f.r.LastTime() != "9:05" || f.r.LastDate() != "Oct 19" {
		t.Fatalf("state: got %q/%q", f.r.LastTime(), f.r.LastDate())
	}

	checks := map[model.Cell]color.RGBA{
		model.HourTens:   black, // no leading zero
		model.HourOnes:   digitColor(9),
		model.Separator:  sepColor,
		model.MinuteTens: digitColor(0),
		model.MinuteOnes: digitColor(5),
		model.AmPm:       amColor,
	}
	for c, want := range checks {
		if got := f.pixel(c); got != want {
			t.Fatalf("pixel in %s: got %+v, want %+v", c, got, want)
		}
	}
}

func TestRender_SameMinuteIsNoOp(t *testing.T) {
	f := newFixture(t, testAssets(t), Options{})
	f.clock.snap = at("3:45", "PM", "Oct 19")

	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}
	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}
	if !f.r.LastPass().Skipped {
		t.Fatal("second pass was not skipped")
	}
	if f.sink.Writes() != 1 || f.sink.Presents() != 1 {
		t.Fatalf("sink: got %d writes %d presents, want 1/1", f.sink.Writes(), f.sink.Presents())
	}
}

func TestRender_ForceAlwaysPresents(t *testing.T) {
	f := newFixture(t, testAssets(t), Options{})
	f.clock.snap = at("3:45", "PM", "Oct 19")

	for i := 0; i < 3; i++ {
		if err := f.r.Render(true); err != nil {
			t.Fatal(err)
		}
	}
	if f.sink.Writes() != 3 || f.sink.Presents() != 3 {
		t.Fatalf("sink: got %d writes %d presents, want 3/3", f.sink.Writes(), f.sink.Presents())
	}
	pass := f.r.LastPass()
	if !pass.Forced || !reflect.DeepEqual(pass.Blanked, model.DigitCells) {
		t.Fatalf("forced pass: got %+v, want every digit cell blanked", pass)
	}
}

func TestRender_OnlyChangedCellIsBlanked(t *testing.T) {
	f := newFixture(t, testAssets(t), Options{})
	f.clock.snap = at("3:45", "PM", "Oct 19")
	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}

	f.clock.snap = at("3:46", "PM", "Oct 19")
	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}

	pass := f.r.LastPass()
	want := []model.Cell{model.MinuteOnes}
	if !reflect.DeepEqual(pass.Changed, want) {
		t.Fatalf("Changed: got %v, want %v", pass.Changed, want)
	}
	if !reflect.DeepEqual(pass.Blanked, want) {
		t.Fatalf("Blanked: got %v, want %v", pass.Blanked, want)
	}
	// Overlays and unchanged digits are still drawn into the new frame.
	wantDrawn := []model.Cell{model.Separator, model.AmPm, model.HourOnes, model.MinuteTens, model.MinuteOnes}
	if !reflect.DeepEqual(pass.Drawn, wantDrawn) {
		t.Fatalf("Drawn: got %v, want %v", pass.Drawn, wantDrawn)
	}
	if got := f.pixel(model.MinuteOnes); got != digitColor(6) {
		t.Fatalf("minute ones: got %+v, want digit 6", got)
	}
	if got := f.pixel(model.AmPm); got != pmColor {
		t.Fatalf("ampm: got %+v, want PM glyph", got)
	}
}

func TestRender_HourRollover(t *testing.T) {
	f := newFixture(t, testAssets(t), Options{})
	f.clock.snap = at("9:59", "AM", "Oct 19")
	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}
	f.clock.snap = at("10:00", "AM", "Oct 19")
	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}

	want := []model.Cell{model.HourTens, model.HourOnes, model.MinuteTens, model.MinuteOnes}
	if got := f.r.LastPass().Blanked; !reflect.DeepEqual(got, want) {
		t.Fatalf("Blanked: got %v, want %v", got, want)
	}
	if got := f.pixel(model.HourTens); got != tensColor {
		t.Fatalf("hour tens: got %+v, want tens glyph", got)
	}
}

func TestRender_LeadingHourSuppressed(t *testing.T) {
	for h := 1; h <= 12; h++ {
		f := newFixture(t, testAssets(t), Options{})
		f.clock.snap = at(digits.Format(model.DigitQuad{HourTens: h / 10, HourOnes: h % 10, MinuteTens: 3}), "PM", "Oct 19")
		if err := f.r.Render(false); err != nil {
			t.Fatal(err)
		}

		drewTens := false
		for _, c := range f.r.LastPass().Drawn {
			if c == model.HourTens {
				drewTens = true
			}
		}
		if wantTens := h >= 10; drewTens != wantTens {
			t.Fatalf("hour %d: tens glyph drawn=%v, want %v", h, drewTens, wantTens)
		}
	}
}

func TestRender_DateChangeRedraws(t *testing.T) {
	f := newFixture(t, testAssets(t), Options{})
	f.clock.snap = at("12:00", "AM", "Oct 19")
	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}
	f.clock.snap = at("12:00", "AM", "Oct 20")
	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}

	pass := f.r.LastPass()
	if pass.Skipped || len(pass.Changed) != 0 {
		t.Fatalf("pass: got %+v, want a presented pass with no changed digits", pass)
	}
	if f.sink.Presents() != 2 {
		t.Fatalf("presents: got %d, want 2", f.sink.Presents())
	}
}

func TestRender_AmPmCaseInsensitive(t *testing.T) {
	f := newFixture(t, testAssets(t), Options{})
	f.clock.snap = at("9:05", "am", "Oct 19")
	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}
	if got := f.pixel(model.AmPm); got != amColor {
		t.Fatalf("ampm: got %+v, want AM glyph", got)
	}

	f.clock.snap = at("9:05", "p.m.", "Oct 19")
	if err := f.r.Render(true); err != nil {
		t.Fatal(err)
	}
	if got := f.pixel(model.AmPm); got != pmColor {
		t.Fatalf("ampm: got %+v, want PM glyph", got)
	}
}

func TestRender_TwoPhasePresentsTwice(t *testing.T) {
	f := newFixture(t, testAssets(t), Options{TwoPhase: true})
	f.clock.snap = at("3:45", "PM", "Oct 19")
	if err := f.r.Render(false); err != nil {
		t.Fatal(err)
	}
	if f.sink.Writes() != 2 || f.sink.Presents() != 2 {
		t.Fatalf("sink: got %d writes %d presents, want 2/2", f.sink.Writes(), f.sink.Presents())
	}
	if got := f.pixel(model.MinuteOnes); got != digitColor(5) {
		t.Fatalf("final frame: got %+v, want digit 5", got)
	}
}

func TestRender_MissingGlyphIsSkipped(t *testing.T) {
	fsys := testAssets(t)
	delete(fsys, glyph.DigitName(5))
	delete(fsys, glyph.TimeSeparator)

	var logs bytes.Buffer
	f := newFixture(t, fsys, Options{})
	appLog.SetOutput(&logs)

	f.clock.snap = at("9:05", "AM", "Oct 19")
	if err := f.r.Render(false); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if got := f.pixel(model.MinuteOnes); got != black {
		t.Fatalf("minute ones: got %+v, want untouched background", got)
	}
	if got := f.pixel(model.HourOnes); got != digitColor(9) {
		t.Fatalf("hour ones: got %+v, want digit 9", got)
	}
	for _, c := range f.r.LastPass().Drawn {
		if c == model.Separator || c == model.MinuteOnes {
			t.Fatalf("Drawn includes %s whose glyph is missing", c)
		}
	}
	if !strings.Contains(logs.String(), "digit5.png") {
		t.Fatalf("missing glyph not logged: %q", logs.String())
	}
	if f.r.LastTime() != "9:05" {
		t.Fatal("state not updated after degraded render")
	}
}

func TestRender_FormatErrorAbortsPass(t *testing.T) {
	f := newFixture(t, testAssets(t), Options{})
	f.clock.snap = at("9-05", "AM", "Oct 19")

	err := f.r.Render(false)
	var fe *digits.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Render: got %v, want *digits.FormatError", err)
	}
	if f.sink.Writes() != 0 || f.sink.Presents() != 0 {
		t.Fatal("sink touched by an aborted pass")
	}
	if f.r.LastTime() != "" {
		t.Fatalf("state updated by an aborted pass: %q", f.r.LastTime())
	}
}

type flakySink struct {
	*display.Memory
	fail bool
}

func (s *flakySink) Present() error {
	if s.fail {
		return errors.New("bus timeout")
	}
	return s.Memory.Present()
}

func TestRender_SinkErrorRetriesNextTick(t *testing.T) {
	appLog.SetOutput(io.Discard)
	clk := &stubClock{snap: at("3:45", "PM", "Oct 19")}
	sink := &flakySink{Memory: display.NewMemory(128, 32), fail: true}
	r := New(clk, glyph.New(testAssets(t), 128, 32), layout.New(layout.DefaultOffsets()), sink, Options{})

	if err := r.Render(false); err == nil {
		t.Fatal("expected present error")
	}
	if r.LastTime() != "" {
		t.Fatal("state updated despite failed present")
	}

	sink.fail = false
	if err := r.Render(false); err != nil {
		t.Fatal(err)
	}
	if sink.Presents() != 1 || r.LastTime() != "3:45" {
		t.Fatalf("retry: got %d presents, last=%q", sink.Presents(), r.LastTime())
	}
}

func TestRender_EndToEndWithTimeSource(t *testing.T) {
	appLog.SetOutput(io.Discard)
	clk := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 9, 5, 10, 0, time.UTC))
	src := timesource.New("UTC", clk, timesource.DateShort)
	sink := display.NewMemory(128, 32)
	r := New(src, glyph.New(testAssets(t), 128, 32), layout.New(layout.DefaultOffsets()), sink, Options{})

	if err := r.Render(false); err != nil {
		t.Fatal(err)
	}
	if got := r.LastPass().Blanked; !reflect.DeepEqual(got, model.DigitCells) {
		t.Fatalf("first pass Blanked: got %v, want all digit cells", got)
	}
	if r.LastTime() != "9:05" {
		t.Fatalf("LastTime: got %q, want 9:05", r.LastTime())
	}

	clk.Advance(time.Second)
	if err := r.Render(false); err != nil {
		t.Fatal(err)
	}
	if sink.Writes() != 1 || sink.Presents() != 1 {
		t.Fatalf("sink after second tick: got %d writes %d presents, want 1/1", sink.Writes(), sink.Presents())
	}

	clk.Advance(time.Minute)
	if err := r.Render(false); err != nil {
		t.Fatal(err)
	}
	want := []model.Cell{model.MinuteOnes}
	if got := r.LastPass().Blanked; !reflect.DeepEqual(got, want) {
		t.Fatalf("next minute Blanked: got %v, want %v", got, want)
	}
}
