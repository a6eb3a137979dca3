package main

import (
	"image/color"
	"io"
	"testing"

	"glyphclock/internal/config"
	"glyphclock/internal/display"
	appLog "glyphclock/internal/log"
	"glyphclock/internal/render"
)

func TestApplyFlags(t *testing.T) {
	appLog.SetOutput(io.Discard)
	conf := config.DefaultConfig()
	conf.Display.Driver = display.DriverOLED

	applyFlags(conf, flagConfig{listen: ":9090", renderOnly: true})
	if conf.Listen != ":9090" {
		t.Fatalf("listen: got %q", conf.Listen)
	}
	if conf.Display.Driver != display.DriverMemory {
		t.Fatalf("render-only driver: got %q", conf.Display.Driver)
	}

	conf.Display.Driver = display.DriverPNG
	applyFlags(conf, flagConfig{window: true})
	if conf.Display.Driver != display.DriverWindow {
		t.Fatalf("window driver: got %q", conf.Display.Driver)
	}
}

func TestTextColors_BadValueKeepsDefault(t *testing.T) {
	appLog.SetOutput(io.Discard)
	got := textColors(config.ColorsConfig{Time: "#00ff00", AmPm: "nope", Date: "#fff"})
	def := render.DefaultTextColors()

	if got.Time != (color.RGBA{G: 255, A: 255}) {
		t.Fatalf("time: %v", got.Time)
	}
	if got.AmPm != def.AmPm {
		t.Fatalf("ampm: got %v, want default %v", got.AmPm, def.AmPm)
	}
	if got.Date != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("date: %v", got.Date)
	}
}

func TestBuildFace_GlyphModeSurvivesMissingAssets(t *testing.T) {
	appLog.SetOutput(io.Discard)
	conf := config.DefaultConfig()
	conf.Clock.AssetsDir = t.TempDir()
	sink := display.NewMemory(128, 32)

	face, err := buildFace(conf, nil, sink)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := face.(*render.Renderer); !ok {
		t.Fatalf("face: got %T", face)
	}

	conf.Clock.Mode = config.ModeText
	face, err = buildFace(conf, nil, sink)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := face.(*render.TextFace); !ok {
		t.Fatalf("face: got %T", face)
	}
}
