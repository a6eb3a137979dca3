package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"sync"
	"syscall"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"

	"glyphclock/internal/config"
	"glyphclock/internal/convert"
	"glyphclock/internal/display"
	"glyphclock/internal/glyph"
	"glyphclock/internal/layout"
	appLog "glyphclock/internal/log"
	"glyphclock/internal/loop"
	"glyphclock/internal/render"
	"glyphclock/internal/timesource"
	"glyphclock/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values; set flags override the config file.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	renderOnly bool
	dump       string
	window     bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("glyphclock starting", "version", version)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	applyFlags(conf, flags)

	if err := run(conf, flags); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("glyphclock failed", err)
		os.Exit(1)
	}
	appLog.Info("glyphclock exiting")
}

// applyFlags folds CLI overrides into the loaded config.
func applyFlags(conf *config.Config, flags flagConfig) {
	if !flags.debug {
		if lvl, ok := appLog.ParseLevel(conf.LogLevel); ok {
			appLog.SetLevel(lvl)
		} else {
			appLog.Warn("unknown log level; keeping info", "log_level", conf.LogLevel)
		}
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.window {
		conf.Display.Driver = display.DriverWindow
	}
	if flags.renderOnly {
		conf.Display.Driver = display.DriverMemory
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"mode", conf.Clock.Mode,
		"schedule", conf.Clock.TickSchedule(),
		"assets_dir", conf.Clock.AssetsDir,
		"driver", conf.Display.Driver,
		"size", fmt.Sprintf("%dx%d", conf.Display.Width, conf.Display.Height),
		"once", flags.once,
		"render_only", flags.renderOnly,
		"dump", flags.dump,
	)
}

func run(conf *config.Config, flags flagConfig) error {
	style, err := timesource.ParseDateStyle(conf.Clock.DateStyle)
	if err != nil {
		appLog.Warn("unknown date style; using short", "date_style", conf.Clock.DateStyle)
	}
	clk := clockwork.NewRealClock()
	source := timesource.New(conf.Timezone, clk, style)

	sink, err := display.Open(display.Options{
		Driver:      conf.Display.Driver,
		Width:       conf.Display.Width,
		Height:      conf.Display.Height,
		PNGPath:     conf.Display.PNGPath,
		I2CBus:      conf.Display.I2CBus,
		Rotated:     conf.Display.Rotated,
		WindowScale: conf.Display.WindowScale,
		WindowTitle: "glyphclock",
	})
	if err != nil {
		return fmt.Errorf("open display: %w", err)
	}
	defer func() {
		if err := sink.Release(); err != nil {
			appLog.Error("display release failed", err)
		}
	}()
	rec := display.NewRecorder(sink)

	face, err := buildFace(conf, source, rec)
	if err != nil {
		return err
	}
	tracker := render.Track(face)

	// Root context with cancellation on SIGINT/SIGTERM. SIGUSR1 forces a
	// full redraw.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	redraw := make(chan struct{}, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == syscall.SIGUSR1 {
					appLog.Info("redraw requested", "signal", sig.String())
					loop.RequestRedraw(redraw)
					continue
				}
				appLog.Info("signal received, shutting down", "signal", sig.String())
				cancel()
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	if conf.Listen != "" && !flags.once {
		srv := web.NewServer(conf, rec, tracker, redraw)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := web.StartServer(ctx, srv); err != nil {
				appLog.Error("HTTP server failed", err, "listen", conf.Listen)
			}
		}()
	}

	opts := loop.Options{
		Schedule: conf.Clock.TickSchedule(),
		Clock:    clk,
		Once:     flags.once,
		Redraw:   redraw,
	}

	var runErr error
	if win, ok := sink.(*display.Window); ok && !flags.once {
		// The window event loop owns the main goroutine; ticks run beside it.
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			st, err := loop.Run(ctx, tracker, opts)
			logStats(st)
			if err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("clock loop stopped", err)
			}
		}()
		runErr = win.Run(ctx)
		cancel()
	} else {
		var st loop.Stats
		st, runErr = loop.Run(ctx, tracker, opts)
		logStats(st)
		cancel()
	}
	wg.Wait()

	if flags.dump != "" {
		if err := dumpFrame(rec, flags.dump); err != nil {
			appLog.Error("dump failed", err, "path", flags.dump)
		}
	}
	return runErr
}

// buildFace picks the glyph or text face from config.
func buildFace(conf *config.Config, source *timesource.Source, sink display.Sink) (render.StatefulFace, error) {
	if conf.Clock.Mode == config.ModeText {
		return render.NewTextFace(source, sink, textColors(conf.Clock.Colors)), nil
	}

	glyphs := glyph.New(os.DirFS(conf.Clock.AssetsDir), sink.Width(), sink.Height())
	if err := glyphs.Preload(glyph.All()...); err != nil {
		// Missing glyphs are skipped per pass, so the clock still runs.
		appLog.Warn("some glyphs failed to load", "assets_dir", conf.Clock.AssetsDir, "error", err.Error())
	}
	appLog.Info("glyphs loaded", "count", glyphs.Len(), "assets_dir", conf.Clock.AssetsDir)

	return render.New(source, glyphs, layout.New(conf.Clock.Layout), sink, render.Options{
		TwoPhase: conf.Clock.TwoPhasePresent,
	}), nil
}

// textColors parses the configured colors; a bad value keeps its default.
func textColors(cc config.ColorsConfig) render.TextColors {
	colors := render.DefaultTextColors()
	for _, c := range []struct {
		name  string
		value string
		dst   *color.RGBA
	}{
		{"time", cc.Time, &colors.Time},
		{"ampm", cc.AmPm, &colors.AmPm},
		{"date", cc.Date, &colors.Date},
	} {
		parsed, err := config.ParseColor(c.value)
		if err != nil {
			appLog.Warn("bad text color; using default", "field", c.name, "value", c.value)
			continue
		}
		*c.dst = parsed
	}
	return colors
}

func dumpFrame(rec *display.Recorder, path string) error {
	frame, _, _ := rec.Last()
	if frame == nil {
		return errors.New("no frame presented")
	}
	out, err := display.NewPNG(path, frame.Bounds().Dx(), frame.Bounds().Dy())
	if err != nil {
		return err
	}
	if err := out.WriteFrame(convert.Opaque(frame)); err != nil {
		return err
	}
	if err := out.Present(); err != nil {
		return err
	}
	appLog.Info("frame dumped", "path", out.Path())
	return out.Release()
}

func logStats(st loop.Stats) {
	appLog.Info("clock loop finished", "ticks", st.Ticks, "forced", st.Forced, "errors", st.Errors)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/glyphclock/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "Preview HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Render a single tick and exit")
	flag.BoolVar(&cfg.renderOnly, "render-only", false, "Render into memory only; do not touch display hardware")
	flag.StringVar(&cfg.dump, "dump", "", "Write the last presented frame to this PNG path on exit")
	flag.BoolVar(&cfg.window, "window", false, "Show the clock in a desktop window")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
