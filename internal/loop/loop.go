// Package loop drives a clock face: one Render per scheduled tick until the
// context is canceled.
package loop

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	appLog "glyphclock/internal/log"
	"glyphclock/internal/render"
)

// parser accepts five- or six-field specs (seconds optional) and
// descriptors such as "@every 1s".
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a tick schedule.
func ParseSchedule(spec string) (cron.Schedule, error) {
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("loop: bad schedule %q: %w", spec, err)
	}
	return s, nil
}

// Options configures Run.
type Options struct {
	// Schedule is a cron spec; see ParseSchedule.
	Schedule string

	// Clock is the time base for waiting between ticks. Nil means real time.
	Clock clockwork.Clock

	// Once renders a single tick and returns.
	Once bool

	// Redraw, when non-nil, requests an immediate forced render. Sends must
	// not block; see RequestRedraw.
	Redraw <-chan struct{}
}

// Stats summarizes a finished Run.
type Stats struct {
	Ticks  int
	Forced int
	Errors int
}

// Run calls face.Render on every tick. Render errors are logged and the loop
// carries on; only ctx cancellation ends it. The returned error is ctx.Err()
// or a schedule parse error.
func Run(ctx context.Context, face render.Face, opts Options) (Stats, error) {
	var st Stats

	sched, err := ParseSchedule(opts.Schedule)
	if err != nil {
		return st, err
	}
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}

	tick := func(force bool) {
		st.Ticks++
		if force {
			st.Forced++
		}
		if err := face.Render(force); err != nil {
			st.Errors++
			appLog.Error("render pass failed", err, "tick", st.Ticks, "forced", force)
		}
	}

	tick(false)
	if opts.Once {
		return st, nil
	}

	for {
		now := clk.Now()
		timer := clk.NewTimer(sched.Next(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return st, ctx.Err()
		case <-opts.Redraw:
			timer.Stop()
			tick(true)
		case <-timer.Chan():
			tick(false)
		}
	}
}

// RequestRedraw queues a forced render without blocking. It reports false
// when a redraw is already pending.
func RequestRedraw(ch chan<- struct{}) bool {
	select {
	case ch <- struct{}{}:
		return true
	default:
		return false
	}
}
