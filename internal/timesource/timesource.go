// Package timesource reads the wall clock in the configured zone and formats
// it for the clock faces.
package timesource

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	appLog "glyphclock/internal/log"
	"glyphclock/internal/model"
)

// DateStyle selects how the month/day line is written.
type DateStyle string

const (
	DateShort   DateStyle = "short"   // "Oct 19"
	DateOrdinal DateStyle = "ordinal" // "Oct 19th"
)

// TimezoneError reports a zone name the tz database does not know.
type TimezoneError struct {
	Zone string
	Err  error
}

func (e *TimezoneError) Error() string {
	return fmt.Sprintf("timesource: unknown timezone %q: %v", e.Zone, e.Err)
}

func (e *TimezoneError) Unwrap() error { return e.Err }

// ResolveLocation loads an IANA zone. An empty name is UTC.
func ResolveLocation(zone string) (*time.Location, error) {
	if zone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, &TimezoneError{Zone: zone, Err: err}
	}
	return loc, nil
}

// Source produces TimeSnapshots.
type Source struct {
	clock clockwork.Clock
	loc   *time.Location
	style DateStyle
}

// New returns a Source for zone. An unknown zone is logged once and replaced
// by UTC; it never fails.
func New(zone string, clock clockwork.Clock, style DateStyle) *Source {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	loc, err := ResolveLocation(zone)
	if err != nil {
		appLog.Warn("invalid timezone in config, falling back to UTC",
			"timezone", zone,
			"err", err,
			"hint", "see https://en.wikipedia.org/wiki/List_of_tz_database_time_zones",
		)
		loc = time.UTC
	}
	if style == "" {
		style = DateShort
	}
	return &Source{clock: clock, loc: loc, style: style}
}

// Location reports the zone snapshots are computed in.
func (s *Source) Location() *time.Location {
	return s.loc
}

// Now returns the current time in the source's zone.
func (s *Source) Now() time.Time {
	return s.clock.Now().In(s.loc)
}

// Snapshot reads the clock and formats it.
func (s *Source) Snapshot() model.TimeSnapshot {
	return Format(s.Now(), s.style)
}

// Format renders t the way the clock faces expect: 12-hour "H:MM" with no
// leading zero on the hour, "AM"/"PM", full weekday, and "Jan 2" (or
// "Jan 2nd" for DateOrdinal).
func Format(t time.Time, style DateStyle) model.TimeSnapshot {
	date := t.Format("Jan 2")
	if style == DateOrdinal {
		date += OrdinalSuffix(t.Day())
	}
	return model.TimeSnapshot{
		Time:    t.Format("3:04"),
		AmPm:    t.Format("PM"),
		Weekday: t.Weekday().String(),
		Date:    date,
	}
}

// OrdinalSuffix returns "st", "nd", "rd" or "th" for a day of month.
func OrdinalSuffix(day int) string {
	if n := day % 100; n >= 10 && n <= 20 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// ParseDateStyle validates a config value; unknown values map to DateShort.
func ParseDateStyle(s string) (DateStyle, error) {
	switch DateStyle(s) {
	case "", DateShort:
		return DateShort, nil
	case DateOrdinal:
		return DateOrdinal, nil
	default:
		return DateShort, fmt.Errorf("timesource: unknown date style %s", strconv.Quote(s))
	}
}
