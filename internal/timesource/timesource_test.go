package timesource

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"

	appLog "glyphclock/internal/log"
	"glyphclock/internal/model"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		at    time.Time
		style DateStyle
		want  model.TimeSnapshot
	}{
		{
			at:   time.Date(2026, 10, 19, 9, 5, 0, 0, time.UTC),
			want: model.TimeSnapshot{Time: "9:05", AmPm: "AM", Weekday: "Monday", Date: "Oct 19"},
		},
		{
			at:   time.Date(2026, 10, 19, 0, 30, 0, 0, time.UTC),
			want: model.TimeSnapshot{Time: "12:30", AmPm: "AM", Weekday: "Monday", Date: "Oct 19"},
		},
		{
			at:    time.Date(2026, 3, 1, 22, 59, 0, 0, time.UTC),
			style: DateOrdinal,
			want:  model.TimeSnapshot{Time: "10:59", AmPm: "PM", Weekday: "Sunday", Date: "Mar 1st"},
		},
	}
	for _, tt := range tests {
		if got := Format(tt.at, tt.style); got != tt.want {
			t.Fatalf("Format(%v): got %+v, want %+v", tt.at, got, tt.want)
		}
	}
}

func TestOrdinalSuffix(t *testing.T) {
	want := map[int]string{1: "st", 2: "nd", 3: "rd", 4: "th", 11: "th", 12: "th", 13: "th", 21: "st", 22: "nd", 23: "rd", 30: "th", 31: "st"}
	for day, suffix := range want {
		if got := OrdinalSuffix(day); got != suffix {
			t.Fatalf("OrdinalSuffix(%d): got %q, want %q", day, got, suffix)
		}
	}
}

func TestSnapshot_UsesZone(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 14, 5, 0, 0, time.UTC))
	src := New("Asia/Tokyo", clk, DateShort)

	got := src.Snapshot()
	if got.Time != "11:05" || got.AmPm != "PM" {
		t.Fatalf("Snapshot: got %+v, want 11:05 PM", got)
	}

	clk.Advance(2 * time.Minute)
	if got := src.Snapshot().Time; got != "11:07" {
		t.Fatalf("Snapshot after advance: got %q, want 11:07", got)
	}
}

func TestNew_InvalidZoneFallsBackToUTC(t *testing.T) {
	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	t.Cleanup(func() { appLog.SetOutput(io.Discard) })

	clk := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 9, 5, 0, 0, time.UTC))
	src := New("Mars/Olympus_Mons", clk, DateShort)

	if src.Location() != time.UTC {
		t.Fatalf("Location: got %v, want UTC", src.Location())
	}
	if got := src.Snapshot().Time; got != "9:05" {
		t.Fatalf("Snapshot: got %q, want 9:05", got)
	}
	src.Snapshot()

	if n := strings.Count(buf.String(), "[WARN]"); n != 1 {
		t.Fatalf("warnings: got %d, want 1 (%q)", n, buf.String())
	}
}

func TestResolveLocation(t *testing.T) {
	loc, err := ResolveLocation("")
	if err != nil || loc != time.UTC {
		t.Fatalf("ResolveLocation(\"\"): got (%v, %v), want UTC", loc, err)
	}

	_, err = ResolveLocation("Not/AZone")
	var tzErr *TimezoneError
	if !errors.As(err, &tzErr) {
		t.Fatalf("ResolveLocation: got %v, want *TimezoneError", err)
	}
	if tzErr.Zone != "Not/AZone" {
		t.Fatalf("TimezoneError.Zone: got %q", tzErr.Zone)
	}
}

func TestParseDateStyle(t *testing.T) {
	if s, err := ParseDateStyle("ordinal"); err != nil || s != DateOrdinal {
		t.Fatalf("ParseDateStyle(ordinal): got (%v, %v)", s, err)
	}
	if s, err := ParseDateStyle("fancy"); err == nil || s != DateShort {
		t.Fatalf("ParseDateStyle(fancy): got (%v, %v), want error and short", s, err)
	}
}
