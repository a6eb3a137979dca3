package model

// TimeSnapshot is one reading of the wall clock, already formatted for the
// display. It is produced fresh on every tick and never mutated.
type TimeSnapshot struct {
	// Time is the 12-hour "H:MM" string (no leading zero on the hour).
	// An empty Time means no time is known yet.
	Time string

	AmPm    string // "AM" or "PM"
	Weekday string // e.g. "Monday"
	Date    string // e.g. "Oct 19"
}

// DigitQuad holds the four decimal digits of an "H:MM" time.
type DigitQuad struct {
	HourTens   int
	HourOnes   int
	MinuteTens int
	MinuteOnes int
}

// UnknownQuad is the sentinel used when no prior time exists. Every field
// differs from any real digit, so comparing against it marks all cells as
// changed.
var UnknownQuad = DigitQuad{HourTens: -1, HourOnes: -1, MinuteTens: -1, MinuteOnes: -1}

// IsUnknown reports whether q is the sentinel quad.
func (q DigitQuad) IsUnknown() bool {
	return q == UnknownQuad
}

// Digit returns the field backing a digit cell, or -1 for non-digit cells.
func (q DigitQuad) Digit(c Cell) int {
	switch c {
	case HourTens:
		return q.HourTens
	case HourOnes:
		return q.HourOnes
	case MinuteTens:
		return q.MinuteTens
	case MinuteOnes:
		return q.MinuteOnes
	default:
		return -1
	}
}

// Cell identifies a fixed region of the display that holds one glyph.
type Cell int

const (
	HourTens Cell = iota
	HourOnes
	Separator
	MinuteTens
	MinuteOnes
	AmPm
)

// Cells lists every cell in left-to-right order.
var Cells = []Cell{HourTens, HourOnes, Separator, MinuteTens, MinuteOnes, AmPm}

// DigitCells lists the four cells backed by a DigitQuad field.
var DigitCells = []Cell{HourTens, HourOnes, MinuteTens, MinuteOnes}

func (c Cell) String() string {
	switch c {
	case HourTens:
		return "hour_tens"
	case HourOnes:
		return "hour_ones"
	case Separator:
		return "separator"
	case MinuteTens:
		return "minute_tens"
	case MinuteOnes:
		return "minute_ones"
	case AmPm:
		return "ampm"
	default:
		return "unknown"
	}
}
