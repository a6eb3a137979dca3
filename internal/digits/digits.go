// Package digits splits a formatted "H:MM" clock string into the four digits
// drawn by the glyph face.
package digits

import (
	"fmt"
	"strconv"
	"strings"

	"glyphclock/internal/model"
)

// FormatError reports a time string that is not "H:MM". The time source is
// trusted to never produce one, so callers treat it as a bug and abort the
// current render pass.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("digits: malformed time %q: %s", e.Input, e.Reason)
}

// Decompose returns the digit quad for s. An empty s means "no time yet" and
// yields model.UnknownQuad.
func Decompose(s string) (model.DigitQuad, error) {
	if s == "" {
		return model.UnknownQuad, nil
	}

	fields := strings.Split(s, ":")
	if len(fields) != 2 {
		return model.UnknownQuad, &FormatError{Input: s, Reason: fmt.Sprintf("expected 2 fields, got %d", len(fields))}
	}

	hour, err := parseField(fields[0])
	if err != nil {
		return model.UnknownQuad, &FormatError{Input: s, Reason: "hour: " + err.Error()}
	}
	minute, err := parseField(fields[1])
	if err != nil {
		return model.UnknownQuad, &FormatError{Input: s, Reason: "minute: " + err.Error()}
	}

	return model.DigitQuad{
		HourTens:   hour / 10,
		HourOnes:   hour % 10,
		MinuteTens: minute / 10,
		MinuteOnes: minute % 10,
	}, nil
}

func parseField(f string) (int, error) {
	if f == "" {
		return 0, fmt.Errorf("empty")
	}
	// Atoi accepts a sign; the formatter never emits one.
	for _, r := range f {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	n, err := strconv.Atoi(f)
	if err != nil {
		return 0, err
	}
	if n > 99 {
		return 0, fmt.Errorf("value %d has more than two digits", n)
	}
	return n, nil
}

// Format is the inverse of Decompose for known quads.
func Format(q model.DigitQuad) string {
	if q.IsUnknown() {
		return ""
	}
	return fmt.Sprintf("%d:%02d", q.HourTens*10+q.HourOnes, q.MinuteTens*10+q.MinuteOnes)
}
