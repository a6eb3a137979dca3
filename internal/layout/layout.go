// Package layout holds the fixed pixel origin of every clock cell.
package layout

import (
	"image"

	"glyphclock/internal/model"
)

// Offsets are the base measurements the table is built from. Each glyph
// image has a static width, so moving a cell only means changing these.
type Offsets struct {
	// X, Y is the top-left of the hour-tens cell.
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`

	// TenHourWidth is the width of the narrow hour-tens cell ("1").
	TenHourWidth int `yaml:"ten_hour_width" json:"ten_hour_width"`
	// DigitWidth is the width of a full digit cell.
	DigitWidth int `yaml:"digit_width" json:"digit_width"`
	// SeparatorWidth is the width of the ":" cell.
	SeparatorWidth int `yaml:"separator_width" json:"separator_width"`
}

// DefaultOffsets match the stock 128x32 glyph set.
func DefaultOffsets() Offsets {
	return Offsets{
		X:              1,
		Y:              0,
		TenHourWidth:   8,
		DigitWidth:     25,
		SeparatorWidth: 14,
	}
}

// Table maps cells to origins. The zero value places every cell at (0,0).
type Table struct {
	origins [numCells]image.Point
}

const numCells = int(model.AmPm) + 1

// New lays the cells out left to right on one row.
func New(o Offsets) Table {
	var t Table
	x := o.X
	t.origins[model.HourTens] = image.Pt(x, o.Y)
	x += o.TenHourWidth
	t.origins[model.HourOnes] = image.Pt(x, o.Y)
	x += o.DigitWidth
	t.origins[model.Separator] = image.Pt(x, o.Y)
	x += o.SeparatorWidth
	t.origins[model.MinuteTens] = image.Pt(x, o.Y)
	x += o.DigitWidth
	t.origins[model.MinuteOnes] = image.Pt(x, o.Y)
	x += o.DigitWidth
	t.origins[model.AmPm] = image.Pt(x, o.Y)
	return t
}

// Origin returns the top-left pixel of c.
func (t Table) Origin(c model.Cell) image.Point {
	if c < 0 || int(c) >= len(t.origins) {
		return image.Point{}
	}
	return t.origins[c]
}
