package display

import (
	"errors"
	"image"
)

// ErrReleased is returned by sinks used after Release.
var ErrReleased = errors.New("display: sink released")

// Memory is an in-process sink. It keeps the written buffer and the last
// presented frame apart, so callers can see exactly what reached the
// "screen". Used for -render-only runs and tests.
type Memory struct {
	width, height int

	buf   *image.RGBA
	shown *image.RGBA

	writes   int
	presents int
	released bool
}

// NewMemory returns a black w x h sink.
func NewMemory(w, h int) *Memory {
	return &Memory{
		width:  w,
		height: h,
		buf:    image.NewRGBA(image.Rect(0, 0, w, h)),
		shown:  image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

func (m *Memory) Width() int  { return m.width }
func (m *Memory) Height() int { return m.height }

func (m *Memory) WriteFrame(frame *image.RGBA) error {
	if m.released {
		return ErrReleased
	}
	if err := checkFrame(frame, m.width, m.height); err != nil {
		return err
	}
	copyInto(m.buf, frame)
	m.writes++
	return nil
}

func (m *Memory) Present() error {
	if m.released {
		return ErrReleased
	}
	copy(m.shown.Pix, m.buf.Pix)
	m.presents++
	return nil
}

func (m *Memory) Release() error {
	m.released = true
	return nil
}

// Writes and Presents count successful calls.
func (m *Memory) Writes() int   { return m.writes }
func (m *Memory) Presents() int { return m.presents }

// Released reports whether Release was called.
func (m *Memory) Released() bool { return m.released }

// Snapshot returns a copy of the last presented frame.
func (m *Memory) Snapshot() *image.RGBA {
	return cloneRGBA(m.shown)
}
