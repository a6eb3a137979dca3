package display

import (
	"image"
	"sync"
)

// Window shows the presented frame in a desktop window, scaled up so a
// 128x32 panel is readable on a monitor. Frames are written from the render
// goroutine and drawn from the window's own loop, started with Run.
type Window struct {
	width, height int
	scale         int
	title         string

	mu       sync.Mutex
	pending  *image.RGBA
	shown    *image.RGBA
	dirty    bool
	released bool
}

// NewWindow returns a window sink. Nothing is shown until Run is called.
func NewWindow(w, h, scale int, title string) *Window {
	if scale <= 0 {
		scale = 4
	}
	if title == "" {
		title = "glyphclock"
	}
	return &Window{
		width:   w,
		height:  h,
		scale:   scale,
		title:   title,
		pending: image.NewRGBA(image.Rect(0, 0, w, h)),
		shown:   image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

func (w *Window) Width() int  { return w.width }
func (w *Window) Height() int { return w.height }

func (w *Window) WriteFrame(frame *image.RGBA) error {
	if err := checkFrame(frame, w.width, w.height); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return ErrReleased
	}
	copyInto(w.pending, frame)
	return nil
}

func (w *Window) Present() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return ErrReleased
	}
	copy(w.shown.Pix, w.pending.Pix)
	w.dirty = true
	return nil
}

// Release stops the window loop at its next update.
func (w *Window) Release() error {
	w.mu.Lock()
	w.released = true
	w.mu.Unlock()
	return nil
}

// takeFrame copies the presented frame into dst when it changed since the
// last call.
func (w *Window) takeFrame(dst []byte) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty {
		return false
	}
	copy(dst, w.shown.Pix)
	w.dirty = false
	return true
}

func (w *Window) isReleased() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released
}
