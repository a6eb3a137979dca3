package display

import (
	"image"
	"sync"
	"time"
)

// Recorder wraps a sink and remembers the last presented frame so the preview
// server can serve it from another goroutine.
type Recorder struct {
	Sink

	mu          sync.RWMutex
	pending     *image.RGBA
	last        *image.RGBA
	presentedAt time.Time
	presents    int
}

// NewRecorder wraps s.
func NewRecorder(s Sink) *Recorder {
	return &Recorder{
		Sink:    s,
		pending: image.NewRGBA(image.Rect(0, 0, s.Width(), s.Height())),
	}
}

func (r *Recorder) WriteFrame(frame *image.RGBA) error {
	if err := r.Sink.WriteFrame(frame); err != nil {
		return err
	}
	// pending is only touched by the render goroutine.
	copyInto(r.pending, frame)
	return nil
}

func (r *Recorder) Present() error {
	if err := r.Sink.Present(); err != nil {
		return err
	}
	shown := cloneRGBA(r.pending)

	r.mu.Lock()
	r.last = shown
	r.presentedAt = time.Now()
	r.presents++
	r.mu.Unlock()
	return nil
}

// Last returns the last presented frame (nil before the first present), when
// it was presented, and the present count. The frame must not be modified.
func (r *Recorder) Last() (*image.RGBA, time.Time, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.presentedAt, r.presents
}
