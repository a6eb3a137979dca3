package render

import (
	"sync"
)

// StatefulFace is a face that remembers what it last drew.
type StatefulFace interface {
	Face
	LastTime() string
	LastDate() string
}

// Status is a point-in-time view of a tracked face.
type Status struct {
	Time      string `json:"time"`
	Date      string `json:"date"`
	Ticks     int    `json:"ticks"`
	Failures  int    `json:"failures"`
	LastError string `json:"last_error,omitempty"`
}

// Tracker wraps a face and publishes its state to readers on other
// goroutines. Render must still be called from a single goroutine.
type Tracker struct {
	face StatefulFace

	mu sync.RWMutex
	st Status
}

// Track wraps f.
func Track(f StatefulFace) *Tracker {
	return &Tracker{face: f}
}

func (t *Tracker) Render(force bool) error {
	err := t.face.Render(force)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.st.Ticks++
	t.st.Time = t.face.LastTime()
	t.st.Date = t.face.LastDate()
	if err != nil {
		t.st.Failures++
		t.st.LastError = err.Error()
	} else {
		t.st.LastError = ""
	}
	return err
}

// Status returns the state after the most recent Render.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st
}
