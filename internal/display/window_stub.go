//go:build !cgo

package display

import (
	"context"
	"errors"
)

// Run is unavailable without cgo; ebiten needs it for the desktop window.
func (w *Window) Run(_ context.Context) error {
	return errors.New("display: window mode requires cgo (build/run with CGO_ENABLED=1)")
}
