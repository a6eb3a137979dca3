//go:build cgo

package display

import (
	"context"

	"github.com/hajimehoshi/ebiten/v2"
)

// Run opens the window and blocks until it is closed, ctx is canceled, or
// the sink is released. ebiten requires this to run on the main goroutine.
func (w *Window) Run(ctx context.Context) error {
	g := &windowGame{
		w:   w,
		ctx: ctx,
		pix: make([]byte, w.width*w.height*4),
	}
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowSize(w.width*w.scale, w.height*w.scale)
	ebiten.SetTPS(30)
	return ebiten.RunGame(g)
}

type windowGame struct {
	w     *Window
	ctx   context.Context
	pix   []byte
	fbImg *ebiten.Image
}

func (g *windowGame) Update() error {
	if g.ctx.Err() != nil || g.w.isReleased() {
		return ebiten.Termination
	}
	return nil
}

func (g *windowGame) Draw(screen *ebiten.Image) {
	if g.fbImg == nil {
		g.fbImg = ebiten.NewImage(g.w.width, g.w.height)
	}
	if g.w.takeFrame(g.pix) {
		g.fbImg.WritePixels(g.pix)
	}
	screen.DrawImage(g.fbImg, nil)
}

// Layout keeps the logical screen at panel resolution; ebiten scales it to
// the window.
func (g *windowGame) Layout(_, _ int) (int, int) {
	return g.w.width, g.w.height
}
