// Package glyph loads the pre-rendered clock images and keeps them in memory
// for the life of the process.
package glyph

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	appLog "glyphclock/internal/log"
)

// Asset names, matching the file names in the assets directory.
const (
	Digit10s      = "digit10s.png"
	Blank1s       = "blank1s.png"
	Blank10s      = "blank10s.png"
	AM            = "am.png"
	PM            = "pm.png"
	TimeSeparator = "timeseparator.png"
)

var digitNames = [10]string{
	"digit0.png", "digit1.png", "digit2.png", "digit3.png", "digit4.png",
	"digit5.png", "digit6.png", "digit7.png", "digit8.png", "digit9.png",
}

// DigitName returns the asset name for a single digit 0-9, or "" if n is out
// of range.
func DigitName(n int) string {
	if n < 0 || n >= len(digitNames) {
		return ""
	}
	return digitNames[n]
}

// All lists every asset the glyph face may request.
func All() []string {
	names := make([]string, 0, len(digitNames)+6)
	names = append(names, digitNames[:]...)
	return append(names, Digit10s, Blank1s, Blank10s, AM, PM, TimeSeparator)
}

// AssetLoadError is returned when a named glyph cannot be read or decoded.
type AssetLoadError struct {
	Name string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("glyph: load %q: %v", e.Name, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

// Cache decodes glyphs on first use and memoizes them. It is not safe for
// concurrent use; the render loop is its only caller.
type Cache struct {
	fsys   fs.FS
	maxW   int
	maxH   int
	glyphs map[string]*image.RGBA
}

// New returns a Cache reading from fsys. Images larger than maxW x maxH are
// scaled down to fit, keeping their aspect ratio.
func New(fsys fs.FS, maxW, maxH int) *Cache {
	return &Cache{
		fsys:   fsys,
		maxW:   maxW,
		maxH:   maxH,
		glyphs: make(map[string]*image.RGBA),
	}
}

// Get returns the decoded glyph for name. Failed loads are not cached.
func (c *Cache) Get(name string) (*image.RGBA, error) {
	if img, ok := c.glyphs[name]; ok {
		return img, nil
	}

	img, err := c.load(name)
	if err != nil {
		return nil, &AssetLoadError{Name: name, Err: err}
	}
	c.glyphs[name] = img
	appLog.Debug("glyph loaded", "name", name, "size", img.Bounds().Size())
	return img, nil
}

// Preload loads every name and returns all failures joined together.
func (c *Cache) Preload(names ...string) error {
	var errs []error
	for _, n := range names {
		if _, err := c.Get(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports how many glyphs are cached.
func (c *Cache) Len() int {
	return len(c.glyphs)
}

func (c *Cache) load(name string) (*image.RGBA, error) {
	if c.fsys == nil {
		return nil, errors.New("no asset filesystem")
	}
	f, err := c.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	rgba := toRGBA(src)
	return thumbnail(rgba, c.maxW, c.maxH), nil
}

// toRGBA returns src as an *image.RGBA anchored at (0,0).
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	if img, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// thumbnail shrinks img to fit inside maxW x maxH. Images that already fit
// are returned unchanged; images are never enlarged.
func thumbnail(img *image.RGBA, maxW, maxH int) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return img
	}

	nw, nh := w, h
	if nw > maxW {
		nh = max(1, nh*maxW/nw)
		nw = maxW
	}
	if nh > maxH {
		nw = max(1, nw*maxH/nh)
		nh = maxH
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}
