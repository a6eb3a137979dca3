package display

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"glyphclock/internal/convert"
)

// PNG writes every presented frame to a PNG file, replacing it atomically so
// readers (the preview server, an image viewer) never see a partial file.
type PNG struct {
	*Memory
	path string
}

// NewPNG returns a sink writing to path. The parent directory is created.
func NewPNG(path string, w, h int) (*PNG, error) {
	if path == "" {
		return nil, errors.New("display: png path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("display: create png dir: %w", err)
	}
	return &PNG{Memory: NewMemory(w, h), path: path}, nil
}

// Path is the output file.
func (p *PNG) Path() string { return p.path }

func (p *PNG) Present() error {
	if err := p.Memory.Present(); err != nil {
		return err
	}
	return writePNGAtomic(p.path, convert.Opaque(p.Memory.shown))
}

func writePNGAtomic(path string, img image.Image) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".glyphclock-frame-*.png")
	if err != nil {
		return fmt.Errorf("display: png temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("display: encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("display: rename png: %w", err)
	}
	return nil
}
