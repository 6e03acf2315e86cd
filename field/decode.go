package field

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decode decodes an image stream (PNG, JPEG, GIF, BMP or WebP) and synthesizes it.
func (s *Synthesizer) Decode(r io.Reader, name string) (*Field, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	f, err := s.Synthesize(img, name)
	if err != nil {
		return nil, fmt.Errorf("synthesizing %s (%s): %w", name, format, err)
	}
	return f, nil
}

// DecodeFile opens path and synthesizes it, naming the field after the file.
func (s *Synthesizer) DecodeFile(path string) (*Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer file.Close()
	return s.Decode(file, filepath.Base(path))
}
