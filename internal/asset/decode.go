package asset

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupported = errors.New("unsupported image")
	ErrNotFound    = errors.New("asset not found")
)

// Decode reads a PNG, JPEG, GIF, BMP or WebP image. Anything else,
// including truncated data, is reported as ErrUnsupported.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrUnsupported)
	}
	return img, format, nil
}
