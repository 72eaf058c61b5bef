package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/inamate/canvasviewer/internal/engine"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrEmptyFrame    = errors.New("empty frame")
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
)

// DefaultJPEGQuality is used for JPEG downloads and for the raster embedded
// in PDFs.
const DefaultJPEGQuality = 92

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	}
	return "image/png"
}

// FileName is the download name for base, e.g. canvas.jpg.
func (f Format) FileName(base string) string {
	switch f {
	case FormatJPEG:
		return base + ".jpg"
	case FormatPDF:
		return base + ".pdf"
	}
	return base + ".png"
}

// Encode writes img in the given format. quality applies to JPEG and PDF
// and falls back to DefaultJPEGQuality when out of range.
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		return nil
	case FormatJPEG:
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encode jpeg: %w", err)
		}
		return nil
	case FormatPDF:
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encode jpeg: %w", err)
		}
		b := img.Bounds()
		if _, err := w.Write(BuildJpegPdf(buf.Bytes(), float64(b.Dx()), float64(b.Dy()))); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%q: %w", format, ErrUnknownFormat)
}

// Export rasterises frame and encodes it.
func Export(w io.Writer, frame engine.Frame, format Format, quality int, images ImageSource) error {
	img, err := NewRasterizer(images, nil).Rasterize(frame)
	if err != nil {
		return fmt.Errorf("rasterize: %w", err)
	}
	return Encode(w, img, format, quality)
}
