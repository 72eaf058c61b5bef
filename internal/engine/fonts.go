package engine

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/inamate/canvasviewer/internal/document"
)

// LineHeight is the line box height as a multiple of the font size.
const LineHeight = 1.16

type faceVariant struct {
	weight document.FontWeight
	style  document.FontStyle
}

var (
	parseOnce   sync.Once
	parsedFonts map[faceVariant]*opentype.Font
	parseErr    error
)

func parseFonts() (map[faceVariant]*opentype.Font, error) {
	parseOnce.Do(func() {
		sources := map[faceVariant][]byte{
			{document.FontWeightNormal, document.FontStyleNormal}: goregular.TTF,
			{document.FontWeightBold, document.FontStyleNormal}:   gobold.TTF,
			{document.FontWeightNormal, document.FontStyleItalic}: goitalic.TTF,
			{document.FontWeightBold, document.FontStyleItalic}:   gobolditalic.TTF,
		}
		parsedFonts = make(map[faceVariant]*opentype.Font, len(sources))
		for v, ttf := range sources {
			f, err := opentype.Parse(ttf)
			if err != nil {
				parseErr = fmt.Errorf("parse %s/%s font: %w", v.weight, v.style, err)
				return
			}
			parsedFonts[v] = f
		}
	})
	return parsedFonts, parseErr
}

type faceKey struct {
	faceVariant
	size float64
}

// Fonts caches sized faces. The Go font family stands in for every
// requested family. A Fonts value is not safe for concurrent use.
type Fonts struct {
	faces map[faceKey]font.Face
}

func NewFonts() *Fonts {
	return &Fonts{faces: make(map[faceKey]font.Face)}
}

func variantOf(weight document.FontWeight, style document.FontStyle) faceVariant {
	v := faceVariant{document.FontWeightNormal, document.FontStyleNormal}
	if weight == document.FontWeightBold {
		v.weight = document.FontWeightBold
	}
	if style == document.FontStyleItalic {
		v.style = document.FontStyleItalic
	}
	return v
}

// Face returns a face for the variant at size points (1pt = 1px).
func (f *Fonts) Face(weight document.FontWeight, style document.FontStyle, size float64) (font.Face, error) {
	if size <= 0 {
		size = 1
	}
	key := faceKey{variantOf(weight, style), math.Round(size*100) / 100}
	if face, ok := f.faces[key]; ok {
		return face, nil
	}
	parsed, err := parseFonts()
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(parsed[key.faceVariant], &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	f.faces[key] = face
	return face, nil
}

// Measure returns the box of a possibly multi-line string.
func (f *Fonts) Measure(text string, weight document.FontWeight, style document.FontStyle, size float64) (float64, float64, error) {
	face, err := f.Face(weight, style, size)
	if err != nil {
		return 0, 0, err
	}
	lines := strings.Split(text, "\n")
	var w float64
	for _, line := range lines {
		adv := font.MeasureString(face, line)
		w = max(w, float64(adv)/64)
	}
	return w, float64(len(lines)) * size * LineHeight, nil
}

func (e *Engine) measureText(t *document.Text) {
	w, h, err := e.fonts.Measure(t.Text, t.FontWeight, t.FontStyle, t.FontSize)
	if err != nil {
		slog.Warn("measure text failed", "object", t.ID, "error", err)
		return
	}
	t.Width, t.Height = w, h
}
