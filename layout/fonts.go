package layout

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// FontMeasurer shapes text with HarfBuzz against the Go Regular and Go Bold
// faces. Go fonts are metrically close to Helvetica, so it gives a much
// tighter estimate than Heuristic for the built-in F1/F2 fonts.
type FontMeasurer struct {
	mu      sync.Mutex
	shaper  shaping.HarfbuzzShaper
	regular *gofont.Face
	bold    *gofont.Face
}

// NewFontMeasurer parses the embedded Go fonts.
func NewFontMeasurer() (*FontMeasurer, error) {
	regular, err := gofont.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, goerr.Wrap(err, "parse Go Regular")
	}
	bold, err := gofont.ParseTTF(bytes.NewReader(gobold.TTF))
	if err != nil {
		return nil, goerr.Wrap(err, "parse Go Bold")
	}
	return &FontMeasurer{regular: regular, bold: bold}, nil
}

func (m *FontMeasurer) Width(text string, size float64, bold bool) float64 {
	runes := []rune(text)
	if len(runes) == 0 || size <= 0 {
		return 0
	}
	face := m.regular
	if bold {
		face = m.bold
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      fixed.Int26_6(size * 64),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})
	return float64(out.Advance) / 64.0
}
