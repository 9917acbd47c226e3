package layout

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// HeuristicFactor approximates the average Helvetica glyph advance as a
// fraction of the font size.
const HeuristicFactor = 0.5

// Measurer reports the advance width of text set at size points.
type Measurer interface {
	Width(text string, size float64, bold bool) float64
}

// Heuristic measures text as characters × size × HeuristicFactor. It ignores
// glyph shapes, kerning and weight.
type Heuristic struct{}

func (Heuristic) Width(text string, size float64, _ bool) float64 {
	return TextWidth(text, size)
}

// TextWidth is the heuristic width of text at size.
func TextWidth(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * HeuristicFactor
}

// WrapLines greedily packs whitespace-separated words into lines no wider
// than maxWidth under the heuristic measurer. A single word wider than
// maxWidth gets a line of its own.
func WrapLines(text string, maxWidth, size float64) []string {
	return WrapLinesWith(Heuristic{}, text, maxWidth, size, false)
}

// WrapLinesWith is WrapLines with an explicit measurer.
func WrapLinesWith(m Measurer, text string, maxWidth, size float64, bold bool) []string {
	if m == nil {
		m = Heuristic{}
	}
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && m.Width(candidate, size, bold) > maxWidth {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases value and collapses every run of characters outside
// [a-z0-9] into a single dash, trimming dashes at both ends.
func Slugify(value string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(value), "-")
	return strings.Trim(s, "-")
}
