package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paragraph = "Front desk teams are overloaded with appointment questions, insurance checks, and rescheduling. Average first response is slow during peak hours."

func TestTextWidth(t *testing.T) {
	assert.Equal(t, 25.0, TextWidth("hello", 10))
	assert.Equal(t, 0.0, TextWidth("", 10))
	// Counted per character, not per byte.
	assert.Equal(t, TextWidth("cafe", 8), TextWidth("café", 8))
}

func TestWrapLinesRespectsWidth(t *testing.T) {
	lines := WrapLines(paragraph, 150, 8)
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.NotEmpty(t, l)
		if strings.Contains(l, " ") {
			assert.LessOrEqual(t, TextWidth(l, 8), 150.0, "line %q too wide", l)
		}
	}
}

func TestWrapLinesPreservesWordsInOrder(t *testing.T) {
	for _, width := range []float64{20, 60, 150, 540} {
		lines := WrapLines(paragraph, width, 8.5)
		assert.Equal(t, strings.Fields(paragraph), strings.Fields(strings.Join(lines, " ")), "width %v", width)
	}
}

func TestWrapLinesIsAFixedPoint(t *testing.T) {
	for _, width := range []float64{40, 128, 150, 528} {
		first := WrapLines(paragraph, width, 8.3)
		again := WrapLines(strings.Join(first, " "), width, 8.3)
		assert.Equal(t, first, again, "width %v", width)
	}
}

func TestWrapLinesEdgeCases(t *testing.T) {
	assert.Empty(t, WrapLines("", 100, 9))
	assert.Empty(t, WrapLines("   \n\t ", 100, 9))
	// An over-long word still gets its own line.
	assert.Equal(t, []string{"a", "supercalifragilistic", "b"}, WrapLines("a supercalifragilistic b", 20, 4))
	// Collapses runs of whitespace.
	assert.Equal(t, []string{"one two"}, WrapLines("one \n  two", 1000, 9))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"AI":                       "ai",
		"Landing Pages":            "landing-pages",
		"BrightSmile Dental Group": "brightsmile-dental-group",
		"  --Holloway & Co.--  ":   "holloway-co",
		"Web Apps":                 "web-apps",
		"":                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "slugify(%q)", in)
	}
}

func TestFontMeasurer(t *testing.T) {
	m, err := NewFontMeasurer()
	require.NoError(t, err)

	short := m.Width("Growth", 10, false)
	long := m.Width("Growth Action Plan", 10, false)
	assert.Greater(t, short, 0.0)
	assert.Greater(t, long, short)
	assert.InDelta(t, 2*short, m.Width("Growth", 20, false), 0.5)
	assert.GreaterOrEqual(t, m.Width("Growth", 10, true), short)
	assert.Equal(t, 0.0, m.Width("", 10, false))

	// Same order of magnitude as the heuristic for ordinary prose.
	ratio := m.Width(paragraph, 9, false) / TextWidth(paragraph, 9)
	assert.Greater(t, ratio, 0.6)
	assert.Less(t, ratio, 1.4)

	lines := WrapLinesWith(m, paragraph, 200, 9, false)
	assert.Equal(t, strings.Fields(paragraph), strings.Fields(strings.Join(lines, " ")))
}
