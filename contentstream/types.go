package contentstream

// Color is an RGB triple with components in [0, 1].
type Color struct {
	R, G, B float64
}

// Scale multiplies every component by f.
func (c Color) Scale(f float64) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f}
}

var (
	White = Color{R: 1, G: 1, B: 1}
	// Ink is the default body text color.
	Ink = Color{R: 0.11, G: 0.13, B: 0.16}
)

// Font resource names registered on every page.
const (
	FontRegular = "F1"
	FontBold    = "F2"
)

// TextStyle configures a single text run.
type TextStyle struct {
	Size  float64
	Bold  bool
	Color Color
}
