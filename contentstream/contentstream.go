package contentstream

import (
	"fmt"
	"strings"

	"github.com/nexgen-studio/growthkit/ir/raw"
)

// Stream records drawing instructions in emission order. Later
// instructions paint over earlier ones.
type Stream struct {
	ops []string
}

func NewStream() *Stream { return &Stream{} }

// Rect fills a rectangle with c.
func (s *Stream) Rect(x, y, w, h float64, c Color) *Stream {
	s.ops = append(s.ops, fmt.Sprintf("%s rg %.2f %.2f %.2f %.2f re f", color(c), x, y, w, h))
	return s
}

// Line strokes a single segment with c.
func (s *Stream) Line(x1, y1, x2, y2 float64, c Color) *Stream {
	s.ops = append(s.ops, fmt.Sprintf("%s RG %.2f %.2f m %.2f %.2f l S", color(c), x1, y1, x2, y2))
	return s
}

// Text shows one positioned run. A zero size falls back to 10pt and a zero
// color to Ink.
func (s *Stream) Text(x, y float64, text string, st TextStyle) *Stream {
	if st.Size <= 0 {
		st.Size = 10
	}
	if st.Color == (Color{}) {
		st.Color = Ink
	}
	font := FontRegular
	if st.Bold {
		font = FontBold
	}
	s.ops = append(s.ops, fmt.Sprintf("BT /%s %.2f Tf %s rg 1 0 0 1 %.2f %.2f Tm (%s) Tj ET",
		font, st.Size, color(st.Color), x, y, raw.EscapeString(text)))
	return s
}

// Len reports the number of recorded instructions.
func (s *Stream) Len() int { return len(s.ops) }

// Bytes joins the instructions with newlines.
func (s *Stream) Bytes() []byte { return []byte(strings.Join(s.ops, "\n")) }

func color(c Color) string {
	return fmt.Sprintf("%.3f %.3f %.3f", c.R, c.G, c.B)
}
