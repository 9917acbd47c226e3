// Package composer renders one growth plan record into a single-page
// sales document.
package composer

import (
	"github.com/nexgen-studio/growthkit/contentstream"
	"github.com/nexgen-studio/growthkit/layout"
	"github.com/nexgen-studio/growthkit/observability"
	"github.com/nexgen-studio/growthkit/plan"
	"github.com/nexgen-studio/growthkit/writer"
)

// Page geometry in points.
const (
	PageWidth    = writer.DefaultPageWidth
	PageHeight   = writer.DefaultPageHeight
	Margin       = 36.0
	ContentWidth = PageWidth - 2*Margin
)

const (
	DefaultSiteURL    = "https://nexgen.studio"
	DefaultBookingURL = "https://nexgen.studio/#contact"
	DefaultBrand      = "NexGen Studio"
)

var (
	colorAI           = contentstream.Color{R: 0.11, G: 0.36, B: 0.78}
	colorLandingPages = contentstream.Color{R: 0.01, G: 0.50, B: 0.33}
	colorDefault      = contentstream.Color{R: 0.56, G: 0.26, B: 0.67}
)

// CategoryColor maps a category label to its brand color. Unknown labels
// get the default purple.
func CategoryColor(category string) contentstream.Color {
	switch category {
	case plan.CategoryAI:
		return colorAI
	case plan.CategoryLandingPages:
		return colorLandingPages
	default:
		return colorDefault
	}
}

// Composer turns records into documents. It holds no per-document state and
// may be reused.
type Composer struct {
	siteURL    string
	bookingURL string
	brand      string
	measurer   layout.Measurer
	pageBreaks bool
	version    writer.PDFVersion
	logger     observability.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithSiteURL sets the footer site link.
func WithSiteURL(url string) Option {
	return func(c *Composer) {
		if url != "" {
			c.siteURL = url
		}
	}
}

// WithBookingURL sets the footer booking link.
func WithBookingURL(url string) Option {
	return func(c *Composer) {
		if url != "" {
			c.bookingURL = url
		}
	}
}

// WithBrand sets the name in the "Prepared by" footer.
func WithBrand(brand string) Option {
	return func(c *Composer) {
		if brand != "" {
			c.brand = brand
		}
	}
}

// WithMeasurer replaces the heuristic width function used for wrapping and
// link rectangles.
func WithMeasurer(m layout.Measurer) Option {
	return func(c *Composer) {
		if m != nil {
			c.measurer = m
		}
	}
}

// WithPageBreaks starts a new page whenever the next block would cross the
// bottom margin. Without it, overflowing content runs off the page.
func WithPageBreaks(enabled bool) Option {
	return func(c *Composer) {
		c.pageBreaks = enabled
	}
}

// WithVersion sets the PDF header version.
func WithVersion(v writer.PDFVersion) Option {
	return func(c *Composer) {
		c.version = v
	}
}

// WithLogger sets the logger used for layout warnings.
func WithLogger(l observability.Logger) Option {
	return func(c *Composer) {
		c.logger = observability.OrNop(l)
	}
}

// New creates a composer with the default links, brand and heuristic measurer.
func New(opts ...Option) *Composer {
	c := &Composer{
		siteURL:    DefaultSiteURL,
		bookingURL: DefaultBookingURL,
		brand:      DefaultBrand,
		measurer:   layout.Heuristic{},
		version:    writer.PDF14,
		logger:     observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SiteURL returns the configured site link.
func (c *Composer) SiteURL() string { return c.siteURL }

// BookingURL returns the configured booking link.
func (c *Composer) BookingURL() string { return c.bookingURL }

// Compose renders rec and returns the serialized document.
func (c *Composer) Compose(rec plan.Record) ([]byte, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	r := newRenderer(c, rec)
	r.render()
	if err := r.finishPage(); err != nil {
		return nil, err
	}
	return r.doc.Bytes()
}
