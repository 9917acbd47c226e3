package writer

import (
	"errors"
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/nexgen-studio/growthkit/ir/raw"
)

type PDFVersion string

const (
	PDF14 PDFVersion = "1.4"
	PDF17 PDFVersion = "1.7"
)

// Default page size (US Letter, points).
const (
	DefaultPageWidth  = 612
	DefaultPageHeight = 792
)

var (
	ErrSerialized  = errors.New("document already serialized")
	ErrInvalidLink = errors.New("invalid link annotation")
)

type Config struct {
	Version PDFVersion
}

// Link is a clickable rectangle in page space pointing at a URL.
type Link struct {
	X1, Y1, X2, Y2 float64
	URL            string
}

func (l Link) validate() error {
	for _, v := range []float64{l.X1, l.Y1, l.X2, l.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return goerr.Wrap(ErrInvalidLink, "link coordinate is not finite", goerr.V("url", l.URL))
		}
	}
	if l.URL == "" {
		return goerr.Wrap(ErrInvalidLink, "link url is empty")
	}
	return nil
}

// PageSpec describes one page: its size, the raw content stream and the
// link annotations placed on it. Zero width or height selects Letter size.
type PageSpec struct {
	Width, Height float64
	Content       []byte
	Links         []Link
}

// pageDescriptor holds a page until serialization reserves ids for the page
// tree, so every page object is materialized once with its final /Parent.
type pageDescriptor struct {
	width, height float64
	content       raw.ObjectRef
	annots        []raw.ObjectRef
}

// Document is a one-shot PDF object graph. Object ids are assigned in
// creation order starting at 1 and never reused.
type Document struct {
	cfg         Config
	objects     []raw.Object
	pages       []pageDescriptor
	fontRegular raw.ObjectRef
	fontBold    raw.ObjectRef
	serialized  bool
}

// New creates a document with the two standard fonts (F1 Helvetica, F2
// Helvetica-Bold) registered as objects 1 and 2.
func New(cfg Config) *Document {
	if cfg.Version == "" {
		cfg.Version = PDF14
	}
	d := &Document{cfg: cfg}
	d.fontRegular = d.AddObject(type1Font("Helvetica"))
	d.fontBold = d.AddObject(type1Font("Helvetica-Bold"))
	return d
}

func type1Font(base string) *raw.DictObj {
	font := raw.Dict()
	font.Set("Type", raw.NameLiteral("Font"))
	font.Set("Subtype", raw.NameLiteral("Type1"))
	font.Set("BaseFont", raw.NameLiteral(base))
	return font
}

// AddObject registers body as a new indirect object and returns its reference.
func (d *Document) AddObject(body raw.Object) raw.ObjectRef {
	d.objects = append(d.objects, body)
	return raw.ObjectRef{Num: len(d.objects), Gen: 0}
}

// AddPage registers the page content stream and one annotation object per
// link. The page object itself is created during serialization.
func (d *Document) AddPage(spec PageSpec) error {
	if d.serialized {
		return goerr.Wrap(ErrSerialized, "cannot add page")
	}
	for _, l := range spec.Links {
		if err := l.validate(); err != nil {
			return err
		}
	}
	width, height := spec.Width, spec.Height
	if width == 0 {
		width = DefaultPageWidth
	}
	if height == 0 {
		height = DefaultPageHeight
	}

	contentRef := d.AddObject(raw.NewStream(spec.Content))
	annots := make([]raw.ObjectRef, 0, len(spec.Links))
	for _, l := range spec.Links {
		annots = append(annots, d.AddObject(linkAnnotation(l)))
	}
	d.pages = append(d.pages, pageDescriptor{width: width, height: height, content: contentRef, annots: annots})
	return nil
}

func linkAnnotation(l Link) *raw.DictObj {
	action := raw.Dict()
	action.Set("S", raw.NameLiteral("URI"))
	action.Set("URI", raw.Str(l.URL))

	annot := raw.Dict()
	annot.Set("Type", raw.NameLiteral("Annot"))
	annot.Set("Subtype", raw.NameLiteral("Link"))
	annot.Set("Rect", raw.Rect(l.X1, l.Y1, l.X2, l.Y2))
	annot.Set("Border", raw.NewArray(raw.NumberInt(0), raw.NumberInt(0), raw.NumberInt(0)))
	annot.Set("A", action)
	return annot
}

// ObjectCount reports how many indirect objects are registered.
func (d *Document) ObjectCount() int { return len(d.objects) }

// PageCount reports how many pages were added.
func (d *Document) PageCount() int { return len(d.pages) }
