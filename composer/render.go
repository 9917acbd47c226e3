package composer

import (
	"fmt"
	"strconv"

	"github.com/nexgen-studio/growthkit/contentstream"
	"github.com/nexgen-studio/growthkit/layout"
	"github.com/nexgen-studio/growthkit/observability"
	"github.com/nexgen-studio/growthkit/plan"
	"github.com/nexgen-studio/growthkit/writer"
)

var (
	headerText = contentstream.Color{R: 0.92, G: 0.95, B: 1}
	boxBlue    = contentstream.Color{R: 0.95, G: 0.97, B: 1.0}
	boxGreen   = contentstream.Color{R: 0.93, G: 0.97, B: 0.95}
	headRule   = contentstream.Color{R: 0.85, G: 0.88, B: 0.92}
	rowRule    = contentstream.Color{R: 0.92, G: 0.93, B: 0.95}
	linkBlue   = contentstream.Color{R: 0.04, G: 0.31, B: 0.74}
	footerGray = contentstream.Color{R: 0.4, G: 0.44, B: 0.52}
)

// Plan table column offsets from the left margin, and wrap widths.
var planColumns = [5]float64{0, 82, 196, 354, 488}

const (
	actionWrap = 150
	impactWrap = 128

	chartBarWidth = 26
	chartGap      = 14
	chartHeight   = 40
	chartOffsetX  = 215

	closingQuote = `"If useful, I can turn this into a hands-on execution sprint with milestones, owners, and delivery dates."`
)

var chartLabels = []string{"30d", "60d", "90d"}

// renderer is the per-document state: the open page's stream and links and
// a vertical cursor that every drawing call moves down.
type renderer struct {
	c     *Composer
	rec   plan.Record
	doc   *writer.Document
	cs    *contentstream.Stream
	links []writer.Link
	y     float64
	color contentstream.Color
}

func newRenderer(c *Composer, rec plan.Record) *renderer {
	return &renderer{
		c:     c,
		rec:   rec,
		doc:   writer.New(writer.Config{Version: c.version}),
		cs:    contentstream.NewStream(),
		color: CategoryColor(rec.Category),
	}
}

func (r *renderer) render() {
	r.header()
	r.y = PageHeight - 190
	r.summary()
	r.diagnosis()
	r.planTable()
	r.topActions()
	r.chart()
	r.offer()
	r.risks()
	r.nextStep()
	r.footerLinks()
}

func (r *renderer) text(x, y float64, value string, size float64, bold bool, color contentstream.Color) {
	r.cs.Text(x, y, value, contentstream.TextStyle{Size: size, Bold: bold, Color: color})
}

// need makes room for a block of height h under the page-break policy.
func (r *renderer) need(h float64) {
	if !r.c.pageBreaks || r.y-h >= Margin {
		return
	}
	if err := r.finishPage(); err != nil {
		// finishPage only fails on invalid links, which are built from
		// validated configuration; keep drawing on the current stream.
		r.c.logger.Error("page break failed", observability.Error("error", err))
		return
	}
	r.cs = contentstream.NewStream()
	r.links = nil
	r.y = PageHeight - Margin
}

// finishPage adds the footer and hands the open page to the writer.
func (r *renderer) finishPage() error {
	r.text(PageWidth-Margin-180, 18, "Prepared by "+r.c.brand, 8.2, false, footerGray)
	if r.y < Margin {
		r.c.logger.Warn("content overflows page",
			observability.String("company", r.rec.Company),
			observability.Int("cursor", int(r.y)))
	}
	return r.doc.AddPage(writer.PageSpec{
		Width:   PageWidth,
		Height:  PageHeight,
		Content: r.cs.Bytes(),
		Links:   r.links,
	})
}

// wrapped draws value as wrapped lines starting at the cursor and moves the
// cursor below the last line.
func (r *renderer) wrapped(x, width float64, value string, size float64, bold bool) {
	for _, line := range layout.WrapLinesWith(r.c.measurer, value, width, size, bold) {
		r.need(size + 2)
		r.text(x, r.y, line, size, bold, contentstream.Ink)
		r.y -= size + 2
	}
}

func (r *renderer) heading(title string, after float64) {
	r.need(11 + after)
	r.text(Margin, r.y, title, 11, true, contentstream.Ink)
	r.y -= after
}

// bullets draws a marked list. Each marker sits on the first line of its
// wrapped item.
func (r *renderer) bullets(marker func(i int) string, markerSize, indent float64, items []string, size float64) {
	for i, item := range items {
		r.need(size + 2)
		r.text(Margin+2, r.y, marker(i), markerSize, true, contentstream.Ink)
		r.wrapped(Margin+indent, ContentWidth-indent, item, size, false)
		r.y--
	}
}

func dash(int) string { return "-" }

func (r *renderer) header() {
	rec := r.rec
	r.cs.Rect(0, PageHeight-108, PageWidth, 108, r.color)
	r.text(Margin, PageHeight-42, "Growth Action Plan", 20, true, contentstream.White)
	r.text(Margin, PageHeight-66, rec.Company+" | "+rec.Category, 11, false, headerText)
	r.text(Margin, PageHeight-84, "Lead: "+rec.LeadName+"  |  Primary Goal: "+rec.PrimaryGoal, 10, false, headerText)

	right := Margin + ContentWidth*0.52
	r.cs.Rect(Margin, PageHeight-166, ContentWidth*0.48, 46, boxBlue)
	r.cs.Rect(right, PageHeight-166, ContentWidth*0.48, 46, boxGreen)
	r.text(Margin+10, PageHeight-140, "Industry: "+rec.Industry, 9, true, contentstream.Ink)
	r.text(Margin+10, PageHeight-154, "Team Size: "+rec.TeamSize, 9, false, contentstream.Ink)
	r.text(right+10, PageHeight-140, "Traffic/Users: "+rec.TrafficUsers, 9, true, contentstream.Ink)
	r.text(right+10, PageHeight-154, "Expected first measurable gains: 2-6 weeks", 9, false, contentstream.Ink)
}

func (r *renderer) summary() {
	rec := r.rec
	first := rec.Plan[0]
	r.heading("1) Executive Summary", 14)
	r.bullets(dash, 9, 12, []string{
		"Likely bottleneck: " + rec.Bottlenecks[0],
		"Fastest path: " + first.Action,
		fmt.Sprintf("Expected impact: %s (%s).", first.Impact, first.Confidence),
		"Context: " + rec.ProjectContext,
	}, 8.7)
}

func (r *renderer) diagnosis() {
	rec := r.rec
	r.y -= 2
	r.heading("2) Opportunity Diagnosis", 13)
	r.bullets(dash, 9, 12, []string{
		"Primary: " + rec.Bottlenecks[0],
		"Secondary: " + rec.Bottlenecks[1],
		"Assumption: " + rec.Assumptions,
	}, 8.5)
}

func (r *renderer) planTable() {
	r.y -= 2
	r.heading("3) 30-60-90 Plan (Outcome-Based)", 12)

	col := func(i int) float64 { return Margin + planColumns[i] }
	for i, title := range []string{"Window", "Focus", "Action", "Impact", "Confidence"} {
		r.text(col(i), r.y, title, 8.5, true, contentstream.Ink)
	}
	r.y -= 9
	r.cs.Line(Margin, r.y, PageWidth-Margin, r.y, headRule)
	r.y -= 2

	for _, row := range r.rec.Plan {
		actionLines := layout.WrapLinesWith(r.c.measurer, row.Action, actionWrap, 8, false)
		impactLines := layout.WrapLinesWith(r.c.measurer, row.Impact, impactWrap, 8, false)
		rowHeight := float64(max(len(actionLines), len(impactLines), 1)*10 + 2)
		r.need(rowHeight)

		top := r.y
		r.text(col(0), top, row.Window, 8, false, contentstream.Ink)
		r.text(col(1), top, row.Focus, 8, false, contentstream.Ink)
		for i, l := range actionLines {
			r.text(col(2), top-float64(i*10), l, 8, false, contentstream.Ink)
		}
		for i, l := range impactLines {
			r.text(col(3), top-float64(i*10), l, 8, false, contentstream.Ink)
		}
		r.text(col(4), top, row.Confidence, 8, false, contentstream.Ink)
		r.y -= rowHeight
		r.cs.Line(Margin, r.y+4, PageWidth-Margin, r.y+4, rowRule)
	}
}

func (r *renderer) topActions() {
	r.y -= 2
	r.heading(fmt.Sprintf("4) Top %d Priority Actions", len(r.rec.TopActions)), 12)
	r.bullets(func(i int) string { return strconv.Itoa(i+1) + "." }, 8.5, 16, r.rec.TopActions, 8.3)
}

// chart draws the three-bar KPI projection below the action list. Values
// are percentages of the bar height.
func (r *renderer) chart() {
	r.need(chartHeight + 22)
	r.y -= 4
	r.text(Margin, r.y, "Projected KPI Direction (30/60/90)", 8.5, true, contentstream.Ink)

	base := r.y + 8.5 - chartHeight
	bar := r.color.Scale(0.85)
	for i, value := range r.rec.Chart {
		x := Margin + chartOffsetX + float64(i)*(chartBarWidth+chartGap)
		r.cs.Rect(x, base, chartBarWidth, value/100*chartHeight, bar)
		if i < len(chartLabels) {
			r.text(x+3, base-10, chartLabels[i], 7.5, false, contentstream.Ink)
		}
	}
	r.y = base - 18
}

func (r *renderer) offer() {
	r.heading("5) Offer Recommendation + KPI Scorecard", 12)
	r.wrapped(Margin+2, ContentWidth, fmt.Sprintf("Recommended: %s. Track weekly: %s.", r.rec.Offer, r.rec.Metric), 8.5, false)
	r.y--
}

func (r *renderer) risks() {
	r.y -= 2
	r.heading("6) Risks & Mitigation", 12)
	r.bullets(dash, 8.5, 12, r.rec.Risks, 8.2)
}

func (r *renderer) nextStep() {
	r.y -= 2
	r.heading("7) Immediate Next Step", 11)
	r.wrapped(Margin+2, ContentWidth, r.rec.NextStep, 8.5, false)
	r.y -= 2
	r.wrapped(Margin+2, ContentWidth, closingQuote, 8.3, true)
}

func (r *renderer) footerLinks() {
	r.y -= 12
	r.need(13 + 9.5)
	r.text(Margin, r.y, "Book a strategy call:", 9.5, true, contentstream.Ink)
	r.link(Margin+102, r.y, r.c.bookingURL, r.c.bookingURL, 9.5)
	r.y -= 13
	r.text(Margin, r.y, "Site:", 9.5, true, contentstream.Ink)
	r.link(Margin+28, r.y, r.c.siteURL, r.c.siteURL, 9.5)
}

// link draws underlined bold text and registers a clickable rectangle over
// its measured box.
func (r *renderer) link(x, y float64, value, url string, size float64) {
	width := r.c.measurer.Width(value, size, true)
	r.text(x, y, value, size, true, linkBlue)
	r.cs.Line(x, y-1, x+width, y-1, linkBlue)
	r.links = append(r.links, writer.Link{X1: x, Y1: y - 2, X2: x + width, Y2: y + size + 2, URL: url})
}
