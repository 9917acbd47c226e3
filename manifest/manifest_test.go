package manifest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexgen-studio/growthkit/plan"
)

var generatedAt = time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

func sampleEntries() []Entry {
	return []Entry{
		{Category: "Web Apps", Company: "FreightLoop Logistics", Industry: "Logistics", Filename: "web-apps-freightloop-logistics.pdf"},
		{Category: "AI", Company: "BrightSmile Dental Group", Industry: "Healthcare", Filename: "ai-brightsmile-dental-group.pdf"},
		{Category: "AI", Company: "Northstar Realty", Industry: "Real Estate", Filename: "ai-northstar-realty.pdf"},
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown(sampleEntries(), generatedAt, "https://nexgen.studio", "https://nexgen.studio/#contact")
	want := strings.Join([]string{
		"# Growth Action Plan PDFs",
		"",
		"Generated on 2025-03-04T05:06:07.890Z.",
		"",
		"Booking link used: https://nexgen.studio/#contact",
		"Site link used: https://nexgen.studio",
		"",
		"## AI",
		"- BrightSmile Dental Group (Healthcare) -> ai-brightsmile-dental-group.pdf",
		"- Northstar Realty (Real Estate) -> ai-northstar-realty.pdf",
		"",
		"## Landing Pages",
		"",
		"## Web Apps",
		"- FreightLoop Logistics (Logistics) -> web-apps-freightloop-logistics.pdf",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestMarkdownAppendsUnknownCategories(t *testing.T) {
	entries := append(sampleEntries(), Entry{Category: "Mobile", Company: "Tapp", Industry: "Retail", Filename: "mobile-tapp.pdf"})
	got := Markdown(entries, generatedAt, "s", "b")
	assert.True(t, strings.HasSuffix(got, "## Mobile\n- Tapp (Retail) -> mobile-tapp.pdf\n"))
	assert.Less(t, strings.Index(got, "## Web Apps"), strings.Index(got, "## Mobile"))
}

func TestMarkdownUsesUTC(t *testing.T) {
	local := generatedAt.In(time.FixedZone("X", 3*3600))
	assert.Contains(t, Markdown(nil, local, "s", "b"), "Generated on 2025-03-04T05:06:07.890Z.")
}

func TestParseIndexRoundTrip(t *testing.T) {
	md := Markdown(sampleEntries(), generatedAt, "https://nexgen.studio", "https://nexgen.studio/#contact")
	got := ParseIndex(md)
	require.Len(t, got, 3)
	assert.Equal(t, Entry{Category: "AI", Company: "BrightSmile Dental Group", Industry: "Healthcare", Filename: "ai-brightsmile-dental-group.pdf"}, got[0])
	assert.Equal(t, "Northstar Realty", got[1].Company)
	assert.Equal(t, "Web Apps", got[2].Category)
	assert.Equal(t, "web-apps-freightloop-logistics.pdf", got[2].Filename)
}

func TestRenderHTML(t *testing.T) {
	md := Markdown(sampleEntries(), generatedAt, "https://nexgen.studio", "https://nexgen.studio/#contact")
	html, err := RenderHTML(md)
	require.NoError(t, err)
	s := string(html)
	assert.True(t, strings.HasPrefix(s, "<!DOCTYPE html>"))
	assert.Contains(t, s, "<h1>Growth Action Plan PDFs</h1>")
	assert.Contains(t, s, "<h2>Landing Pages</h2>")
	assert.Contains(t, s, "<li>BrightSmile Dental Group (Healthcare) -&gt; ai-brightsmile-dental-group.pdf</li>")
}

func TestDigest(t *testing.T) {
	// BLAKE2b-256 of the empty input.
	assert.Equal(t, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", Digest(nil))
	assert.Len(t, Digest([]byte("%PDF-1.4")), 64)
	assert.NotEqual(t, Digest([]byte("a")), Digest([]byte("b")))
}

func TestNewEntry(t *testing.T) {
	rec := plan.Record{Category: "Landing Pages", Company: "PulseHR SaaS", Industry: "B2B SaaS"}
	e := NewEntry(rec, []byte("data"))
	assert.Equal(t, "landing-pages-pulsehr-saas.pdf", e.Filename)
	assert.Equal(t, 4, e.Size)
	assert.Equal(t, Digest([]byte("data")), e.Digest)
}

func TestJSONSidecar(t *testing.T) {
	doc := Document{
		GeneratedAt: generatedAt,
		SiteURL:     "https://nexgen.studio",
		BookingURL:  "https://nexgen.studio/#contact",
		Entries:     sampleEntries(),
		Failed:      []string{"Broken Co"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))
	assert.Contains(t, buf.String(), `"blake2b256"`)

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.True(t, generatedAt.Equal(back.GeneratedAt))
	assert.Equal(t, doc.Entries, back.Entries)
	assert.Equal(t, []string{"Broken Co"}, back.Failed)
}
