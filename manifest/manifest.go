// Package manifest summarizes a generated batch: a markdown README grouped by
// category, its HTML rendering and a JSON sidecar with per-file digests.
package manifest

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/nexgen-studio/growthkit/plan"
)

// Output file names written next to the documents.
const (
	ReadmeName = "README.md"
	HTMLName   = "index.html"
	JSONName   = "manifest.json"
)

// Entry describes one generated document.
type Entry struct {
	Category string `json:"category"`
	Company  string `json:"company"`
	Industry string `json:"industry"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Digest   string `json:"blake2b256"`
}

// NewEntry builds the entry for rec rendered as data.
func NewEntry(rec plan.Record, data []byte) Entry {
	return Entry{
		Category: rec.Category,
		Company:  rec.Company,
		Industry: rec.Industry,
		Filename: rec.Filename(),
		Size:     len(data),
		Digest:   Digest(data),
	}
}

// Digest returns the hex BLAKE2b-256 of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TimestampLayout matches an ISO-8601 UTC timestamp with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Markdown renders the README. Known categories come first in canonical
// order, even when empty; other categories follow in order of appearance.
func Markdown(entries []Entry, generatedAt time.Time, siteURL, bookingURL string) string {
	lines := []string{
		"# Growth Action Plan PDFs",
		"",
		"Generated on " + generatedAt.UTC().Format(TimestampLayout) + ".",
		"",
		"Booking link used: " + bookingURL,
		"Site link used: " + siteURL,
		"",
	}
	for _, category := range categoryOrder(entries) {
		lines = append(lines, "## "+category)
		for _, e := range entries {
			if e.Category == category {
				lines = append(lines, "- "+e.Company+" ("+e.Industry+") -> "+e.Filename)
			}
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func categoryOrder(entries []Entry) []string {
	order := append([]string(nil), plan.Categories...)
	seen := make(map[string]bool, len(order))
	for _, c := range order {
		seen[c] = true
	}
	for _, e := range entries {
		if !seen[e.Category] {
			seen[e.Category] = true
			order = append(order, e.Category)
		}
	}
	return order
}

// Document is the JSON sidecar.
type Document struct {
	GeneratedAt time.Time `json:"generatedAt"`
	SiteURL     string    `json:"siteUrl"`
	BookingURL  string    `json:"bookingUrl"`
	Entries     []Entry   `json:"entries"`
	Failed      []string  `json:"failed,omitempty"`
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return goerr.Wrap(err, "failed to encode manifest")
	}
	return nil
}

// ReadJSON decodes a sidecar written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode manifest")
	}
	return &doc, nil
}
