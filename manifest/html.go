package manifest

import (
	"bytes"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			treeblood.MathML(),
		),
	)
}

// RenderHTML converts the README markdown into a standalone HTML page.
func RenderHTML(markdown string) ([]byte, error) {
	var body bytes.Buffer
	if err := newMarkdown().Convert([]byte(markdown), &body); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	out.WriteString("<title>Growth Action Plan PDFs</title>\n</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

// ParseIndex reads the entries back out of a README. Only category, company,
// industry and filename are recoverable.
func ParseIndex(markdown string) []Entry {
	src := []byte(markdown)
	doc := newMarkdown().Parser().Parse(text.NewReader(src))

	var entries []Entry
	category := ""
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			if n.Level == 2 {
				category = string(n.Text(src))
			}
		case *ast.List:
			if category == "" {
				continue
			}
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				if e, ok := parseItem(string(item.Text(src))); ok {
					e.Category = category
					entries = append(entries, e)
				}
			}
		}
	}
	return entries
}

// parseItem splits "Company (Industry) -> file.pdf".
func parseItem(line string) (Entry, bool) {
	label, file, ok := strings.Cut(line, " -> ")
	if !ok {
		return Entry{}, false
	}
	e := Entry{Filename: strings.TrimSpace(file), Company: strings.TrimSpace(label)}
	if open := strings.LastIndex(label, " ("); open >= 0 && strings.HasSuffix(label, ")") {
		e.Company = label[:open]
		e.Industry = label[open+2 : len(label)-1]
	}
	return e, true
}
