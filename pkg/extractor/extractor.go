package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// DefaultTitle is used when no title selector matches. Existing download
// directories are named after it, so it must not change.
const DefaultTitle = "title"

// titleSelectors are tried in order: thread subject, poster name, archive post title
var titleSelectors = []string{".subject", ".name", ".post_title"}

// Document is a parsed HTML page
type Document struct {
	doc *goquery.Document
}

// Parse decodes body according to contentType (falling back to sniffing) and
// parses it as HTML.
func Parse(body []byte, contentType string) (*Document, error) {
	utf8Reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Links returns the href of every anchor in document order. Duplicates are kept.
func (d *Document) Links() []string {
	links := make([]string, 0)
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		links = append(links, strings.TrimSpace(href))
	})
	return links
}

// Title returns the text of the first non-empty title node, or DefaultTitle
func (d *Document) Title() string {
	for _, selector := range titleSelectors {
		text := strings.TrimSpace(d.doc.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return DefaultTitle
}
