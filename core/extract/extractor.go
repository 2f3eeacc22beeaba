// Package extract isolates the agreement body from an HTML attachment by:
//  1. Finding the best content container (<main>, <article>, or <body>)
//  2. Removing noise elements (navigation, scripts, images, watermarks)
//
// PDF attachments are not handled here; those arrive as markdown from the
// external layout-extraction service.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/clausecheck/core/normalize"
)

// noiseSelectors are HTML elements removed before extraction. Agreement
// exports carry letterheads, watermarks and print chrome that contribute
// nothing to the clause text.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "header", "footer",
	"img", "picture", "figure", "figcaption",
	"iframe", "svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".letterhead", ".watermark", ".logo", ".page-footer",
}

// HTMLExtractor strips noise from HTML and returns the agreement body.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract takes a raw HTML attachment and returns a cleaned HTML fragment
// containing only the agreement content.
func (e *HTMLExtractor) Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	// <main> is the most semantically correct container, then <article>,
	// then <body>.
	var content *goquery.Selection
	for _, tag := range []string{"main", "article", "body"} {
		if sel := doc.Find(tag); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		return "", fmt.Errorf("no content container found in HTML")
	}

	result, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}
	return result, nil
}

// ToMarkdown turns a fetched agreement document into contract markdown.
// HTML attachments are cleaned and converted; anything else is assumed to be
// markdown already produced by the layout-extraction service.
func ToMarkdown(fileName string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".html", ".htm":
		fragment, err := New().Extract(string(data))
		if err != nil {
			return "", err
		}
		return normalize.Markdown(fragment)
	default:
		return string(data), nil
	}
}
