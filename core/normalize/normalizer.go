// Package normalize cleans extracted contract markdown before segmentation.
// Layout extraction leaves HTML-style comment annotations, figure blocks and
// repeated boilerplate lines in the markdown; heading lines must survive
// verbatim. It also converts cleaned HTML fragments into Markdown, the
// canonical format for all downstream stages.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	// Page headers sometimes restate section names, so they become visible
	// lines instead of vanishing with the rest of the comments.
	pageHeaderRegex  = regexp.MustCompile(`<!--\s*PageHeader\s*=\s*["'](.*?)["']\s*-->`)
	commentRegex     = regexp.MustCompile(`(?s)<!--.*?-->`)
	figureRegex      = regexp.MustCompile(`(?si)<figure.*?>.*?</figure>`)
	boilerplateRegex = regexp.MustCompile(`(?mi)^\s*(Logo|Footer|Confidential)\s*$`)
)

// CleanText strips structural noise from raw markdown: page-header comments
// are replaced by their text on an own line, all other comments and figure
// blocks are removed, and standalone boilerplate lines are dropped.
// Pure function; never fails.
func CleanText(text string) string {
	text = pageHeaderRegex.ReplaceAllString(text, "\n$1\n")
	text = commentRegex.ReplaceAllString(text, "")
	text = figureRegex.ReplaceAllString(text, "")
	text = boilerplateRegex.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Markdown converts a cleaned HTML fragment into Markdown.
func Markdown(html string) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return markdown, nil
}
