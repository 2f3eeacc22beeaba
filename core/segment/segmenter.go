// Package segment splits normalized markdown into heading-delimited sections
// and builds the immutable reference model from the static reference document.
package segment

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/clausecheck/core"
	"github.com/gaurav-prasanna/clausecheck/core/normalize"
)

// headingRegex recognizes a heading as a line beginning with 1-6 '#'
// markers followed by text.
var headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s*(.+?)\s*$`)

// Split segments normalized markdown into ordered sections. Each heading's
// body is everything between it and the next recognized heading (or document
// end). Content before the first heading is discarded. Titles are trimmed;
// no deduplication or case-folding happens here.
func Split(md string) []core.Section {
	matches := headingRegex.FindAllStringSubmatchIndex(md, -1)
	sections := make([]core.Section, 0, len(matches))
	for i, m := range matches {
		title := strings.TrimSpace(md[m[4]:m[5]])
		start := m[1]
		end := len(md)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, core.Section{
			Title: title,
			Body:  strings.TrimSpace(md[start:end]),
			Index: i,
		})
	}
	return sections
}

// NewReference cleans and segments the static reference document. A
// reference without a single recognizable heading is a configuration error
// and must be caught at startup, not per request.
func NewReference(md string) (*core.Reference, error) {
	sections := Split(normalize.CleanText(md))
	if len(sections) == 0 {
		return nil, errors.New("reference document contains no markdown headings")
	}
	return &core.Reference{Sections: sections}, nil
}
