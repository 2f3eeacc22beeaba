// Package align locates each reference heading inside contract text that,
// unlike the reference, frequently lacks markdown heading markers. The
// contract is split into paragraphs on blank-line boundaries and scanned
// with a monotonic cursor, so headings are matched in document order and a
// recurring title can never match backwards.
package align

import (
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/clausecheck/core"
	"github.com/gaurav-prasanna/clausecheck/core/normalize"
)

var (
	blankLineRegex     = regexp.MustCompile(`\n\n+`)
	headingMarkerRegex = regexp.MustCompile(`^#+\s*`)
)

// Align produces exactly one AlignedSection per reference section, in
// reference order. A paragraph matches a heading when its text, after
// stripping leading '#' markers and case-folding, equals the title exactly.
// Exact matching is intentional: a false positive from fuzzy matching would
// corrupt the downstream semantic comparison more than a missed section.
// A heading with no match yields an empty ContractText and does not advance
// the cursor, so it cannot consume paragraphs or block later headings.
func Align(contractText string, ref *core.Reference) []core.AlignedSection {
	paragraphs := splitParagraphs(normalize.CleanText(contractText))
	aligned := make([]core.AlignedSection, 0, len(ref.Sections))
	cursor := 0

	for i, sec := range ref.Sections {
		want := strings.ToLower(sec.Title)
		found := -1
		for j := cursor; j < len(paragraphs); j++ {
			if paragraphKey(paragraphs[j]) == want {
				found = j
				break
			}
		}
		if found == -1 {
			aligned = append(aligned, core.AlignedSection{
				Heading:       sec.Title,
				ReferenceText: sec.Body,
			})
			continue
		}

		// The body runs until the paragraph matching the next reference
		// heading that appears after this one, scanning forward through the
		// remaining reference headings until one is found.
		end := len(paragraphs)
		for _, next := range ref.Sections[i+1:] {
			nextKey := strings.ToLower(next.Title)
			for j := found + 1; j < len(paragraphs); j++ {
				if paragraphKey(paragraphs[j]) == nextKey {
					end = j
					break
				}
			}
			if end != len(paragraphs) {
				break
			}
		}

		aligned = append(aligned, core.AlignedSection{
			Heading:       sec.Title,
			ReferenceText: sec.Body,
			ContractText:  strings.TrimSpace(strings.Join(paragraphs[found+1:end], "\n\n")),
		})
		cursor = end
	}
	return aligned
}

// splitParagraphs breaks text on blank-line boundaries, dropping
// whitespace-only paragraphs.
func splitParagraphs(text string) []string {
	parts := blankLineRegex.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

// paragraphKey is the comparable form of a paragraph: leading heading
// markers stripped, trimmed, case-folded.
func paragraphKey(p string) string {
	return strings.ToLower(strings.TrimSpace(headingMarkerRegex.ReplaceAllString(p, "")))
}
