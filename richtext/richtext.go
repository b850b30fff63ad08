// Package richtext cleans the HTML of the clinical note editors and turns it
// into plain text for previews and exports.
package richtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()

	// Block boundaries become line breaks before the tags are stripped.
	blockBreak = regexp.MustCompile(`(?i)<br\s*/?>|</(div|p|li|h[1-6]|tr)>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips scripts, event handlers and unsafe URLs from note HTML,
// keeping basic formatting.
func Sanitize(s string) string {
	return ugcPolicy.Sanitize(s)
}

// PlainText returns the visible text of note HTML with one line per block.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	withBreaks := blockBreak.ReplaceAllString(s, "\n")
	text := html.UnescapeString(strictPolicy.Sanitize(withBreaks))
	text = strings.ReplaceAll(text, "\u00a0", " ")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
}

// Escape escapes plain text for insertion into note HTML.
func Escape(s string) string {
	return html.EscapeString(s)
}
