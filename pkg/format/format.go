package format

import (
	"regexp"
	"strings"
)

// Result holds the plain text of a message plus the rendered HTML. HTML is
// empty when the input carried no recognized markup, so plain messages never
// persist a formatted payload.
type Result struct {
	Text string
	HTML string
}

var (
	boldRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe    = regexp.MustCompile(`\*([^*]+)\*`)
	strikeRe    = regexp.MustCompile(`~~(.+?)~~`)
	highlightRe = regexp.MustCompile(`==(.+?)==`)
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Format converts the supported inline markup subset into sanitized HTML.
// Escaping happens before any transform, so user input can never inject
// markup. Transforms are applied in a fixed order: bold, italic,
// strikethrough, highlight, then newlines. Matching is greedy and non-nested;
// unbalanced delimiters stay literal.
func Format(raw string) Result {
	escaped := escaper.Replace(raw)

	html := boldRe.ReplaceAllString(escaped, "<strong>$1</strong>")
	html = italicRe.ReplaceAllString(html, "<em>$1</em>")
	html = strikeRe.ReplaceAllString(html, "<del>$1</del>")
	html = highlightRe.ReplaceAllString(html, "<mark>$1</mark>")
	html = strings.ReplaceAll(html, "\n", "<br>")

	plain := strings.ReplaceAll(escaped, "\n", "<br>")
	if html == plain {
		return Result{Text: raw}
	}

	return Result{Text: raw, HTML: html}
}
