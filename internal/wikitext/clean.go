// Package wikitext converts raw MediaWiki markup into plain text suitable
// for language-model dataset construction.
package wikitext

import (
	"regexp"
	"strings"
)

// Document is the cleaned form of one page. Text is the "\n\n" join of
// Sections, which hold the cleaned section bodies in document order with the
// lead section first whenever it is non-empty.
type Document struct {
	Text     string
	Sections []string
}

var (
	reComment     = regexp.MustCompile(`(?s)<!--.*?-->`)
	reRef         = regexp.MustCompile(`(?s)<ref[^<>]*/>|<ref[^<>]*>.*?</ref>`)
	reHTMLTag     = regexp.MustCompile(`<[^<>]+>`)
	reExtLink     = regexp.MustCompile(`\[(?:https?|ftp)://[^\s\]]+ ([^\]]*)\]`)
	reExtLinkBare = regexp.MustCompile(`\[(?:https?|ftp)://[^\s\]]+\]`)
	reListItem    = regexp.MustCompile(`^[ \t]*[*#;:]`)
)

// Link targets whose whole link is dropped instead of rendered as text.
// Covers English plus the Portuguese aliases used by ptwiki dumps.
var droppedLinkPrefixes = []string{
	"file:", "image:", "category:",
	"ficheiro:", "arquivo:", "imagem:", "categoria:",
}

// Clean strips markup from raw wikitext and splits the result into sections.
// It never fails: unbalanced or malformed markup degrades to residual text
// instead of an error. List-item lines are removed unless keepLists is set.
func Clean(raw string, keepLists bool) Document {
	text := raw
	text = reComment.ReplaceAllString(text, "")
	text = reRef.ReplaceAllString(text, "")
	text = stripBalanced(text, "{{", "}}")
	text = stripBalanced(text, "{|", "|}")
	text = resolveLinks(text)
	text = reExtLink.ReplaceAllString(text, "$1")
	text = reExtLinkBare.ReplaceAllString(text, "")
	text = reHTMLTag.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "'''", "")
	text = strings.ReplaceAll(text, "''", "")

	var sections []string
	for _, body := range splitSections(text) {
		body = normalizeBody(body, keepLists)
		if body == "" {
			continue
		}
		sections = append(sections, body)
	}

	return Document{Text: strings.Join(sections, "\n\n"), Sections: sections}
}

// stripBalanced removes every balanced open..close construct, including
// nested ones, using an explicit depth counter. Templates and tables nest
// arbitrarily, so a single regex pass is not enough. If an opener is never
// closed, the tail from the outermost unmatched opener is kept verbatim so
// malformed markup loses formatting rather than content.
func stripBalanced(s, open, clos string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	openStart := 0
	i := 0
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], open):
			if depth == 0 {
				openStart = i
			}
			depth++
			i += len(open)
		case depth > 0 && strings.HasPrefix(s[i:], clos):
			depth--
			i += len(clos)
		default:
			if depth == 0 {
				b.WriteByte(s[i])
			}
			i++
		}
	}
	if depth > 0 {
		b.WriteString(s[openStart:])
	}
	return b.String()
}

// resolveLinks rewrites [[target|label]] as label and [[target]] as target,
// and drops file, image and category links entirely. Link bodies may nest
// further links (image captions do), so matching is depth-aware.
func resolveLinks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		if strings.HasPrefix(s[i:], "[[") {
			inner, end, ok := matchLink(s, i)
			if ok {
				b.WriteString(renderLink(inner))
				i = end
				continue
			}
			// unmatched opener: keep the brackets as residual text
			b.WriteString("[[")
			i += 2
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// matchLink finds the "]]" closing the "[[" at start, accounting for nesting.
func matchLink(s string, start int) (inner string, end int, ok bool) {
	depth := 0
	i := start
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], "[["):
			depth++
			i += 2
		case strings.HasPrefix(s[i:], "]]"):
			depth--
			i += 2
			if depth == 0 {
				return s[start+2 : i-2], i, true
			}
		default:
			i++
		}
	}
	return "", 0, false
}

func renderLink(inner string) string {
	target := inner
	if idx := strings.IndexByte(inner, '|'); idx >= 0 {
		target = inner[:idx]
	}
	lowered := strings.ToLower(strings.TrimSpace(target))
	for _, prefix := range droppedLinkPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return ""
		}
	}
	label := target
	if idx := strings.IndexByte(inner, '|'); idx >= 0 {
		label = inner[idx+1:]
	}
	if strings.Contains(label, "[[") {
		label = resolveLinks(label)
	}
	return label
}

// splitSections cuts text at heading lines (== Heading == and deeper levels).
// The heading text itself is dropped; the lead content before the first
// heading becomes the first body.
func splitSections(text string) []string {
	lines := strings.Split(text, "\n")
	var bodies []string
	var current []string
	flush := func() {
		bodies = append(bodies, strings.Join(current, "\n"))
		current = current[:0]
	}
	for _, line := range lines {
		if isHeading(line) {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return bodies
}

func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	return len(trimmed) >= 5 && strings.HasPrefix(trimmed, "==") && strings.HasSuffix(trimmed, "==")
}

// normalizeBody trims trailing whitespace per line, drops list-item lines
// unless keepLists is set, and collapses runs of blank lines into one.
func normalizeBody(body string, keepLists bool) string {
	var out []string
	pendingBlank := false
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, " \t")
		if !keepLists && reListItem.MatchString(line) {
			continue
		}
		if strings.TrimSpace(line) == "" {
			pendingBlank = true
			continue
		}
		if pendingBlank && len(out) > 0 {
			out = append(out, "")
		}
		pendingBlank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
