// Package filter decides which dump pages survive into the dataset.
package filter

import (
	"strings"

	"github.com/duartefn/wikiextract/internal/dump"
)

// Reason labels why a page was kept or rejected.
type Reason string

const (
	ReasonKept           Reason = "kept"
	ReasonNonMain        Reason = "non_main_namespace"
	ReasonRedirect       Reason = "redirect"
	ReasonDisambiguation Reason = "disambiguation"
	// ReasonEmpty is applied by the pipeline after cleaning, not here:
	// the empty-page filter only makes sense on cleaned text.
	ReasonEmpty Reason = "empty_text"
)

// Options holds the independent filter toggles. The zero value is the
// restrictive default: main namespace only, redirects kept (SkipRedirects
// false), disambiguation pages rejected.
type Options struct {
	SkipRedirects         bool
	IncludeNonMain        bool
	IncludeDisambiguation bool
	// DisambiguationMarkers overrides the built-in marker strings. Dump
	// conventions drift between wikis and locales, so the heuristic is
	// configurable rather than fixed.
	DisambiguationMarkers []string
}

// DefaultDisambiguationMarkers are matched case-insensitively against the
// raw wikitext. They cover the English template and category conventions
// plus the Portuguese ones used by ptwiki.
func DefaultDisambiguationMarkers() []string {
	return []string{
		"{{disambiguation",
		"{{disambig",
		"{{desambiguação",
		"{{desambig",
		"[[category:disambiguation pages",
		"[[categoria:desambiguação",
	}
}

// Keep is a pure predicate over one page. Each rule is governed solely by
// its own toggle, so toggles compose independently; the first matching
// rule decides.
func Keep(page *dump.RawPage, opts Options) (bool, Reason) {
	if page.Ns != 0 && !opts.IncludeNonMain {
		return false, ReasonNonMain
	}
	if opts.SkipRedirects && page.IsRedirect() {
		return false, ReasonRedirect
	}
	if !opts.IncludeDisambiguation && isDisambiguation(page.Text, opts.markers()) {
		return false, ReasonDisambiguation
	}
	return true, ReasonKept
}

func (o Options) markers() []string {
	if len(o.DisambiguationMarkers) > 0 {
		return o.DisambiguationMarkers
	}
	return DefaultDisambiguationMarkers()
}

func isDisambiguation(text string, markers []string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range markers {
		if strings.Contains(lowered, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
