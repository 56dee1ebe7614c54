package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duartefn/wikiextract/internal/dump"
)

func articlePage() *dump.RawPage {
	return &dump.RawPage{PageID: 1, Title: "Astronomia", Ns: 0, Text: "'''Astronomia''' é uma ciência."}
}

func TestKeep_MainNamespaceArticle(t *testing.T) {
	keep, reason := Keep(articlePage(), Options{})
	assert.True(t, keep)
	assert.Equal(t, ReasonKept, reason)
}

func TestKeep_NonMainNamespace(t *testing.T) {
	talk := &dump.RawPage{PageID: 2, Title: "Discussão:Astronomia", Ns: 1, Text: "Comentários."}

	keep, reason := Keep(talk, Options{})
	assert.False(t, keep)
	assert.Equal(t, ReasonNonMain, reason)

	keep, _ = Keep(talk, Options{IncludeNonMain: true})
	assert.True(t, keep)
}

func TestKeep_Redirects(t *testing.T) {
	redirect := &dump.RawPage{PageID: 3, Title: "Astronomía", Ns: 0, RedirectTo: "Astronomia"}

	keep, _ := Keep(redirect, Options{})
	assert.True(t, keep, "redirects pass by default")

	keep, reason := Keep(redirect, Options{SkipRedirects: true})
	assert.False(t, keep)
	assert.Equal(t, ReasonRedirect, reason)
}

func TestKeep_Disambiguation(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "portuguese template", text: "Mercúrio pode referir-se a:\n{{Desambiguação}}"},
		{name: "english template", text: "Mercury may refer to:\n{{Disambiguation}}"},
		{name: "category link", text: "...\n[[Categoria:Desambiguação]]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &dump.RawPage{PageID: 4, Title: "Mercúrio", Ns: 0, Text: tt.text}

			keep, reason := Keep(page, Options{})
			assert.False(t, keep)
			assert.Equal(t, ReasonDisambiguation, reason)

			keep, _ = Keep(page, Options{IncludeDisambiguation: true})
			assert.True(t, keep)
		})
	}
}

func TestKeep_CustomMarkers(t *testing.T) {
	page := &dump.RawPage{PageID: 5, Ns: 0, Text: "{{homonymie}}"}

	keep, _ := Keep(page, Options{})
	assert.True(t, keep, "unknown marker passes with the default set")

	keep, reason := Keep(page, Options{DisambiguationMarkers: []string{"{{homonymie"}})
	assert.False(t, keep)
	assert.Equal(t, ReasonDisambiguation, reason)
}

// Each toggle must affect only its own rule, so any combination of the
// others leaves a rule's outcome unchanged.
func TestKeep_TogglesAreIndependent(t *testing.T) {
	talk := &dump.RawPage{PageID: 6, Ns: 1, Text: "conversa"}

	for _, skipRedirects := range []bool{false, true} {
		for _, inclDisambig := range []bool{false, true} {
			opts := Options{SkipRedirects: skipRedirects, IncludeDisambiguation: inclDisambig}
			keep, reason := Keep(talk, opts)
			assert.False(t, keep)
			assert.Equal(t, ReasonNonMain, reason)
		}
	}
}

func TestKeep_RedirectDetectionUsesMarkerNotText(t *testing.T) {
	// A page that merely talks about redirects is not a redirect.
	page := &dump.RawPage{PageID: 7, Ns: 0, Text: "Um #REDIRECT é um tipo de página."}
	keep, _ := Keep(page, Options{SkipRedirects: true})
	assert.True(t, keep)
}
