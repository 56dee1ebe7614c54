// Package dump streams pages out of a MediaWiki export-format XML dump
// without ever holding more than one page element in memory.
package dump

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
)

// RawPage is one decoded <page> element from the dump.
type RawPage struct {
	PageID     int64
	Title      string
	Ns         int32
	RedirectTo string // redirect target title, empty for content pages
	Text       string // raw wikitext, may be empty
}

// IsRedirect reports whether the dump marked this page with a <redirect>
// element. Detection relies on the marker element, not on the wikitext.
func (p *RawPage) IsRedirect() bool {
	return p.RedirectTo != ""
}

// MalformedDumpError reports unparseable or truncated dump XML, with the
// byte offset into the decompressed stream where decoding failed.
type MalformedDumpError struct {
	Offset int64
	Err    error
}

func (e *MalformedDumpError) Error() string {
	return fmt.Sprintf("malformed dump at byte offset %d: %v", e.Offset, e.Err)
}

func (e *MalformedDumpError) Unwrap() error {
	return e.Err
}

// Options configures a Parser.
type Options struct {
	// MaxPages caps how many pages Next yields; 0 means unbounded. Once the
	// cap is reached the parser stops reading the underlying stream.
	MaxPages int
}

// Parser is a lazy, single-pass, non-restartable reader of dump pages.
type Parser struct {
	dec     *xml.Decoder
	closers []io.Closer
	max     int
	yielded int
	done    bool
}

// pageElement mirrors the slice of the export schema the parser consumes.
// The redirect marker is an empty element with a title attribute:
//
//	<page>
//	  <title>Apollo 11</title>
//	  <ns>0</ns>
//	  <id>1864</id>
//	  <redirect title="Foo bar" />
//	  <revision><text xml:space="preserve">...</text></revision>
//	</page>
type pageElement struct {
	Title    string `xml:"title"`
	Ns       int32  `xml:"ns"`
	ID       int64  `xml:"id"`
	Redirect struct {
		Title string `xml:"title,attr"`
	} `xml:"redirect"`
	Revision struct {
		Text string `xml:"text"`
	} `xml:"revision"`
}

// Open opens the dump at path. A ".bz2" suffix selects transparent bzip2
// decompression of the stream.
func Open(path string, opts Options) (*Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump %s: %w", path, err)
	}

	var r io.Reader = f
	closers := []io.Closer{f}
	if strings.HasSuffix(path, ".bz2") {
		bzr, err := bzip2.NewReader(f, &bzip2.ReaderConfig{})
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to open bzip2 stream %s: %w", path, err)
		}
		closers = []io.Closer{bzr, f}
		r = bzr
	}

	p := NewParser(r, opts)
	p.closers = closers
	return p, nil
}

// NewParser wraps an already-decompressed XML stream.
func NewParser(r io.Reader, opts Options) *Parser {
	return &Parser{
		dec: xml.NewDecoder(r),
		max: opts.MaxPages,
	}
}

// Next returns the next page in stream order. It returns io.EOF once the
// dump is exhausted or the page cap is reached, and *MalformedDumpError on
// broken XML. After any error the parser is done.
func (p *Parser) Next() (*RawPage, error) {
	if p.done {
		return nil, io.EOF
	}
	if p.max > 0 && p.yielded >= p.max {
		p.done = true
		return nil, io.EOF
	}

	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			p.done = true
			return nil, io.EOF
		}
		if err != nil {
			p.done = true
			return nil, &MalformedDumpError{Offset: p.dec.InputOffset(), Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}

		var el pageElement
		if err := p.dec.DecodeElement(&el, &start); err != nil {
			p.done = true
			return nil, &MalformedDumpError{Offset: p.dec.InputOffset(), Err: err}
		}

		p.yielded++
		return &RawPage{
			PageID:     el.ID,
			Title:      el.Title,
			Ns:         el.Ns,
			RedirectTo: el.Redirect.Title,
			Text:       el.Revision.Text,
		}, nil
	}
}

// Pages returns how many pages Next has yielded so far.
func (p *Parser) Pages() int {
	return p.yielded
}

// Close releases the underlying stream. Safe to call after a parse error.
func (p *Parser) Close() error {
	p.done = true
	var firstErr error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.closers = nil
	return firstErr
}
