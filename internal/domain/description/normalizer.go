// Package description converts marked-up vacancy descriptions to plain text.
package description

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// LineBreak is the token emitted for paragraph and list boundaries
const LineBreak = "\n"

// EventKind is the alphabet of the normalizer state machine
type EventKind int

const (
	StartTag EventKind = iota
	EndTag
	Text
)

// Event is one step of a markup stream. Tag is a lower-case element name for
// StartTag/EndTag; Data is the decoded text for Text.
type Event struct {
	Kind EventKind
	Tag  string
	Data string
}

var (
	// elements whose start begins a new line
	breakOnStart = map[string]bool{
		"p":  true,
		"li": true,
	}

	// elements whose end begins a new line
	breakOnEnd = map[string]bool{
		"br": true,
		"ul": true,
		"ol": true,
	}

	interTagSpace = regexp.MustCompile(`>\s+<`)
)

// Normalizer accumulates plain-text tokens from markup events.
// The zero value is ready to use; Reset returns it to that state.
type Normalizer struct {
	parts []string
}

// New returns an empty Normalizer
func New() *Normalizer {
	return &Normalizer{}
}

// Feed applies one event
func (n *Normalizer) Feed(ev Event) {
	switch ev.Kind {
	case StartTag:
		if breakOnStart[ev.Tag] {
			n.parts = append(n.parts, LineBreak)
		}
	case EndTag:
		if breakOnEnd[ev.Tag] {
			n.parts = append(n.parts, LineBreak)
		}
	case Text:
		// drops whitespace runs and stray single characters left by pretty-printing
		if utf8.RuneCountInString(strings.TrimSpace(ev.Data)) > 1 {
			n.parts = append(n.parts, ev.Data)
		}
	}
}

// Result joins the accumulated tokens with single spaces
func (n *Normalizer) Result() string {
	return strings.Join(n.parts, " ")
}

// Reset drops every accumulated token
func (n *Normalizer) Reset() {
	n.parts = n.parts[:0]
}

// Tokens returns a copy of the accumulated tokens
func (n *Normalizer) Tokens() []string {
	out := make([]string, len(n.parts))
	copy(out, n.parts)
	return out
}

// Normalize resets n, feeds it the whole markup and returns the result.
// Malformed markup never fails: unknown tags are ignored and their text kept.
func (n *Normalizer) Normalize(markup string) string {
	n.Reset()

	z := html.NewTokenizer(strings.NewReader(CollapseInterTagSpace(markup)))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a tokenizer error, either way the stream is over
			return n.Result()
		case html.StartTagToken:
			n.Feed(Event{Kind: StartTag, Tag: tagName(z)})
		case html.EndTagToken:
			n.Feed(Event{Kind: EndTag, Tag: tagName(z)})
		case html.SelfClosingTagToken:
			tag := tagName(z)
			n.Feed(Event{Kind: StartTag, Tag: tag})
			n.Feed(Event{Kind: EndTag, Tag: tag})
		case html.TextToken:
			n.Feed(Event{Kind: Text, Data: string(z.Text())})
		}
	}
}

// CollapseInterTagSpace removes whitespace found strictly between two tags
func CollapseInterTagSpace(markup string) string {
	return interTagSpace.ReplaceAllString(markup, "><")
}

func tagName(z *html.Tokenizer) string {
	name, _ := z.TagName()
	return string(name)
}

// Pool hands out reset normalizers to concurrent workers
type Pool struct {
	p sync.Pool
}

// NewPool creates an empty Pool
func NewPool() *Pool {
	return &Pool{p: sync.Pool{New: func() any { return New() }}}
}

// Normalize borrows a normalizer for one description
func (p *Pool) Normalize(markup string) string {
	n := p.p.Get().(*Normalizer)
	defer func() {
		n.Reset()
		p.p.Put(n)
	}()
	return n.Normalize(markup)
}

// Normalize converts one description with a throwaway normalizer
func Normalize(markup string) string {
	return New().Normalize(markup)
}
