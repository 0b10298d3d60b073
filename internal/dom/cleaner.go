package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	DefaultSelector = "ul + p"
	DefaultPhrase   = "Here are"
)

// Rule names the element to remove.
type Rule struct {
	Selector string
	Phrase   string
}

func DefaultRule() Rule {
	return Rule{Selector: DefaultSelector, Phrase: DefaultPhrase}
}

// FallbackSelector is `p:contains("<phrase>")`, or "" without a phrase.
// :contains compares case-insensitively, so the default phrase also
// matches "HERE ARE" or "here are".
func (r Rule) FallbackSelector() string {
	if r.Phrase == "" {
		return ""
	}

	return "p:contains(" + cssQuote(r.Phrase) + ")"
}

func cssQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\a `)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')

	return b.String()
}

// Outcome reports which lookup, if any, removed an element.
type Outcome int

const (
	MatchNone Outcome = iota
	MatchPrimary
	MatchFallback
)

func (o Outcome) String() string {
	switch o {
	case MatchPrimary:
		return "primary"
	case MatchFallback:
		return "fallback"
	default:
		return "none"
	}
}

func (o Outcome) Removed() bool { return o != MatchNone }

type Cleaner struct {
	rule       Rule
	fallback   string
	loc        Locator
	transforms []Transform
}

// NewCleaner picks the lookup strategy for compile once. A nil compile
// means cascadia.Compile.
func NewCleaner(rule Rule, compile CompileFunc) *Cleaner {
	return NewCleanerWithLocator(rule, Detect(compile))
}

func NewCleanerWithLocator(rule Rule, loc Locator) *Cleaner {
	return &Cleaner{
		rule:     rule,
		fallback: rule.FallbackSelector(),
		loc:      loc,
	}
}

// WithTransforms appends transforms run after every cleanup.
func (c *Cleaner) WithTransforms(ts ...Transform) *Cleaner {
	c.transforms = append(c.transforms, ts...)
	return c
}

func (c *Cleaner) Rule() Rule       { return c.rule }
func (c *Cleaner) Locator() Locator { return c.loc }

func (c *Cleaner) Transforms() []string {
	names := make([]string, 0, len(c.transforms))
	for _, t := range c.transforms {
		names = append(names, t.Name)
	}

	return names
}

// Clean removes at most one element from doc. Finding nothing is not an
// error.
func (c *Cleaner) Clean(doc *goquery.Document) Outcome {
	if doc == nil || doc.Length() == 0 {
		return MatchNone
	}
	root := doc.Get(0)

	outcome := MatchPrimary
	node := c.loc.First(root, c.rule.Selector)
	if node == nil && c.fallback != "" {
		outcome = MatchFallback
		node = c.loc.First(root, c.fallback)
	}
	if node == nil {
		return MatchNone
	}

	doc.FindNodes(node).Remove()

	return outcome
}

// CleanHTML parses src, cleans it and writes the result to w. When
// nothing is changed the input bytes are copied through unchanged.
func (c *Cleaner) CleanHTML(src []byte, w io.Writer) (Outcome, error) {
	outcome, _, err := c.Tidy(src, w)
	return outcome, err
}

// Tidy is CleanHTML that also reports whether the output differs from
// src, either by a removal or by a transform.
func (c *Cleaner) Tidy(src []byte, w io.Writer) (Outcome, bool, error) {
	doc, err := Load(bytes.NewReader(src))
	if err != nil {
		return MatchNone, false, err
	}

	outcome := c.Clean(doc)

	transformed := false
	for _, t := range c.transforms {
		if t.Apply(doc) {
			transformed = true
		}
	}

	if !outcome.Removed() && !transformed {
		_, err = w.Write(src)
		return outcome, false, err
	}

	return outcome, true, Render(w, doc)
}

func Load(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return doc, nil
}

func Render(w io.Writer, doc *goquery.Document) error {
	if doc == nil || doc.Length() == 0 {
		return nil
	}

	if err := html.Render(w, doc.Get(0)); err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	return nil
}
