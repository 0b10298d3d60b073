package dom

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	TransformBold    = "bold"
	TransformBullets = "bullets"
)

// bulletChars are the list markers the generator puts in front of items.
const bulletChars = "•-* "

var (
	reBold      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	reStrongTag = regexp.MustCompile(`</?strong>`)
)

// Transform rewrites a document after cleanup. Apply reports whether the
// document changed.
type Transform struct {
	Name  string
	Apply func(doc *goquery.Document) bool
}

var transforms = map[string]Transform{
	TransformBold:    {Name: TransformBold, Apply: BoldMarkup},
	TransformBullets: {Name: TransformBullets, Apply: TidyBullets},
}

func TransformNames() []string {
	names := make([]string, 0, len(transforms))
	for n := range transforms {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

// LookupTransforms resolves names in order. Duplicates are applied once.
func LookupTransforms(names []string) ([]Transform, error) {
	seen := map[string]bool{}
	var out []Transform

	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}

		t, ok := transforms[n]
		if !ok {
			return nil, fmt.Errorf("unknown transform %q (available: %s)", n, strings.Join(TransformNames(), ", "))
		}
		seen[n] = true
		out = append(out, t)
	}

	return out, nil
}

// rawText elements keep their asterisks.
var rawText = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Textarea: true,
	atom.Pre:      true,
	atom.Code:     true,
	atom.Title:    true,
}

// BoldMarkup turns `**text**` in text nodes into <strong>text</strong>.
func BoldMarkup(doc *goquery.Document) bool {
	if doc == nil || doc.Length() == 0 {
		return false
	}

	var marked []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && rawText[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode && n.Parent != nil && reBold.MatchString(n.Data) {
			marked = append(marked, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc.Get(0))

	for _, n := range marked {
		splitBold(n)
	}

	return len(marked) > 0
}

func splitBold(n *html.Node) {
	parent, s := n.Parent, n.Data
	last := 0

	for _, m := range reBold.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: s[last:m[0]]}, n)
		}

		strong := &html.Node{Type: html.ElementNode, Data: "strong", DataAtom: atom.Strong}
		if m[3] > m[2] {
			strong.AppendChild(&html.Node{Type: html.TextNode, Data: s[m[2]:m[3]]})
		}
		parent.InsertBefore(strong, n)
		last = m[1]
	}

	if last < len(s) {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: s[last:]}, n)
	}
	parent.RemoveChild(n)
}

// TidyBullets strips <strong> tags and leading or trailing bullet markers
// from list items, leaving the plain item name.
func TidyBullets(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}

	changed := false
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		li.Find("strong").Each(func(_ int, s *goquery.Selection) {
			if s.Contents().Length() == 0 {
				s.Remove()
			} else {
				s.Contents().Unwrap()
			}
			changed = true
		})

		if trimItemEdges(li.Get(0)) {
			changed = true
		}
	})

	return changed
}

// trimItemEdges removes bullet markers from the first and last non-blank
// text of li, skipping nested lists.
func trimItemEdges(li *html.Node) bool {
	var texts []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				texts = append(texts, c)
			case c.Type == html.ElementNode && (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol):
			default:
				walk(c)
			}
		}
	}
	walk(li)

	changed := false
	for _, n := range texts {
		if strings.TrimSpace(n.Data) == "" {
			continue
		}
		if out, ok := trimBullets(n.Data, strings.TrimLeft); ok {
			n.Data, changed = out, true
		}
		break
	}
	for i := len(texts) - 1; i >= 0; i-- {
		n := texts[i]
		if strings.TrimSpace(n.Data) == "" {
			continue
		}
		if out, ok := trimBullets(n.Data, strings.TrimRight); ok {
			n.Data, changed = out, true
		}
		break
	}

	return changed
}

func trimBullets(s string, trim func(string, string) string) (string, bool) {
	core := trim(s, " \t\r\n")
	stripped := trim(core, bulletChars)
	if stripped == core {
		return s, false
	}

	return stripped, true
}

// DishNames keeps the bullet lines of a generated answer and returns them
// without markers or <strong> tags.
func DishNames(text string) []string {
	var names []string

	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.ContainsRune("•-*", []rune(line)[0]) {
			continue
		}

		name := reStrongTag.ReplaceAllString(line, "")
		name = strings.TrimSpace(strings.Trim(name, bulletChars))
		if name != "" {
			names = append(names, name)
		}
	}

	return names
}
