package dom

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// CompileFunc turns a selector group into a matcher.
// cascadia.Compile is the default.
type CompileFunc func(selector string) (cascadia.Selector, error)

// Locator finds the first element under root matching selector, or nil.
type Locator interface {
	First(root *html.Node, selector string) *html.Node
	Name() string
}

const (
	LocatorFull     = "cascadia"
	LocatorDegraded = "degraded"
)

const probeSelector = `p:contains("probe")`

// Detect probes compile for text-condition support and returns the
// matching strategy.
func Detect(compile CompileFunc) Locator {
	if compile == nil {
		compile = cascadia.Compile
	}

	if SupportsTextConditions(compile) {
		return selectorLocator{compile: compile}
	}

	return degradedLocator{compile: compile}
}

func SupportsTextConditions(compile CompileFunc) bool {
	_, err := compile(probeSelector)
	return err == nil
}

type selectorLocator struct {
	compile CompileFunc
}

func (l selectorLocator) First(root *html.Node, selector string) *html.Node {
	if root == nil || strings.TrimSpace(selector) == "" {
		return nil
	}

	sel, err := l.compile(selector)
	if err != nil {
		return nil
	}

	return sel.MatchFirst(root)
}

func (l selectorLocator) Name() string { return LocatorFull }

// degradedLocator drops text conditions instead of emulating them, so
// `p:contains("x")` behaves as `p`.
type degradedLocator struct {
	compile CompileFunc
}

func (l degradedLocator) First(root *html.Node, selector string) *html.Node {
	return selectorLocator(l).First(root, StripTextConditions(selector))
}

func (l degradedLocator) Name() string { return LocatorDegraded }

// StripTextConditions removes :contains, :containsOwn, :matches and
// :matchesOwn from selector. A condition that stood alone in a compound
// selector is replaced by the universal selector. Inside another
// functional pseudo-class such as :not or :has, a list item left empty is
// dropped, and a pseudo-class left with no argument is dropped too, so
// `p:not(:contains("x"))` becomes `p`.
func StripTextConditions(selector string) string {
	out, found := stripLevel(selector, true)
	if !found {
		return selector
	}

	return out
}

// hole stands in for a removed condition until its compound is known.
const hole = '\x00'

// stripLevel strips one selector list. top is false for the argument of a
// functional pseudo-class.
func stripLevel(s string, top bool) (string, bool) {
	var b strings.Builder
	found := false

	for i := 0; i < len(s); {
		switch c := s[i]; c {
		case '\\':
			end := min(i+2, len(s))
			b.WriteString(s[i:end])
			i = end
		case '"', '\'':
			end := skipQuoted(s, i)
			b.WriteString(s[i:end])
			i = end
		case ':':
			name, open := pseudoCall(s, i+1)
			if open < 0 {
				b.WriteByte(c)
				i++
				continue
			}

			closing := matchParen(s, open)
			if closing < 0 {
				b.WriteString(s[i:])
				i = len(s)
				continue
			}

			if textConditions[strings.ToLower(name)] {
				b.WriteByte(hole)
				found = true
				i = closing + 1
				continue
			}

			inner, innerFound := stripLevel(s[open+1:closing], false)
			switch {
			case !innerFound:
				b.WriteString(s[i : closing+1])
			case strings.TrimSpace(inner) == "":
				b.WriteByte(hole)
				found = true
			default:
				b.WriteString(s[i:open+1] + inner + ")")
				found = true
			}
			i = closing + 1
		default:
			b.WriteByte(c)
			i++
		}
	}

	if !found {
		return s, false
	}

	items := splitList(b.String())
	kept := items[:0]
	for _, item := range items {
		if !top && strings.Trim(item, " \t\n\x00") == "" {
			continue
		}
		kept = append(kept, fillHoles(item))
	}

	out := strings.Join(kept, ",")
	if !top {
		out = strings.TrimSpace(out)
	}

	return out, true
}

var textConditions = map[string]bool{
	"contains":    true,
	"containsown": true,
	"matches":     true,
	"matchesown":  true,
}

// pseudoCall reads a pseudo-class name starting at i and returns it with
// the index of its opening parenthesis, or -1 when it takes no argument.
func pseudoCall(s string, i int) (string, int) {
	j := i
	for j < len(s) && isNameChar(s[j]) {
		j++
	}
	if j == i || j >= len(s) || s[j] != '(' {
		return "", -1
	}

	return s[i:j], j
}

func isNameChar(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// matchParen returns the index of the parenthesis closing the one at open,
// or -1.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); {
		switch s[i] {
		case '\\':
			i += 2
			continue
		case '"', '\'':
			i = skipQuoted(s, i)
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}

	return -1
}

// skipQuoted returns the index just past the string literal starting at i.
func skipQuoted(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}

	return len(s)
}

// splitList splits a selector list on its top-level commas.
func splitList(s string) []string {
	var items []string
	depth, last := 0, 0

	for i := 0; i < len(s); {
		switch s[i] {
		case '\\':
			i += 2
			continue
		case '"', '\'':
			i = skipQuoted(s, i)
			continue
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				items = append(items, s[last:i])
				last = i + 1
			}
		}
		i++
	}

	return append(items, s[last:])
}

// fillHoles turns each run of holes into `*` when it is a whole compound
// selector and drops it otherwise.
func fillHoles(item string) string {
	var b strings.Builder
	for i := 0; i < len(item); {
		if item[i] != hole {
			b.WriteByte(item[i])
			i++
			continue
		}

		end := i
		for end < len(item) && item[end] == hole {
			end++
		}
		before := i == 0 || isBoundary(item[i-1])
		after := end == len(item) || isBoundary(item[end])
		if before && after {
			b.WriteByte('*')
		}
		i = end
	}

	return b.String()
}

func isBoundary(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '>', '+', '~':
		return true
	}

	return false
}
