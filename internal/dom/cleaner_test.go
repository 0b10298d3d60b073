package dom_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/pagetidy/internal/dom"
)

const suggestionsPage = `<!DOCTYPE html>
<html><head><title>Suggestions</title></head>
<body>
<h1>Dishes</h1>
<ul><li>Tomato Rice</li><li>Garlic Chicken</li></ul>
<p>Enjoy your meal! Let me know if you need any of these recipes.</p>
<footer><p>Made with love</p></footer>
</body></html>`

const preamblePage = `<html><body>
<p>Here are 5 dishes you can make with chicken and rice:</p>
<div class="dishes"><a href="/recipe/a">A</a></div>
<p>Pick one to see the recipe.</p>
</body></html>`

const plainPage = `<html><body><h1>Recipe</h1><p>Boil water.</p><ol><li>Stir</li></ol></body></html>`

type page struct {
	doc *goquery.Document
}

func load(t *testing.T, src string) *page {
	t.Helper()
	doc, err := dom.Load(strings.NewReader(src))
	require.NoError(t, err)
	return &page{doc: doc}
}

func (p *page) html(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, dom.Render(&buf, p.doc))
	return buf.String()
}

func TestClean_PrimarySelectorRemovesSiblingParagraph(t *testing.T) {
	d := load(t, suggestionsPage)
	c := dom.NewCleaner(dom.DefaultRule(), nil)

	outcome := c.Clean(d.doc)

	assert.Equal(t, dom.MatchPrimary, outcome)
	assert.Equal(t, 0, d.doc.Find("ul + p").Length())
	assert.NotContains(t, d.html(t), "Enjoy your meal")
	assert.Contains(t, d.html(t), "Made with love")
	assert.Equal(t, 2, d.doc.Find("li").Length())
}

func TestClean_FallbackRemovesParagraphStartingWithPhrase(t *testing.T) {
	d := load(t, preamblePage)
	c := dom.NewCleaner(dom.DefaultRule(), nil)

	outcome := c.Clean(d.doc)

	assert.Equal(t, dom.MatchFallback, outcome)
	out := d.html(t)
	assert.NotContains(t, out, "Here are 5 dishes")
	assert.Contains(t, out, "Pick one to see the recipe.")
}

func TestClean_NoMatchLeavesDocumentUnchanged(t *testing.T) {
	d := load(t, plainPage)
	before := d.html(t)
	c := dom.NewCleaner(dom.DefaultRule(), nil)

	outcome := c.Clean(d.doc)

	assert.Equal(t, dom.MatchNone, outcome)
	assert.False(t, outcome.Removed())
	assert.Equal(t, before, d.html(t))
}

func TestClean_RemovesAtMostOneElement(t *testing.T) {
	src := `<html><body><ul><li>a</li></ul><p>one</p><ul><li>b</li></ul><p>two</p></body></html>`
	d := load(t, src)
	c := dom.NewCleaner(dom.DefaultRule(), nil)

	require.Equal(t, dom.MatchPrimary, c.Clean(d.doc))

	out := d.html(t)
	assert.NotContains(t, out, "<p>one</p>")
	assert.Contains(t, out, "<p>two</p>")
}

func TestClean_PrimaryWinsOverFallback(t *testing.T) {
	src := `<html><body><p>Here are some dishes</p><ul><li>a</li></ul><p>Bye</p></body></html>`
	d := load(t, src)
	c := dom.NewCleaner(dom.DefaultRule(), nil)

	require.Equal(t, dom.MatchPrimary, c.Clean(d.doc))

	out := d.html(t)
	assert.Contains(t, out, "Here are some dishes")
	assert.NotContains(t, out, "Bye")
}

func TestClean_InvalidSelectorIsSilent(t *testing.T) {
	d := load(t, plainPage)
	c := dom.NewCleaner(dom.Rule{Selector: "ul +", Phrase: ""}, nil)

	assert.Equal(t, dom.MatchNone, c.Clean(d.doc))
}

func TestClean_NilDocument(t *testing.T) {
	c := dom.NewCleaner(dom.DefaultRule(), nil)
	assert.Equal(t, dom.MatchNone, c.Clean(nil))
}

func TestCleanHTML(t *testing.T) {
	c := dom.NewCleaner(dom.DefaultRule(), nil)

	t.Run("removed", func(t *testing.T) {
		var buf bytes.Buffer
		outcome, err := c.CleanHTML([]byte(suggestionsPage), &buf)
		require.NoError(t, err)
		assert.Equal(t, dom.MatchPrimary, outcome)
		assert.NotContains(t, buf.String(), "Enjoy your meal")
		assert.True(t, strings.HasPrefix(buf.String(), "<!DOCTYPE html>"))
	})

	t.Run("untouched bytes pass through", func(t *testing.T) {
		var buf bytes.Buffer
		outcome, err := c.CleanHTML([]byte(plainPage), &buf)
		require.NoError(t, err)
		assert.Equal(t, dom.MatchNone, outcome)
		assert.Equal(t, plainPage, buf.String())
	})
}

func TestRule_FallbackSelector(t *testing.T) {
	tests := []struct {
		phrase string
		want   string
	}{
		{"Here are", `p:contains("Here are")`},
		{`Say "hi"`, `p:contains("Say \"hi\"")`},
		{`a\b`, `p:contains("a\\b")`},
		{"", ""},
	}

	for _, tt := range tests {
		got := dom.Rule{Selector: "ul + p", Phrase: tt.phrase}.FallbackSelector()
		assert.Equal(t, tt.want, got, "phrase %q", tt.phrase)

		if tt.want != "" {
			_, err := cascadia.Compile(got)
			assert.NoError(t, err, "selector %s should compile", got)
		}
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "none", dom.MatchNone.String())
	assert.Equal(t, "primary", dom.MatchPrimary.String())
	assert.Equal(t, "fallback", dom.MatchFallback.String())
}

func TestClean_FallbackPhraseIgnoresCase(t *testing.T) {
	d := load(t, `<html><body><p>Intro</p><p>HERE ARE dishes</p></body></html>`)
	c := dom.NewCleaner(dom.DefaultRule(), nil)

	require.Equal(t, dom.MatchFallback, c.Clean(d.doc))

	out := d.html(t)
	assert.NotContains(t, out, "HERE ARE dishes")
	assert.Contains(t, out, "Intro")
}
