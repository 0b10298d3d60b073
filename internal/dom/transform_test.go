package dom_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/pagetidy/internal/dom"
)

func TestBoldMarkup(t *testing.T) {
	d := load(t, `<html><body><p>**Ingredients:** rice and **Steps:**</p><pre>a **b** c</pre><script>x="**y**"</script></body></html>`)

	require.True(t, dom.BoldMarkup(d.doc))

	out := d.html(t)
	assert.Contains(t, out, `<p><strong>Ingredients:</strong> rice and <strong>Steps:</strong></p>`)
	assert.Contains(t, out, `<pre>a **b** c</pre>`)
	assert.Contains(t, out, `x="**y**"`)
}

func TestBoldMarkup_NothingToDo(t *testing.T) {
	d := load(t, plainPage)
	assert.False(t, dom.BoldMarkup(d.doc))
}

func TestBoldMarkup_EscapesText(t *testing.T) {
	d := load(t, `<html><body><p>**a &lt;b&gt;**</p></body></html>`)

	require.True(t, dom.BoldMarkup(d.doc))
	assert.Contains(t, d.html(t), `<strong>a &lt;b&gt;</strong>`)
}

func TestTidyBullets(t *testing.T) {
	d := load(t, `<html><body><ul>
<li>• <strong>Tomato Rice</strong></li>
<li>- Garlic Chicken *</li>
<li>Plain <a href="/recipe/x">link</a></li>
<li><strong></strong>Soup<ul><li>- nested</li></ul></li>
</ul></body></html>`)

	require.True(t, dom.TidyBullets(d.doc))

	items := d.doc.Find("body > ul > li")
	require.Equal(t, 4, items.Length())
	assert.Equal(t, "Tomato Rice", items.Eq(0).Text())
	assert.Equal(t, "Garlic Chicken", items.Eq(1).Text())
	assert.Equal(t, "Plain link", items.Eq(2).Text())
	assert.Equal(t, 1, items.Eq(2).Find("a").Length())
	assert.Equal(t, 0, d.doc.Find("li strong").Length())
	assert.Equal(t, "nested", d.doc.Find("li li").Text())
}

func TestTidyBullets_UntouchedList(t *testing.T) {
	d := load(t, "<html><body><ul>\n  <li>\n    Rice\n  </li>\n</ul></body></html>")
	assert.False(t, dom.TidyBullets(d.doc))
}

func TestDishNames(t *testing.T) {
	answer := "Here are 5 dishes:\n\n• <strong>Tomato Rice</strong>\n- Garlic Chicken\n  * Fried Eggs  \nEnjoy!\n-\n"

	assert.Equal(t, []string{"Tomato Rice", "Garlic Chicken", "Fried Eggs"}, dom.DishNames(answer))
	assert.Empty(t, dom.DishNames("no list here"))
}

func TestLookupTransforms(t *testing.T) {
	ts, err := dom.LookupTransforms([]string{"Bold", " bullets", "bold", ""})
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, dom.TransformBold, ts[0].Name)
	assert.Equal(t, dom.TransformBullets, ts[1].Name)

	_, err = dom.LookupTransforms([]string{"shout"})
	assert.ErrorContains(t, err, `unknown transform "shout"`)

	assert.Equal(t, []string{"bold", "bullets"}, dom.TransformNames())
}

func TestTidy_ReportsTransforms(t *testing.T) {
	ts, err := dom.LookupTransforms([]string{dom.TransformBold})
	require.NoError(t, err)
	c := dom.NewCleaner(dom.DefaultRule(), nil).WithTransforms(ts...)
	assert.Equal(t, []string{"bold"}, c.Transforms())

	var buf bytes.Buffer
	outcome, changed, err := c.Tidy([]byte(`<html><body><h1>**Soup**</h1></body></html>`), &buf)
	require.NoError(t, err)
	assert.Equal(t, dom.MatchNone, outcome)
	assert.True(t, changed)
	assert.Contains(t, buf.String(), "<h1><strong>Soup</strong></h1>")

	buf.Reset()
	outcome, changed, err = c.Tidy([]byte(plainPage), &buf)
	require.NoError(t, err)
	assert.Equal(t, dom.MatchNone, outcome)
	assert.False(t, changed)
	assert.Equal(t, plainPage, buf.String())
}
