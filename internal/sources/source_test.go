package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("<p>x</p>"), 0644))
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site", "index.html"))
	writeFile(t, filepath.Join(dir, "site", "recipe.HTM"))
	writeFile(t, filepath.Join(dir, "site", "style.css"))
	writeFile(t, filepath.Join(dir, "site", "sub", "index.html"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	got, err := Resolve([]string{
		filepath.Join(dir, "site"),
		filepath.Join(dir, "notes.txt"),
		"https://example.com/recipe/Tomato-Rice",
	}, []string{"html", ".htm"})
	require.NoError(t, err)

	require.Len(t, got, 5)
	assert.Equal(t, "index.html", got[0].Name)
	assert.Equal(t, "recipe.HTM", got[1].Name)
	assert.Equal(t, "index_2.html", got[2].Name)
	assert.Equal(t, filepath.Join(dir, "site", "sub", "index.html"), got[2].Ref)
	assert.Equal(t, "notes.txt", got[3].Name)
	assert.Equal(t, File, got[3].Kind)

	assert.True(t, got[4].IsRemote())
	assert.Equal(t, "example_com_recipe_tomato_rice.html", got[4].Name)
}

func TestResolve_MissingPath(t *testing.T) {
	_, err := Resolve([]string{filepath.Join(t.TempDir(), "missing.html")}, []string{"html"})
	assert.Error(t, err)
}

func TestURLName(t *testing.T) {
	assert.Equal(t, "localhost_5000.html", urlName("http://localhost:5000/"))
	assert.Equal(t, "example_com_suggest.html", urlName("https://example.com/suggest"))
	assert.Equal(t, "example_com_a_b.html", urlName("https://example.com/a/b.html"))
}

func TestFilter(t *testing.T) {
	all := []Source{{Name: "1"}, {Name: "2"}, {Name: "3"}, {Name: "4"}}

	names := func(in []Source) []string {
		var out []string
		for _, s := range in {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"2", "3"}, names(Filter(all, "2-3", "")))
	assert.Equal(t, []string{"1", "4"}, names(Filter(all, "", "1, 4, 9, x")))
	assert.Equal(t, []string{"2", "3"}, names(Filter(all, "2-3", "1")), "range wins")
	assert.Len(t, Filter(all, "", ""), 4)
	assert.Nil(t, Filter(all, "3-2", ""))
	assert.Nil(t, Filter(all, "1-9", ""))
	assert.Nil(t, Filter(all, "a-b", ""))
}
