package fetch_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/pagetidy/internal/fetch"
	"github.com/brogergvhs/pagetidy/internal/sources"
)

func TestLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>hi</p>"), 0644))

	got, err := fetch.NewLoader(nil).Load(context.Background(), sources.Source{Ref: path, Kind: sources.File})
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(got))
}

func TestLoader_Remote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<ul><li>a</li></ul><p>bye</p>"))
	})
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	l := fetch.NewLoader(srv.Client()).WithRetry(1, time.Millisecond)
	ctx := context.Background()

	got, err := l.Load(ctx, sources.Source{Ref: srv.URL + "/page", Kind: sources.Remote})
	require.NoError(t, err)
	assert.Contains(t, string(got), "<p>bye</p>")

	_, err = l.Load(ctx, sources.Source{Ref: srv.URL + "/image", Kind: sources.Remote})
	assert.ErrorContains(t, err, "unexpected MIME")

	_, err = l.Load(ctx, sources.Source{Ref: srv.URL + "/missing", Kind: sources.Remote})
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestLoader_OversizedPageFails(t *testing.T) {
	page := append(bytes.Repeat([]byte("a"), fetch.MaxPageBytes), []byte("<footer>END</footer>")...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(page)
	}))
	defer srv.Close()

	got, err := fetch.NewLoader(srv.Client()).Load(context.Background(), sources.Source{Ref: srv.URL, Kind: sources.Remote})
	assert.ErrorIs(t, err, fetch.ErrTooLarge)
	assert.Nil(t, got)
}

func TestLoader_MaxBytesBoundary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(strings.Repeat("x", 10)))
	}))
	defer srv.Close()
	src := sources.Source{Ref: srv.URL, Kind: sources.Remote}

	got, err := fetch.NewLoader(srv.Client()).WithMaxBytes(10).Load(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, got, 10)

	_, err = fetch.NewLoader(srv.Client()).WithMaxBytes(9).Load(context.Background(), src)
	assert.ErrorIs(t, err, fetch.ErrTooLarge)
}

func TestReadLimited(t *testing.T) {
	got, err := fetch.ReadLimited(strings.NewReader("abc"), 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = fetch.ReadLimited(strings.NewReader("abcd"), 3)
	assert.ErrorIs(t, err, fetch.ErrTooLarge)
}

func TestLoader_NoClient(t *testing.T) {
	_, err := fetch.NewLoader(nil).Load(context.Background(), sources.Source{Ref: "http://x", Kind: sources.Remote})
	assert.Error(t, err)
}

func TestIsHTML(t *testing.T) {
	assert.True(t, fetch.IsHTML("text/html"))
	assert.True(t, fetch.IsHTML("application/xhtml+xml"))
	assert.False(t, fetch.IsHTML("application/json"))
}
