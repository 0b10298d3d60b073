package server

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brogergvhs/pagetidy/internal/dom"
	"github.com/brogergvhs/pagetidy/internal/fetch"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"locator":    s.cleaner.Locator().Name(),
		"transforms": s.cleaner.Transforms(),
		"pages":      s.stats.TotalPages.Load(),
		"removed":    s.stats.Removed(),
	})
}

func (s *Server) clean(c *gin.Context) {
	body, err := fetch.ReadLimited(c.Request.Body, fetch.MaxPageBytes)
	if errors.Is(err, fetch.ErrTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	outcome, err := s.cleaner.CleanHTML(body, &buf)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	s.stats.Record(outcome, int64(buf.Len()))

	c.Header(HeaderMatch, outcome.String())
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// rewriteResponse cleans uncompressed HTML responses from upstream and
// leaves everything else alone.
func (s *Server) rewriteResponse(resp *http.Response) error {
	mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !fetch.IsHTML(mt) || resp.Header.Get("Content-Encoding") != "" {
		return nil
	}

	orig := resp.Body
	body, err := io.ReadAll(io.LimitReader(orig, fetch.MaxPageBytes+1))
	if err != nil {
		return err
	}
	if len(body) > fetch.MaxPageBytes {
		resp.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(body), orig), orig}
		return nil
	}
	_ = orig.Close()

	var buf bytes.Buffer
	outcome, err := s.cleaner.CleanHTML(body, &buf)
	if err != nil {
		s.log.Warnf("clean %s: %v", resp.Request.URL.Path, err)
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return nil
	}
	s.stats.Record(outcome, int64(buf.Len()))
	s.log.Debugf("proxied %s match=%s", resp.Request.URL.Path, outcome)

	resp.Body = io.NopCloser(&buf)
	resp.ContentLength = int64(buf.Len())
	resp.Header.Set("Content-Length", strconv.Itoa(buf.Len()))
	resp.Header.Set(HeaderMatch, outcome.String())

	return nil
}

// dishes extracts the bullet list from a generated plain-text answer.
func (s *Server) dishes(c *gin.Context) {
	body, err := fetch.ReadLimited(c.Request.Body, fetch.MaxPageBytes)
	if errors.Is(err, fetch.ErrTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	names := dom.DishNames(string(body))
	if names == nil {
		names = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"dishes": names})
}
