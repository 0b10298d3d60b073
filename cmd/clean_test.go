package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brogergvhs/pagetidy/internal/config"
	"github.com/brogergvhs/pagetidy/internal/sources"
)

func TestSplitExt(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"html|htm", []string{"html", "htm"}},
		{"HTML, xhtml", []string{"html", "xhtml"}},
		{" | ", []string{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, splitExt(tt.in), tt.in)
	}
}

func TestDryRunTarget(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = "tidy"

	local := sources.Source{Ref: "pages/a.html", Kind: sources.File, Name: "a.html"}
	remote := sources.Source{Ref: "http://x/suggest", Kind: sources.Remote, Name: "x_suggest.html"}

	assert.Equal(t, filepath.Join("tidy", "a.html"), dryRunTarget(cfg, local))

	cfg.InPlace = true
	assert.Equal(t, "(in place)", dryRunTarget(cfg, local))
	assert.Equal(t, filepath.Join("tidy", "x_suggest.html"), dryRunTarget(cfg, remote))
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"clean", "serve", "probe", "version", "config"} {
		c, _, err := rootCmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, c.Name())
		}
	}

	c, _, err := rootCmd.Find([]string{"config", "switch"})
	assert.NoError(t, err)
	assert.Equal(t, "switch", c.Name())
}
