package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/brogergvhs/pagetidy/internal/dom"
)

const envPrefix = "PAGETIDY_"

type Config struct {
	Selector string   `yaml:"selector"`
	Phrase   string   `yaml:"phrase"`
	AllowExt []string `yaml:"allow_ext"`

	Transforms []string `yaml:"transforms"`

	Output     string `yaml:"output"`
	InPlace    bool   `yaml:"in_place"`
	Archive    string `yaml:"archive"`
	Workers    int    `yaml:"workers"`
	Debug      bool   `yaml:"debug"`
	SkipBroken bool   `yaml:"skip_broken"`

	DefaultRange string `yaml:"default_range"`
	DefaultList  string `yaml:"default_list"`

	Cookie     string `yaml:"cookie"`
	CookieFile string `yaml:"cookie_file"`
	UserAgent  string `yaml:"user_agent"`
	CFBypass   bool   `yaml:"cf_bypass"`

	Listen   string `yaml:"listen"`
	Upstream string `yaml:"upstream"`
}

// Options carries CLI overrides. Zero values mean "not set".
type Options struct {
	IgnoreConfig bool
	Debug        bool
	Selector     string
	Phrase       string
	Transforms   []string
	Output       string
	InPlace      bool
	Archive      string
	Workers      int
	SkipBroken   bool
	DefaultRange string
	DefaultList  string
	Cookie       string
	CookieFile   string
	UserAgent    string
	CFBypass     bool
	Listen       string
	Upstream     string
}

func DefaultConfig() *Config {
	return &Config{
		Selector:   dom.DefaultSelector,
		Phrase:     dom.DefaultPhrase,
		AllowExt:   []string{"html", "htm"},
		Output:     "tidy",
		InPlace:    false,
		Archive:    "",
		Workers:    4,
		Debug:      false,
		SkipBroken: false,
		Cookie:     "",
		CookieFile: "",
		UserAgent:  "",
		CFBypass:   false,
		Listen:     ":8080",
		Upstream:   "",
	}
}

func (c *Config) Rule() dom.Rule {
	return dom.Rule{Selector: c.Selector, Phrase: c.Phrase}
}

// NewCleaner builds the cleaner for this config with its transforms.
func (c *Config) NewCleaner() (*dom.Cleaner, error) {
	ts, err := dom.LookupTransforms(c.Transforms)
	if err != nil {
		return nil, err
	}

	return dom.NewCleaner(c.Rule(), nil).WithTransforms(ts...), nil
}

// Validate rejects settings that would make every run a no-op by accident.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Selector) == "" && strings.TrimSpace(c.Phrase) == "" {
		return errors.New("either selector or phrase must be set")
	}
	if c.Selector != "" {
		if _, err := cascadia.Compile(c.Selector); err != nil {
			return fmt.Errorf("invalid selector %q: %w", c.Selector, err)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if _, err := dom.LookupTransforms(c.Transforms); err != nil {
		return err
	}

	return nil
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadDotEnv loads .env from the working directory if there is one.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func LoadMerged(opts Options) (*Config, string, error) {
	return DefaultStore().LoadMerged(opts)
}

// LoadMerged resolves defaults, the active profile, PAGETIDY_* variables
// and CLI options, in that order.
func (s *Store) LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		applyEnv(cfg)
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := s.ActivePath()
	if errors.Is(err, ErrNoConfig) || activePath == "" {
		cfg := DefaultConfig()
		applyEnv(cfg)
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `pagetidy config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	applyEnv(cfg)
	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func applyEnv(c *Config) {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("SELECTOR", &c.Selector)
	str("PHRASE", &c.Phrase)
	str("OUTPUT", &c.Output)
	str("USER_AGENT", &c.UserAgent)
	str("COOKIE", &c.Cookie)
	str("LISTEN", &c.Listen)
	str("UPSTREAM", &c.Upstream)
	if v, ok := os.LookupEnv(envPrefix + "TRANSFORMS"); ok && v != "" {
		c.Transforms = strings.Split(v, ",")
	}
	flag("DEBUG", &c.Debug)
	flag("CF_BYPASS", &c.CFBypass)

	if v, ok := os.LookupEnv(envPrefix + "WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

func mergeConfig(c *Config, o Options) {
	if o.Debug {
		c.Debug = true
	}
	if o.Selector != "" {
		c.Selector = o.Selector
	}
	if o.Phrase != "" {
		c.Phrase = o.Phrase
	}
	if len(o.Transforms) > 0 {
		c.Transforms = o.Transforms
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.InPlace {
		c.InPlace = true
	}
	if o.Archive != "" {
		c.Archive = o.Archive
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	if o.SkipBroken {
		c.SkipBroken = true
	}
	if o.DefaultRange != "" {
		c.DefaultRange = o.DefaultRange
	}
	if o.DefaultList != "" {
		c.DefaultList = o.DefaultList
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.CFBypass {
		c.CFBypass = true
	}
	if o.Listen != "" {
		c.Listen = o.Listen
	}
	if o.Upstream != "" {
		c.Upstream = o.Upstream
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "tidy"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if len(c.AllowExt) == 0 {
		c.AllowExt = []string{"html", "htm"}
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
}

func (c *Config) Print() {
	fmt.Printf(" -selector: %s\n", c.Selector)
	if c.Phrase != "" {
		fmt.Printf(" -phrase: %q\n", c.Phrase)
	}
	if len(c.Transforms) > 0 {
		fmt.Printf(" -transforms: %s\n", strings.Join(c.Transforms, ", "))
	}
	if len(c.AllowExt) > 0 {
		fmt.Printf(" -allow_ext: %s\n", strings.Join(c.AllowExt, ", "))
	}
	if c.InPlace {
		fmt.Printf(" -in_place: %t\n", c.InPlace)
	} else if c.Output != "" {
		fmt.Printf(" -output: %s\n", c.Output)
	}
	if c.Archive != "" {
		fmt.Printf(" -archive: %s\n", c.Archive)
	}
	fmt.Printf(" -workers: %d\n", c.Workers)
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.SkipBroken {
		fmt.Printf(" -skip_broken: %t\n", c.SkipBroken)
	}
	if c.DefaultRange != "" {
		fmt.Printf(" -range: %s\n", c.DefaultRange)
	}
	if c.DefaultList != "" {
		fmt.Printf(" -list: %s\n", c.DefaultList)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.CFBypass {
		fmt.Printf(" -cf_bypass: %t\n", c.CFBypass)
	}
	if c.Upstream != "" {
		fmt.Printf(" -upstream: %s\n", c.Upstream)
		fmt.Printf(" -listen: %s\n", c.Listen)
	}
}
