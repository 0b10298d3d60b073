// Package sources turns command-line arguments into an ordered list of
// pages to clean: local files, directories of HTML files, or URLs.
package sources

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type Kind int

const (
	File Kind = iota
	Remote
)

func (k Kind) String() string {
	if k == Remote {
		return "url"
	}
	return "file"
}

type Source struct {
	Ref  string // file path or absolute URL
	Kind Kind
	Name string // output file name, unique within one Resolve call
}

func (s Source) IsRemote() bool { return s.Kind == Remote }

// Resolve expands args in order. Directories are walked for files whose
// extension is in allowExt; explicit file arguments are taken as given.
func Resolve(args []string, allowExt []string) ([]Source, error) {
	allowed := extMatcher(allowExt)
	names := map[string]int{}
	var out []Source

	add := func(ref string, kind Kind, name string) {
		out = append(out, Source{Ref: ref, Kind: kind, Name: uniqueName(names, name)})
	}

	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}

		if isURL(arg) {
			add(arg, Remote, urlName(arg))
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", arg, err)
		}

		if !info.IsDir() {
			add(arg, File, filepath.Base(arg))
			continue
		}

		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !allowed.MatchString(d.Name()) {
				return nil
			}
			add(p, File, d.Name())
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}

	return out, nil
}

func isURL(s string) bool {
	ls := strings.ToLower(s)
	return strings.HasPrefix(ls, "http://") || strings.HasPrefix(ls, "https://")
}

func extMatcher(exts []string) *regexp.Regexp {
	var clean []string
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			clean = append(clean, regexp.QuoteMeta(ext))
		}
	}

	if len(clean) == 0 {
		return regexp.MustCompile(`$a`)
	}

	return regexp.MustCompile(`(?i)\.(` + strings.Join(clean, "|") + `)$`)
}

func urlName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return sanitize(raw) + ".html"
	}

	p := strings.TrimSuffix(u.Path, path.Ext(u.Path))
	name := sanitize(u.Host + "_" + p)
	if name == "" {
		name = "page"
	}

	return name + ".html"
}

func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	n := seen[name]
	if n == 1 {
		return name
	}

	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + strconv.Itoa(n) + ext
}

var reUnderscore = regexp.MustCompile(`_+`)

func sanitize(s string) string {
	s = strings.ToLower(s)

	repl := strings.NewReplacer(
		"-", "_",
		"/", "_",
		"\\", "_",
		".", "_",
		":", "_",
		" ", "_",
	)
	s = repl.Replace(s)

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			clean = append(clean, r)
		}
	}

	return strings.Trim(reUnderscore.ReplaceAllString(string(clean), "_"), "_")
}
