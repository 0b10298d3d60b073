package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/brogergvhs/pagetidy/internal/sources"
	"github.com/brogergvhs/pagetidy/internal/util"
)

// MaxPageBytes caps the size of a page that is cleaned.
const MaxPageBytes = 16 << 20

var ErrTooLarge = errors.New("page too large")

type Loader struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
	maxBytes int64
}

func NewLoader(c *http.Client) *Loader {
	return &Loader{client: c, attempts: 3, backoff: 500 * time.Millisecond, maxBytes: MaxPageBytes}
}

// WithMaxBytes overrides the remote page size limit.
func (l *Loader) WithMaxBytes(n int64) *Loader {
	l.maxBytes = n
	return l
}

// WithRetry overrides the retry policy for remote pages.
func (l *Loader) WithRetry(attempts int, backoff time.Duration) *Loader {
	l.attempts = max(1, attempts)
	l.backoff = backoff
	return l
}

func (l *Loader) Load(ctx context.Context, src sources.Source) ([]byte, error) {
	if !src.IsRemote() {
		b, err := os.ReadFile(src.Ref)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src.Ref, err)
		}
		return b, nil
	}

	return l.fetch(ctx, src.Ref)
}

func (l *Loader) fetch(ctx context.Context, target string) ([]byte, error) {
	if l.client == nil {
		return nil, fmt.Errorf("fetch %s: no HTTP client configured", target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := util.DoWithRetry(l.client, req, l.attempts, l.backoff)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", target, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !IsHTML(mt) {
			return nil, fmt.Errorf("fetch %s: unexpected MIME: %s", target, ct)
		}
	}

	data, err := ReadLimited(resp.Body, l.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}

	return data, nil
}

// ReadLimited reads all of r, failing with ErrTooLarge past limit bytes
// instead of truncating.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}

	return data, nil
}

// IsHTML reports whether a media type carries an HTML document.
func IsHTML(mediaType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	return mt == "text/html" || mt == "application/xhtml+xml"
}
