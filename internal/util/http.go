package util

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
)

// HTTPClientOptions configures the client shared by every page fetch.
type HTTPClientOptions struct {
	Timeout     time.Duration
	UserAgent   string
	Cookie      string
	CookieFile  string
	Transport   http.RoundTripper
	CFBypass    bool
	DebugLogger interface {
		Debugf(string, ...any)
	}
}

func NewHTTPClient(opts HTTPClientOptions) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	next := opts.Transport
	if next == nil {
		next = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        32,
			MaxIdleConnsPerHost: 8,
			ForceAttemptHTTP2:   true,
		}
	}
	if opts.CFBypass {
		next = cloudflarebp.AddCloudFlareByPass(next)
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: pageTransport{
			next:    next,
			agent:   opts.UserAgent,
			cookies: joinCookies(opts.Cookie, opts.CookieFile),
			log:     opts.DebugLogger,
		},
		Jar: jar,
	}

	if opts.DebugLogger != nil {
		opts.DebugLogger.Debugf("page client ready: timeout=%s ua=%q cookie_file=%q cf_bypass=%t",
			opts.Timeout, opts.UserAgent, opts.CookieFile, opts.CFBypass)
	}

	return client, nil
}

// pageTransport stamps the configured identity on every page request.
type pageTransport struct {
	next    http.RoundTripper
	agent   string
	cookies string
	log     interface{ Debugf(string, ...any) }
}

func (t pageTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.agent != "" {
		req.Header.Set("User-Agent", t.agent)
	}
	if t.cookies != "" && req.Header.Get("Cookie") == "" {
		req.Header.Set("Cookie", t.cookies)
	}
	if t.log != nil {
		t.log.Debugf("fetch page %s %s", req.Method, req.URL)
	}

	return t.next.RoundTrip(req)
}

// joinCookies appends the first non-blank line of file to the inline
// cookie string. An unreadable file is ignored.
func joinCookies(inline, file string) string {
	parts := []string{}
	if s := strings.TrimSpace(inline); s != "" {
		parts = append(parts, s)
	}
	if line := firstLine(file); line != "" {
		parts = append(parts, line)
	}

	return strings.Join(parts, "; ")
}

func firstLine(file string) string {
	if file == "" {
		return ""
	}

	f, err := os.Open(file)
	if err != nil {
		return ""
	}
	defer func() {
		_ = f.Close()
	}()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}

	return ""
}

// DoWithRetry retries transport errors and 5xx responses with linear
// backoff. 4xx responses are returned to the caller as-is.
func DoWithRetry(c *http.Client, req *http.Request, attempts int, backoff time.Duration) (*http.Response, error) {
	var lastStatus int
	var err error

	for i := 1; i <= attempts; i++ {
		var resp *http.Response
		resp, err = c.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if resp != nil {
			lastStatus = resp.StatusCode
			_ = resp.Body.Close()
		}

		if i == attempts {
			break
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff * time.Duration(i)):
		}
	}

	if err == nil {
		return nil, fmt.Errorf("HTTP %d after %d attempts", lastStatus, attempts)
	}

	return nil, err
}

func PickUserAgent(override string) string {
	if override != "" {
		return override
	}

	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
}
