// Package sources fetches feed documents over HTTP and keeps the registry of
// configured feeds.
package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/johnrirwin/marketwire/internal/ratelimit"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; MarketwireAggregator/1.0)"
	DefaultAccept    = "application/rss+xml, application/xml;q=0.9, */*;q=0.8"
)

// ErrBodyTooLarge is returned when a response exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Fetcher retrieves a feed document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

type FetcherConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	UserAgent    string
	Accept       string
	MaxBodyBytes int64
}

func DefaultConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:      10 * time.Second,
		MaxRedirects: 3,
		UserAgent:    DefaultUserAgent,
		Accept:       DefaultAccept,
		MaxBodyBytes: 10 << 20,
	}
}

// Response is the final response of a redirect chain with its body decoded
// to UTF-8.
type Response struct {
	StatusCode int
	FinalURL   string
	Header     http.Header
	Body       string
	Redirects  int
}

func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError reports a feed that answered with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed %s returned HTTP %d", e.URL, e.StatusCode)
}

// HTTPFetcher follows redirects itself so the number of hops is bounded
// independently of net/http's own policy.
type HTTPFetcher struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	config  FetcherConfig
}

// NewHTTPFetcher builds a fetcher. limiter may be nil.
func NewHTTPFetcher(limiter *ratelimit.Limiter, config FetcherConfig) *HTTPFetcher {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxRedirects < 0 {
		config.MaxRedirects = 0
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if config.Accept == "" {
		config.Accept = def.Accept
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = def.MaxBodyBytes
	}

	return &HTTPFetcher{
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: limiter,
		config:  config,
	}
}

func (f *HTTPFetcher) Config() FetcherConfig {
	return f.config
}

// Fetch requests rawURL and follows up to MaxRedirects Location hops. The
// response after the last permitted hop is returned whatever its status.
// Non-2xx responses are not errors; callers check Response.OK.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed url %q: %w", rawURL, err)
	}

	// The politeness wait is outside the fetch deadline so queued requests
	// to one host keep their full Timeout.
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, current.Host); err != nil {
			return nil, fmt.Errorf("wait for %s: %w", current.Host, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	for redirects := 0; ; redirects++ {
		resp, err := f.do(ctx, current)
		if err != nil {
			return nil, err
		}

		location := resp.Header.Get("Location")
		if !isRedirect(resp.StatusCode) || location == "" || redirects >= f.config.MaxRedirects {
			return f.read(resp, current, redirects)
		}

		next, err := current.Parse(location)
		drain(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("bad redirect location %q from %s: %w", location, current, err)
		}
		current = next
	}
}

func (f *HTTPFetcher) do(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", f.config.Accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	return resp, nil
}

func (f *HTTPFetcher) read(resp *http.Response, u *url.URL, redirects int) (*Response, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}
	if int64(len(raw)) > f.config.MaxBodyBytes {
		return nil, fmt.Errorf("%s: %w", u, ErrBodyTooLarge)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		FinalURL:   u.String(),
		Header:     resp.Header,
		Body:       decodeBody(raw, resp.Header.Get("Content-Type")),
		Redirects:  redirects,
	}, nil
}

func isRedirect(code int) bool {
	return code >= 300 && code < 400
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	body.Close()
}

var xmlEncodingPattern = regexp.MustCompile(`^\s*<\?xml[^>]*\bencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// decodeBody converts raw to UTF-8 using the Content-Type charset, then the
// XML declaration, then content sniffing. Undecodable input is returned as is.
func decodeBody(raw []byte, contentType string) string {
	if !strings.Contains(strings.ToLower(contentType), "charset=") {
		if m := xmlEncodingPattern.FindSubmatch(raw); m != nil {
			if enc, name := charset.Lookup(string(m[1])); enc != nil && name != "utf-8" {
				if out, err := enc.NewDecoder().Bytes(raw); err == nil {
					return string(out)
				}
			}
		}
	}

	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return string(raw)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
