package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/johnrirwin/marketwire/internal/ratelimit"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", config.Timeout)
	}
	if config.MaxRedirects != 3 {
		t.Errorf("MaxRedirects = %d, want 3", config.MaxRedirects)
	}
	if config.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q", config.UserAgent)
	}
	if config.MaxBodyBytes != 10<<20 {
		t.Errorf("MaxBodyBytes = %d", config.MaxBodyBytes)
	}
}

func TestNewHTTPFetcher_FillsDefaults(t *testing.T) {
	f := NewHTTPFetcher(nil, FetcherConfig{MaxRedirects: -1})
	cfg := f.Config()

	if cfg.Timeout != 10*time.Second || cfg.UserAgent == "" || cfg.Accept == "" || cfg.MaxBodyBytes <= 0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.MaxRedirects != 0 {
		t.Errorf("MaxRedirects = %d, want 0", cfg.MaxRedirects)
	}
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		w.Write([]byte("<rss><channel><item><title>Hi</title></item></channel></rss>"))
	}))
	defer server.Close()

	resp, err := NewHTTPFetcher(nil, DefaultConfig()).Fetch(context.Background(), server.URL+"/feed")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !resp.OK() {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(resp.Body, "<title>Hi</title>") {
		t.Errorf("Body = %q", resp.Body)
	}
	if resp.FinalURL != server.URL+"/feed" {
		t.Errorf("FinalURL = %q", resp.FinalURL)
	}
	if resp.Redirects != 0 {
		t.Errorf("Redirects = %d, want 0", resp.Redirects)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotAccept != DefaultAccept {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestHTTPFetcher_RedirectLoopIsBounded(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Location", r.URL.Path)
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	resp, err := NewHTTPFetcher(nil, DefaultConfig()).Fetch(context.Background(), server.URL+"/loop")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := atomic.LoadInt32(&requests); got != 4 {
		t.Errorf("requests = %d, want 4", got)
	}
	if resp.StatusCode != http.StatusMovedPermanently {
		t.Errorf("StatusCode = %d, want 301", resp.StatusCode)
	}
	if resp.Redirects != 3 {
		t.Errorf("Redirects = %d, want 3", resp.Redirects)
	}
	if resp.OK() {
		t.Error("a final 301 must not be OK")
	}
}

func TestHTTPFetcher_RelativeRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feeds/old":
			w.Header().Set("Location", "new")
			w.WriteHeader(http.StatusFound)
		case "/feeds/new":
			w.Write([]byte("moved here"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	resp, err := NewHTTPFetcher(nil, DefaultConfig()).Fetch(context.Background(), server.URL+"/feeds/old")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Body != "moved here" {
		t.Errorf("got %d %q", resp.StatusCode, resp.Body)
	}
	if resp.FinalURL != server.URL+"/feeds/new" {
		t.Errorf("FinalURL = %q", resp.FinalURL)
	}
	if resp.Redirects != 1 {
		t.Errorf("Redirects = %d, want 1", resp.Redirects)
	}
}

func TestHTTPFetcher_CrossHostRedirect(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("target"))
	}))
	defer target.Close()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/rss", http.StatusTemporaryRedirect)
	}))
	defer origin.Close()

	resp, err := NewHTTPFetcher(nil, DefaultConfig()).Fetch(context.Background(), origin.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.Body != "target" || resp.FinalURL != target.URL+"/rss" {
		t.Errorf("got %q from %q", resp.Body, resp.FinalURL)
	}
}

func TestHTTPFetcher_RedirectWithoutLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	resp, err := NewHTTPFetcher(nil, DefaultConfig()).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.StatusCode != http.StatusFound || resp.Redirects != 0 {
		t.Errorf("got status %d after %d redirects", resp.StatusCode, resp.Redirects)
	}
}

func TestHTTPFetcher_NonOKIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	resp, err := NewHTTPFetcher(nil, DefaultConfig()).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.OK() || resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	config := DefaultConfig()
	config.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := NewHTTPFetcher(nil, config).Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Fetch() took %v", elapsed)
	}
}

func TestHTTPFetcher_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	config := DefaultConfig()
	config.MaxBodyBytes = 10

	_, err := NewHTTPFetcher(nil, config).Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("error = %v, want ErrBodyTooLarge", err)
	}
}

func TestHTTPFetcher_DecodesCharset(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"content type charset", "text/xml; charset=iso-8859-1", "caf\xe9", "café"},
		{"xml declaration", "application/xml", `<?xml version="1.0" encoding="ISO-8859-1"?><t>caf` + "\xe9" + `</t>`, "<t>café</t>"},
		{"utf-8 untouched", "application/rss+xml", "café", "café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			resp, err := NewHTTPFetcher(nil, DefaultConfig()).Fetch(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if !strings.Contains(resp.Body, tt.want) {
				t.Errorf("Body = %q, want it to contain %q", resp.Body, tt.want)
			}
		})
	}
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	if _, err := NewHTTPFetcher(nil, DefaultConfig()).Fetch(context.Background(), "://missing-scheme"); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestHTTPFetcher_UsesLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(ratelimit.New(80*time.Millisecond), DefaultConfig())
	ctx := context.Background()

	if _, err := f.Fetch(ctx, server.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	start := time.Now()
	if _, err := f.Fetch(ctx, server.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("second fetch to the same host took %v, want it spaced by the limiter", elapsed)
	}
}

func TestStatusError(t *testing.T) {
	var err error = &StatusError{URL: "https://x.example/rss", StatusCode: 503}

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != 503 {
		t.Fatalf("errors.As failed for %v", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("Error() = %q", err.Error())
	}
}
