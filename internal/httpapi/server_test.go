package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/johnrirwin/marketwire/internal/logging"
	"github.com/johnrirwin/marketwire/internal/models"
	"github.com/johnrirwin/marketwire/internal/orchestrator"
	"github.com/johnrirwin/marketwire/internal/ratelimit"
	"github.com/johnrirwin/marketwire/internal/sources"
	"github.com/johnrirwin/marketwire/internal/testutil"
)

var published = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type stubClient struct {
	mu       sync.Mutex
	report   models.AggregationReport
	err      error
	panic    bool
	category string
	limit    int
}

func (s *stubClient) Aggregate(_ context.Context, category string, limit int) (models.AggregationReport, error) {
	s.mu.Lock()
	s.category = category
	s.limit = limit
	s.mu.Unlock()

	if s.panic {
		panic("aggregation exploded")
	}
	if s.err != nil {
		return models.AggregationReport{}, s.err
	}
	return s.report, nil
}

func (s *stubClient) lastCall() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category, s.limit
}

func cryptoReport() models.AggregationReport {
	return models.AggregationReport{
		Category: "crypto",
		Articles: []models.NormalizedItem{
			{
				Title:       "Bitcoin steadies",
				Description: "Markets calm after a volatile week of trading.",
				Link:        "https://x.example/1",
				PublishedAt: published,
				SourceName:  "X",
				Category:    "crypto",
			},
		},
		Sources:         []string{"X"},
		FeedsAttempted:  2,
		FeedsSuccessful: 1,
	}
}

func newTestServer(t *testing.T, client orchestrator.NewsClient, desk *orchestrator.Orchestrator) http.Handler {
	t.Helper()
	registry, err := sources.NewRegistry(sources.DefaultFeeds())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return New(client, registry, desk, testutil.NullLogger()).Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRSSNews_OK(t *testing.T) {
	client := &stubClient{report: cryptoReport()}
	h := newTestServer(t, client, nil)

	w := get(t, h, "/rss-news?category=crypto&limit=10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["totalResults"] != float64(1) {
		t.Errorf("status/totalResults = %v / %v", body["status"], body["totalResults"])
	}
	if body["feedsAttempted"] != float64(2) || body["feedsSuccessful"] != float64(1) {
		t.Errorf("feeds = %v / %v", body["feedsSuccessful"], body["feedsAttempted"])
	}

	articles := body["articles"].([]interface{})
	first := articles[0].(map[string]interface{})
	if first["pubDate"] != "2024-03-01T09:30:00Z" {
		t.Errorf("pubDate = %v", first["pubDate"])
	}
	if first["source"] != "X" || first["link"] != "https://x.example/1" {
		t.Errorf("article = %v", first)
	}
	if _, ok := first["image"]; ok {
		t.Error("empty image should be omitted")
	}

	if category, limit := client.lastCall(); category != "crypto" || limit != 10 {
		t.Errorf("Aggregate(%q, %d), want crypto/10", category, limit)
	}
}

func TestRSSNews_QueryDefaults(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantCategory string
		wantLimit    int
	}{
		{"no params", "", "general", 20},
		{"category only", "?category=forex", "forex", 20},
		{"explicit limit", "?limit=7", "general", 7},
		{"non numeric limit", "?limit=abc", "general", 20},
		{"zero limit", "?limit=0", "general", 20},
		{"negative limit", "?limit=-5", "general", 20},
		{"empty category", "?category=&limit=3", "general", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{}
			h := newTestServer(t, client, nil)

			if w := get(t, h, "/rss-news"+tt.query); w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			category, limit := client.lastCall()
			if category != tt.wantCategory || limit != tt.wantLimit {
				t.Errorf("Aggregate(%q, %d), want %q/%d", category, limit, tt.wantCategory, tt.wantLimit)
			}
		})
	}
}

func TestRSSNews_EmptyReportUsesArrays(t *testing.T) {
	h := newTestServer(t, &stubClient{}, nil)

	w := get(t, h, "/rss-news?category=nothing")
	body := w.Body.String()
	for _, want := range []string{`"articles":[]`, `"sources":[]`, `"totalResults":0`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
}

func TestRSSNews_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		client *stubClient
		want   string
	}{
		{"aggregate error", &stubClient{err: errors.New("limit must be a positive integer")}, "limit must be a positive integer"},
		{"panic", &stubClient{panic: true}, "aggregation exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.client, nil)

			w := get(t, h, "/rss-news")
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}

			var body NewsErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != "error" || body.Error != tt.want {
				t.Errorf("envelope = %+v", body)
			}
			if body.Articles == nil || body.Sources == nil || body.FeedsAttempted != 0 || body.FeedsSuccessful != 0 {
				t.Errorf("envelope should carry empty results, got %+v", body)
			}
		})
	}
}

func TestRSSNews_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t, &stubClient{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/rss-news", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func newDesk(client orchestrator.NewsClient, throttle ratelimit.RateLimiter) *orchestrator.Orchestrator {
	return orchestrator.New(client, nil, testutil.NullLogger(), orchestrator.Config{Throttle: throttle})
}

func TestGetNews(t *testing.T) {
	client := &stubClient{report: cryptoReport()}
	desk := newDesk(client, nil)
	h := newTestServer(t, client, desk)

	if w := get(t, h, "/api/news"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("before refresh status = %d, want 503", w.Code)
	}

	if _, err := desk.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	w := get(t, h, "/api/news")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var snap models.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Categories) != 6 || snap.Mode != models.ModeLive {
		t.Errorf("snapshot = %d categories, mode %q", len(snap.Categories), snap.Mode)
	}

	w = get(t, h, "/api/news?category=forex")
	var view models.CategoryView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Category != "forex" || view.Label != "Forex" {
		t.Errorf("view = %+v", view)
	}

	if w := get(t, h, "/api/news?category=sports"); w.Code != http.StatusNotFound {
		t.Errorf("unknown category status = %d, want 404", w.Code)
	}
}

func TestGetNews_Search(t *testing.T) {
	client := &stubClient{report: cryptoReport()}
	desk := newDesk(client, nil)
	h := newTestServer(t, client, desk)
	if _, err := desk.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	tests := []struct {
		name      string
		target    string
		wantShown int
		wantTotal int
	}{
		{"headline ignores case", "/api/news?category=crypto&q=BITCOIN", 1, 1},
		{"summary", "/api/news?category=crypto&q=volatile", 1, 1},
		{"source", "/api/news?category=crypto&q=x", 1, 1},
		{"no match", "/api/news?category=crypto&q=dogecoin", 0, 1},
		{"empty query keeps all", "/api/news?category=crypto&q=", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.target)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			var body models.ArticleSearch
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Shown != tt.wantShown || body.Total != tt.wantTotal || len(body.Articles) != tt.wantShown {
				t.Errorf("shown %d of %d (%d articles), want %d of %d",
					body.Shown, body.Total, len(body.Articles), tt.wantShown, tt.wantTotal)
			}
			if body.Category != "crypto" || body.Articles == nil {
				t.Errorf("body = %+v", body)
			}
		})
	}

	w := get(t, h, "/api/news?q=steadies")
	var all models.SnapshotSearch
	if err := json.NewDecoder(w.Body).Decode(&all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all.Categories) != 6 || all.Shown != 6 || all.Message != "6 of 6 articles shown" {
		t.Errorf("desk search = %d categories, %q", len(all.Categories), all.Message)
	}
}

func TestGetNews_NoDesk(t *testing.T) {
	h := newTestServer(t, &stubClient{}, nil)
	if w := get(t, h, "/api/news"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestRefresh(t *testing.T) {
	client := &stubClient{report: cryptoReport()}
	h := newTestServer(t, client, newDesk(client, ratelimit.New(time.Minute)))

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/news/refresh", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	if w := post(); w.Code != http.StatusOK {
		t.Fatalf("first refresh status = %d, want 200", w.Code)
	}
	if w := post(); w.Code != http.StatusTooManyRequests {
		t.Errorf("second refresh status = %d, want 429", w.Code)
	}
	if w := get(t, h, "/api/news/refresh"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET refresh status = %d, want 405", w.Code)
	}
}

func TestSchedule(t *testing.T) {
	client := &stubClient{report: cryptoReport()}
	h := newTestServer(t, client, orchestrator.New(client, nil, testutil.NullLogger(), orchestrator.Config{AutoRefresh: true}))

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/news/schedule", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}
	decode := func(w *httptest.ResponseRecorder) ScheduleResponse {
		t.Helper()
		var got ScheduleResponse
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return got
	}

	if got := decode(get(t, h, "/api/news/schedule")); got.IntervalMinutes != 30 || !got.AutoRefresh {
		t.Errorf("initial schedule = %+v", got)
	}

	tests := []struct {
		name string
		body string
		want ScheduleResponse
	}{
		{"interval", `{"intervalMinutes": 45}`, ScheduleResponse{true, 45, "45m0s"}},
		{"switch off keeps interval", `{"autoRefresh": false}`, ScheduleResponse{false, 45, "45m0s"}},
		{"clamped", `{"autoRefresh": true, "intervalMinutes": 5}`, ScheduleResponse{true, 15, "15m0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := put(tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			if got := decode(w); got != tt.want {
				t.Errorf("schedule = %+v, want %+v", got, tt.want)
			}
		})
	}

	for _, body := range []string{`{"intervalMinutes": 0}`, `{"intervalMinutes": -5}`, `not json`} {
		if w := put(body); w.Code != http.StatusBadRequest {
			t.Errorf("PUT %s status = %d, want 400", body, w.Code)
		}
	}
	req := httptest.NewRequest(http.MethodDelete, "/api/news/schedule", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d, want 405", w.Code)
	}
}

func TestSchedule_NoDesk(t *testing.T) {
	h := newTestServer(t, &stubClient{}, nil)
	if w := get(t, h, "/api/news/schedule"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestGetFeeds(t *testing.T) {
	h := newTestServer(t, &stubClient{}, nil)

	tests := []struct {
		query string
		want  int
	}{
		{"", 52},
		{"?category=forex", 8},
		{"?category=crypto", 10},
		{"?category=Forex", 0},
	}
	for _, tt := range tests {
		w := get(t, h, "/api/feeds"+tt.query)
		var body struct {
			Feeds []models.FeedSource `json:"feeds"`
			Count int                 `json:"count"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Count != tt.want || len(body.Feeds) != tt.want {
			t.Errorf("/api/feeds%s count = %d (%d feeds), want %d", tt.query, body.Count, len(body.Feeds), tt.want)
		}
	}
}

func TestGetCategories(t *testing.T) {
	h := newTestServer(t, &stubClient{}, nil)

	w := get(t, h, "/api/categories")
	var body struct {
		Categories []struct {
			Name  string `json:"name"`
			Feeds int    `json:"feeds"`
		} `json:"categories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	got := make(map[string]int)
	for _, c := range body.Categories {
		got[c.Name] = c.Feeds
	}
	if got["business"] != 15 || got["company"] != 12 || len(got) != 6 {
		t.Errorf("categories = %v", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t, &stubClient{}, nil)

	if w := get(t, h, "/health"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("/health = %d %s", w.Code, w.Body.String())
	}
	if w := get(t, h, "/metrics"); w.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", w.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	logger := logging.New(logging.LevelError)
	s := &Server{logger: logger}

	handler := s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/rss-news", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Header().Get("Access-Control-Allow-Origin") == "" {
			t.Error("Missing Access-Control-Allow-Origin header")
		}
	})

	t.Run("GET request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rss-news", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}
	})
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusTooManyRequests, "throttled", "slow down")

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "throttled" || body["message"] != "slow down" {
		t.Errorf("body = %v", body)
	}
}
