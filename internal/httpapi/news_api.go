package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/johnrirwin/marketwire/internal/logging"
	"github.com/johnrirwin/marketwire/internal/models"
	"github.com/johnrirwin/marketwire/internal/orchestrator"
	"github.com/johnrirwin/marketwire/internal/ratelimit"
	"github.com/johnrirwin/marketwire/internal/sources"
)

const (
	DefaultCategory = "general"
	DefaultLimit    = 20

	refreshTimeout = 2 * time.Minute
)

// NewsResponse is the body of a successful /rss-news call.
type NewsResponse struct {
	Status          string                  `json:"status"`
	TotalResults    int                     `json:"totalResults"`
	Articles        []models.NormalizedItem `json:"articles"`
	Sources         []string                `json:"sources"`
	FeedsAttempted  int                     `json:"feedsAttempted"`
	FeedsSuccessful int                     `json:"feedsSuccessful"`
}

// NewsErrorResponse is the body of a failed /rss-news call.
type NewsErrorResponse struct {
	Status          string                  `json:"status"`
	Error           string                  `json:"error"`
	Articles        []models.NormalizedItem `json:"articles"`
	Sources         []string                `json:"sources"`
	FeedsAttempted  int                     `json:"feedsAttempted"`
	FeedsSuccessful int                     `json:"feedsSuccessful"`
}

type NewsAPI struct {
	client   orchestrator.NewsClient
	registry *sources.Registry
	desk     *orchestrator.Orchestrator
	logger   *logging.Logger
}

func NewNewsAPI(client orchestrator.NewsClient, registry *sources.Registry, desk *orchestrator.Orchestrator, logger *logging.Logger) *NewsAPI {
	return &NewsAPI{
		client:   client,
		registry: registry,
		desk:     desk,
		logger:   logger,
	}
}

type corsFunc func(http.HandlerFunc) http.HandlerFunc
type recoverFunc func(http.HandlerFunc, func(http.ResponseWriter, string)) http.HandlerFunc

func (api *NewsAPI) RegisterRoutes(mux *http.ServeMux, cors corsFunc, recoverer recoverFunc) {
	mux.HandleFunc("/rss-news", cors(recoverer(api.handleRSSNews, writeNewsError)))
	mux.HandleFunc("/api/news", cors(recoverer(api.handleGetNews, writeInternalError)))
	mux.HandleFunc("/api/news/refresh", cors(recoverer(api.handleRefresh, writeInternalError)))
	mux.HandleFunc("/api/news/schedule", cors(recoverer(api.handleSchedule, writeInternalError)))
	mux.HandleFunc("/api/feeds", cors(recoverer(api.handleGetFeeds, writeInternalError)))
	mux.HandleFunc("/api/categories", cors(recoverer(api.handleGetCategories, writeInternalError)))
}

func (api *NewsAPI) handleRSSNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	category, limit := parseNewsQuery(r)

	report, err := api.client.Aggregate(r.Context(), category, limit)
	if err != nil {
		api.logger.Error("Failed to aggregate news", logging.WithFields(map[string]interface{}{
			"category": category,
			"limit":    limit,
			"error":    err.Error(),
		}))
		writeNewsError(w, err.Error())
		return
	}

	articles := report.Articles
	if articles == nil {
		articles = []models.NormalizedItem{}
	}
	names := report.Sources
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, NewsResponse{
		Status:          "ok",
		TotalResults:    len(articles),
		Articles:        articles,
		Sources:         names,
		FeedsAttempted:  report.FeedsAttempted,
		FeedsSuccessful: report.FeedsSuccessful,
	})
}

// parseNewsQuery applies the /rss-news defaults. A limit that is not a
// positive integer falls back to DefaultLimit.
func parseNewsQuery(r *http.Request) (string, int) {
	query := r.URL.Query()

	category := query.Get("category")
	if category == "" {
		category = DefaultCategory
	}

	limit := DefaultLimit
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	return category, limit
}

func (api *NewsAPI) handleGetNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if api.desk == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "news desk is not running")
		return
	}

	snap, ok := api.desk.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "first refresh has not completed")
		return
	}

	query := r.URL.Query()
	search, searching := query.Get("q"), query.Has("q")

	if category := query.Get("category"); category != "" {
		view, found := snap.Category(category)
		if !found {
			writeError(w, http.StatusNotFound, "not_found", "unknown category "+category)
			return
		}
		if searching {
			writeJSON(w, http.StatusOK, view.Search(search))
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}

	if searching {
		writeJSON(w, http.StatusOK, snap.Search(search))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (api *NewsAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if api.desk == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "news desk is not running")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	snap, err := api.desk.TriggerRefresh(ctx)
	if errors.Is(err, ratelimit.ErrThrottled) {
		writeError(w, http.StatusTooManyRequests, "throttled", "refresh requested too recently")
		return
	}
	if err != nil {
		api.logger.Error("Failed to refresh news", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "refresh_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// ScheduleResponse is the automatic refresh setting of the news desk.
type ScheduleResponse struct {
	AutoRefresh     bool   `json:"autoRefresh"`
	IntervalMinutes int    `json:"intervalMinutes"`
	Interval        string `json:"interval"`
}

// ScheduleRequest changes the schedule. Omitted fields keep their value.
type ScheduleRequest struct {
	AutoRefresh     *bool `json:"autoRefresh"`
	IntervalMinutes *int  `json:"intervalMinutes"`
}

func newScheduleResponse(s orchestrator.Schedule) ScheduleResponse {
	return ScheduleResponse{
		AutoRefresh:     s.AutoRefresh,
		IntervalMinutes: int(s.Interval / time.Minute),
		Interval:        s.Interval.String(),
	}
}

func (api *NewsAPI) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if api.desk == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "news desk is not running")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, newScheduleResponse(api.desk.Schedule()))
	case http.MethodPut:
		var req ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}

		current := api.desk.Schedule()
		enabled := current.AutoRefresh
		if req.AutoRefresh != nil {
			enabled = *req.AutoRefresh
		}
		var interval time.Duration
		if req.IntervalMinutes != nil {
			if *req.IntervalMinutes <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_request", "intervalMinutes must be positive")
				return
			}
			interval = time.Duration(*req.IntervalMinutes) * time.Minute
		}

		writeJSON(w, http.StatusOK, newScheduleResponse(api.desk.SetSchedule(interval, enabled)))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *NewsAPI) handleGetFeeds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var feeds []models.FeedSource
	if category := r.URL.Query().Get("category"); category != "" {
		feeds = api.registry.ForCategory(category)
	} else {
		feeds = api.registry.All()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"count": len(feeds),
	})
}

func (api *NewsAPI) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type categoryInfo struct {
		Name  string `json:"name"`
		Feeds int    `json:"feeds"`
	}

	names := api.registry.Categories()
	out := make([]categoryInfo, 0, len(names))
	for _, name := range names {
		out = append(out, categoryInfo{Name: name, Feeds: len(api.registry.ForCategory(name))})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": out,
		"count":      len(out),
	})
}

func writeNewsError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, NewsErrorResponse{
		Status:   "error",
		Error:    message,
		Articles: []models.NormalizedItem{},
		Sources:  []string{},
	})
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, "internal_error", message)
}
