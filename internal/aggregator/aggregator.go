// Package aggregator fans out over the feeds of a category and merges their
// items into a single date-ordered report.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/johnrirwin/marketwire/internal/cache"
	"github.com/johnrirwin/marketwire/internal/feedparse"
	"github.com/johnrirwin/marketwire/internal/logging"
	"github.com/johnrirwin/marketwire/internal/metrics"
	"github.com/johnrirwin/marketwire/internal/models"
	"github.com/johnrirwin/marketwire/internal/sources"
)

const (
	DefaultMaxConcurrency = 0
	DefaultCacheTTL       = 5 * time.Minute

	reportCachePrefix = "report:"
)

var (
	ErrInvalidLimit         = errors.New("limit must be a positive integer")
	ErrAggregationCancelled = errors.New("aggregation cancelled")
)

type Option func(*Aggregator)

// WithCacheTTL sets how long reports stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(a *Aggregator) {
		if ttl > 0 {
			a.cacheTTL = ttl
		}
	}
}

// WithMaxConcurrency bounds the number of feeds fetched at once. Zero, the
// default, starts every feed of a category together.
func WithMaxConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxConcurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

type Aggregator struct {
	registry       *sources.Registry
	fetcher        sources.Fetcher
	parser         feedparse.Parser
	cache          cache.Cache
	cacheTTL       time.Duration
	logger         *logging.Logger
	maxConcurrency int
	now            func() time.Time
}

// New builds an aggregator. c may be nil to disable report caching.
func New(registry *sources.Registry, fetcher sources.Fetcher, parser feedparse.Parser, c cache.Cache, logger *logging.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry:       registry,
		fetcher:        fetcher,
		parser:         parser,
		cache:          c,
		cacheTTL:       DefaultCacheTTL,
		logger:         logger,
		maxConcurrency: DefaultMaxConcurrency,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) Registry() *sources.Registry {
	return a.registry
}

// Aggregate fetches every feed tagged with category and returns the newest
// limit items. Individual feed failures only lower FeedsSuccessful; the
// error return is reserved for an invalid limit or a context that is already
// done. An unknown category yields an empty report.
func (a *Aggregator) Aggregate(ctx context.Context, category string, limit int) (models.AggregationReport, error) {
	if limit <= 0 {
		return models.AggregationReport{}, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if err := ctx.Err(); err != nil {
		return models.AggregationReport{}, fmt.Errorf("%w: %v", ErrAggregationCancelled, err)
	}

	key := reportKey(category, limit)
	var cached models.AggregationReport
	if cache.GetJSON(ctx, a.cache, key, &cached) {
		metrics.RecordAggregation(category, true, len(cached.Articles))
		a.logger.Debug("Serving cached report", logging.WithFields(map[string]interface{}{
			"category": category,
			"limit":    limit,
		}))
		return cached, nil
	}

	feeds := a.registry.ForCategory(category)
	results := a.FetchAll(ctx, feeds)
	report := buildReport(category, results, limit, a.now())

	a.logger.Info("Aggregation complete", logging.WithFields(map[string]interface{}{
		"category":   category,
		"feeds":      report.FeedsAttempted,
		"successful": report.FeedsSuccessful,
		"articles":   len(report.Articles),
	}))
	metrics.RecordAggregation(category, false, len(report.Articles))

	if report.FeedsSuccessful > 0 && ctx.Err() == nil {
		if err := cache.SetJSON(ctx, a.cache, key, report, a.cacheTTL); err != nil {
			a.logger.Warn("Failed to cache report", logging.WithFields(map[string]interface{}{
				"category": category,
				"error":    err.Error(),
			}))
		}
	}

	return report, nil
}

// Invalidate drops every cached report.
func (a *Aggregator) Invalidate(ctx context.Context) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.DeletePrefix(ctx, reportCachePrefix)
}

// FetchAll fetches and parses feeds concurrently. The result slice is index
// aligned with feeds and every slot is filled, whatever happens to the feed.
func (a *Aggregator) FetchAll(ctx context.Context, feeds []models.FeedSource) []models.FeedResult {
	results := make([]models.FeedResult, len(feeds))

	var g errgroup.Group
	if a.maxConcurrency > 0 {
		g.SetLimit(a.maxConcurrency)
	}
	for i, feed := range feeds {
		g.Go(func() error {
			results[i] = a.fetchFeed(ctx, feed)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (a *Aggregator) fetchFeed(ctx context.Context, feed models.FeedSource) (result models.FeedResult) {
	start := time.Now()
	result.Feed = feed
	outcome := metrics.OutcomeOK

	defer func() {
		if r := recover(); r != nil {
			result.Items = nil
			result.Err = fmt.Errorf("panic while processing %s: %v", feed.URL, r)
			outcome = metrics.OutcomePanic
		}
		result.Duration = time.Since(start)
		if result.Err != nil {
			a.logger.Warn("Failed to fetch feed", logging.WithFields(map[string]interface{}{
				"source": feed.SourceName,
				"url":    feed.URL,
				"error":  result.Err.Error(),
			}))
		} else if len(result.Items) == 0 {
			outcome = metrics.OutcomeEmpty
		}
		metrics.RecordFeedFetch(feed.SourceName, outcome, result.Duration)
	}()

	resp, err := a.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		result.Err = err
		outcome = metrics.OutcomeFetchError
		return result
	}
	if !resp.OK() {
		result.Err = &sources.StatusError{URL: feed.URL, StatusCode: resp.StatusCode}
		outcome = metrics.OutcomeHTTPError
		return result
	}

	items, err := a.parser.Parse(resp.Body, feed.SourceName)
	if err != nil {
		result.Err = fmt.Errorf("parse %s: %w", feed.URL, err)
		outcome = metrics.OutcomeParseError
		return result
	}

	// Items carry the feed's first category, not the one being aggregated.
	category := feed.PrimaryCategory()
	for i := range items {
		items[i].Category = category
	}
	result.Items = items

	a.logger.Debug("Fetched feed", logging.WithFields(map[string]interface{}{
		"source": feed.SourceName,
		"count":  len(items),
	}))
	return result
}

// buildReport merges results in order, sorts newest first and truncates.
// Sources are taken before truncation.
func buildReport(category string, results []models.FeedResult, limit int, fetchedAt time.Time) models.AggregationReport {
	var merged []models.NormalizedItem
	successful := 0
	for _, r := range results {
		if r.Successful() {
			successful++
		}
		merged = append(merged, r.Items...)
	}

	sortByDate(merged)

	names := make([]string, 0)
	seen := make(map[string]bool)
	for _, it := range merged {
		if !seen[it.SourceName] {
			seen[it.SourceName] = true
			names = append(names, it.SourceName)
		}
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}
	if merged == nil {
		merged = []models.NormalizedItem{}
	}

	return models.AggregationReport{
		Category:        category,
		Articles:        merged,
		Sources:         names,
		FeedsAttempted:  len(results),
		FeedsSuccessful: successful,
		FetchedAt:       fetchedAt,
	}
}

func sortByDate(items []models.NormalizedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}

func reportKey(category string, limit int) string {
	return fmt.Sprintf("%s%s:%d", reportCachePrefix, category, limit)
}
