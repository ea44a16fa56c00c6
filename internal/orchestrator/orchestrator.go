// Package orchestrator keeps the news desk snapshot current by refreshing
// every category on a schedule and on demand.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/johnrirwin/marketwire/internal/cache"
	"github.com/johnrirwin/marketwire/internal/logging"
	"github.com/johnrirwin/marketwire/internal/metrics"
	"github.com/johnrirwin/marketwire/internal/models"
	"github.com/johnrirwin/marketwire/internal/ratelimit"
)

const (
	DefaultLimit         = 40
	DefaultCategoryDelay = 300 * time.Millisecond
	DefaultInterval      = 30 * time.Minute
	MinInterval          = 15 * time.Minute
	MaxInterval          = 120 * time.Minute

	TriggerStartup   = "startup"
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"

	snapshotKey = "snapshot"
	snapshotTTL = 36 * time.Hour
	throttleKey = "news"

	demoNotice = "Showing demo data. RSS feeds may be temporarily unavailable."
)

// DefaultCategories is the fixed display order of the news desk.
var DefaultCategories = []string{"general", "company", "crypto", "forex", "technology", "business"}

// NewsClient produces the aggregation report for one category.
type NewsClient interface {
	Aggregate(ctx context.Context, category string, limit int) (models.AggregationReport, error)
}

// Invalidator is implemented by clients that cache reports.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Config struct {
	Categories    []string
	Limit         int
	CategoryDelay time.Duration
	Interval      time.Duration
	AutoRefresh   bool

	// Throttle limits manual refreshes. Nil disables throttling.
	Throttle ratelimit.RateLimiter
	Now      func() time.Time
}

// ClampInterval bounds d to [MinInterval, MaxInterval]; zero means DefaultInterval.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultInterval
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	}
	return d
}

// Schedule is the automatic refresh setting, changeable while Run is active.
type Schedule struct {
	Interval    time.Duration
	AutoRefresh bool
}

type Orchestrator struct {
	client NewsClient
	cache  cache.Cache
	logger *logging.Logger
	cfg    Config

	mu       sync.RWMutex
	snapshot models.Snapshot
	ready    bool
	schedule Schedule

	rescheduled chan struct{}
}

// New builds an orchestrator. c may be nil to disable snapshot persistence.
func New(client NewsClient, c cache.Cache, logger *logging.Logger, cfg Config) *Orchestrator {
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.CategoryDelay < 0 {
		cfg.CategoryDelay = 0
	}
	cfg.Interval = ClampInterval(cfg.Interval)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Orchestrator{
		client:      client,
		cache:       c,
		logger:      logger,
		cfg:         cfg,
		schedule:    Schedule{Interval: cfg.Interval, AutoRefresh: cfg.AutoRefresh},
		rescheduled: make(chan struct{}, 1),
	}
}

// Config returns the configuration with the current schedule applied.
func (o *Orchestrator) Config() Config {
	cfg := o.cfg
	sched := o.Schedule()
	cfg.Interval = sched.Interval
	cfg.AutoRefresh = sched.AutoRefresh
	return cfg
}

func (o *Orchestrator) Schedule() Schedule {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.schedule
}

// SetSchedule changes the refresh interval and switches automatic refresh
// on or off. A zero interval keeps the current one; others are clamped. A
// running Run loop restarts its ticker from now.
func (o *Orchestrator) SetSchedule(interval time.Duration, autoRefresh bool) Schedule {
	sched := Schedule{AutoRefresh: autoRefresh}
	if interval == 0 {
		sched.Interval = o.Schedule().Interval
	} else {
		sched.Interval = ClampInterval(interval)
	}
	o.setSchedule(sched)

	o.logger.Info("Refresh schedule changed", logging.WithFields(map[string]interface{}{
		"interval":     sched.Interval.String(),
		"auto_refresh": sched.AutoRefresh,
	}))
	return sched
}

func (o *Orchestrator) setSchedule(sched Schedule) {
	o.mu.Lock()
	o.schedule = sched
	o.mu.Unlock()

	select {
	case o.rescheduled <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the last published snapshot and whether one exists.
func (o *Orchestrator) Snapshot() (models.Snapshot, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.ready {
		return models.Snapshot{}, false
	}
	return o.snapshot.Clone(), true
}

// Load restores the persisted snapshot, unless one was already published.
func (o *Orchestrator) Load(ctx context.Context) bool {
	var snap models.Snapshot
	if !cache.GetJSON(ctx, o.cache, snapshotKey, &snap) {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ready {
		return false
	}
	o.snapshot = snap
	o.ready = true

	o.logger.Info("Restored news snapshot", logging.WithFields(map[string]interface{}{
		"run_id":     snap.RunID,
		"updated_at": snap.UpdatedAt,
	}))
	return true
}

// Run loads the persisted snapshot, refreshes once and then refreshes on
// every interval while AutoRefresh is set. It returns when ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.Load(ctx)

	if _, err := o.refresh(ctx, TriggerStartup); err != nil && ctx.Err() == nil {
		o.logger.Error("Initial refresh failed", logging.WithField("error", err.Error()))
	}

	for {
		if !o.runSchedule(ctx, o.Schedule()) {
			return nil
		}
	}
}

// runSchedule refreshes on sched until the schedule changes (true) or ctx is
// done (false).
func (o *Orchestrator) runSchedule(ctx context.Context, sched Schedule) bool {
	var tick <-chan time.Time
	if sched.AutoRefresh {
		ticker := time.NewTicker(sched.Interval)
		defer ticker.Stop()
		tick = ticker.C
		o.logger.Info("Auto refresh enabled", logging.WithField("interval", sched.Interval.String()))
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-o.rescheduled:
			return true
		case <-tick:
			if _, err := o.refresh(ctx, TriggerScheduled); err != nil && ctx.Err() == nil {
				o.logger.Error("Scheduled refresh failed", logging.WithField("error", err.Error()))
			}
		}
	}
}

// Refresh rebuilds the snapshot from every category.
func (o *Orchestrator) Refresh(ctx context.Context) (models.Snapshot, error) {
	return o.refresh(ctx, TriggerManual)
}

// TriggerRefresh is a user-requested refresh. It drops cached reports so the
// feeds are fetched again and returns ratelimit.ErrThrottled when called too
// often.
func (o *Orchestrator) TriggerRefresh(ctx context.Context) (models.Snapshot, error) {
	if o.cfg.Throttle != nil {
		if err := o.cfg.Throttle.Acquire(ctx, throttleKey); err != nil {
			return models.Snapshot{}, err
		}
	}

	if inv, ok := o.client.(Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			o.logger.Warn("Failed to invalidate cached reports", logging.WithField("error", err.Error()))
		}
	}

	return o.refresh(ctx, TriggerManual)
}

func (o *Orchestrator) refresh(ctx context.Context, trigger string) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, fmt.Errorf("refresh not started: %w", err)
	}

	runID := uuid.NewString()
	start := o.cfg.Now()
	title := cases.Title(language.English)

	o.logger.Debug("Refreshing news", logging.WithFields(map[string]interface{}{
		"run_id":  runID,
		"trigger": trigger,
	}))

	snap := models.Snapshot{
		RunID:            runID,
		Categories:       make([]models.CategoryView, 0, len(o.cfg.Categories)),
		ConnectedSources: []string{},
	}
	seenSources := make(map[string]bool)
	live := 0

	for i, category := range o.cfg.Categories {
		if i > 0 && o.cfg.CategoryDelay > 0 {
			if err := sleep(ctx, o.cfg.CategoryDelay); err != nil {
				return models.Snapshot{}, fmt.Errorf("refresh interrupted: %w", err)
			}
		}

		view := models.CategoryView{
			Category: category,
			Label:    title.String(category),
		}

		report, err := o.client.Aggregate(ctx, category, o.cfg.Limit)
		if err != nil {
			o.logger.Warn("Failed to refresh category", logging.WithFields(map[string]interface{}{
				"category": category,
				"error":    err.Error(),
			}))
			view.Error = err.Error()
		} else {
			view.FeedsAttempted = report.FeedsAttempted
			view.FeedsSuccessful = report.FeedsSuccessful
			snap.FeedsAttempted += report.FeedsAttempted
			snap.FeedsSuccessful += report.FeedsSuccessful
		}

		if err == nil && len(report.Articles) > 0 {
			view.Live = true
			view.Articles = displayArticles(report.Articles, view.Label)
			live++
			for _, name := range report.Sources {
				if !seenSources[name] {
					seenSources[name] = true
					snap.ConnectedSources = append(snap.ConnectedSources, name)
				}
			}
		} else {
			view.Articles = demoArticles(category, start)
		}

		snap.Categories = append(snap.Categories, view)
	}

	snap.UpdatedAt = o.cfg.Now()
	if live > 0 {
		snap.Mode = models.ModeLive
		snap.Notice = fmt.Sprintf("News updated! %d sources active (%d/%d feeds working)",
			len(snap.ConnectedSources), snap.FeedsSuccessful, snap.FeedsAttempted)
	} else {
		snap.Mode = models.ModeDemo
		snap.Notice = demoNotice
	}

	o.publish(snap)
	metrics.RecordRefresh(trigger, snap.Mode, snap.SuccessRatio())

	o.logger.Info("News refreshed", logging.WithFields(map[string]interface{}{
		"run_id":     runID,
		"trigger":    trigger,
		"mode":       snap.Mode,
		"sources":    len(snap.ConnectedSources),
		"feeds":      snap.FeedsAttempted,
		"successful": snap.FeedsSuccessful,
		"duration":   time.Since(start).String(),
	}))

	if err := cache.SetJSON(ctx, o.cache, snapshotKey, snap, snapshotTTL); err != nil {
		o.logger.Warn("Failed to persist snapshot", logging.WithField("error", err.Error()))
	}

	return snap.Clone(), nil
}

func (o *Orchestrator) publish(snap models.Snapshot) {
	o.mu.Lock()
	o.snapshot = snap
	o.ready = true
	o.mu.Unlock()
}

func displayArticles(items []models.NormalizedItem, label string) []models.DisplayArticle {
	out := make([]models.DisplayArticle, 0, len(items))
	for _, it := range items {
		out = append(out, models.DisplayArticle{
			ID:          uuid.NewString(),
			Headline:    it.Title,
			Summary:     it.Description,
			Source:      it.SourceName,
			Category:    label,
			PublishedAt: it.PublishedAt,
			Image:       it.Image,
			URL:         it.Link,
			Sentiment:   "neutral",
			Provider:    models.ProviderRSS,
		})
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
