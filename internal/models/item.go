package models

import (
	"encoding/json"
	"time"
)

// NormalizedItem is one article produced by the feed pipeline.
type NormalizedItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"pubDate"`
	SourceName  string    `json:"source"`
	Category    string    `json:"category"`
	Image       string    `json:"image,omitempty"`
}

// MarshalJSON renders pubDate as an RFC 3339 UTC timestamp.
func (n NormalizedItem) MarshalJSON() ([]byte, error) {
	type alias NormalizedItem
	return json.Marshal(struct {
		alias
		PublishedAt string `json:"pubDate"`
	}{
		alias:       alias(n),
		PublishedAt: n.PublishedAt.UTC().Format(time.RFC3339),
	})
}

// AggregationReport is the result of one aggregation run for a category.
type AggregationReport struct {
	Category        string           `json:"category"`
	Articles        []NormalizedItem `json:"articles"`
	Sources         []string         `json:"sources"`
	FeedsAttempted  int              `json:"feedsAttempted"`
	FeedsSuccessful int              `json:"feedsSuccessful"`
	FetchedAt       time.Time        `json:"fetchedAt"`
}

// FeedResult is the settled outcome of fetching and parsing a single feed.
// Err is nil for a feed that fetched and parsed, even when it produced no items.
type FeedResult struct {
	Feed     FeedSource
	Items    []NormalizedItem
	Err      error
	Duration time.Duration
}

func (r FeedResult) OK() bool {
	return r.Err == nil
}

// Successful reports whether the feed contributed at least one item.
func (r FeedResult) Successful() bool {
	return len(r.Items) > 0
}
