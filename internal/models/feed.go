package models

import (
	"errors"
	"fmt"
	"strings"
)

// FeedSource is a registered feed endpoint. Categories is ordered; the first
// entry is the label stamped on every item fetched from the feed.
type FeedSource struct {
	URL        string   `json:"url" yaml:"url"`
	SourceName string   `json:"source" yaml:"source"`
	Categories []string `json:"category" yaml:"category"`
}

func (f FeedSource) PrimaryCategory() string {
	if len(f.Categories) == 0 {
		return ""
	}
	return f.Categories[0]
}

func (f FeedSource) HasCategory(category string) bool {
	for _, c := range f.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func (f FeedSource) Validate() error {
	if strings.TrimSpace(f.URL) == "" {
		return errors.New("feed url is required")
	}
	if strings.TrimSpace(f.SourceName) == "" {
		return fmt.Errorf("feed %s: source name is required", f.URL)
	}
	if len(f.Categories) == 0 {
		return fmt.Errorf("feed %s: at least one category is required", f.URL)
	}
	for _, c := range f.Categories {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("feed %s: empty category", f.URL)
		}
	}
	return nil
}
