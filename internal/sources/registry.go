package sources

import (
	"fmt"
	"sort"

	"github.com/johnrirwin/marketwire/internal/models"
)

// Registry is the immutable set of configured feeds.
type Registry struct {
	feeds      []models.FeedSource
	byCategory map[string][]int
}

// NewRegistry validates and copies feeds. Entries sharing a URL are kept as
// separate feeds.
func NewRegistry(feeds []models.FeedSource) (*Registry, error) {
	r := &Registry{
		feeds:      make([]models.FeedSource, 0, len(feeds)),
		byCategory: make(map[string][]int),
	}
	for i, f := range feeds {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("feed %d: %w", i, err)
		}
		f.Categories = append([]string(nil), f.Categories...)
		idx := len(r.feeds)
		r.feeds = append(r.feeds, f)

		seen := make(map[string]bool, len(f.Categories))
		for _, c := range f.Categories {
			if seen[c] {
				continue
			}
			seen[c] = true
			r.byCategory[c] = append(r.byCategory[c], idx)
		}
	}
	return r, nil
}

// ForCategory returns the feeds tagged with category, in registration order.
// Matching is exact and case-sensitive.
func (r *Registry) ForCategory(category string) []models.FeedSource {
	idx := r.byCategory[category]
	out := make([]models.FeedSource, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.copyFeed(i))
	}
	return out
}

// Categories returns every category tag in use, sorted.
func (r *Registry) Categories() []string {
	out := make([]string, 0, len(r.byCategory))
	for c := range r.byCategory {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) All() []models.FeedSource {
	out := make([]models.FeedSource, 0, len(r.feeds))
	for i := range r.feeds {
		out = append(out, r.copyFeed(i))
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.feeds)
}

func (r *Registry) copyFeed(i int) models.FeedSource {
	f := r.feeds[i]
	f.Categories = append([]string(nil), f.Categories...)
	return f
}
