package models

import (
	"strconv"
	"strings"
	"time"
)

const (
	ProviderRSS  = "rss"
	ProviderDemo = "demo"

	ModeLive = "live"
	ModeDemo = "demo"
)

// DisplayArticle is an article as presented by the news desk.
type DisplayArticle struct {
	ID          string    `json:"id"`
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"datetime"`
	Image       string    `json:"image,omitempty"`
	URL         string    `json:"url"`
	Related     string    `json:"related,omitempty"`
	Sentiment   string    `json:"sentiment,omitempty"`
	Provider    string    `json:"provider"`
}

// CategoryView is the displayed state of one category.
type CategoryView struct {
	Category        string           `json:"category"`
	Label           string           `json:"label"`
	Articles        []DisplayArticle `json:"articles"`
	Live            bool             `json:"live"`
	FeedsAttempted  int              `json:"feedsAttempted"`
	FeedsSuccessful int              `json:"feedsSuccessful"`
	Error           string           `json:"error,omitempty"`
}

// Snapshot is the complete state published by one refresh run.
type Snapshot struct {
	RunID            string         `json:"runId"`
	Categories       []CategoryView `json:"categories"`
	ConnectedSources []string       `json:"connectedSources"`
	FeedsAttempted   int            `json:"feedsAttempted"`
	FeedsSuccessful  int            `json:"feedsSuccessful"`
	Mode             string         `json:"mode"`
	Notice           string         `json:"notice"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// SuccessRatio is FeedsSuccessful/FeedsAttempted, or 0 when nothing was attempted.
func (s Snapshot) SuccessRatio() float64 {
	if s.FeedsAttempted == 0 {
		return 0
	}
	return float64(s.FeedsSuccessful) / float64(s.FeedsAttempted)
}

func (s Snapshot) Category(name string) (CategoryView, bool) {
	for _, c := range s.Categories {
		if c.Category == name {
			return c, true
		}
	}
	return CategoryView{}, false
}

// Clone returns a deep copy so readers cannot mutate published state.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.ConnectedSources = append([]string(nil), s.ConnectedSources...)
	out.Categories = make([]CategoryView, len(s.Categories))
	for i, c := range s.Categories {
		c.Articles = append([]DisplayArticle(nil), c.Articles...)
		out.Categories[i] = c
	}
	return out
}

// ArticleSearch is one category with its articles narrowed by a search term.
type ArticleSearch struct {
	CategoryView
	Query string `json:"query"`
	Shown   int    `json:"shown"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// SnapshotSearch is the same search applied to every category.
type SnapshotSearch struct {
	Query      string          `json:"query"`
	Categories []ArticleSearch `json:"categories"`
	Shown      int             `json:"shown"`
	Total      int             `json:"total"`
	Message    string          `json:"message"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Matches reports whether the headline, summary or source contains q,
// ignoring case. An empty q matches everything.
func (a DisplayArticle) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Headline), q) ||
		strings.Contains(strings.ToLower(a.Summary), q) ||
		strings.Contains(strings.ToLower(a.Source), q)
}

func (v CategoryView) Search(q string) ArticleSearch {
	out := ArticleSearch{
		CategoryView: v,
		Query:        strings.TrimSpace(q),
		Total:        len(v.Articles),
	}
	out.Articles = make([]DisplayArticle, 0, len(v.Articles))
	for _, a := range v.Articles {
		if a.Matches(q) {
			out.Articles = append(out.Articles, a)
		}
	}
	out.Shown = len(out.Articles)
	out.Message = shownMessage(out.Shown, out.Total)
	return out
}

func (s Snapshot) Search(q string) SnapshotSearch {
	out := SnapshotSearch{
		Query:      strings.TrimSpace(q),
		Categories: make([]ArticleSearch, 0, len(s.Categories)),
		UpdatedAt:  s.UpdatedAt,
	}
	for _, c := range s.Categories {
		r := c.Search(q)
		out.Shown += r.Shown
		out.Total += r.Total
		out.Categories = append(out.Categories, r)
	}
	out.Message = shownMessage(out.Shown, out.Total)
	return out
}

func shownMessage(shown, total int) string {
	return strconv.Itoa(shown) + " of " + strconv.Itoa(total) + " articles shown"
}
