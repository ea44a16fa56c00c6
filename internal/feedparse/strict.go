package feedparse

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/johnrirwin/marketwire/internal/models"
)

// StrictParser uses gofeed for documents that are valid XML. It applies the
// same cap, sanitization and drop rules as TolerantParser, but rejects
// documents gofeed cannot read.
type StrictParser struct {
	MaxItems int
	Now      func() time.Time
}

func NewStrictParser() *StrictParser {
	return &StrictParser{MaxItems: DefaultMaxItems, Now: time.Now}
}

func (p *StrictParser) Parse(doc string, sourceName string) ([]models.NormalizedItem, error) {
	feed, err := gofeed.NewParser().ParseString(doc)
	if err != nil {
		return nil, fmt.Errorf("parse feed from %s: %w", sourceName, err)
	}

	max := p.MaxItems
	if max <= 0 {
		max = DefaultMaxItems
	}

	items := make([]models.NormalizedItem, 0, max)
	for i, it := range feed.Items {
		if i >= max {
			break
		}
		if it == nil {
			continue
		}

		title := Sanitize(it.Title)
		link := it.Link
		if link == "" {
			link = it.GUID
		}
		link = Sanitize(link)
		if title == "" || link == "" {
			continue
		}

		description := it.Description
		if runeLen(description) < minDescriptionLength && it.Content != "" {
			description = it.Content
		}

		items = append(items, models.NormalizedItem{
			Title:       title,
			Description: chooseDescription(Sanitize(description), title),
			Link:        link,
			PublishedAt: p.publishedAt(it),
			SourceName:  sourceName,
			Image:       Sanitize(itemImage(it)),
		})
	}
	return items, nil
}

func (p *StrictParser) publishedAt(it *gofeed.Item) time.Time {
	switch {
	case it.PublishedParsed != nil:
		return *it.PublishedParsed
	case it.UpdatedParsed != nil:
		return *it.UpdatedParsed
	}
	if t, ok := ParseDate(it.Published); ok {
		return t
	}
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func itemImage(it *gofeed.Item) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && enc.URL != "" && (enc.Type == "" || strings.HasPrefix(enc.Type, "image/")) {
			return enc.URL
		}
	}
	if src := firstImageSrc(it.Description); src != "" {
		return src
	}
	return firstImageSrc(it.Content)
}

// firstImageSrc returns the src of the first <img> in an HTML fragment.
func firstImageSrc(html string) string {
	if !strings.Contains(strings.ToLower(html), "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}
