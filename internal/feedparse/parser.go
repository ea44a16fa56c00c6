package feedparse

import (
	"fmt"
	"regexp"
	"time"

	"github.com/johnrirwin/marketwire/internal/models"
)

// DefaultMaxItems is the per-feed item cap.
const DefaultMaxItems = 8

// minDescriptionLength triggers the <content> fallback; shortDescription is
// the length at or below which the title is used instead.
const (
	minDescriptionLength = 50
	shortDescription     = 20
)

var (
	titleTags       = []string{"title"}
	descriptionTags = []string{"description", "summary", "content", "content:encoded"}
	linkTags        = []string{"link", "guid"}
	dateTags        = []string{"pubDate", "published", "updated"}
	imageTags       = []string{"media:thumbnail", "enclosure"}
)

var (
	controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	ampersandPattern   = regexp.MustCompile(`&(?:amp|lt|gt|quot|apos|#\d+|#x[a-fA-F0-9]+);|&`)
	rssItemPattern     = regexp.MustCompile(`(?is)<item(?:\s[^>]*)?>(.*?)</item\s*>`)
	atomEntryPattern   = regexp.MustCompile(`(?is)<entry(?:\s[^>]*)?>(.*?)</entry\s*>`)
	contentPattern     = regexp.MustCompile(`(?is)<content(?:\s[^>]*)?>(.*)</content\s*>`)
	imgPattern         = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)
)

// Parser converts a feed document into normalized items. SourceName is
// stamped on every item; Category is left for the caller.
type Parser interface {
	Parse(doc string, sourceName string) ([]models.NormalizedItem, error)
}

// TolerantParser scans documents with regular expressions so that feeds a
// strict XML decoder would reject still yield items.
type TolerantParser struct {
	MaxItems  int
	Extractor FieldExtractor
	Now       func() time.Time
}

func NewTolerantParser() *TolerantParser {
	return &TolerantParser{
		MaxItems:  DefaultMaxItems,
		Extractor: defaultExtractor,
		Now:       time.Now,
	}
}

// ParseFeedDocument parses with a default TolerantParser. Any failure yields
// an empty list.
func ParseFeedDocument(doc string, sourceName string) []models.NormalizedItem {
	items, err := NewTolerantParser().Parse(doc, sourceName)
	if err != nil {
		return []models.NormalizedItem{}
	}
	return items
}

// Parse splits doc into <item> fragments, or <entry> fragments when there are
// no items, and extracts the first MaxItems of them. Fragments without a
// title or link are dropped.
func (p *TolerantParser) Parse(doc string, sourceName string) (items []models.NormalizedItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("parse feed from %s: %v", sourceName, r)
		}
	}()

	max := p.MaxItems
	if max <= 0 {
		max = DefaultMaxItems
	}

	clean := PrecleanDocument(doc)

	matches := rssItemPattern.FindAllStringSubmatch(clean, max)
	if len(matches) == 0 {
		matches = atomEntryPattern.FindAllStringSubmatch(clean, max)
	}

	items = make([]models.NormalizedItem, 0, len(matches))
	for _, m := range matches {
		if item, ok := p.parseFragment(m[1], sourceName); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (p *TolerantParser) parseFragment(fragment, sourceName string) (models.NormalizedItem, bool) {
	ex := p.Extractor
	if ex == nil {
		ex = defaultExtractor
	}

	title := Sanitize(ex.Extract(fragment, titleTags))
	link := Sanitize(ex.Extract(fragment, linkTags))
	if title == "" || link == "" {
		return models.NormalizedItem{}, false
	}

	description := ex.Extract(fragment, descriptionTags)
	if runeLen(description) < minDescriptionLength {
		if m := contentPattern.FindStringSubmatch(fragment); m != nil {
			description = m[1]
		}
	}

	image := ex.Extract(fragment, imageTags)
	if image == "" {
		if m := imgPattern.FindStringSubmatch(fragment); m != nil {
			image = m[1]
		}
	}

	return models.NormalizedItem{
		Title:       title,
		Description: chooseDescription(Sanitize(description), title),
		Link:        link,
		PublishedAt: p.publishedAt(ex.Extract(fragment, dateTags)),
		SourceName:  sourceName,
		Image:       Sanitize(image),
	}, true
}

func (p *TolerantParser) publishedAt(raw string) time.Time {
	if t, ok := ParseDate(Sanitize(raw)); ok {
		return t
	}
	return p.now()
}

func (p *TolerantParser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// PrecleanDocument removes control characters and escapes ampersands that do
// not start a recognised entity.
func PrecleanDocument(doc string) string {
	s := controlCharPattern.ReplaceAllString(doc, "")
	return ampersandPattern.ReplaceAllStringFunc(s, func(m string) string {
		if m == "&" {
			return "&amp;"
		}
		return m
	})
}

func chooseDescription(cleaned, title string) string {
	if runeLen(cleaned) > shortDescription {
		return cleaned
	}
	return title
}
