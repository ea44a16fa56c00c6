package feedparse

import (
	"regexp"
	"strings"
	"sync"
)

// FieldExtractor pulls a logical field out of an item fragment by trying
// candidate tags in preference order.
type FieldExtractor interface {
	Extract(fragment string, tags []string) string
}

// RegexExtractor is a tolerant tag/attribute scanner. Patterns are compiled
// once per tag and shared between goroutines.
type RegexExtractor struct {
	patterns sync.Map // tag -> *tagPatterns
}

type tagPatterns struct {
	element *regexp.Regexp
	url     *regexp.Regexp
	href    *regexp.Regexp
}

var defaultExtractor = &RegexExtractor{}

// ExtractField runs the shared RegexExtractor.
func ExtractField(fragment string, tags []string) string {
	return defaultExtractor.Extract(fragment, tags)
}

// Extract returns the first match across tags. For each tag it tries, in
// order: the inner text of an open/close pair (if non-blank), a url="..."
// attribute, then an href="..." attribute. Matching is case-insensitive.
func (e *RegexExtractor) Extract(fragment string, tags []string) string {
	if fragment == "" {
		return ""
	}
	for _, tag := range tags {
		p := e.compiled(tag)

		if m := p.element.FindStringSubmatch(fragment); m != nil && !strings.HasSuffix(m[1], "/") {
			if inner := strings.TrimSpace(m[2]); inner != "" {
				return inner
			}
		}
		if m := p.url.FindStringSubmatch(fragment); m != nil {
			return m[1]
		}
		if m := p.href.FindStringSubmatch(fragment); m != nil {
			return m[1]
		}
	}
	return ""
}

func (e *RegexExtractor) compiled(tag string) *tagPatterns {
	if v, ok := e.patterns.Load(tag); ok {
		return v.(*tagPatterns)
	}

	// The name must end at whitespace, '/' or '>' so <content> never matches
	// <content:encoded> and <link> never matches <linkback>.
	q := regexp.QuoteMeta(tag)
	p := &tagPatterns{
		element: regexp.MustCompile(`(?is)<` + q + `(\s[^>]*)?>(.*?)</` + q + `\s*>`),
		url:     regexp.MustCompile(`(?is)<` + q + `[\s/][^>]*?\burl\s*=\s*["']([^"']+)["']`),
		href:    regexp.MustCompile(`(?is)<` + q + `[\s/][^>]*?\bhref\s*=\s*["']([^"']+)["']`),
	}
	actual, _ := e.patterns.LoadOrStore(tag, p)
	return actual.(*tagPatterns)
}
