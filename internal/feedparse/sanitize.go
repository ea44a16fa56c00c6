// Package feedparse turns loosely structured RSS and Atom documents into
// normalized items without relying on a strict XML parser.
package feedparse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxTextLength caps sanitized output, counted in runes.
const MaxTextLength = 500

var (
	cdataPattern       = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	scriptStylePattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)\s*>`)
	commentPattern     = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	entityPattern      = regexp.MustCompile(`&(?:amp;)?(#[xX][0-9a-fA-F]+|#[0-9]+|[a-zA-Z]+);`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	attrPattern        = regexp.MustCompile(`\b(?:property|class|id)=["'][^"']*["']`)
)

var namedEntities = map[string]string{
	"lt":     "<",
	"gt":     ">",
	"amp":    "&",
	"quot":   `"`,
	"apos":   "'",
	"nbsp":   " ",
	"hellip": "...",
	"mdash":  "—",
	"ndash":  "–",
	"rsquo":  "'",
	"lsquo":  "'",
	"rdquo":  `"`,
	"ldquo":  `"`,
}

// Sanitize reduces raw feed text to plain text. Steps run in a fixed order:
// CDATA unwrap, script/style removal, comment removal, tag stripping, entity
// decoding, whitespace collapse, attribute residue removal, trim and
// truncation. A result that still holds a '>' is returned as "".
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	s := cdataPattern.ReplaceAllString(raw, "$1")
	s = scriptStylePattern.ReplaceAllString(s, "")
	s = commentPattern.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ">", "")
	s = decodeEntities(s)
	s = collapseWhitespace(s)
	s = attrPattern.ReplaceAllString(s, "")
	s = collapseWhitespace(s)
	s = strings.TrimSpace(s)
	s = truncateRunes(s, MaxTextLength)

	if strings.Contains(s, ">") {
		return ""
	}
	return s
}

// decodeEntities decodes the fixed named table plus decimal and hex forms
// until nothing changes, so double-escaped text like "&amp;amp;lt;" ends as
// "<". Every pass that changes s makes it shorter. The "&amp;" prefix left by
// escapeBareAmpersands on an otherwise valid entity is folded, so
// "&amp;hellip;" reads as "&hellip;".
func decodeEntities(s string) string {
	for strings.Contains(s, "&") {
		next := decodeEntitiesOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func decodeEntitiesOnce(s string) string {
	return entityPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := entityPattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		name := sub[1]
		bare := "&" + name + ";"

		if name[0] == '#' {
			if r, ok := numericEntity(name[1:]); ok {
				return string(r)
			}
			return bare
		}
		if v, ok := namedEntities[strings.ToLower(name)]; ok {
			return v
		}
		return bare
	})
}

func numericEntity(num string) (rune, bool) {
	base := 10
	if num != "" && (num[0] == 'x' || num[0] == 'X') {
		base = 16
		num = num[1:]
	}
	n, err := strconv.ParseInt(num, base, 32)
	if err != nil || n <= 0 {
		return 0, false
	}
	r := rune(n)
	if !utf8.ValidRune(r) {
		return 0, false
	}
	return r, true
}

func collapseWhitespace(s string) string {
	return whitespacePattern.ReplaceAllString(s, " ")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:max]), " ")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
