package feedparse

import (
	"fmt"
	"strings"
)

const (
	KindTolerant = "tolerant"
	KindGofeed   = "gofeed"
)

// New returns the parser registered under kind. An empty kind selects the
// tolerant parser.
func New(kind string, maxItems int) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindTolerant, "regex":
		p := NewTolerantParser()
		if maxItems > 0 {
			p.MaxItems = maxItems
		}
		return p, nil
	case KindGofeed, "strict":
		p := NewStrictParser()
		if maxItems > 0 {
			p.MaxItems = maxItems
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown feed parser %q", kind)
	}
}
