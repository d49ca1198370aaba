package editor

import (
	"fmt"

	"github.com/irfansharif/articles/pkg/article"
)

// Filter selects articles by published status.
type Filter int

const (
	FilterNone Filter = iota
	FilterPublished
	FilterNotPublished
)

var filterNames = [...]string{
	FilterNone:         "none",
	FilterPublished:    "published",
	FilterNotPublished: "not-published",
}

func (f Filter) String() string {
	if f < 0 || int(f) >= len(filterNames) {
		return fmt.Sprintf("Filter(%d)", int(f))
	}
	return filterNames[f]
}

// Next cycles none -> published -> not-published -> none.
func (f Filter) Next() Filter {
	return (f + 1) % Filter(len(filterNames))
}

// ParseFilter parses the names produced by String. The empty string is
// FilterNone.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterNone, nil
	}
	for f, name := range filterNames {
		if name == s {
			return Filter(f), nil
		}
	}
	return FilterNone, fmt.Errorf("unknown filter %q (want none, published or not-published)", s)
}

// Match reports whether a passes the filter.
func (f Filter) Match(a article.Article) bool {
	switch f {
	case FilterPublished:
		return a.Published
	case FilterNotPublished:
		return !a.Published
	default:
		return true
	}
}

// Apply returns the ordered subsequence of articles matching f. The article
// with ID keep, if any, is included regardless of its published flag so
// an in-progress edit is never hidden.
func (f Filter) Apply(articles []article.Article, keep *article.ID) []article.Article {
	out := make([]article.Article, 0, len(articles))
	for _, a := range articles {
		if f.Match(a) || (keep != nil && a.ID == *keep) {
			out = append(out, a)
		}
	}
	return out
}
