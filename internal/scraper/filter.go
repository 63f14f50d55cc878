package scraper

import (
	"regexp"
	"strings"

	"leboncoin/adcrawler/logger"
)

// ModelFilter excludes listings whose title and brand+model both fail to
// match a caller-supplied pattern. An empty or invalid pattern filters
// nothing: a bad pattern must not abort the run.
type ModelFilter struct {
	pattern *regexp.Regexp
}

// NewModelFilter compiles the pattern case-insensitively
func NewModelFilter(pattern string) *ModelFilter {
	if pattern == "" {
		return &ModelFilter{}
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		logger.ForScraper().Warn().
			Str("pattern", pattern).
			Err(err).
			Msg("Invalid model filter pattern, filtering disabled")
		return &ModelFilter{}
	}
	return &ModelFilter{pattern: re}
}

// Apply returns the listings matching the filter, preserving order
func (f *ModelFilter) Apply(listings []*Listing) []*Listing {
	if f.pattern == nil {
		return listings
	}
	out := make([]*Listing, 0, len(listings))
	for _, l := range listings {
		if f.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

// Matches reports whether the listing's title or brand+model matches
func (f *ModelFilter) Matches(l *Listing) bool {
	if f.pattern == nil {
		return true
	}
	if f.pattern.MatchString(l.Title) {
		return true
	}
	brandModel := strings.TrimSpace(l.Brand + " " + l.Model)
	return f.pattern.MatchString(brandModel)
}
