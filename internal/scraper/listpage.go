package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"leboncoin/adcrawler/logger"
)

// ListPageAggregator runs the list-page extraction cascade for one
// search-results page. Structured sources are tried first because they
// yield cleaner titles and fewer false positives; the DOM-card extractor
// only supplements cards the structured source missed, never replaces
// them.
type ListPageAggregator struct {
	structured []ListExtractor
	cards      ListExtractor
	log        *logger.Logger
}

// NewListPageAggregator creates the aggregator for the given site origin
func NewListPageAggregator(origin string) *ListPageAggregator {
	return &ListPageAggregator{
		structured: []ListExtractor{
			&NextDataExtractor{Origin: origin},
			&ApolloExtractor{Origin: origin},
		},
		cards: &CardExtractor{Origin: origin},
		log:   logger.ForScraper(),
	}
}

// Aggregate extracts the listings from one search-results page. Pages
// whose URL is not a search page yield nothing.
func (a *ListPageAggregator) Aggregate(pageURL string, doc *goquery.Document) []*Listing {
	if !isSearchPage(pageURL) {
		return nil
	}

	var base []*Listing
	for _, ex := range a.structured {
		base = ex.Extract(doc)
		if len(base) > 0 {
			a.log.Debug().
				Str("extractor", ex.Name()).
				Int("count", len(base)).
				Msg("Structured extraction succeeded")
			break
		}
	}

	if len(base) == 0 {
		base = a.cards.Extract(doc)
		return dedupByURL(base)
	}

	// Supplement with DOM cards the structured source did not cover
	have := make(map[string]struct{}, len(base))
	for _, l := range base {
		have[l.URL] = struct{}{}
	}
	for _, l := range a.cards.Extract(doc) {
		if _, ok := have[l.URL]; ok {
			continue
		}
		base = append(base, l)
	}

	return dedupByURL(base)
}

// isSearchPage reports whether the URL points at a search-results page
func isSearchPage(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, "/recherche")
}
