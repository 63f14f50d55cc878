package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"leboncoin/adcrawler/logger"
	apperr "leboncoin/adcrawler/pkg/errors"
)

var pageOffsetPattern = regexp.MustCompile(`([?&])o=(\d+)`)

// CrawlerOptions bounds a crawl run. StalePageLimit is the number of
// consecutive pages contributing zero new listings after which the crawl
// stops; the site's pagination keeps serving filled pages past the end of
// the result set, so this is a tunable heuristic rather than an
// invariant.
type CrawlerOptions struct {
	MaxPages       int
	MaxAds         int
	Delay          time.Duration
	StalePageLimit int
}

// Crawler drives the list-page aggregator across successive result
// pages. Pagination is strictly sequential: each page's URL depends on
// the previous page's content, and a delay separates requests.
type Crawler struct {
	fetch      FetchFunc
	aggregator *ListPageAggregator
	opts       CrawlerOptions
	log        *logger.Logger
}

// NewCrawler creates a crawler for the given site origin
func NewCrawler(fetch FetchFunc, origin string, opts CrawlerOptions) *Crawler {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 20
	}
	if opts.StalePageLimit <= 0 {
		opts.StalePageLimit = 2
	}
	return &Crawler{
		fetch:      fetch,
		aggregator: NewListPageAggregator(origin),
		opts:       opts,
		log:        logger.ForScraper(),
	}
}

// Crawl walks the paginated search results starting at startURL and
// returns the accumulated listings, deduplicated by URL in first-seen
// order. A fetch failure aborts the crawl and is returned alongside the
// listings gathered so far; cancellation between iterations returns the
// partial results without error.
func (c *Crawler) Crawl(ctx context.Context, startURL string) ([]*Listing, error) {
	var results []*Listing
	seen := make(map[string]struct{})
	visited := make(map[string]struct{})

	current := startURL
	stale := 0

	for page := 1; page <= c.opts.MaxPages && current != ""; page++ {
		if _, ok := visited[current]; ok {
			break
		}
		visited[current] = struct{}{}

		body, err := c.fetch(ctx, current)
		if err != nil {
			return results, err
		}

		doc, err := goquery.NewDocumentFromReader(body)
		if err != nil {
			return results, apperr.NewParsing(current, "failed to parse list page", err)
		}

		ads := c.aggregator.Aggregate(current, doc)
		if len(ads) == 0 {
			c.log.Debug().Str("url", current).Msg("Page yielded no listings, stopping")
			break
		}

		added := 0
		for _, ad := range ads {
			if _, ok := seen[ad.URL]; ok {
				continue
			}
			seen[ad.URL] = struct{}{}
			results = append(results, ad)
			added++
		}
		if added > 0 {
			stale = 0
		} else {
			stale++
		}

		c.log.Info().
			Int("page", page).
			Int("added", added).
			Int("total", len(results)).
			Msg("Processed list page")

		if c.opts.MaxAds > 0 && len(results) >= c.opts.MaxAds {
			return results[:c.opts.MaxAds], nil
		}
		if stale >= c.opts.StalePageLimit {
			c.log.Debug().Int("stale_pages", stale).Msg("Stale page limit reached, stopping")
			break
		}

		next := nextPageURL(current, doc)
		if next == "" || next == current {
			break
		}
		current = next

		select {
		case <-ctx.Done():
			return results, nil
		case <-time.After(c.opts.Delay):
		}
	}

	return results, nil
}

// nextPageURL resolves the location of the next results page: the
// canonical next link first, then a rel=next anchor, then an anchor
// labeled as next or carrying a page-offset parameter, and as a last
// resort the current URL with its page offset incremented.
func nextPageURL(current string, doc *goquery.Document) string {
	if href, ok := doc.Find(`link[rel="next"]`).First().Attr("href"); ok && href != "" {
		return resolveRef(current, href)
	}
	if href, ok := doc.Find(`a[rel="next"]`).First().Attr("href"); ok && href != "" {
		return resolveRef(current, href)
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if href == "" {
			return true
		}
		label := strings.ToLower(a.AttrOr("aria-label", ""))
		if strings.Contains(label, "suivant") ||
			strings.Contains(href, "&o=") || strings.Contains(href, "?o=") {
			found = resolveRef(current, href)
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	return incrementPageOffset(current)
}

// incrementPageOffset bumps an o= query parameter already present in the
// URL; there is nothing to synthesize when the parameter is absent.
func incrementPageOffset(current string) string {
	if !pageOffsetPattern.MatchString(current) {
		return ""
	}
	return pageOffsetPattern.ReplaceAllStringFunc(current, func(match string) string {
		m := pageOffsetPattern.FindStringSubmatch(match)
		offset, err := strconv.Atoi(m[2])
		if err != nil {
			return match
		}
		return m[1] + "o=" + strconv.Itoa(offset+1)
	})
}

// resolveRef resolves a possibly-relative href against the current page URL
func resolveRef(current, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	base, err := url.Parse(current)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
