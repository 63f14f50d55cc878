package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "leboncoin/adcrawler/pkg/errors"
)

// listPage builds a synthetic search-results page with the given ad ids
// and an optional next link.
func listPage(nextURL string, ids ...int) string {
	var b strings.Builder
	b.WriteString("<html><head>")
	if nextURL != "" {
		b.WriteString(fmt.Sprintf(`<link rel="next" href="%s"/>`, nextURL))
	}
	b.WriteString("</head><body>")
	for _, id := range ids {
		b.WriteString(fmt.Sprintf(`<a href="/ad/voitures/%d" title="Annonce %d"></a>`, id, id))
	}
	b.WriteString("</body></html>")
	return b.String()
}

// countingFetch wraps stubFetch and records the URLs fetched
func countingFetch(pages map[string]string, fetched *[]string) FetchFunc {
	stub := stubFetch(pages)
	return func(ctx context.Context, url string) (io.Reader, error) {
		*fetched = append(*fetched, url)
		return stub(ctx, url)
	}
}

func searchURL(page int) string {
	return fmt.Sprintf("%s/recherche?category=2&o=%d", testOrigin, page)
}

func newTestCrawler(fetch FetchFunc, opts CrawlerOptions) *Crawler {
	opts.Delay = time.Millisecond
	return NewCrawler(fetch, testOrigin, opts)
}

func TestCrawlStaleTermination(t *testing.T) {
	// pages 4 and 5 repeat earlier listings; the crawl stops after the
	// second consecutive page with zero new listings
	pages := map[string]string{
		searchURL(1): listPage(searchURL(2), 1, 2),
		searchURL(2): listPage(searchURL(3), 3, 4),
		searchURL(3): listPage(searchURL(4), 5, 6),
		searchURL(4): listPage(searchURL(5), 1, 2),
		searchURL(5): listPage(searchURL(6), 3, 4),
		searchURL(6): listPage("", 7, 8),
	}

	var fetched []string
	c := newTestCrawler(countingFetch(pages, &fetched), CrawlerOptions{MaxPages: 20, StalePageLimit: 2})

	results, err := c.Crawl(context.Background(), searchURL(1))
	require.NoError(t, err)

	assert.Len(t, results, 6)
	assert.Len(t, fetched, 5, "page 6 must not be fetched")
	assert.Equal(t, searchURL(5), fetched[len(fetched)-1])
}

func TestCrawlCapTermination(t *testing.T) {
	pages := map[string]string{
		searchURL(1): listPage(searchURL(2), 1, 2, 3, 4, 5, 6, 7, 8),
		searchURL(2): listPage(searchURL(3), 9, 10, 11, 12, 13, 14, 15, 16),
		searchURL(3): listPage("", 17, 18),
	}

	var fetched []string
	c := newTestCrawler(countingFetch(pages, &fetched), CrawlerOptions{MaxPages: 20, MaxAds: 10})

	results, err := c.Crawl(context.Background(), searchURL(1))
	require.NoError(t, err)

	assert.Len(t, results, 10)
	assert.Len(t, fetched, 2)
	assert.Equal(t, testOrigin+"/ad/voitures/10", results[9].URL)
}

func TestCrawlNoAdsTermination(t *testing.T) {
	pages := map[string]string{
		searchURL(1): listPage(searchURL(2), 1, 2),
		searchURL(2): `<html><body><p>aucun résultat</p></body></html>`,
	}

	c := newTestCrawler(stubFetch(pages), CrawlerOptions{MaxPages: 20})
	results, err := c.Crawl(context.Background(), searchURL(1))

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCrawlOffsetIncrementFallback(t *testing.T) {
	// no next link anywhere: the o= parameter is incremented instead
	pages := map[string]string{
		searchURL(1): listPage("", 1, 2),
		searchURL(2): listPage("", 3),
	}

	var fetched []string
	c := newTestCrawler(countingFetch(pages, &fetched), CrawlerOptions{MaxPages: 2})

	results, err := c.Crawl(context.Background(), searchURL(1))
	require.NoError(t, err)

	assert.Len(t, results, 3)
	assert.Equal(t, []string{searchURL(1), searchURL(2)}, fetched)
}

func TestCrawlFetchErrorAborts(t *testing.T) {
	pages := map[string]string{
		searchURL(1): listPage(searchURL(2), 1, 2),
	}

	c := newTestCrawler(stubFetch(pages), CrawlerOptions{MaxPages: 20})
	results, err := c.Crawl(context.Background(), searchURL(1))

	require.Error(t, err)
	var scrapeErr *apperr.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, 404, scrapeErr.StatusCode)

	// listings gathered before the failure are kept
	assert.Len(t, results, 2)
}

func TestCrawlVisitedLoopTermination(t *testing.T) {
	// page 2 links back to page 1; the crawl must not loop
	pages := map[string]string{
		searchURL(1): listPage(searchURL(2), 1),
		searchURL(2): listPage(searchURL(1), 2),
	}

	var fetched []string
	c := newTestCrawler(countingFetch(pages, &fetched), CrawlerOptions{MaxPages: 20})

	results, err := c.Crawl(context.Background(), searchURL(1))
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.Len(t, fetched, 2)
}

func TestCrawlCancellation(t *testing.T) {
	pages := map[string]string{
		searchURL(1): listPage(searchURL(2), 1, 2),
		searchURL(2): listPage("", 3, 4),
	}

	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(c context.Context, url string) (io.Reader, error) {
		defer cancel() // cancel after the first fetch
		return stubFetch(pages)(c, url)
	}

	// long delay: cancellation must win the inter-page wait
	c := NewCrawler(fetch, testOrigin, CrawlerOptions{MaxPages: 20, Delay: time.Minute})
	results, err := c.Crawl(ctx, searchURL(1))

	// partial results are valid output
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestNextPageURLResolution(t *testing.T) {
	current := searchURL(1)

	// canonical next link
	doc := parseDoc(t, `<html><head><link rel="next" href="/recherche?category=2&o=2"/></head></html>`)
	assert.Equal(t, testOrigin+"/recherche?category=2&o=2", nextPageURL(current, doc))

	// rel=next anchor
	doc = parseDoc(t, `<html><body><a rel="next" href="?o=2">2</a></body></html>`)
	assert.Equal(t, testOrigin+"/recherche?o=2", nextPageURL(current, doc))

	// accessible label
	doc = parseDoc(t, `<html><body><a aria-label="Page suivante" href="/recherche?category=2&o=2">›</a></body></html>`)
	assert.Equal(t, testOrigin+"/recherche?category=2&o=2", nextPageURL(current, doc))

	// offset increment fallback
	doc = parseDoc(t, `<html><body></body></html>`)
	assert.Equal(t, searchURL(2), nextPageURL(current, doc))

	// nothing to increment
	doc = parseDoc(t, `<html><body></body></html>`)
	assert.Equal(t, "", nextPageURL(testOrigin+"/recherche?category=2", doc))
}
