package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors tried, in order, for listing-card anchors. The last one is a
// broad net over anything linking into the ad path.
var cardSelectors = []string{
	`a[data-qa-id="aditem_container"], a[data-test-id="aditem_container"]`,
	`article a[data-qa-id="aditem_container"], article a[data-test-id="aditem_container"]`,
	`article a[href^="/ad/"], a[href^="/ad/"]`,
}

// CardExtractor selects listing-card anchors straight from the markup. It
// is the robustness net of the cascade: lower fidelity than the structured
// sources, but independent of the site's embedded-state shape.
type CardExtractor struct {
	Origin string
}

// Name returns the extractor's name for logging
func (e *CardExtractor) Name() string {
	return "dom-cards"
}

// Extract returns the candidate listings found in the document
func (e *CardExtractor) Extract(doc *goquery.Document) []*Listing {
	cards := doc.Find(cardSelectors[0])
	for _, sel := range cardSelectors[1:] {
		// AddSelection unions by node identity, so a card matched by
		// several selectors is processed once.
		cards = cards.AddSelection(doc.Find(sel))
	}

	var rows []*Listing
	cards.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		url := AbsoluteURL(strings.TrimSpace(href), e.Origin)
		if !LooksLikeAdURL(url) {
			return
		}

		rows = append(rows, &Listing{
			Title: cardTitle(a),
			URL:   url,
			Image: cardImage(a),
		})
	})

	return dedupByURL(rows)
}

// cardTitle extracts the card's title: explicit title attribute first,
// then the accessible label, then the visible text.
func cardTitle(a *goquery.Selection) string {
	if title, ok := a.Attr("title"); ok && title != "" {
		return title
	}
	if label, ok := a.Attr("aria-label"); ok && label != "" {
		return label
	}
	return CollapseWhitespace(a.Text())
}

// cardImage extracts the first descendant image's source, accepting the
// lazy-load attribute as fallback.
func cardImage(a *goquery.Selection) string {
	img := a.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	if src, ok := img.Attr("src"); ok && src != "" {
		return src
	}
	if src, ok := img.Attr("data-src"); ok && src != "" {
		return src
	}
	return ""
}
