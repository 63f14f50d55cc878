package scraper

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"leboncoin/adcrawler/logger"
	apperr "leboncoin/adcrawler/pkg/errors"
)

// Selectors tried for the DOM-fallback fields of an ad page
const (
	priceSelectors    = `[data-qa-id="adview_price"], [data-test-id="ad-price"], .Price__amount, [itemprop="price"]`
	locationSelectors = `[data-qa-id="adview_location_informations"], [data-test-id="ad-address"], .AdViewBreadcrumbs__item, [itemprop="address"]`
	dateSelectors     = `[data-qa-id="adview_date"], [itemprop="datePosted"]`
	criteriaSelectors = `[data-qa-id="criteria_item"], .Carac__item, .AdviewCriteria__item, [data-test-id="criteria-item"]`
)

// Hydrator enriches a listing by visiting its detail page and merging
// three sources in precedence order: linked data, page metadata, DOM
// fallback. Every merge step only fills fields the listing does not
// already have. Failures are recorded on the listing itself; hydration
// never aborts the overall run.
type Hydrator struct {
	fetch FetchFunc
	log   *logger.Logger
}

// NewHydrator creates a hydrator using the given fetch function
func NewHydrator(fetch FetchFunc) *Hydrator {
	return &Hydrator{
		fetch: fetch,
		log:   logger.ForScraper(),
	}
}

// Hydrate fetches the listing's detail page and fills its absent fields.
// The listing is mutated in place and returned.
func (h *Hydrator) Hydrate(ctx context.Context, l *Listing) *Listing {
	body, err := h.fetch(ctx, l.URL)
	if err != nil {
		l.AppendError(err)
		return l
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		l.AppendError(apperr.NewParsing(l.URL, "failed to parse ad page", err))
		return l
	}

	return h.HydrateFromDocument(l, doc)
}

// HydrateFromDocument runs the three extraction passes against an already
// parsed ad page.
func (h *Hydrator) HydrateFromDocument(l *Listing, doc *goquery.Document) *Listing {
	// 1. Linked data: first block yielding a record wins
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var block interface{}
		if err := json.Unmarshal([]byte(s.Text()), &block); err != nil {
			return true
		}
		rec := ExtractVehicleRecord(block)
		if rec == nil {
			return true
		}
		l.Merge(rec)
		return false
	})

	// 2. Page metadata
	l.Merge(&Listing{
		Title: metaProperty(doc, "og:title"),
		Image: metaProperty(doc, "og:image"),
		Date:  metaProperty(doc, "article:published_time"),
	})

	// 3. DOM fallback
	l.Merge(domFallback(doc))

	if l.Location != "" {
		l.Location = CollapseWhitespace(l.Location)
	}
	return l
}

// domFallback extracts whatever it can from the visible markup of an ad
// page: price and location nodes, the machine-readable time element, the
// criteria list, and meta-tag defaults for title and image.
func domFallback(doc *goquery.Document) *Listing {
	rec := &Listing{}

	if price := doc.Find(priceSelectors).First(); price.Length() > 0 {
		text := CollapseWhitespace(price.Text())
		rec.PriceText = text
		if n, ok := ParseCount(text); ok {
			rec.Price = n
		}
	}

	if loc := doc.Find(locationSelectors).First(); loc.Length() > 0 {
		rec.Location = CollapseWhitespace(loc.Text())
	}

	if t := doc.Find("time[datetime]").First(); t.Length() > 0 {
		rec.Date, _ = t.Attr("datetime")
	} else if d := doc.Find(dateSelectors).First(); d.Length() > 0 {
		rec.Date = CollapseWhitespace(d.Text())
	}

	doc.Find(criteriaSelectors).Each(func(_ int, item *goquery.Selection) {
		label, value := criterionPair(item)
		if label == "" || value == "" {
			return
		}
		applyCriterion(rec, label, value)
	})

	if rec.Image == "" {
		rec.Image = metaProperty(doc, "og:image")
	}
	if rec.Title == "" {
		rec.Title = metaProperty(doc, "og:title")
	}

	return rec
}

// criterionPair extracts the label/value texts of one criteria-list item
func criterionPair(item *goquery.Selection) (label, value string) {
	labelSel := item.Find(`[data-qa-id="criteria_item_label"]`).First()
	if labelSel.Length() == 0 {
		labelSel = item.Find(".property").First()
	}
	if labelSel.Length() == 0 {
		labelSel = item.Find("span").First()
	}

	valueSel := item.Find(`[data-qa-id="criteria_item_value"]`).First()
	if valueSel.Length() == 0 {
		valueSel = item.Find(".value").First()
	}
	if valueSel.Length() == 0 {
		valueSel = item.Find("strong").First()
	}
	if valueSel.Length() == 0 {
		valueSel = item.Find("span").First()
	}

	label = strings.ToLower(CollapseWhitespace(labelSel.Text()))
	value = CollapseWhitespace(valueSel.Text())
	return label, value
}

// metaProperty reads the content of a property-keyed meta tag
func metaProperty(doc *goquery.Document, property string) string {
	content, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return content
}
