package scraper

import (
	"encoding/json"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// Keys tried, in order, when looking for a list of ads inside the
// framework state payload.
var nextDataListKeys = []string{"ads", "adList", "items", "searchResults", "search_result", "list"}

// NextDataExtractor reads the JSON payload the site embeds in its
// well-known framework script tag and walks it for ad collections. It is
// the highest-fidelity list-page source but depends on the site's markup
// version.
type NextDataExtractor struct {
	Origin string
}

// Name returns the extractor's name for logging
func (e *NextDataExtractor) Name() string {
	return "next-data"
}

// Extract returns the candidate listings found in the document
func (e *NextDataExtractor) Extract(doc *goquery.Document) []*Listing {
	sel := doc.Find(`script#__NEXT_DATA__[type="application/json"]`)
	if sel.Length() == 0 {
		return nil
	}

	var payload interface{}
	if err := json.Unmarshal([]byte(sel.First().Text()), &payload); err != nil {
		// Malformed embedded JSON: yield nothing, the aggregator falls
		// through to the next strategy.
		return nil
	}

	var rows []*Listing
	e.walk(payload, &rows)

	for _, l := range rows {
		l.URL = AbsoluteURL(l.URL, e.Origin)
	}
	return filterAdURLs(rows)
}

// walk recursively searches dict-shaped nodes for list-valued ad
// collections. A branch whose list key matched is not descended into
// again, but every other nested structure is.
func (e *NextDataExtractor) walk(node interface{}, rows *[]*Listing) {
	switch n := node.(type) {
	case map[string]interface{}:
		matched := make(map[string]struct{})
		for _, key := range nextDataListKeys {
			items, ok := n[key].([]interface{})
			if !ok {
				continue
			}
			matched[key] = struct{}{}
			for _, item := range items {
				if l := e.normalizeAd(item); l != nil {
					*rows = append(*rows, l)
				}
			}
		}
		for key, v := range n {
			if _, ok := matched[key]; ok {
				continue
			}
			e.walk(v, rows)
		}
	case []interface{}:
		for _, v := range n {
			e.walk(v, rows)
		}
	}
}

// normalizeAd converts one raw ad node into a listing stub
func (e *NextDataExtractor) normalizeAd(item interface{}) *Listing {
	d, ok := item.(map[string]interface{})
	if !ok {
		return nil
	}

	url := firstString(d, "url", "permalink", "webUrl", "landingUrl")
	if url == "" {
		if id := jsonString(d["id"]); id != "" {
			cat := jsonString(d["categorySlug"])
			if cat == "" {
				cat = "annonces"
			}
			url = "/ad/" + cat + "/" + id
		}
	}
	if url == "" {
		return nil
	}

	return &Listing{
		Title: firstString(d, "subject", "title", "name"),
		URL:   url,
	}
}

// filterAdURLs keeps only listings whose URL passes the detail-page gate,
// deduplicated by URL in first-seen order.
func filterAdURLs(rows []*Listing) []*Listing {
	kept := rows[:0]
	for _, l := range rows {
		if LooksLikeAdURL(l.URL) {
			kept = append(kept, l)
		}
	}
	return dedupByURL(kept)
}

// firstString returns the first non-empty string value among the keys
func firstString(d map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := jsonString(d[key]); s != "" {
			return s
		}
	}
	return ""
}

// jsonString renders a decoded JSON scalar as text. Numeric identifiers
// are formatted without an exponent.
func jsonString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}
