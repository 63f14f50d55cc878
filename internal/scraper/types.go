package scraper

import (
	"context"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// Listing represents one classified ad. List-page extraction populates
// Title, URL and Image only; hydration fills the remaining fields from the
// ad's own page. URL is the identity key for deduplication.
type Listing struct {
	Title     string   `json:"title,omitempty"`
	PriceText string   `json:"price_text,omitempty"`
	Price     int      `json:"price,omitempty"`
	Location  string   `json:"location,omitempty"`
	Date      string   `json:"date,omitempty"`
	URL       string   `json:"url"`
	Image     string   `json:"image,omitempty"`
	Year      int      `json:"year,omitempty"`
	MileageKM int      `json:"mileage_km,omitempty"`
	Fuel      string   `json:"fuel,omitempty"`
	Gearbox   string   `json:"gearbox,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	Model     string   `json:"model,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// Merge fills every absent field of the listing from the patch. A field
// already holding a non-empty value is never overwritten; Errors from the
// patch are appended. This is the single merge rule applied by every
// hydration step.
func (l *Listing) Merge(patch *Listing) {
	if patch == nil {
		return
	}
	if l.Title == "" {
		l.Title = patch.Title
	}
	if l.PriceText == "" {
		l.PriceText = patch.PriceText
	}
	if l.Price == 0 {
		l.Price = patch.Price
	}
	if l.Location == "" {
		l.Location = patch.Location
	}
	if l.Date == "" {
		l.Date = patch.Date
	}
	if l.URL == "" {
		l.URL = patch.URL
	}
	if l.Image == "" {
		l.Image = patch.Image
	}
	if l.Year == 0 {
		l.Year = patch.Year
	}
	if l.MileageKM == 0 {
		l.MileageKM = patch.MileageKM
	}
	if l.Fuel == "" {
		l.Fuel = patch.Fuel
	}
	if l.Gearbox == "" {
		l.Gearbox = patch.Gearbox
	}
	if l.Brand == "" {
		l.Brand = patch.Brand
	}
	if l.Model == "" {
		l.Model = patch.Model
	}
	l.Errors = append(l.Errors, patch.Errors...)
}

// AppendError records a hydration failure on the listing itself
func (l *Listing) AppendError(err error) {
	if err == nil {
		return
	}
	l.Errors = append(l.Errors, err.Error())
}

// FetchFunc retrieves the body of a URL. Implementations fail with a
// typed fetch error on non-success responses.
type FetchFunc func(ctx context.Context, url string) (io.Reader, error)

// ListExtractor produces listing candidates from one parsed search-results
// page. Extractors are tried in a fixed cascade by the aggregator; they
// must not fail, only yield fewer (or zero) candidates.
type ListExtractor interface {
	// Extract returns the candidate listings found in the document
	Extract(doc *goquery.Document) []*Listing

	// Name returns the extractor's name for logging
	Name() string
}

// dedupByURL drops listings without a URL and keeps the first occurrence
// of each URL, preserving order.
func dedupByURL(listings []*Listing) []*Listing {
	seen := make(map[string]struct{}, len(listings))
	out := make([]*Listing, 0, len(listings))
	for _, l := range listings {
		if l == nil || l.URL == "" {
			continue
		}
		if _, ok := seen[l.URL]; ok {
			continue
		}
		seen[l.URL] = struct{}{}
		out = append(out, l)
	}
	return out
}
