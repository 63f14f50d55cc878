package scraper

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var apolloStatePattern = regexp.MustCompile(`__APOLLO_STATE__\s*=\s*`)

// Entity types recognized as ads in the GraphQL cache state
var apolloAdTypes = map[string]struct{}{
	"Ad":      {},
	"Listing": {},
	"AdCard":  {},
}

// ApolloExtractor reads the GraphQL cache state some page versions inject
// as an inline script. The state is a flat map keyed by opaque cache ids;
// entries are selected by their type discriminator.
type ApolloExtractor struct {
	Origin string
}

// Name returns the extractor's name for logging
func (e *ApolloExtractor) Name() string {
	return "apollo-state"
}

// Extract returns the candidate listings found in the document
func (e *ApolloExtractor) Extract(doc *goquery.Document) []*Listing {
	var rows []*Listing

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		loc := apolloStatePattern.FindStringIndex(text)
		if loc == nil {
			return true
		}

		state, ok := decodeLeadingObject(text[loc[1]:])
		if !ok {
			return true
		}

		for _, v := range state {
			entry, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			if _, ok := apolloAdTypes[jsonString(entry["__typename"])]; !ok {
				continue
			}
			url := firstString(entry, "url", "permalink")
			if url == "" {
				continue
			}
			rows = append(rows, &Listing{
				Title: firstString(entry, "subject", "title", "name"),
				URL:   AbsoluteURL(url, e.Origin),
			})
		}
		return len(rows) == 0
	})

	return filterAdURLs(rows)
}

// decodeLeadingObject decodes the JSON object at the start of the text,
// ignoring whatever script code follows it.
func decodeLeadingObject(text string) (map[string]interface{}, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	var state map[string]interface{}
	if err := dec.Decode(&state); err != nil {
		return nil, false
	}
	return state, true
}
