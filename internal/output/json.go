package output

import (
	"encoding/json"
	"os"

	"leboncoin/adcrawler/internal/scraper"
)

// SaveJSON writes a full-fidelity structured export of the listings
func SaveJSON(listings []*scraper.Listing, filepath string) error {
	content, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, content, 0644)
}
