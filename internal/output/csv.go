package output

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"leboncoin/adcrawler/internal/scraper"
)

// Columns of the tabular export, in the order consumers expect them
var csvHeader = []string{
	"title", "price_text", "price", "location", "date", "url", "image",
	"year", "mileage_km", "fuel", "gearbox", "brand", "model", "errors",
}

// SaveCSV writes the listings to a CSV file. Returns an error on failure.
func SaveCSV(listings []*scraper.Listing, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, l := range listings {
		if err := writer.Write(csvRow(l)); err != nil {
			return err
		}
	}

	return writer.Error()
}

func csvRow(l *scraper.Listing) []string {
	return []string{
		l.Title,
		l.PriceText,
		intField(l.Price),
		l.Location,
		l.Date,
		l.URL,
		l.Image,
		intField(l.Year),
		intField(l.MileageKM),
		l.Fuel,
		l.Gearbox,
		l.Brand,
		l.Model,
		strings.Join(l.Errors, "; "),
	}
}

// intField renders an optional integer, leaving absent values blank
func intField(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
