package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leboncoin/adcrawler/internal/scraper"
)

func TestSaveCSV(t *testing.T) {
	listings := []*scraper.Listing{
		{
			Title:     "Renault Clio IV",
			PriceText: "12000 EUR",
			Price:     12000,
			Location:  "Lyon 69003",
			URL:       "https://www.leboncoin.fr/ad/voitures/111",
			Year:      2016,
			MileageKM: 54000,
			Brand:     "Renault",
			Model:     "Clio IV",
		},
		{
			URL:    "https://www.leboncoin.fr/ad/voitures/222",
			Errors: []string{"fetch failed", "no linked data"},
		},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, SaveCSV(listings, path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])

	assert.Equal(t, "Renault Clio IV", rows[1][0])
	assert.Equal(t, "12000", rows[1][2])
	assert.Equal(t, "54000", rows[1][8])
	assert.Equal(t, "Renault", rows[1][11])

	// absent integers stay blank, errors are joined
	assert.Equal(t, "", rows[2][2])
	assert.Equal(t, "fetch failed; no linked data", rows[2][13])
}

func TestSaveJSON(t *testing.T) {
	listings := []*scraper.Listing{
		{URL: "https://www.leboncoin.fr/ad/voitures/111", Price: 12000},
	}

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, SaveJSON(listings, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"url": "https://www.leboncoin.fr/ad/voitures/111"`)
	assert.Contains(t, string(data), `"price": 12000`)
}
