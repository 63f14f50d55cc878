package scraper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBlock(t *testing.T, raw string) interface{} {
	t.Helper()
	var block interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &block))
	return block
}

func TestExtractVehicleRecordCar(t *testing.T) {
	block := decodeBlock(t, `{
		"@context": "https://schema.org",
		"@type": "Car",
		"name": "Renault Clio IV 1.5 dCi",
		"offers": {"@type": "Offer", "price": 12000, "priceCurrency": "EUR"},
		"address": {"addressLocality": "Lyon", "postalCode": "69003"},
		"datePublished": "2024-05-12T10:00:00+02:00",
		"image": ["https://img.example.com/1.jpg", "https://img.example.com/2.jpg"],
		"mileageFromOdometer": {"@type": "QuantitativeValue", "value": 54000, "unitCode": "KMT"},
		"productionDate": "2016",
		"fuelType": "Diesel",
		"vehicleTransmission": "Manuelle",
		"brand": {"@type": "Brand", "name": "Renault"},
		"model": "Clio IV"
	}`)

	rec := ExtractVehicleRecord(block)
	require.NotNil(t, rec)

	assert.Equal(t, "Renault Clio IV 1.5 dCi", rec.Title)
	assert.Equal(t, 12000, rec.Price)
	assert.Equal(t, "12000 EUR", rec.PriceText)
	assert.Equal(t, "Lyon 69003", rec.Location)
	assert.Equal(t, "2024-05-12T10:00:00+02:00", rec.Date)
	assert.Equal(t, "https://img.example.com/1.jpg", rec.Image)
	assert.Equal(t, 54000, rec.MileageKM)
	assert.Equal(t, 2016, rec.Year)
	assert.Equal(t, "Diesel", rec.Fuel)
	assert.Equal(t, "Manuelle", rec.Gearbox)
	assert.Equal(t, "Renault", rec.Brand)
	assert.Equal(t, "Clio IV", rec.Model)
}

func TestExtractVehicleRecordProductProperties(t *testing.T) {
	block := decodeBlock(t, `{
		"@type": "Product",
		"name": "Peugeot 208 essence",
		"brand": "Peugeot",
		"offers": [{"price": "9 500", "priceCurrency": "EUR"}],
		"additionalProperty": [
			{"name": "Marque", "value": "Citroën"},
			{"name": "Modèle", "value": "208"},
			{"name": "Année modèle", "value": "2019"},
			{"name": "Kilométrage", "value": "85 300 km"},
			{"name": "Carburant", "value": "Essence"},
			{"name": "Boîte de vitesse", "value": "Automatique"}
		]
	}`)

	rec := ExtractVehicleRecord(block)
	require.NotNil(t, rec)

	// the structured brand attribute wins over the property scan
	assert.Equal(t, "Peugeot", rec.Brand)
	assert.Equal(t, "208", rec.Model)
	assert.Equal(t, 2019, rec.Year)
	assert.Equal(t, 9500, rec.Price)
	assert.Equal(t, "9 500 EUR", rec.PriceText)
	assert.Equal(t, 85300, rec.MileageKM)
	assert.Equal(t, "Essence", rec.Fuel)
	assert.Equal(t, "Automatique", rec.Gearbox)
}

func TestExtractVehicleRecordSinglePropertyObject(t *testing.T) {
	block := decodeBlock(t, `{
		"@type": "Product",
		"name": "Voiture",
		"additionalProperty": {"name": "Carburant", "value": "Diesel"}
	}`)

	rec := ExtractVehicleRecord(block)
	require.NotNil(t, rec)
	assert.Equal(t, "Diesel", rec.Fuel)
}

func TestExtractVehicleRecordGraphDescent(t *testing.T) {
	block := decodeBlock(t, `{
		"@context": "https://schema.org",
		"@graph": [
			{"@type": "BreadcrumbList", "itemListElement": []},
			{"@type": "Vehicle", "name": "Dacia Sandero", "brand": {"name": "Dacia"}}
		]
	}`)

	rec := ExtractVehicleRecord(block)
	require.NotNil(t, rec)
	assert.Equal(t, "Dacia Sandero", rec.Title)
	assert.Equal(t, "Dacia", rec.Brand)
}

func TestExtractVehicleRecordListInput(t *testing.T) {
	block := decodeBlock(t, `[
		{"@type": "WebSite", "url": "https://www.leboncoin.fr"},
		{"@type": "Car", "name": "Clio"}
	]`)

	rec := ExtractVehicleRecord(block)
	require.NotNil(t, rec)
	assert.Equal(t, "Clio", rec.Title)
}

func TestExtractVehicleRecordUnusable(t *testing.T) {
	assert.Nil(t, ExtractVehicleRecord(decodeBlock(t, `{"@type": "BreadcrumbList"}`)))
	assert.Nil(t, ExtractVehicleRecord(decodeBlock(t, `"just a string"`)))
	assert.Nil(t, ExtractVehicleRecord(nil))
}

func TestExtractVehicleRecordUntypedWithFields(t *testing.T) {
	// no recognized type, but common fields present: still a record
	rec := ExtractVehicleRecord(decodeBlock(t, `{"name": "Quelque chose", "datePublished": "2023-01-01"}`))
	require.NotNil(t, rec)
	assert.Equal(t, "Quelque chose", rec.Title)
	assert.Equal(t, "2023-01-01", rec.Date)
}
