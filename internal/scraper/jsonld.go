package scraper

import (
	"strings"
)

// Vehicle-specific and generic product types recognized in linked data
var (
	vehicleTypes = map[string]struct{}{"Car": {}, "Vehicle": {}}

	// container fields descended into when a node's type is not recognized
	jsonLDContainers = []string{"@graph", "itemListElement", "hasPart"}

	// date-like fields scanned for a model year, in order
	vehicleYearKeys = []string{"productionDate", "releaseDate", "modelDate", "vehicleModelDate"}
)

// ExtractVehicleRecord extracts a vehicle/product record from one parsed
// linked-data block. Nodes with an unrecognized type are searched through
// their graph/part/list-item containers. Returns nil when the block holds
// nothing usable.
func ExtractVehicleRecord(node interface{}) *Listing {
	switch n := node.(type) {
	case []interface{}:
		for _, item := range n {
			if rec := ExtractVehicleRecord(item); rec != nil {
				return rec
			}
		}
		return nil
	case map[string]interface{}:
		return extractFromObject(n)
	}
	return nil
}

func extractFromObject(data map[string]interface{}) *Listing {
	atType := jsonString(data["@type"])
	_, isVehicle := vehicleTypes[atType]
	isProduct := atType == "Product"

	if !isVehicle && !isProduct {
		for _, key := range jsonLDContainers {
			if items, ok := data[key].([]interface{}); ok {
				for _, item := range items {
					if rec := ExtractVehicleRecord(item); rec != nil {
						return rec
					}
				}
			}
		}
	}

	rec := &Listing{
		Title: firstString(data, "name", "headline", "title"),
		Date:  firstString(data, "datePublished", "availabilityStarts"),
	}
	extractOffer(data, rec)
	extractAddress(data, rec)
	rec.Image = extractImage(data)

	switch {
	case isVehicle:
		if odo, ok := data["mileageFromOdometer"].(map[string]interface{}); ok {
			if km, ok := ParseCount(jsonString(odo["value"])); ok {
				rec.MileageKM = km
			}
		}
		for _, key := range vehicleYearKeys {
			if raw := jsonString(data[key]); raw != "" {
				if y, ok := ParseYear(raw); ok {
					rec.Year = y
					break
				}
			}
		}
		rec.Fuel = jsonString(data["fuelType"])
		rec.Gearbox = jsonString(data["vehicleTransmission"])
		rec.Brand = nameOrString(data["brand"])
		rec.Model = nameOrString(data["model"])
		return rec

	case isProduct:
		rec.Brand = nameOrString(data["brand"])
		rec.Model = nameOrString(data["model"])
		extractAdditionalProperties(data, rec)
		return rec
	}

	if rec.IsEmpty() {
		return nil
	}
	return rec
}

// extractOffer fills price fields from the offer sub-object. A list of
// offers contributes only its first element.
func extractOffer(data map[string]interface{}, rec *Listing) {
	offers := data["offers"]
	if list, ok := offers.([]interface{}); ok {
		if len(list) == 0 {
			return
		}
		offers = list[0]
	}
	offer, ok := offers.(map[string]interface{})
	if !ok {
		return
	}
	raw := jsonString(offer["price"])
	if raw == "" {
		return
	}
	if price, ok := ParseCount(raw); ok {
		rec.Price = price
	}
	rec.PriceText = strings.TrimSpace(raw + " " + jsonString(offer["priceCurrency"]))
}

// extractAddress joins city-or-region and postal code into the location
func extractAddress(data map[string]interface{}, rec *Listing) {
	addr, ok := data["address"].(map[string]interface{})
	if !ok {
		return
	}
	city := firstString(addr, "addressLocality", "addressRegion")
	zipcode := jsonString(addr["postalCode"])

	parts := make([]string, 0, 2)
	if city != "" {
		parts = append(parts, city)
	}
	if zipcode != "" {
		parts = append(parts, zipcode)
	}
	rec.Location = strings.TrimSpace(strings.Join(parts, " "))
}

// extractImage returns the first image URL, from either the singular or
// plural image field, each possibly a string or a url-bearing object.
func extractImage(data map[string]interface{}) string {
	imgs := data["image"]
	if imgs == nil {
		imgs = data["images"]
	}
	switch v := imgs.(type) {
	case string:
		return v
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		if s, ok := v[0].(string); ok {
			return s
		}
		if obj, ok := v[0].(map[string]interface{}); ok {
			return jsonString(obj["url"])
		}
	}
	return ""
}

// extractAdditionalProperties scans the label/value property list of a
// generic product node. Labels are matched case-insensitively against
// French and English substrings; a field already set from a structured
// attribute is never overwritten.
func extractAdditionalProperties(data map[string]interface{}, rec *Listing) {
	props := data["additionalProperty"]
	if props == nil {
		props = data["additionalProperties"]
	}
	// a single object is treated as a one-element list
	if obj, ok := props.(map[string]interface{}); ok {
		props = []interface{}{obj}
	}
	list, ok := props.([]interface{})
	if !ok {
		return
	}

	for _, item := range list {
		prop, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(jsonString(prop["name"])))
		value := strings.TrimSpace(jsonString(prop["value"]))
		if label == "" || value == "" {
			continue
		}
		applyCriterion(rec, label, value)
	}
}

// applyCriterion maps a label/value criterion pair onto the record. Shared by
// the linked-data property scan and the DOM criteria-list fallback.
func applyCriterion(rec *Listing, label, value string) {
	switch {
	case strings.Contains(label, "marque") && rec.Brand == "":
		rec.Brand = value
	case strings.Contains(label, "mod") && rec.Model == "":
		rec.Model = value
	case strings.Contains(label, "année") && rec.Year == 0:
		if y, ok := ParseYear(value); ok {
			rec.Year = y
		}
	case strings.Contains(label, "kilom") && rec.MileageKM == 0:
		if km, ok := ParseCount(value); ok {
			rec.MileageKM = km
		}
	case (strings.Contains(label, "carburant") || strings.Contains(label, "fuel")) && rec.Fuel == "":
		rec.Fuel = value
	case (strings.Contains(label, "boite") || strings.Contains(label, "boîte") || strings.Contains(label, "transmission")) && rec.Gearbox == "":
		rec.Gearbox = value
	}
}

// nameOrString handles fields that are either a nested name-bearing
// object or a plain string.
func nameOrString(v interface{}) string {
	if obj, ok := v.(map[string]interface{}); ok {
		return jsonString(obj["name"])
	}
	return jsonString(v)
}

// IsEmpty reports whether no field of the listing is populated
func (l *Listing) IsEmpty() bool {
	return l.Title == "" && l.PriceText == "" && l.Price == 0 &&
		l.Location == "" && l.Date == "" && l.URL == "" && l.Image == "" &&
		l.Year == 0 && l.MileageKM == 0 && l.Fuel == "" && l.Gearbox == "" &&
		l.Brand == "" && l.Model == "" && len(l.Errors) == 0
}
