package shipping

import "strings"

// DefaultHomeCountry is the ISO 3166-1 alpha-3 code of the operating country.
const DefaultHomeCountry = "THA"

// regionAPostalPrefix marks Bangkok postal codes.
const regionAPostalPrefix = "10"

// ShipmentType describes the direction of a shipment relative to the home country.
type ShipmentType string

const (
	ShipmentDomestic    ShipmentType = "domestic"
	ShipmentImport      ShipmentType = "import"
	ShipmentExport      ShipmentType = "export"
	ShipmentCrossBorder ShipmentType = "cross-border"
)

// Classify derives the shipment type from origin and destination country codes.
// An empty home falls back to DefaultHomeCountry.
func Classify(originCountry, destCountry, home string) ShipmentType {
	if strings.TrimSpace(home) == "" {
		home = DefaultHomeCountry
	}
	fromHome := sameCountry(originCountry, home)
	toHome := sameCountry(destCountry, home)
	switch {
	case fromHome && toHome:
		return ShipmentDomestic
	case toHome:
		return ShipmentImport
	case fromHome:
		return ShipmentExport
	default:
		return ShipmentCrossBorder
	}
}

// IsRegionA reports whether either postal code belongs to the Bangkok pricing region.
func IsRegionA(originPostalCode, destPostalCode string) bool {
	return strings.HasPrefix(strings.TrimSpace(originPostalCode), regionAPostalPrefix) ||
		strings.HasPrefix(strings.TrimSpace(destPostalCode), regionAPostalPrefix)
}

func sameCountry(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
