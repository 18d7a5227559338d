package shipping

import "encoding/json"

// ShipperAccount identifies the carrier account a rate was quoted for.
type ShipperAccount struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// Weight is a value with its unit as exchanged with the carrier API.
type Weight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Money is an amount with its ISO 4217 currency.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Rate is a single quoted service. Rates are either relayed from the carrier
// API or synthesised from the domestic rate card.
type Rate struct {
	ShipperAccount ShipperAccount  `json:"shipper_account"`
	ServiceType    string          `json:"service_type"`
	ServiceName    string          `json:"service_name"`
	ChargeWeight   *Weight         `json:"charge_weight"`
	TotalCharge    *Money          `json:"total_charge"`
	TransitTime    json.RawMessage `json:"transit_time,omitempty"`
	ErrorMessage   *string         `json:"error_message"`
	InfoMessage    *string         `json:"info_message"`
}

// HasSlug reports whether any rate was quoted by the carrier identified by slug.
func HasSlug(rates []Rate, slug string) bool {
	for _, r := range rates {
		if r.ShipperAccount.Slug == slug {
			return true
		}
	}
	return false
}
