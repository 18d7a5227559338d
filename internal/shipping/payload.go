package shipping

import "strings"

const defaultBoxType = "custom"

// Address is a sender or receiver address as captured by the shipment form.
type Address struct {
	ContactName string `json:"contact_name" validate:"required"`
	CompanyName string `json:"company_name,omitempty"`
	Street1     string `json:"street1" validate:"required"`
	Street2     string `json:"street2,omitempty"`
	Street3     string `json:"street3,omitempty"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postal_code" validate:"required"`
	Country     string `json:"country" validate:"required,len=3"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Type        string `json:"type,omitempty" validate:"omitempty,oneof=residential business"`
}

// Item describes parcel contents for customs declarations.
type Item struct {
	Description   string  `json:"description"`
	Quantity      int     `json:"quantity"`
	Price         *Money  `json:"price,omitempty"`
	Weight        *Weight `json:"weight,omitempty"`
	SKU           string  `json:"sku,omitempty"`
	OriginCountry string  `json:"origin_country,omitempty"`
	HSCode        string  `json:"hs_code,omitempty"`
}

// ParcelInput is a parcel as submitted by the form. Numeric fields accept
// numbers or numeric strings.
type ParcelInput struct {
	Description   string        `json:"description,omitempty"`
	BoxType       string        `json:"box_type,omitempty"`
	Width         Number        `json:"width"`
	Height        Number        `json:"height"`
	Depth         Number        `json:"depth"`
	DimensionUnit DimensionUnit `json:"dimension_unit" validate:"omitempty,oneof=cm in"`
	WeightValue   Number        `json:"weight_value"`
	WeightUnit    WeightUnit    `json:"weight_unit" validate:"omitempty,oneof=kg lb"`
	Items         []Item        `json:"items,omitempty"`
}

// FormData is the rate calculation request submitted by the back office.
type FormData struct {
	ShipFrom             Address       `json:"ship_from" validate:"required"`
	ShipTo               Address       `json:"ship_to" validate:"required"`
	Parcels              []ParcelInput `json:"parcels" validate:"required,min=1,dive"`
	PickUpDate           string        `json:"pick_up_date,omitempty"`
	ExpectedDeliveryDate string        `json:"expected_delivery_date,omitempty"`
}

// Dimension is a parcel's box size as sent to the carrier.
type Dimension struct {
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Depth  float64       `json:"depth"`
	Unit   DimensionUnit `json:"unit"`
}

// CarrierParcel is a parcel in the carrier API's shape.
type CarrierParcel struct {
	Description string    `json:"description,omitempty"`
	BoxType     string    `json:"box_type"`
	Dimension   Dimension `json:"dimension"`
	Weight      Weight    `json:"weight"`
	Items       []Item    `json:"items"`
}

// CarrierShipment is the normalised shipment sent for rating.
type CarrierShipment struct {
	ShipFrom Address         `json:"ship_from"`
	ShipTo   Address         `json:"ship_to"`
	Parcels  []CarrierParcel `json:"parcels"`
}

// PrepareData wraps the shipment with the requested dates.
type PrepareData struct {
	Shipment             CarrierShipment `json:"shipment"`
	PickUpDate           string          `json:"pick_up_date,omitempty"`
	ExpectedDeliveryDate string          `json:"expected_delivery_date,omitempty"`
}

// CarrierRateRequest is the body posted to the carrier rate endpoint.
type CarrierRateRequest struct {
	PrepareData PrepareData  `json:"preparedata"`
	Type        ShipmentType `json:"type"`
}

// BuildShipment maps form data onto the carrier payload and the parcels used
// for weight computation. Missing units default to kilograms and centimetres.
func BuildShipment(form FormData) (CarrierShipment, []Parcel) {
	shipment := CarrierShipment{
		ShipFrom: normaliseAddress(form.ShipFrom),
		ShipTo:   normaliseAddress(form.ShipTo),
		Parcels:  make([]CarrierParcel, 0, len(form.Parcels)),
	}
	parcels := make([]Parcel, 0, len(form.Parcels))
	for _, in := range form.Parcels {
		p := Parcel{
			Width:         in.Width.Float(),
			Height:        in.Height.Float(),
			Depth:         in.Depth.Float(),
			DimensionUnit: unitOr(normaliseDimensionUnit(in.DimensionUnit), DimensionCm),
			WeightValue:   in.WeightValue.Float(),
			WeightUnit:    unitOr(normaliseWeightUnit(in.WeightUnit), WeightKg),
		}
		parcels = append(parcels, p)

		items := in.Items
		if items == nil {
			items = []Item{}
		}
		boxType := strings.TrimSpace(in.BoxType)
		if boxType == "" {
			boxType = defaultBoxType
		}
		shipment.Parcels = append(shipment.Parcels, CarrierParcel{
			Description: strings.TrimSpace(in.Description),
			BoxType:     boxType,
			Dimension:   Dimension{Width: p.Width, Height: p.Height, Depth: p.Depth, Unit: p.DimensionUnit},
			Weight:      Weight{Value: p.WeightValue, Unit: string(p.WeightUnit)},
			Items:       items,
		})
	}
	return shipment, parcels
}

func normaliseAddress(a Address) Address {
	a.ContactName = strings.TrimSpace(a.ContactName)
	a.CompanyName = strings.TrimSpace(a.CompanyName)
	a.Street1 = strings.TrimSpace(a.Street1)
	a.Street2 = strings.TrimSpace(a.Street2)
	a.Street3 = strings.TrimSpace(a.Street3)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	a.Phone = strings.TrimSpace(a.Phone)
	a.Email = strings.TrimSpace(a.Email)
	return a
}

func unitOr[T ~string](unit, fallback T) T {
	if unit == "" {
		return fallback
	}
	return unit
}
