package shipping

import "math"

// MinChargeWeightKg is used when a shipment has no measurable weight.
const MinChargeWeightKg = 1.0

// Parcel is a single box as captured by the shipment form.
type Parcel struct {
	Width         float64
	Height        float64
	Depth         float64
	DimensionUnit DimensionUnit
	WeightValue   float64
	WeightUnit    WeightUnit
}

// ParcelWeight breaks down how a parcel's chargeable weight was derived.
type ParcelWeight struct {
	ActualKg     float64 `json:"actual_kg"`
	VolumetricKg float64 `json:"volumetric_kg"`
	ChargeKg     float64 `json:"charge_kg"`
}

// ParcelChargeWeightKg returns the greater of the actual and volumetric weight.
func ParcelChargeWeightKg(p Parcel) ParcelWeight {
	actual := WeightToKg(p.WeightValue, p.WeightUnit)
	volumetric := VolumetricWeightKg(p.Width, p.Height, p.Depth, p.DimensionUnit)
	return ParcelWeight{
		ActualKg:     actual,
		VolumetricKg: volumetric,
		ChargeKg:     math.Max(actual, volumetric),
	}
}

// TotalChargeWeightKg sums per-parcel chargeable weight. An empty shipment or
// a zero total yields MinChargeWeightKg.
func TotalChargeWeightKg(parcels []Parcel) float64 {
	if len(parcels) == 0 {
		return MinChargeWeightKg
	}
	var total float64
	for _, p := range parcels {
		total += ParcelChargeWeightKg(p).ChargeKg
	}
	if total == 0 {
		return MinChargeWeightKg
	}
	return total
}
