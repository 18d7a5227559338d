package shipping

// VolumetricDivisor converts cubic centimetres into volumetric kilograms.
const VolumetricDivisor = 5000.0

// VolumetricWeightKg returns the dimensional weight of a box in kilograms.
// Any non-positive dimension yields zero.
func VolumetricWeightKg(width, height, depth float64, unit DimensionUnit) float64 {
	w := DimensionToCm(width, unit)
	h := DimensionToCm(height, unit)
	d := DimensionToCm(depth, unit)
	if w <= 0 || h <= 0 || d <= 0 {
		return 0
	}
	return (w * h * d) / VolumetricDivisor
}
