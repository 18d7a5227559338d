package shipping

// defaultSlabs is the built-in domestic rate card used when the remote slab
// list is unavailable. Prices are in THB.
var defaultSlabs = [...]RateSlab{
	{MinWeightKg: 0, MaxWeightKg: 0.25, RegionACharge: 32, RegionBCharge: 42},
	{MinWeightKg: 0.251, MaxWeightKg: 0.5, RegionACharge: 37, RegionBCharge: 47},
	{MinWeightKg: 0.501, MaxWeightKg: 0.75, RegionACharge: 42, RegionBCharge: 52},
	{MinWeightKg: 0.751, MaxWeightKg: 1, RegionACharge: 47, RegionBCharge: 57},
	{MinWeightKg: 1.001, MaxWeightKg: 1.5, RegionACharge: 55, RegionBCharge: 65},
	{MinWeightKg: 1.501, MaxWeightKg: 2, RegionACharge: 62, RegionBCharge: 72},
	{MinWeightKg: 2.001, MaxWeightKg: 3, RegionACharge: 75, RegionBCharge: 90},
	{MinWeightKg: 3.001, MaxWeightKg: 4, RegionACharge: 87, RegionBCharge: 105},
	{MinWeightKg: 4.001, MaxWeightKg: 5, RegionACharge: 99, RegionBCharge: 120},
	{MinWeightKg: 5.001, MaxWeightKg: 6, RegionACharge: 111, RegionBCharge: 135},
	{MinWeightKg: 6.001, MaxWeightKg: 7, RegionACharge: 123, RegionBCharge: 150},
	{MinWeightKg: 7.001, MaxWeightKg: 8, RegionACharge: 135, RegionBCharge: 165},
	{MinWeightKg: 8.001, MaxWeightKg: 9, RegionACharge: 147, RegionBCharge: 180},
	{MinWeightKg: 9.001, MaxWeightKg: 10, RegionACharge: 159, RegionBCharge: 195},
	{MinWeightKg: 10.001, MaxWeightKg: 11, RegionACharge: 171, RegionBCharge: 210},
	{MinWeightKg: 11.001, MaxWeightKg: 12, RegionACharge: 183, RegionBCharge: 225},
	{MinWeightKg: 12.001, MaxWeightKg: 13, RegionACharge: 195, RegionBCharge: 240},
	{MinWeightKg: 13.001, MaxWeightKg: 14, RegionACharge: 207, RegionBCharge: 255},
	{MinWeightKg: 14.001, MaxWeightKg: 15, RegionACharge: 219, RegionBCharge: 270},
	{MinWeightKg: 15.001, MaxWeightKg: 16, RegionACharge: 231, RegionBCharge: 285},
	{MinWeightKg: 16.001, MaxWeightKg: 17, RegionACharge: 243, RegionBCharge: 300},
	{MinWeightKg: 17.001, MaxWeightKg: 18, RegionACharge: 255, RegionBCharge: 315},
	{MinWeightKg: 18.001, MaxWeightKg: 19, RegionACharge: 267, RegionBCharge: 330},
	{MinWeightKg: 19.001, MaxWeightKg: 20, RegionACharge: 279, RegionBCharge: 345},
	{MinWeightKg: 20.001, MaxWeightKg: 21, RegionACharge: 291, RegionBCharge: 360},
	{MinWeightKg: 21.001, MaxWeightKg: 22, RegionACharge: 303, RegionBCharge: 375},
	{MinWeightKg: 22.001, MaxWeightKg: 23, RegionACharge: 315, RegionBCharge: 390},
	{MinWeightKg: 23.001, MaxWeightKg: 24, RegionACharge: 327, RegionBCharge: 405},
	{MinWeightKg: 24.001, MaxWeightKg: 25, RegionACharge: 339, RegionBCharge: 420},
	{MinWeightKg: 25.001, MaxWeightKg: 26, RegionACharge: 351, RegionBCharge: 435},
	{MinWeightKg: 26.001, MaxWeightKg: 27, RegionACharge: 363, RegionBCharge: 450},
	{MinWeightKg: 27.001, MaxWeightKg: 28, RegionACharge: 375, RegionBCharge: 465},
	{MinWeightKg: 28.001, MaxWeightKg: 29, RegionACharge: 387, RegionBCharge: 480},
	{MinWeightKg: 29.001, MaxWeightKg: 30, RegionACharge: 399, RegionBCharge: 495},
	{MinWeightKg: 30.001, MaxWeightKg: 31, RegionACharge: 411, RegionBCharge: 510},
	{MinWeightKg: 31.001, MaxWeightKg: 32, RegionACharge: 423, RegionBCharge: 525},
	{MinWeightKg: 32.001, MaxWeightKg: 33, RegionACharge: 435, RegionBCharge: 540},
	{MinWeightKg: 33.001, MaxWeightKg: 34, RegionACharge: 447, RegionBCharge: 555},
	{MinWeightKg: 34.001, MaxWeightKg: 35, RegionACharge: 459, RegionBCharge: 570},
}

// DefaultSlabs returns a fresh copy of the built-in rate card.
func DefaultSlabs() []RateSlab {
	out := make([]RateSlab, len(defaultSlabs))
	copy(out, defaultSlabs[:])
	return out
}
