package shipping

import (
	"errors"
	"fmt"
	"sort"
)

// RateSlab prices one weight band for both delivery regions.
type RateSlab struct {
	MinWeightKg   float64 `json:"min_weight_kg"`
	MaxWeightKg   float64 `json:"max_weight_kg"`
	RegionACharge float64 `json:"bkk_price"`
	RegionBCharge float64 `json:"upcountry_price"`
}

// ErrInvalidSlab is returned when a slab has inverted or negative bounds.
var ErrInvalidSlab = errors.New("invalid rate slab")

// Validate checks the slab bounds and prices.
func (s RateSlab) Validate() error {
	if s.MinWeightKg < 0 || s.MaxWeightKg < 0 {
		return fmt.Errorf("%w: negative weight bound", ErrInvalidSlab)
	}
	if s.MinWeightKg > s.MaxWeightKg {
		return fmt.Errorf("%w: min %.3f exceeds max %.3f", ErrInvalidSlab, s.MinWeightKg, s.MaxWeightKg)
	}
	if s.RegionACharge < 0 || s.RegionBCharge < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidSlab)
	}
	return nil
}

// Price returns the charge for the requested region.
func (s RateSlab) Price(regionA bool) float64 {
	if regionA {
		return s.RegionACharge
	}
	return s.RegionBCharge
}

// SortSlabs returns a copy of slabs ordered by ascending minimum weight.
func SortSlabs(slabs []RateSlab) []RateSlab {
	out := make([]RateSlab, len(slabs))
	copy(out, slabs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinWeightKg < out[j].MinWeightKg
	})
	return out
}

// ValidateSlabs validates every slab in the table.
func ValidateSlabs(slabs []RateSlab) error {
	for i, s := range slabs {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("slab %d: %w", i, err)
		}
	}
	return nil
}
