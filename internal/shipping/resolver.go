package shipping

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/shiprate/internal/obs"
)

var resolverNopLogger = zerolog.Nop()

// ErrNoRateSlabs is returned when a lookup is attempted against an empty table.
var ErrNoRateSlabs = errors.New("no rate slabs configured")

// MatchKind records which lookup rule selected a slab.
type MatchKind string

const (
	MatchExact      MatchKind = "exact"
	MatchTolerance  MatchKind = "tolerance"
	MatchBelowRange MatchKind = "below_range"
	MatchAboveRange MatchKind = "above_range"
	MatchNearest    MatchKind = "nearest"
)

const slabRoundPlaces = 3

// slabBoundaryTolerance lets a weight sit slightly above a slab's upper bound
// and still match it.
var slabBoundaryTolerance = decimal.RequireFromString("0.01")

// Resolution is the outcome of a slab lookup.
type Resolution struct {
	Slab  RateSlab  `json:"slab"`
	Price float64   `json:"price"`
	Match MatchKind `json:"match"`
}

// Resolver finds the rate slab covering a chargeable weight.
type Resolver struct {
	Logger *zerolog.Logger
}

// Resolve looks up the slab for weightKg and returns its price for the
// requested region. Weights and bounds are compared at gram precision; a
// weight up to 0.01 kg above a slab's upper bound still matches that slab.
// Out-of-range weights clamp to the first or last slab, and any remaining
// miss falls back to the slab whose minimum is closest.
func (r Resolver) Resolve(ctx context.Context, weightKg float64, slabs []RateSlab, regionA bool) (Resolution, error) {
	if len(slabs) == 0 {
		return Resolution{}, ErrNoRateSlabs
	}
	sorted := SortSlabs(slabs)
	res := matchSlab(weightKg, sorted)
	res.Price = res.Slab.Price(regionA)

	if obs.SlabMatchTotal != nil {
		obs.SlabMatchTotal.WithLabelValues(string(res.Match)).Inc()
	}
	if res.Match == MatchNearest {
		r.loggerFor(ctx).Warn().
			Float64("weight_kg", weightKg).
			Float64("slab_min_kg", res.Slab.MinWeightKg).
			Float64("slab_max_kg", res.Slab.MaxWeightKg).
			Int("slab_count", len(sorted)).
			Msg("rate_slab_nearest_fallback")
	}
	return res, nil
}

func matchSlab(weightKg float64, sorted []RateSlab) Resolution {
	weight := roundKg(weightKg)

	for _, s := range sorted {
		if weight.GreaterThanOrEqual(roundKg(s.MinWeightKg)) && weight.LessThanOrEqual(roundKg(s.MaxWeightKg)) {
			return Resolution{Slab: s, Match: MatchExact}
		}
	}
	for _, s := range sorted {
		over := weight.Sub(roundKg(s.MaxWeightKg))
		if !over.IsNegative() && over.LessThanOrEqual(slabBoundaryTolerance) {
			return Resolution{Slab: s, Match: MatchTolerance}
		}
	}

	first, last := sorted[0], sorted[len(sorted)-1]
	if weight.LessThan(roundKg(first.MinWeightKg)) {
		return Resolution{Slab: first, Match: MatchBelowRange}
	}
	if weight.GreaterThan(roundKg(last.MaxWeightKg)) {
		return Resolution{Slab: last, Match: MatchAboveRange}
	}

	nearest := sorted[0]
	best := math.Abs(weightKg - nearest.MinWeightKg)
	for _, s := range sorted[1:] {
		if diff := math.Abs(weightKg - s.MinWeightKg); diff < best {
			best = diff
			nearest = s
		}
	}
	return Resolution{Slab: nearest, Match: MatchNearest}
}

func roundKg(v float64) decimal.Decimal {
	return decimal.NewFromFloat(finiteOrZero(v)).Round(slabRoundPlaces)
}

func (r Resolver) loggerFor(ctx context.Context) *zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger != nil && ctxLogger.GetLevel() != zerolog.Disabled {
		return ctxLogger
	}
	if r.Logger == nil {
		return &resolverNopLogger
	}
	return r.Logger
}
