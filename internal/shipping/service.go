package shipping

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/shiprate/internal/obs"
)

// DefaultSyntheticMaxWeightKg is the heaviest shipment the domestic rate card covers.
const DefaultSyntheticMaxWeightKg = 35.0

// SlabOrigin tells where an active rate card came from.
type SlabOrigin string

const (
	SlabOriginRemote  SlabOrigin = "remote"
	SlabOriginDefault SlabOrigin = "default"
)

// SyntheticCarrier describes the domestic service priced from the rate card.
type SyntheticCarrier struct {
	AccountID   string
	Slug        string
	Description string
	ServiceType string
	ServiceName string
	Currency    string
	MaxWeightKg float64
}

// DefaultSyntheticCarrier returns the Thailand Post domestic service.
func DefaultSyntheticCarrier() SyntheticCarrier {
	return SyntheticCarrier{
		AccountID:   "thailand-post-domestic",
		Slug:        "thailand-post",
		Description: "Thailand Post",
		ServiceType: "thailand-post_ems_domestic",
		ServiceName: "EMS Domestic",
		Currency:    "THB",
		MaxWeightKg: DefaultSyntheticMaxWeightKg,
	}
}

// Service calculates shipping rates for a submitted shipment form.
type Service struct {
	Carrier      CarrierClient
	Slabs        SlabSource
	DefaultSlabs []RateSlab
	HomeCountry  string
	Synthetic    SyntheticCarrier
	Resolver     Resolver
	Logger       *zerolog.Logger
}

var serviceNopLogger = zerolog.Nop()

// Calculate quotes the shipment with the carrier API. For domestic shipments
// within the home country it also prices the synthetic carrier from the rate
// card and prepends that quote, unless the carrier already quoted it or the
// shipment exceeds the rate card's weight limit.
func (s *Service) Calculate(ctx context.Context, form FormData) ([]Rate, error) {
	if s.Carrier == nil {
		return nil, errors.New("carrier client not configured")
	}
	ctx, span := otel.Tracer("shipping.Service").Start(ctx, "RateService.Calculate")
	defer span.End()

	shipment, parcels := BuildShipment(form)
	shipmentType := Classify(shipment.ShipFrom.Country, shipment.ShipTo.Country, s.homeCountry())
	span.SetAttributes(
		attribute.String("shipment.type", string(shipmentType)),
		attribute.Int("shipment.parcels", len(parcels)),
	)

	rates, err := s.Carrier.Rates(ctx, CarrierRateRequest{
		PrepareData: PrepareData{
			Shipment:             shipment,
			PickUpDate:           form.PickUpDate,
			ExpectedDeliveryDate: form.ExpectedDeliveryDate,
		},
		Type: shipmentType,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "carrier rates")
		s.record(shipmentType, "carrier_error")
		s.loggerFor(ctx).Error().Err(err).Str("shipment_type", string(shipmentType)).Msg("carrier_rates_failed")
		return nil, err
	}

	if shipmentType == ShipmentDomestic {
		synthetic, ok := s.syntheticRate(ctx, shipment, parcels, rates)
		if ok {
			rates = append([]Rate{synthetic}, rates...)
		}
	}
	span.SetAttributes(attribute.Int("rates.count", len(rates)))
	s.record(shipmentType, "ok")
	return rates, nil
}

func (s *Service) syntheticRate(ctx context.Context, shipment CarrierShipment, parcels []Parcel, rates []Rate) (Rate, bool) {
	carrier := s.synthetic()
	weight := TotalChargeWeightKg(parcels)
	if weight > carrier.MaxWeightKg {
		s.recordSynthetic("over_weight")
		return Rate{}, false
	}
	if HasSlug(rates, carrier.Slug) {
		s.recordSynthetic("carrier_quoted")
		return Rate{}, false
	}

	slabs, _ := s.ActiveSlabs(ctx)
	regionA := IsRegionA(shipment.ShipFrom.PostalCode, shipment.ShipTo.PostalCode)
	res, err := s.Resolver.Resolve(ctx, weight, slabs, regionA)
	if err != nil {
		s.loggerFor(ctx).Warn().Err(err).Float64("weight_kg", weight).Msg("rate_slab_resolve_failed")
		s.recordSynthetic("no_slab")
		return Rate{}, false
	}
	s.recordSynthetic("added")

	return Rate{
		ShipperAccount: ShipperAccount{
			ID:          carrier.AccountID,
			Slug:        carrier.Slug,
			Description: carrier.Description,
		},
		ServiceType:  carrier.ServiceType,
		ServiceName:  carrier.ServiceName,
		ChargeWeight: &Weight{Value: round3(weight), Unit: string(WeightKg)},
		TotalCharge:  &Money{Amount: res.Price, Currency: carrier.Currency},
	}, true
}

// ActiveSlabs returns the rate card in effect. Any failure to load the remote
// table, or an empty remote table, falls back to the default table.
func (s *Service) ActiveSlabs(ctx context.Context) ([]RateSlab, SlabOrigin) {
	if s.Slabs != nil {
		slabs, err := s.Slabs.Slabs(ctx)
		if err == nil && len(slabs) > 0 {
			return slabs, SlabOriginRemote
		}
		evt := s.loggerFor(ctx).Warn()
		if err != nil {
			evt = evt.Err(err)
		}
		evt.Msg("rate_slab_fallback")
		if obs.SlabSourceFallbackTotal != nil {
			obs.SlabSourceFallbackTotal.Inc()
		}
	}
	return s.defaultSlabs(), SlabOriginDefault
}

func (s *Service) defaultSlabs() []RateSlab {
	if len(s.DefaultSlabs) > 0 {
		return s.DefaultSlabs
	}
	return DefaultSlabs()
}

func (s *Service) homeCountry() string {
	if s.HomeCountry == "" {
		return DefaultHomeCountry
	}
	return s.HomeCountry
}

func (s *Service) synthetic() SyntheticCarrier {
	c := s.Synthetic
	def := DefaultSyntheticCarrier()
	if c.Slug == "" {
		c.Slug = def.Slug
	}
	if c.AccountID == "" {
		c.AccountID = def.AccountID
	}
	if c.Description == "" {
		c.Description = def.Description
	}
	if c.ServiceType == "" {
		c.ServiceType = def.ServiceType
	}
	if c.ServiceName == "" {
		c.ServiceName = def.ServiceName
	}
	if c.Currency == "" {
		c.Currency = def.Currency
	}
	if c.MaxWeightKg <= 0 {
		c.MaxWeightKg = def.MaxWeightKg
	}
	return c
}

func (s *Service) record(shipmentType ShipmentType, result string) {
	if obs.RateCalculationsTotal != nil {
		obs.RateCalculationsTotal.WithLabelValues(string(shipmentType), result).Inc()
	}
}

func (s *Service) recordSynthetic(result string) {
	if obs.SyntheticRateTotal != nil {
		obs.SyntheticRateTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	if s.Logger == nil {
		return &serviceNopLogger
	}
	return s.Logger
}

func round3(v float64) float64 {
	return decimal.NewFromFloat(finiteOrZero(v)).Round(3).InexactFloat64()
}
