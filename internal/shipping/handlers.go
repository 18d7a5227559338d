package shipping

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/shiprate/internal/common"
	"github.com/noah-isme/shiprate/internal/resilience"
)

// Handler exposes the rate calculation endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service   *Service
	Validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = common.NewValidator()
	}
	return &Handler{service: cfg.Service, validate: v}
}

// Calculate handles POST /api/v1/rates/calculate.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rate service not configured", nil)
		return
	}
	var form FormData
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(form); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid shipment", common.ValidationDetails(err))
		return
	}
	rates, err := h.service.Calculate(r.Context(), form)
	if err != nil {
		common.WriteError(w, carrierAppError(err))
		return
	}
	common.Data(w, http.StatusOK, rates)
}

// Slabs handles GET /api/v1/rates/slabs.
func (h *Handler) Slabs(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rate service not configured", nil)
		return
	}
	slabs, origin := h.service.ActiveSlabs(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{
		"data":   SortSlabs(slabs),
		"count":  len(slabs),
		"source": origin,
	})
}

type chargeWeightRequest struct {
	Parcels []ParcelInput `json:"parcels" validate:"required,min=1,dive"`
}

// ChargeWeightSummary is the per-parcel and total weight breakdown for a set of parcels.
type ChargeWeightSummary struct {
	Parcels        []ParcelWeight `json:"parcels"`
	TotalKg        float64        `json:"total_kg"`
	WithinRateCard bool           `json:"within_rate_card"`
}

// ChargeWeight handles POST /api/v1/rates/charge-weight.
func (h *Handler) ChargeWeight(w http.ResponseWriter, r *http.Request) {
	var req chargeWeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid parcels", common.ValidationDetails(err))
		return
	}
	maxKg := DefaultSyntheticMaxWeightKg
	if h.service != nil {
		maxKg = h.service.synthetic().MaxWeightKg
	}
	_, parcels := BuildShipment(FormData{Parcels: req.Parcels})
	common.Data(w, http.StatusOK, SummariseChargeWeight(parcels, maxKg))
}

// SummariseChargeWeight computes the weight breakdown used to preview which
// rate-card slab a shipment falls into.
func SummariseChargeWeight(parcels []Parcel, maxKg float64) ChargeWeightSummary {
	out := ChargeWeightSummary{Parcels: make([]ParcelWeight, 0, len(parcels))}
	for _, p := range parcels {
		pw := ParcelChargeWeightKg(p)
		out.Parcels = append(out.Parcels, ParcelWeight{
			ActualKg:     round3(pw.ActualKg),
			VolumetricKg: round3(pw.VolumetricKg),
			ChargeKg:     round3(pw.ChargeKg),
		})
	}
	out.TotalKg = round3(TotalChargeWeightKg(parcels))
	out.WithinRateCard = out.TotalKg <= maxKg
	return out
}

func carrierAppError(err error) *common.AppError {
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return common.NewAppError("CARRIER_UNAVAILABLE", "carrier temporarily unavailable", http.StatusServiceUnavailable, err)
	}
	var carrierErr *CarrierError
	if errors.As(err, &carrierErr) {
		msg := carrierErr.Message
		switch {
		case errors.Is(err, ErrCarrierRejected):
			if msg == "" {
				msg = "carrier rejected the shipment"
			}
			return common.NewAppError("CARRIER_REJECTED", msg, http.StatusUnprocessableEntity, err).
				WithDetails(carrierBody(carrierErr.Body))
		case carrierErr.StatusCode >= 400 && carrierErr.StatusCode < 500:
			if msg == "" {
				msg = "carrier validation failed"
			}
			return common.NewAppError("CARRIER_VALIDATION", msg, http.StatusUnprocessableEntity, err).
				WithDetails(carrierBody(carrierErr.Body))
		}
	}
	return common.NewAppError("CARRIER_ERROR", "failed to fetch carrier rates", http.StatusBadGateway, err)
}

func carrierBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
