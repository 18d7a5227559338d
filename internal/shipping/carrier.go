package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/noah-isme/shiprate/internal/obs"
)

const maxCarrierBody = 4 << 20

var (
	// ErrCarrierRejected is returned when the carrier answers with a non-success
	// code inside an otherwise successful response.
	ErrCarrierRejected = errors.New("carrier rejected rate request")
	// ErrCarrierStatus is returned when the carrier responds with an HTTP error status.
	ErrCarrierStatus = errors.New("carrier returned error status")
)

// CarrierError carries the carrier's response so callers can surface
// field-level validation messages.
type CarrierError struct {
	StatusCode int
	Code       int
	Message    string
	Body       []byte
	Err        error
}

func (e *CarrierError) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%v: %s", e.Err, msg)
}

func (e *CarrierError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Doer sends HTTP requests. resilience.HTTPClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CarrierClient quotes rates from the external carrier API.
type CarrierClient interface {
	Rates(ctx context.Context, req CarrierRateRequest) ([]Rate, error)
}

type carrierMeta struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type carrierRatesResponse struct {
	Meta carrierMeta `json:"meta"`
	Data struct {
		Rates []Rate `json:"rates"`
	} `json:"data"`
}

// HTTPCarrier calls the carrier rate endpoint over HTTP.
type HTTPCarrier struct {
	Endpoint string
	APIKey   string
	Client   Doer
}

// Rates posts the prepared shipment and returns the quoted rates.
func (c HTTPCarrier) Rates(ctx context.Context, req CarrierRateRequest) ([]Rate, error) {
	if c.Client == nil || strings.TrimSpace(c.Endpoint) == "" {
		return nil, errors.New("carrier client not configured")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode rate request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if key := strings.TrimSpace(c.APIKey); key != "" {
		httpReq.Header.Set("as-api-key", key)
	}
	httpReq.Header.Set(middleware.RequestIDHeader, requestID(ctx))

	start := time.Now()
	rates, err := c.do(ctx, httpReq)
	observeCarrier(start, err)
	return rates, err
}

func (c HTTPCarrier) do(ctx context.Context, httpReq *http.Request) ([]Rate, error) {
	resp, err := c.Client.Do(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCarrierBody))
	if err != nil {
		return nil, fmt.Errorf("read carrier response: %w", err)
	}

	var parsed carrierRatesResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &CarrierError{
			StatusCode: resp.StatusCode,
			Code:       parsed.Meta.Code,
			Message:    parsed.Meta.Message,
			Body:       body,
			Err:        ErrCarrierStatus,
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode carrier response: %w", decodeErr)
	}
	if parsed.Meta.Code < 200 || parsed.Meta.Code > 299 {
		return nil, &CarrierError{
			StatusCode: resp.StatusCode,
			Code:       parsed.Meta.Code,
			Message:    parsed.Meta.Message,
			Body:       body,
			Err:        ErrCarrierRejected,
		}
	}
	if parsed.Data.Rates == nil {
		return []Rate{}, nil
	}
	return parsed.Data.Rates, nil
}

// requestID propagates the inbound request id, or mints one for calls made
// outside an HTTP request.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func observeCarrier(start time.Time, err error) {
	if obs.CarrierRequestLatency == nil {
		return
	}
	result := "ok"
	var carrierErr *CarrierError
	switch {
	case err == nil:
	case errors.As(err, &carrierErr):
		result = "rejected"
	default:
		result = "error"
	}
	obs.CarrierRequestLatency.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
}

// MockCarrier returns canned rates and is useful for development without carrier credentials.
type MockCarrier struct{}

// Rates returns two fixed international services regardless of the request.
func (MockCarrier) Rates(_ context.Context, req CarrierRateRequest) ([]Rate, error) {
	weight := 0.0
	for _, p := range req.PrepareData.Shipment.Parcels {
		weight += WeightToKg(p.Weight.Value, WeightUnit(p.Weight.Unit))
	}
	return []Rate{
		{
			ShipperAccount: ShipperAccount{ID: "mock-dhl", Slug: "dhl", Description: "DHL Express"},
			ServiceType:    "dhl_express_worldwide",
			ServiceName:    "DHL Express Worldwide",
			ChargeWeight:   &Weight{Value: weight, Unit: string(WeightKg)},
			TotalCharge:    &Money{Amount: 1450, Currency: "THB"},
			TransitTime:    json.RawMessage("3"),
		},
		{
			ShipperAccount: ShipperAccount{ID: "mock-fedex", Slug: "fedex", Description: "FedEx"},
			ServiceType:    "fedex_international_economy",
			ServiceName:    "FedEx International Economy",
			ChargeWeight:   &Weight{Value: weight, Unit: string(WeightKg)},
			TotalCharge:    &Money{Amount: 1190, Currency: "THB"},
			TransitTime:    json.RawMessage("5"),
		},
	}, nil
}
