package shipping_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shiprate/internal/cache"
	"github.com/noah-isme/shiprate/internal/lock"
	"github.com/noah-isme/shiprate/internal/resilience"
	"github.com/noah-isme/shiprate/internal/shipping"
)

func newCarrier(t *testing.T, handler http.HandlerFunc) shipping.HTTPCarrier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return shipping.HTTPCarrier{
		Endpoint: srv.URL + "/rates",
		APIKey:   "secret",
		Client:   resilience.HTTPClient{Client: srv.Client()},
	}
}

func rateRequest() shipping.CarrierRateRequest {
	shipment, _ := shipping.BuildShipment(form(address("THA", "10110"), address("USA", "94105"), weightParcel(2)))
	return shipping.CarrierRateRequest{PrepareData: shipping.PrepareData{Shipment: shipment}, Type: shipping.ShipmentExport}
}

func TestHTTPCarrierReturnsRates(t *testing.T) {
	var gotKey, gotRequestID string
	var gotBody map[string]any
	carrier := newCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("as-api-key")
		gotRequestID = r.Header.Get("X-Request-Id")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"meta":{"code":200,"message":"OK"},"data":{"rates":[
			{"shipper_account":{"id":"a1","slug":"fedex","description":"FedEx"},
			 "service_type":"fedex_ie","service_name":"FedEx IE",
			 "total_charge":{"amount":1200.5,"currency":"THB"},
			 "transit_time":{"min":3,"max":5}}]}}`))
	})

	rates, err := carrier.Rates(context.Background(), rateRequest())
	require.NoError(t, err)
	require.Len(t, rates, 1)
	require.Equal(t, "fedex", rates[0].ShipperAccount.Slug)
	require.Equal(t, 1200.5, rates[0].TotalCharge.Amount)
	require.JSONEq(t, `{"min":3,"max":5}`, string(rates[0].TransitTime))

	require.Equal(t, "secret", gotKey)
	require.NotEmpty(t, gotRequestID)
	require.Equal(t, "export", gotBody["type"])
	require.Contains(t, gotBody, "preparedata")
}

func TestHTTPCarrierEmptyRates(t *testing.T) {
	carrier := newCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"code":200},"data":{}}`))
	})
	rates, err := carrier.Rates(context.Background(), rateRequest())
	require.NoError(t, err)
	require.NotNil(t, rates)
	require.Empty(t, rates)
}

func TestHTTPCarrierStatusError(t *testing.T) {
	body := `{"meta":{"code":4001,"message":"ship_to.postal_code is invalid"}}`
	carrier := newCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	})

	_, err := carrier.Rates(context.Background(), rateRequest())
	require.ErrorIs(t, err, shipping.ErrCarrierStatus)
	var carrierErr *shipping.CarrierError
	require.True(t, errors.As(err, &carrierErr))
	require.Equal(t, http.StatusBadRequest, carrierErr.StatusCode)
	require.Equal(t, "ship_to.postal_code is invalid", carrierErr.Message)
	require.JSONEq(t, body, string(carrierErr.Body))
}

func TestHTTPCarrierRejectedInBody(t *testing.T) {
	carrier := newCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"code":4104,"message":"Rate not available"},"data":{}}`))
	})

	_, err := carrier.Rates(context.Background(), rateRequest())
	require.ErrorIs(t, err, shipping.ErrCarrierRejected)
	require.Contains(t, err.Error(), "Rate not available")
}

func TestHTTPCarrierMalformedBody(t *testing.T) {
	carrier := newCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})
	_, err := carrier.Rates(context.Background(), rateRequest())
	require.Error(t, err)
	require.False(t, errors.Is(err, shipping.ErrCarrierRejected))
}

func TestHTTPCarrierNotConfigured(t *testing.T) {
	_, err := shipping.HTTPCarrier{}.Rates(context.Background(), rateRequest())
	require.Error(t, err)
}

func TestMockCarrierQuotesTwoServices(t *testing.T) {
	rates, err := shipping.MockCarrier{}.Rates(context.Background(), rateRequest())
	require.NoError(t, err)
	require.Len(t, rates, 2)
	require.Equal(t, 2.0, rates[0].ChargeWeight.Value)
}

func newSlabServer(t *testing.T, calls *int, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.Header.Get("Authorization") != "Bearer slab-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const slabListBody = `{"data":[
	{"min_weight_kg":0,"max_weight_kg":1,"bkk_price":30,"upcountry_price":40},
	{"min_weight_kg":1.001,"max_weight_kg":5,"bkk_price":60,"upcountry_price":80}],"count":2}`

func TestHTTPSlabSource(t *testing.T) {
	var calls int
	srv := newSlabServer(t, &calls, http.StatusOK, slabListBody)
	src := shipping.HTTPSlabSource{Endpoint: srv.URL, APIKey: "slab-key", Client: resilience.HTTPClient{Client: srv.Client()}}

	slabs, err := src.Slabs(context.Background())
	require.NoError(t, err)
	require.Len(t, slabs, 2)
	require.Equal(t, 60.0, slabs[1].RegionACharge)
	require.Equal(t, 80.0, slabs[1].RegionBCharge)
}

func TestHTTPSlabSourceErrors(t *testing.T) {
	var calls int
	failing := newSlabServer(t, &calls, http.StatusInternalServerError, `{}`)
	_, err := shipping.HTTPSlabSource{Endpoint: failing.URL, APIKey: "slab-key", Client: resilience.HTTPClient{Client: failing.Client()}}.Slabs(context.Background())
	require.Error(t, err)

	invalid := newSlabServer(t, &calls, http.StatusOK, `{"data":[{"min_weight_kg":5,"max_weight_kg":1}],"count":1}`)
	_, err = shipping.HTTPSlabSource{Endpoint: invalid.URL, APIKey: "slab-key", Client: resilience.HTTPClient{Client: invalid.Client()}}.Slabs(context.Background())
	require.ErrorIs(t, err, shipping.ErrInvalidSlab)

	_, err = shipping.HTTPSlabSource{}.Slabs(context.Background())
	require.Error(t, err)
}

func TestCachedSlabSourceServesFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	var calls int
	srv := newSlabServer(t, &calls, http.StatusOK, slabListBody)
	src := shipping.CachedSlabSource{
		Source: shipping.HTTPSlabSource{Endpoint: srv.URL, APIKey: "slab-key", Client: resilience.HTTPClient{Client: srv.Client()}},
		Cache:  cache.New(client, "shiprate:", time.Minute),
		Key:    cache.KeySlabTable(srv.URL),
	}

	first, err := src.Slabs(context.Background())
	require.NoError(t, err)
	second, err := src.Slabs(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
	require.True(t, mr.Exists("shiprate:"+cache.KeySlabTable(srv.URL)))

	mr.FastForward(2 * time.Minute)
	_, err = src.Slabs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestCachedSlabSourceDegradesWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = client.Close() }()
	mr.Close()

	remote := []shipping.RateSlab{{MinWeightKg: 0, MaxWeightKg: 1, RegionACharge: 1, RegionBCharge: 2}}
	src := shipping.CachedSlabSource{
		Source: shipping.StaticSlabSource(remote),
		Cache:  cache.New(client, "shiprate:", time.Minute),
		Key:    "slabs:test",
	}
	slabs, err := src.Slabs(context.Background())
	require.NoError(t, err)
	require.Equal(t, remote, slabs)
}

type slowSlabSource struct {
	calls atomic.Int32
	slabs []shipping.RateSlab
}

func (s *slowSlabSource) Slabs(context.Context) ([]shipping.RateSlab, error) {
	s.calls.Add(1)
	time.Sleep(20 * time.Millisecond)
	return s.slabs, nil
}

func TestCachedSlabSourceRefreshesOnceUnderLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	source := &slowSlabSource{slabs: []shipping.RateSlab{{MinWeightKg: 0, MaxWeightKg: 1, RegionACharge: 1, RegionBCharge: 2}}}
	src := shipping.CachedSlabSource{
		Source: source,
		Cache:  cache.New(client, "shiprate:", time.Minute),
		Key:    "slabs:test",
		Lock:   lock.Locker{Client: client, Prefix: "shiprate:", RetryBackoff: 2 * time.Millisecond},
	}

	results := make(chan error, 5)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slabs, err := src.Slabs(context.Background())
			if err == nil && len(slabs) != 1 {
				err = errors.New("unexpected slab count")
			}
			results <- err
		}()
	}
	wg.Wait()
	close(results)
	for err := range results {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), source.calls.Load())
	require.False(t, mr.Exists("shiprate:slabs:test:refresh"))
}

func TestCachedSlabSourceFetchesWhenLockIsHeld(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	require.NoError(t, mr.Set("shiprate:slabs:test:refresh", "stuck"))

	remote := []shipping.RateSlab{{MinWeightKg: 0, MaxWeightKg: 1, RegionACharge: 1, RegionBCharge: 2}}
	src := shipping.CachedSlabSource{
		Source: shipping.StaticSlabSource(remote),
		Cache:  cache.New(client, "shiprate:", time.Minute),
		Key:    "slabs:test",
		Lock:   lock.Locker{Client: client, Prefix: "shiprate:", RetryBackoff: 2 * time.Millisecond, Wait: 10 * time.Millisecond},
	}
	slabs, err := src.Slabs(context.Background())
	require.NoError(t, err)
	require.Equal(t, remote, slabs)
	require.True(t, mr.Exists("shiprate:slabs:test"))
}
