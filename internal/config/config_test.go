package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shiprate/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{})
	require.NoError(t, err)

	require.True(t, cfg.IsDevelopment())
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "THA", cfg.Shipping.HomeCountry)
	require.Equal(t, "THB", cfg.Shipping.Currency)
	require.Equal(t, "thailand-post", cfg.Shipping.SyntheticSlug)
	require.Equal(t, 35.0, cfg.Shipping.SyntheticMaxWeightKg)
	require.Equal(t, 10*time.Minute, cfg.Shipping.SlabCacheTTL)
	require.Equal(t, 1, cfg.Carrier.MaxAttempts)
	require.Equal(t, 15*time.Second, cfg.Carrier.Timeout)
	require.Equal(t, int64(1<<20), cfg.BodyLimitBytes)
	require.True(t, cfg.Obs.MetricsEnabled)
	require.False(t, cfg.Obs.TracingEnabled)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"APP_ENV":                          "production",
		"PORT":                             ":9000",
		"CORS_ALLOWED_ORIGINS":             "https://a.example, https://b.example,",
		"SHIPPING_CARRIER_RATES_URL":       "https://carrier.example/rates",
		"SHIPPING_HOME_COUNTRY":            "sgp",
		"SHIPPING_SYNTHETIC_MAX_WEIGHT_KG": "30.5",
		"CARRIER_MAX_ATTEMPTS":             "0",
		"CARRIER_HTTP_TIMEOUT":             "bogus",
		"OBS_ENABLE_PROMETHEUS":            "off",
	})
	require.NoError(t, err)

	require.False(t, cfg.IsDevelopment())
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, "SGP", cfg.Shipping.HomeCountry)
	require.Equal(t, 30.5, cfg.Shipping.SyntheticMaxWeightKg)
	require.Equal(t, 1, cfg.Carrier.MaxAttempts)
	require.Equal(t, 15*time.Second, cfg.Carrier.Timeout)
	require.False(t, cfg.Obs.MetricsEnabled)
}

func TestLoadRequiresCarrierOutsideDevelopment(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"APP_ENV": "production"})
	require.ErrorContains(t, err, "SHIPPING_CARRIER_RATES_URL")
}

func TestLoadRejectsBadShippingSettings(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"SHIPPING_SYNTHETIC_MAX_WEIGHT_KG": "-1"})
	require.Error(t, err)

	_, err = config.LoadForTests(map[string]string{"SHIPPING_HOME_COUNTRY": "TH"})
	require.Error(t, err)
}
