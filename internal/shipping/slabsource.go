package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SlabSource loads the domestic rate card.
type SlabSource interface {
	Slabs(ctx context.Context) ([]RateSlab, error)
}

type slabListResponse struct {
	Data  []RateSlab `json:"data"`
	Count int        `json:"count"`
}

// HTTPSlabSource fetches the rate card from the back-office API.
type HTTPSlabSource struct {
	Endpoint string
	APIKey   string
	Client   Doer
}

// Slabs fetches and validates the remote slab list.
func (s HTTPSlabSource) Slabs(ctx context.Context) ([]RateSlab, error) {
	if s.Client == nil || strings.TrimSpace(s.Endpoint) == "" {
		return nil, errors.New("slab source not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if key := strings.TrimSpace(s.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := s.Client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("slab list: unexpected status %d", resp.StatusCode)
	}
	var parsed slabListResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCarrierBody)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode slab list: %w", err)
	}
	if err := ValidateSlabs(parsed.Data); err != nil {
		return nil, err
	}
	return parsed.Data, nil
}

type jsonCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
}

type refreshLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

const slabRefreshLockTTL = 10 * time.Second

// CachedSlabSource serves the rate card from cache and refreshes it from
// Source on a miss. When Lock is set only one caller refreshes at a time and
// the others pick up its result. Cache and lock failures degrade to a direct
// fetch.
type CachedSlabSource struct {
	Source SlabSource
	Cache  jsonCache
	Key    string
	Lock   refreshLocker
	Logger *zerolog.Logger
}

// Slabs returns the cached table or loads and caches a fresh one.
func (c CachedSlabSource) Slabs(ctx context.Context) ([]RateSlab, error) {
	if c.Source == nil {
		return nil, errors.New("slab source not configured")
	}
	if c.Cache == nil || c.Key == "" {
		return c.Source.Slabs(ctx)
	}
	if slabs, ok := c.cached(ctx); ok {
		return slabs, nil
	}
	if c.Lock == nil {
		return c.refresh(ctx)
	}

	var (
		slabs    []RateSlab
		fetchErr error
		fetched  bool
	)
	lockErr := c.Lock.WithLock(ctx, c.Key+":refresh", slabRefreshLockTTL, func(ctx context.Context) error {
		fetched = true
		if cached, ok := c.cached(ctx); ok {
			slabs = cached
			return nil
		}
		slabs, fetchErr = c.refresh(ctx)
		return fetchErr
	})
	if fetched {
		return slabs, fetchErr
	}
	c.logger().Warn().Err(lockErr).Str("key", c.Key).Msg("slab_refresh_lock_failed")
	if cached, ok := c.cached(ctx); ok {
		return cached, nil
	}
	return c.refresh(ctx)
}

func (c CachedSlabSource) cached(ctx context.Context) ([]RateSlab, bool) {
	var cached []RateSlab
	found, err := c.Cache.GetJSON(ctx, c.Key, &cached)
	if err != nil {
		c.logger().Warn().Err(err).Str("key", c.Key).Msg("slab_cache_read_failed")
		return nil, false
	}
	return cached, found && len(cached) > 0
}

func (c CachedSlabSource) refresh(ctx context.Context) ([]RateSlab, error) {
	slabs, err := c.Source.Slabs(ctx)
	if err != nil {
		return nil, err
	}
	if len(slabs) > 0 {
		if err := c.Cache.SetJSON(ctx, c.Key, slabs); err != nil {
			c.logger().Warn().Err(err).Str("key", c.Key).Msg("slab_cache_write_failed")
		}
	}
	return slabs, nil
}

func (c CachedSlabSource) logger() *zerolog.Logger {
	if c.Logger == nil {
		return &resolverNopLogger
	}
	return c.Logger
}

// StaticSlabSource serves a fixed table, typically loaded from a file.
type StaticSlabSource []RateSlab

// Slabs returns a copy of the table.
func (s StaticSlabSource) Slabs(context.Context) ([]RateSlab, error) {
	out := make([]RateSlab, len(s))
	copy(out, s)
	return out, nil
}
