// Package library reports live book availability at public libraries: a
// gateway to the external availability API and an aggregator that picks
// which libraries to show a user.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"seogaeum/backend/internal/config"
	"seogaeum/backend/internal/metrics"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Availability is the live status of one book at one library. Both fields
// are "Y" or "N".
type Availability struct {
	HasBook       string `json:"hasBook"`
	LoanAvailable string `json:"loanAvailable"`
}

// Unavailable is reported whenever a lookup fails.
var Unavailable = Availability{HasBook: "N", LoanAvailable: "N"}

// ErrMalformedResponse is returned when the API answers without a result.
var ErrMalformedResponse = errors.New("library api: malformed response")

// Cache stores lookup results between requests. Cache errors never fail a
// lookup.
type Cache interface {
	GetCached(ctx context.Context, key string) ([]byte, bool, error)
	SetCached(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Gateway calls the data4library "bookExist" endpoint.
type Gateway struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	timeout  time.Duration
	cacheTTL time.Duration
	limiter  *rate.Limiter
	cache    Cache
	logger   *zap.Logger
}

// NewGateway builds a gateway from configuration. cache may be nil.
func NewGateway(cfg config.LibraryConfig, cache Cache, logger *zap.Logger) *Gateway {
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = config.DefaultLookupTimeout
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Gateway{
		client:   &http.Client{},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		cacheTTL: cfg.CacheTTL,
		limiter:  rate.NewLimiter(limit, burst),
		cache:    cache,
		logger:   logger,
	}
}

type bookExistResponse struct {
	Response struct {
		Error  string `json:"error"`
		Result *struct {
			HasBook       string `json:"hasBook"`
			LoanAvailable string `json:"loanAvailable"`
		} `json:"result"`
	} `json:"response"`
}

// Lookup asks the API whether libCode holds isbn and whether it can be
// borrowed. The whole call, including waiting for the rate limiter, is
// bounded by the configured timeout.
func (g *Gateway) Lookup(ctx context.Context, libCode, isbn string) (Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	key := cacheKey(libCode, isbn)
	if av, ok := g.fromCache(ctx, key); ok {
		metrics.LibraryLookups.WithLabelValues(metrics.OutcomeCacheHit).Inc()
		return av, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return Availability{}, fmt.Errorf("library api: rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("authKey", g.apiKey)
	q.Set("libCode", libCode)
	q.Set("isbn13", isbn)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/bookExist?"+q.Encode(), nil)
	if err != nil {
		return Availability{}, fmt.Errorf("library api: build request: %w", err)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	metrics.LibraryLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Availability{}, fmt.Errorf("library api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Availability{}, fmt.Errorf("library api: unexpected status %d", resp.StatusCode)
	}

	var body bookExistResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Availability{}, fmt.Errorf("library api: decode: %w", err)
	}
	if body.Response.Error != "" {
		return Availability{}, fmt.Errorf("library api: %s", body.Response.Error)
	}
	if body.Response.Result == nil {
		return Availability{}, ErrMalformedResponse
	}

	av := Availability{
		HasBook:       yesNo(body.Response.Result.HasBook),
		LoanAvailable: yesNo(body.Response.Result.LoanAvailable),
	}
	if av.HasBook == "Y" {
		metrics.LibraryLookups.WithLabelValues(metrics.OutcomeHit).Inc()
	} else {
		metrics.LibraryLookups.WithLabelValues(metrics.OutcomeMiss).Inc()
	}

	g.toCache(ctx, key, av)
	return av, nil
}

// SafeLookup is Lookup with failures degraded to Unavailable.
func (g *Gateway) SafeLookup(ctx context.Context, libCode, isbn string) Availability {
	av, err := g.Lookup(ctx, libCode, isbn)
	if err != nil {
		metrics.LibraryLookups.WithLabelValues(metrics.OutcomeFailure).Inc()
		g.logger.Warn("library lookup failed",
			zap.String("lib_code", libCode),
			zap.String("isbn", isbn),
			zap.Error(err))
		return Unavailable
	}
	return av
}

func (g *Gateway) fromCache(ctx context.Context, key string) (Availability, bool) {
	if g.cache == nil || g.cacheTTL <= 0 {
		return Availability{}, false
	}
	raw, ok, err := g.cache.GetCached(ctx, key)
	if err != nil {
		g.logger.Debug("library cache read failed", zap.String("key", key), zap.Error(err))
		return Availability{}, false
	}
	if !ok {
		return Availability{}, false
	}
	var av Availability
	if err := json.Unmarshal(raw, &av); err != nil {
		return Availability{}, false
	}
	return av, true
}

func (g *Gateway) toCache(ctx context.Context, key string, av Availability) {
	if g.cache == nil || g.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(av)
	if err != nil {
		return
	}
	if err := g.cache.SetCached(ctx, key, raw, g.cacheTTL); err != nil {
		g.logger.Debug("library cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(libCode, isbn string) string {
	return "libstatus:" + libCode + ":" + isbn
}

func yesNo(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), "Y") {
		return "Y"
	}
	return "N"
}
