package fx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/logging"
)

const (
	DefaultTTL         = time.Hour
	DefaultFallbackTTL = 5 * time.Minute
	rateScale          = 6
)

type RateSource interface {
	LatestRates(ctx context.Context, base domain.Currency) (map[string]decimal.Decimal, error)
}

type Quote struct {
	From     domain.Currency
	To       domain.Currency
	Rate     decimal.Decimal
	Expiry   time.Time
	Fallback bool
}

type cacheEntry struct {
	rate      decimal.Decimal
	fetchedAt time.Time
	expiry    time.Time
}

// RateCache serves exchange rates from memory, refreshing a pair from the
// upstream source once its entry is older than the TTL. Entries are never
// evicted.
type RateCache struct {
	source      RateSource
	ttl         time.Duration
	fallbackTTL time.Duration
	now         func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

func NewRateCache(source RateSource, ttl, fallbackTTL time.Duration, now func() time.Time) *RateCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if fallbackTTL <= 0 {
		fallbackTTL = DefaultFallbackTTL
	}
	if now == nil {
		now = time.Now
	}
	return &RateCache{
		source:      source,
		ttl:         ttl,
		fallbackTTL: fallbackTTL,
		now:         now,
		entries:     make(map[string]cacheEntry),
	}
}

// GetRate never fails on upstream trouble: a failed refresh yields the static
// fallback rate, which is not cached.
func (c *RateCache) GetRate(ctx context.Context, from, to domain.Currency) (*Quote, error) {
	if !from.IsValid() || !to.IsValid() {
		return nil, fmt.Errorf("GetRate: invalid currency pair %s/%s: %w", from, to, domain.ErrInvalidCurrency)
	}

	if from == to {
		return &Quote{From: from, To: to, Rate: decimal.NewFromInt(1), Expiry: c.now().Add(c.ttl)}, nil
	}

	key := pairKey(from, to)
	if q, ok := c.lookup(key, from, to); ok {
		return q, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have refreshed the pair while we waited to lead.
		if q, ok := c.lookup(key, from, to); ok {
			return q, nil
		}
		return c.refresh(ctx, key, from, to)
	})
	if err != nil {
		logging.FromContext(ctx).Warn("exchange rate refresh failed, using fallback",
			"pair", key,
			"error", err,
		)
		return &Quote{
			From:     from,
			To:       to,
			Rate:     FallbackRate(from, to).Round(rateScale),
			Expiry:   c.now().Add(c.fallbackTTL),
			Fallback: true,
		}, nil
	}

	q := *v.(*Quote)
	return &q, nil
}

func (c *RateCache) lookup(key string, from, to domain.Currency) (*Quote, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	return &Quote{From: from, To: to, Rate: entry.rate, Expiry: entry.expiry}, true
}

func (c *RateCache) refresh(ctx context.Context, key string, from, to domain.Currency) (*Quote, error) {
	rates, err := c.source.LatestRates(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	rate, ok := rates[string(to)]
	if !ok {
		return nil, fmt.Errorf("refresh: no %s rate for base %s: %w", to, from, domain.ErrUpstreamFailure)
	}

	now := c.now()
	entry := cacheEntry{
		rate:      rate.Round(rateScale),
		fetchedAt: now,
		expiry:    now.Add(c.ttl),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	return &Quote{From: from, To: to, Rate: entry.rate, Expiry: entry.expiry}, nil
}
