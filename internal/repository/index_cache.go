package repository

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/metrics"
)

// IndexCache answers control number lookups from an LRU in front of the
// remittance records table. Only known numbers are cached: a number that is
// unknown now may be stored by a later remittance.
type IndexCache struct {
	repo  *RemittanceRepo
	cache *expirable.LRU[string, struct{}]
}

// NewIndexCache creates a cache holding up to size control numbers for ttl.
// A zero ttl keeps entries until evicted.
func NewIndexCache(repo *RemittanceRepo, size int, ttl time.Duration) *IndexCache {
	return &IndexCache{
		repo:  repo,
		cache: expirable.NewLRU[string, struct{}](size, nil, ttl),
	}
}

func (c *IndexCache) Known(ctx context.Context, tenant string, controlNumbers []string) (domain.ControlSet, error) {
	known := domain.NewControlSet()
	var missing []string
	for _, cn := range controlNumbers {
		if _, ok := c.cache.Get(cacheKey(tenant, cn)); ok {
			metrics.IndexCacheHits.Inc()
			known[cn] = struct{}{}
			continue
		}
		metrics.IndexCacheMisses.Inc()
		missing = append(missing, cn)
	}
	if len(missing) == 0 {
		return known, nil
	}

	found, err := c.repo.KnownControlNumbers(ctx, tenant, missing)
	if err != nil {
		return nil, err
	}
	for cn := range found {
		c.cache.Add(cacheKey(tenant, cn), struct{}{})
		known[cn] = struct{}{}
	}
	return known, nil
}

// Len reports the number of cached entries.
func (c *IndexCache) Len() int { return c.cache.Len() }

func cacheKey(tenant, controlNumber string) string {
	return tenant + "|" + controlNumber
}
