package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ougirez/boptest/internal/domain"
	"github.com/redis/go-redis/v9"
)

const facetsKey = "boptest:result_facets"

// FacetCache holds the full facet list between upserts.
type FacetCache interface {
	GetFacets(ctx context.Context) ([]*domain.ResultFacet, bool, error)
	SetFacets(ctx context.Context, facets []*domain.ResultFacet) error
	Invalidate(ctx context.Context) error
}

type redisFacetCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisFacetCache(client redis.UniversalClient, ttl time.Duration) FacetCache {
	return &redisFacetCache{client: client, ttl: ttl}
}

func (c *redisFacetCache) GetFacets(ctx context.Context) ([]*domain.ResultFacet, bool, error) {
	raw, err := c.client.Get(ctx, facetsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", facetsKey, err)
	}

	var facets []*domain.ResultFacet
	if err := sonic.Unmarshal(raw, &facets); err != nil {
		return nil, false, fmt.Errorf("decode cached facets: %w", err)
	}
	return facets, true, nil
}

func (c *redisFacetCache) SetFacets(ctx context.Context, facets []*domain.ResultFacet) error {
	raw, err := sonic.Marshal(facets)
	if err != nil {
		return fmt.Errorf("encode facets: %w", err)
	}
	if err := c.client.Set(ctx, facetsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", facetsKey, err)
	}
	return nil
}

func (c *redisFacetCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, facetsKey).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", facetsKey, err)
	}
	return nil
}

type nopFacetCache struct{}

// NewNopFacetCache is used when no redis is configured.
func NewNopFacetCache() FacetCache {
	return nopFacetCache{}
}

func (nopFacetCache) GetFacets(context.Context) ([]*domain.ResultFacet, bool, error) {
	return nil, false, nil
}

func (nopFacetCache) SetFacets(context.Context, []*domain.ResultFacet) error { return nil }

func (nopFacetCache) Invalidate(context.Context) error { return nil }
