package facets

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/pkg/cache"
	"github.com/ougirez/boptest/internal/pkg/constants"
)

type countingCache struct {
	mu          sync.Mutex
	facets      []*domain.ResultFacet
	has         bool
	invalidated int
}

func (c *countingCache) GetFacets(context.Context) ([]*domain.ResultFacet, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facets, c.has, nil
}

func (c *countingCache) SetFacets(_ context.Context, facets []*domain.ResultFacet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.facets, c.has = facets, true
	return nil
}

func (c *countingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.facets, c.has = nil, false
	c.invalidated++
	return nil
}

var _ cache.FacetCache = (*countingCache)(nil)

func input(uid string, scenario map[string]any, tags ...any) domain.FacetInput {
	return domain.NewFacetInput(uid, "Building "+uid, scenario, tags, "")
}

func TestUpsertCreatesThenMerges(t *testing.T) {
	ctx := context.Background()
	svc := NewFacetsService(newMemFacetStore(), cache.NewNopFacetCache())

	first, err := svc.Upsert(ctx, input("bt-1", map[string]any{"timePeriod": []any{"cooling peak"}}, "a"))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if want := map[string][]string{"timePeriod": {"cooling peak"}}; !reflect.DeepEqual(first.Scenario, want) {
		t.Fatalf("first scenario: want=%v got=%v", want, first.Scenario)
	}
	if want := []string{"a"}; !reflect.DeepEqual(first.Tags, want) {
		t.Fatalf("first tags: want=%v got=%v", want, first.Tags)
	}

	second, err := svc.Upsert(ctx, input("bt-1", map[string]any{"timePeriod": []any{"heating peak"}}, "b"))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if want := map[string][]string{"timePeriod": {"cooling peak", "heating peak"}}; !reflect.DeepEqual(second.Scenario, want) {
		t.Fatalf("second scenario: want=%v got=%v", want, second.Scenario)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(second.Tags, want) {
		t.Fatalf("second tags: want=%v got=%v", want, second.Tags)
	}
}

func TestUpsertMergesIntoExistingAggregate(t *testing.T) {
	ctx := context.Background()
	svc := NewFacetsService(newMemFacetStore(), cache.NewNopFacetCache())

	seed := domain.NewFacetInput("buildingType-1", "BIG building", map[string]any{
		"electricityPrice":        []any{"dynamic", "highly dynamic"},
		"timePeriod":              []any{"heating peak", "cooling peak"},
		"temperature_uncertainty": []any{"low", "high"},
	}, []any{"comfort", "optimized"}, "0.1.0")
	if _, err := svc.Upsert(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.Upsert(ctx, domain.NewFacetInput("buildingType-1", "", map[string]any{
		"temperature_uncertainty": []any{"medium"},
		"solar_uncertainty":       "low",
	}, []any{"comfort", "weekend"}, "0.2.0"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	want := &domain.ResultFacet{
		BuildingTypeUID:  "buildingType-1",
		BuildingTypeName: "BIG building",
		Scenario: map[string][]string{
			"electricityPrice":        {"dynamic", "highly dynamic"},
			"timePeriod":              {"cooling peak", "heating peak"},
			"temperature_uncertainty": {"high", "low", "medium"},
			"solar_uncertainty":       {"low"},
		},
		Tags:     []string{"comfort", "optimized", "weekend"},
		Versions: []string{"0.1.0", "0.2.0"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merged facet:\nwant=%+v\ngot=%+v", want, got)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewFacetsService(newMemFacetStore(), cache.NewNopFacetCache())
	in := input("bt-1", map[string]any{"timePeriod": "cooling peak", "seed": 7.0}, "a", "b")

	once, err := svc.Upsert(ctx, in)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	twice, err := svc.Upsert(ctx, in)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("idempotence: want=%+v got=%+v", once, twice)
	}
	if want := []string{"7"}; !reflect.DeepEqual(twice.Scenario["seed"], want) {
		t.Fatalf("seed coerced: want=%v got=%v", want, twice.Scenario["seed"])
	}
}

func TestUpsertConcurrentDisjointTagsAreNotLost(t *testing.T) {
	ctx := context.Background()
	svc := NewFacetsService(newMemFacetStore(), cache.NewNopFacetCache())

	const writers = 32
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag := fmt.Sprintf("t%02d", i)
			if _, err := svc.Upsert(ctx, input("bt-new", map[string]any{"seed": i}, tag)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("upsert: %v", err)
	}

	facet, err := svc.Get(ctx, "bt-new")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(facet.Tags) != writers {
		t.Fatalf("tags: want=%d got=%d (%v)", writers, len(facet.Tags), facet.Tags)
	}
	if len(facet.Scenario["seed"]) != writers {
		t.Fatalf("seed values: want=%d got=%d", writers, len(facet.Scenario["seed"]))
	}
}

func TestUpsertRetriesOnceWhenRowVanishes(t *testing.T) {
	ctx := context.Background()
	mem := newMemFacetStore()
	svc := NewFacetsService(mem, cache.NewNopFacetCache())

	if _, err := svc.Upsert(ctx, input("bt-1", nil, "a")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	mem.calls = nil
	mem.vanishOnLock = 1
	got, err := svc.Upsert(ctx, input("bt-1", nil, "b"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(got.Tags, want) {
		t.Fatalf("tags: want=%v got=%v", want, got.Tags)
	}
	if want := []string{"insert", "lock", "insert", "lock", "replace"}; !reflect.DeepEqual(mem.calls, want) {
		t.Fatalf("calls: want=%v got=%v", want, mem.calls)
	}
}

func TestUpsertFailsWhenRowVanishesTwice(t *testing.T) {
	ctx := context.Background()
	mem := newMemFacetStore()
	svc := NewFacetsService(mem, cache.NewNopFacetCache())

	if _, err := svc.Upsert(ctx, input("bt-1", nil, "a")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	mem.vanishOnLock = 2
	_, err := svc.Upsert(ctx, input("bt-1", nil, "b"))
	if !errors.Is(err, constants.ErrFacetInconsistent) {
		t.Fatalf("want ErrFacetInconsistent, got %v", err)
	}

	facet, err := svc.Get(ctx, "bt-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if want := []string{"a"}; !reflect.DeepEqual(facet.Tags, want) {
		t.Fatalf("tags after failed upsert: want=%v got=%v", want, facet.Tags)
	}
}

func TestUpsertRejectsEmptyUID(t *testing.T) {
	svc := NewFacetsService(newMemFacetStore(), cache.NewNopFacetCache())
	if _, err := svc.Upsert(context.Background(), input("", nil, "a")); !errors.Is(err, constants.ErrBadRequest) {
		t.Fatalf("want ErrBadRequest, got %v", err)
	}
}

func TestListUsesCacheAndUpsertInvalidates(t *testing.T) {
	ctx := context.Background()
	c := &countingCache{}
	svc := NewFacetsService(newMemFacetStore(), c)

	if _, err := svc.Upsert(ctx, input("bt-1", nil, "a")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !c.has {
		t.Fatalf("list should populate cache: len=%d cached=%v", len(list), c.has)
	}

	if _, err := svc.Upsert(ctx, input("bt-2", nil, "b")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if c.has {
		t.Fatalf("upsert should invalidate the cache")
	}
	if c.invalidated != 2 {
		t.Fatalf("invalidations: want=2 got=%d", c.invalidated)
	}

	list, err = svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list after invalidation: want=2 got=%d", len(list))
	}
}

func TestGetMissingFacet(t *testing.T) {
	svc := NewFacetsService(newMemFacetStore(), cache.NewNopFacetCache())
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, constants.ErrDBNotFound) {
		t.Fatalf("want ErrDBNotFound, got %v", err)
	}
}
