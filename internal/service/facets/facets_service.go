package facets

import (
	"context"
	"errors"
	"fmt"

	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/pkg/cache"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/logger"
	"github.com/ougirez/boptest/internal/pkg/store"
)

// insert, then at most one re-insert after the row vanished under us
const upsertAttempts = 2

type Service struct {
	store store.FacetStore
	cache cache.FacetCache
}

func NewFacetsService(store store.FacetStore, cache cache.FacetCache) *Service {
	return &Service{store: store, cache: cache}
}

// Upsert merges in into the building type's aggregate, creating it when
// absent, and returns the merged facet. Concurrent upserts for one building
// type serialize on the aggregate's row lock.
func (s *Service) Upsert(ctx context.Context, in domain.FacetInput) (*domain.ResultFacet, error) {
	if in.BuildingTypeUID == "" {
		return nil, fmt.Errorf("%w: empty building type uid", constants.ErrBadRequest)
	}

	var merged *domain.ResultFacet
	err := s.store.InFacetTx(ctx, func(tx store.FacetTx) error {
		for attempt := 0; attempt < upsertAttempts; attempt++ {
			created, inserted, err := tx.InsertFacet(ctx, domain.NewResultFacet(in))
			if err != nil {
				return fmt.Errorf("insert facet: %w", err)
			}
			if inserted {
				merged = &created.Data
				return nil
			}

			existing, err := tx.LockFacet(ctx, in.BuildingTypeUID)
			if errors.Is(err, constants.ErrDBNotFound) {
				logger.Warnf(ctx, "facet %s disappeared before it could be locked, attempt %d", in.BuildingTypeUID, attempt+1)
				continue
			}
			if err != nil {
				return fmt.Errorf("lock facet: %w", err)
			}

			updated, err := tx.ReplaceFacet(ctx, existing.DocID, existing.Data.Merge(in))
			if err != nil {
				return fmt.Errorf("replace facet: %w", err)
			}
			merged = &updated.Data
			return nil
		}

		return fmt.Errorf("facet %s: %w", in.BuildingTypeUID, constants.ErrFacetInconsistent)
	})
	if err != nil {
		logger.Errorf(ctx, "upsert facet %s: %s", in.BuildingTypeUID, err.Error())
		return nil, fmt.Errorf("upsert facet: %w", err)
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warnf(ctx, "invalidate facet cache: %s", err.Error())
	}

	return merged, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.ResultFacet, error) {
	cached, ok, err := s.cache.GetFacets(ctx)
	if err != nil {
		logger.Warnf(ctx, "read facet cache: %s", err.Error())
	}
	if ok {
		return cached, nil
	}

	facets, err := s.store.ListFacets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list facets: %w", err)
	}

	if err := s.cache.SetFacets(ctx, facets); err != nil {
		logger.Warnf(ctx, "write facet cache: %s", err.Error())
	}
	return facets, nil
}

func (s *Service) Get(ctx context.Context, buildingTypeUID string) (*domain.ResultFacet, error) {
	facet, err := s.store.GetFacet(ctx, buildingTypeUID)
	if err != nil {
		return nil, fmt.Errorf("get facet %s: %w", buildingTypeUID, err)
	}
	return facet, nil
}
