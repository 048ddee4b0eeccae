package store

import (
	"context"
	"errors"
	"sort"

	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/store/xpgx"
)

const facetKeyField = "buildingTypeUid"

// insertFacetIfAbsent relies on documents_result_facets_uid_idx.
const insertFacetIfAbsent = `ON CONFLICT ((data ->> 'buildingTypeUid')) WHERE collection = 'resultFacets' DO NOTHING`

// FacetTx is the unit of work the facet upsert runs in. Everything done
// through one FacetTx commits or rolls back together.
type FacetTx interface {
	// InsertFacet stores facet unless an aggregate for its building type
	// already exists, in which case it returns (nil, false, nil).
	InsertFacet(ctx context.Context, facet *domain.ResultFacet) (*domain.Document[domain.ResultFacet], bool, error)
	// LockFacet reads the aggregate and holds a row lock on it until the
	// transaction ends. constants.ErrDBNotFound when it does not exist.
	LockFacet(ctx context.Context, buildingTypeUID string) (*domain.Document[domain.ResultFacet], error)
	ReplaceFacet(ctx context.Context, docID string, facet *domain.ResultFacet) (*domain.Document[domain.ResultFacet], error)
}

type FacetStore interface {
	InFacetTx(ctx context.Context, fn func(tx FacetTx) error) error
	ListFacets(ctx context.Context) ([]*domain.ResultFacet, error)
	GetFacet(ctx context.Context, buildingTypeUID string) (*domain.ResultFacet, error)
}

type facetTx struct {
	tx xpgx.Tx
}

func (s *store) InFacetTx(ctx context.Context, fn func(tx FacetTx) error) error {
	return s.pool.InTx(ctx, func(tx xpgx.Tx) error {
		return fn(&facetTx{tx: tx})
	})
}

func (f *facetTx) InsertFacet(ctx context.Context, facet *domain.ResultFacet) (*domain.Document[domain.ResultFacet], bool, error) {
	doc, err := insertDocument(ctx, f.tx, domain.CollectionResultFacets, *facet, insertFacetIfAbsent)
	if errors.Is(err, constants.ErrDBNotFound) {
		// DO NOTHING returned no row: the aggregate is already there
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	doc.Data.Normalize()
	return doc, true, nil
}

func (f *facetTx) LockFacet(ctx context.Context, buildingTypeUID string) (*domain.Document[domain.ResultFacet], error) {
	query := selectDocuments(domain.CollectionResultFacets).
		Where(fieldEq(facetKeyField, buildingTypeUID)).
		Limit(1).
		Suffix("FOR UPDATE")

	doc, err := getDocument[domain.ResultFacet](ctx, f.tx, query)
	if err != nil {
		return nil, err
	}
	doc.Data.Normalize()
	return doc, nil
}

func (f *facetTx) ReplaceFacet(ctx context.Context, docID string, facet *domain.ResultFacet) (*domain.Document[domain.ResultFacet], error) {
	doc, err := replaceDocument(ctx, f.tx, domain.CollectionResultFacets, docID, *facet)
	if err != nil {
		return nil, err
	}
	doc.Data.Normalize()
	return doc, nil
}

func (s *store) ListFacets(ctx context.Context) ([]*domain.ResultFacet, error) {
	docs, err := selectDocumentsx[domain.ResultFacet](ctx, s.pool, selectDocuments(domain.CollectionResultFacets))
	if err != nil {
		return nil, err
	}

	facets := make([]*domain.ResultFacet, 0, len(docs))
	for _, doc := range docs {
		facet := doc.Data
		facets = append(facets, facet.Normalize())
	}
	sort.SliceStable(facets, func(i, j int) bool {
		if facets[i].BuildingTypeName != facets[j].BuildingTypeName {
			return facets[i].BuildingTypeName < facets[j].BuildingTypeName
		}
		return facets[i].BuildingTypeUID < facets[j].BuildingTypeUID
	})
	return facets, nil
}

func (s *store) GetFacet(ctx context.Context, buildingTypeUID string) (*domain.ResultFacet, error) {
	query := selectDocuments(domain.CollectionResultFacets).
		Where(fieldEq(facetKeyField, buildingTypeUID)).
		Limit(1)

	doc, err := getDocument[domain.ResultFacet](ctx, s.pool, query)
	if err != nil {
		return nil, err
	}
	return doc.Data.Normalize(), nil
}
