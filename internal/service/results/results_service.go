package results

import (
	"context"
	"errors"
	"fmt"

	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/domain/dto"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/logger"
	"github.com/ougirez/boptest/internal/pkg/store"
	"golang.org/x/sync/errgroup"
)

type FacetUpserter interface {
	Upsert(ctx context.Context, in domain.FacetInput) (*domain.ResultFacet, error)
}

type Options struct {
	PageSize          int
	MaxPageSize       int
	IngestConcurrency int
}

type Service struct {
	store  store.ResultStore
	facets FacetUpserter
	opts   Options
}

func NewResultsService(store store.ResultStore, facets FacetUpserter, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.MaxPageSize < opts.PageSize {
		opts.MaxPageSize = opts.PageSize
	}
	if opts.IngestConcurrency <= 0 {
		opts.IngestConcurrency = 1
	}
	return &Service{store: store, facets: facets, opts: opts}
}

const (
	OutcomeCreated = "created"
	OutcomeFailed  = "failed"
)

// Outcome reports what happened to one submitted result.
type Outcome struct {
	UID    string `json:"uid"`
	Status string `json:"status"`
	ID     int64  `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CreateResults stores every payload and folds it into its building type's
// facet. Payloads are independent: one failing does not stop the rest.
func (s *Service) CreateResults(ctx context.Context, account domain.Account, payloads []*dto.ResultPayload) []Outcome {
	outcomes := make([]Outcome, len(payloads))

	var eg errgroup.Group
	eg.SetLimit(s.opts.IngestConcurrency)
	for i, payload := range payloads {
		i, payload := i, payload
		eg.Go(func() error {
			outcome := Outcome{UID: payload.UID, Status: OutcomeCreated}
			id, err := s.createResult(ctx, account, payload)
			if err != nil {
				logger.Errorf(ctx, "create result %s: %s", payload.UID, err.Error())
				outcome.Status = OutcomeFailed
				outcome.Error = err.Error()
			}
			outcome.ID = id
			outcomes[i] = outcome
			return nil
		})
	}
	_ = eg.Wait()

	return outcomes
}

func (s *Service) createResult(ctx context.Context, account domain.Account, payload *dto.ResultPayload) (int64, error) {
	doc, err := s.store.CreateResult(ctx, payload.ToDocument(account.ID, account.DisplayName))
	if err != nil {
		return 0, err
	}

	facet, err := s.facets.Upsert(ctx, payload.FacetInput())
	if err != nil {
		return doc.NumericID, fmt.Errorf("result %s stored but facet not updated: %w", payload.UID, err)
	}

	logger.Debugf(ctx, "result %s stored as %d, facet %s has %d tags", payload.UID, doc.NumericID, facet.BuildingTypeUID, len(facet.Tags))
	return doc.NumericID, nil
}

func (s *Service) pageLimit(limit int) int {
	if limit <= 0 {
		return s.opts.PageSize
	}
	if limit > s.opts.MaxPageSize {
		return s.opts.MaxPageSize
	}
	return limit
}

func (s *Service) listPage(ctx context.Context, query store.ResultQuery) (*domain.ResultsPage, error) {
	query.Limit = s.pageLimit(query.Limit)

	page, err := s.store.QueryResults(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}

	results := make([]*domain.Result, 0, len(page.Documents))
	for _, doc := range page.Documents {
		results = append(results, domain.NewResult(doc))
	}
	return &domain.ResultsPage{
		Results: results,
		PageInfo: domain.PageInfo{
			HasNext:    page.HasNext,
			NextCursor: page.NextCursor,
		},
	}, nil
}

// ListShared returns one page of results their owners chose to share.
func (s *Service) ListShared(ctx context.Context, filter domain.ResultFilter, cursor *int64, limit int) (*domain.ResultsPage, error) {
	return s.listPage(ctx, store.ResultQuery{
		Filter:     filter,
		SharedOnly: true,
		Cursor:     cursor,
		Limit:      limit,
	})
}

// ListForAccount returns one page of the account's own results, shared or not.
func (s *Service) ListForAccount(ctx context.Context, accountID int64, filter domain.ResultFilter, cursor *int64, limit int) (*domain.ResultsPage, error) {
	return s.listPage(ctx, store.ResultQuery{
		Filter:    filter,
		AccountID: &accountID,
		Cursor:    cursor,
		Limit:     limit,
	})
}

func (s *Service) GetShared(ctx context.Context, uid string) (*domain.Result, error) {
	doc, err := s.store.FindResultByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("find result %s: %w", uid, err)
	}
	if doc.Data.Deleted || !doc.Data.IsShared {
		return nil, fmt.Errorf("result %s: %w", uid, constants.ErrDBNotFound)
	}
	return domain.NewResult(doc), nil
}

func (s *Service) ownedResult(ctx context.Context, id int64, accountID int64) (*domain.Document[domain.ResultDocument], error) {
	doc, err := s.store.FindResultByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find result %d: %w", id, err)
	}
	if doc.Data.Deleted {
		return nil, fmt.Errorf("result %d: %w", id, constants.ErrDBNotFound)
	}
	if doc.Data.AccountID != accountID {
		return nil, fmt.Errorf("result %d: %w", id, constants.ErrForbidden)
	}
	return doc, nil
}

func (s *Service) ToggleShared(ctx context.Context, id int64, share bool, accountID int64) (*domain.Result, error) {
	doc, err := s.ownedResult(ctx, id, accountID)
	if err != nil {
		return nil, err
	}

	doc.Data.IsShared = share
	updated, err := s.store.ReplaceResult(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("replace result %d: %w", id, err)
	}
	return domain.NewResult(updated), nil
}

// DeleteResult removes the account's result. The facet keeps the values the
// result contributed; facets never shrink.
func (s *Service) DeleteResult(ctx context.Context, id int64, accountID int64) error {
	doc, err := s.ownedResult(ctx, id, accountID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteResult(ctx, doc.DocID); err != nil && !errors.Is(err, constants.ErrDBNotFound) {
		return fmt.Errorf("delete result %d: %w", id, err)
	}
	return nil
}
