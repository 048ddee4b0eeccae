package controller

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/domain/dto"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/service/results"
)

type ResultsService interface {
	CreateResults(ctx context.Context, account domain.Account, payloads []*dto.ResultPayload) []results.Outcome
	ListShared(ctx context.Context, filter domain.ResultFilter, cursor *int64, limit int) (*domain.ResultsPage, error)
	ListForAccount(ctx context.Context, accountID int64, filter domain.ResultFilter, cursor *int64, limit int) (*domain.ResultsPage, error)
	GetShared(ctx context.Context, uid string) (*domain.Result, error)
	SignatureDetails(ctx context.Context, uid string) (*domain.SignatureDetails, error)
	ToggleShared(ctx context.Context, id int64, share bool, accountID int64) (*domain.Result, error)
	DeleteResult(ctx context.Context, id int64, accountID int64) error
}

type FacetsService interface {
	List(ctx context.Context) ([]*domain.ResultFacet, error)
	Get(ctx context.Context, buildingTypeUID string) (*domain.ResultFacet, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Controller struct {
	results ResultsService
	facets  FacetsService
	db      Pinger
}

func NewController(results ResultsService, facets FacetsService, db Pinger) *Controller {
	return &Controller{results: results, facets: facets, db: db}
}

// account reads the caller set by the auth middleware.
func account(ctx echo.Context) (domain.Account, error) {
	id, ok := ctx.Get(constants.CtxKeyAccountID).(int64)
	if !ok || id == 0 {
		return domain.Account{}, constants.ErrUnauthorized
	}
	name, _ := ctx.Get(constants.CtxKeyAccountName).(string)
	return domain.Account{ID: id, DisplayName: name}, nil
}

func paramID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, constants.ErrBadRequest
	}
	return id, nil
}
