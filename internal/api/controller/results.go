package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/domain/dto"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/service/results"
)

type listParams struct {
	filter domain.ResultFilter
	cursor *int64
	limit  int
}

func parseListParams(ctx echo.Context) (listParams, error) {
	query := ctx.QueryParams()

	filter, err := domain.ParseResultFilter(query)
	if err != nil {
		return listParams{}, err
	}
	p := listParams{filter: filter}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return listParams{}, fmt.Errorf("%w: limit=%q", constants.ErrBadRequest, raw)
		}
		p.limit = limit
	}
	if raw := query.Get("cursor"); raw != "" {
		cursor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return listParams{}, fmt.Errorf("%w: cursor=%q", constants.ErrBadRequest, raw)
		}
		p.cursor = &cursor
	}
	return p, nil
}

func (c *Controller) CreateResults(ctx echo.Context) error {
	acc, err := account(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateResultsRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	outcomes := c.results.CreateResults(ctx.Request().Context(), acc, req.Results)

	status := http.StatusCreated
	for _, o := range outcomes {
		if o.Status == results.OutcomeFailed {
			status = http.StatusMultiStatus
			break
		}
	}
	return ctx.JSON(status, map[string][]results.Outcome{"results": outcomes})
}

func (c *Controller) ListSharedResults(ctx echo.Context) error {
	p, err := parseListParams(ctx)
	if err != nil {
		return err
	}

	page, err := c.results.ListShared(ctx.Request().Context(), p.filter, p.cursor, p.limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (c *Controller) ListMyResults(ctx echo.Context) error {
	acc, err := account(ctx)
	if err != nil {
		return err
	}
	p, err := parseListParams(ctx)
	if err != nil {
		return err
	}

	page, err := c.results.ListForAccount(ctx.Request().Context(), acc.ID, p.filter, p.cursor, p.limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (c *Controller) GetResult(ctx echo.Context) error {
	result, err := c.results.GetShared(ctx.Request().Context(), ctx.Param("uid"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, result)
}

func (c *Controller) GetSignatureDetails(ctx echo.Context) error {
	details, err := c.results.SignatureDetails(ctx.Request().Context(), ctx.Param("uid"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, details)
}

func (c *Controller) ToggleShare(ctx echo.Context) error {
	acc, err := account(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	var req dto.ToggleShareRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	result, err := c.results.ToggleShared(ctx.Request().Context(), id, *req.Share, acc.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, result)
}

func (c *Controller) DeleteResult(ctx echo.Context) error {
	acc, err := account(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	if err := c.results.DeleteResult(ctx.Request().Context(), id, acc.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
